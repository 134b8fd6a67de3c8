package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/usecase"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// CatalogHandler maneja el CRUD de productos.
type CatalogHandler struct {
	uc *usecase.ProductUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *usecase.ProductUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// Create crea un producto.
func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	product, err := h.uc.Create(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// GetByID obtiene un producto.
func (h *CatalogHandler) GetByID(c *fiber.Ctx) error {
	product, err := h.uc.Resolve(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

// Update actualiza nombre y precio.
func (h *CatalogHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	product, err := h.uc.Update(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

// List lista productos paginado.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "products": list})
}

// Delete elimina un producto si ninguna ficha lo referencia.
func (h *CatalogHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LocationHandler maneja el CRUD del registro de ubicaciones.
type LocationHandler struct {
	uc *usecase.LocationUseCase
}

// NewLocationHandler construye el handler.
func NewLocationHandler(uc *usecase.LocationUseCase) *LocationHandler {
	return &LocationHandler{uc: uc}
}

// Create registra una ubicación (warehouse o store).
func (h *LocationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLocationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	location, err := h.uc.Create(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(location)
}

// GetByRef obtiene una ubicación por (tipo, id).
func (h *LocationHandler) GetByRef(c *fiber.Ctx) error {
	ref := entity.LocationRef{
		Type: entity.LocationType(c.Params("locType")),
		ID:   c.Params("locID"),
	}
	location, err := h.uc.Resolve(ref)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(location)
}

// ListByType lista ubicaciones de un tipo.
func (h *LocationHandler) ListByType(c *fiber.Ctx) error {
	list, err := h.uc.ListByType(entity.LocationType(c.Params("locType")), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "locations": list})
}
