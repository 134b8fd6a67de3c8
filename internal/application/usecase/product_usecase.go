package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para el catálogo. Cost se maneja vía
// movimientos; el borrado está protegido por guarda referencial.
type ProductUseCase struct {
	repo     repository.ProductRepository
	itemRepo repository.StockItemRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, itemRepo repository.StockItemRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, itemRepo: itemRepo}
}

// Create crea un producto nuevo. El SKU se normaliza a mayúsculas y debe ser
// único; Cost inicia en 0.
func (uc *ProductUseCase) Create(in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := entity.NormalizeSKU(in.SKU)
	if sku == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetBySKU(sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.Unit == "" {
		in.Unit = "und"
	}
	now := time.Now()
	product := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       sku,
		Name:      in.Name,
		Unit:      in.Unit,
		Price:     in.Price,
		Cost:      decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Resolve obtiene un producto por ID; ErrUnknownReference si no existe.
func (uc *ProductUseCase) Resolve(id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrUnknownReference
	}
	return toProductResponse(product), nil
}

// Update actualiza nombre y precio. No permite modificar Cost ni SKU.
func (uc *ProductUseCase) Update(id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrUnknownReference
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.Price = *in.Price
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos paginado.
func (uc *ProductUseCase) List(limit, offset int) ([]*dto.ProductResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	products, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

// Delete elimina un producto solo si ninguna ficha de stock lo referencia
// (guarda referencial, no borrado en cascada).
func (uc *ProductUseCase) Delete(id string) error {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrUnknownReference
	}
	referenced, err := uc.itemRepo.ExistsForProduct(id)
	if err != nil {
		return err
	}
	if referenced {
		return domain.ErrConflict
	}
	return uc.repo.Delete(id)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Unit:      p.Unit,
		Price:     p.Price,
		Cost:      p.Cost,
		CreatedAt: p.CreatedAt,
	}
}
