package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// LedgerHandler maneja las peticiones HTTP del ledger: movimientos, traslados
// y consultas de ficha.
type LedgerHandler struct {
	stock     *ledger.StockLedger
	movements *ledger.MovementEngine
	transfers *ledger.TransferEngine
	queries   *ledger.Queries
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(
	stock *ledger.StockLedger,
	movements *ledger.MovementEngine,
	transfers *ledger.TransferEngine,
	queries *ledger.Queries,
) *LedgerHandler {
	return &LedgerHandler{stock: stock, movements: movements, transfers: transfers, queries: queries}
}

func toLocationRef(in dto.LocationRefDTO) entity.LocationRef {
	return entity.LocationRef{Type: entity.LocationType(in.Type), ID: in.ID}
}

func toLocationDTO(ref entity.LocationRef) dto.LocationRefDTO {
	return dto.LocationRefDTO{Type: string(ref.Type), ID: ref.ID}
}

func toMovementResponse(m *entity.StockMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		ProductID:     m.ProductID,
		Location:      toLocationDTO(m.Location),
		Kind:          m.Kind,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		Reason:        m.Reason,
		CreatedAt:     m.CreatedAt,
	}
}

func toTransferResponse(t *entity.StockTransfer) *dto.TransferResponse {
	lines := make([]dto.TransferLineDTO, 0, len(t.Lines))
	for _, ln := range t.Lines {
		lines = append(lines, dto.TransferLineDTO{ProductID: ln.ProductID, Quantity: ln.Quantity})
	}
	return &dto.TransferResponse{
		ID:          t.ID,
		Source:      toLocationDTO(t.Source),
		Destination: toLocationDTO(t.Destination),
		Lines:       lines,
		Status:      t.Status,
		FailReason:  t.FailReason,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
}

// RecordMovement registra un movimiento simple (receipt, issue, correction).
// Los tipos transfer-in/transfer-out son exclusivos del motor de traslados.
func (h *LedgerHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	switch in.Kind {
	case entity.MovementReceipt, entity.MovementIssue, entity.MovementCorrection:
	default:
		return writeError(c, domain.ErrInvalidInput)
	}
	mov, err := h.movements.Record(c.Context(), ledger.MovementInput{
		ProductID: in.ProductID,
		Location:  toLocationRef(in.Location),
		Kind:      in.Kind,
		Quantity:  in.Quantity,
		UnitCost:  in.UnitCost,
		Reason:    in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// ExecuteTransfer ejecuta un traslado multi-línea entre dos ubicaciones.
func (h *LedgerHandler) ExecuteTransfer(c *fiber.Ctx) error {
	var in dto.ExecuteTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]entity.TransferLine, 0, len(in.Lines))
	for _, ln := range in.Lines {
		lines = append(lines, entity.TransferLine{ProductID: ln.ProductID, Quantity: ln.Quantity})
	}
	transfer, err := h.transfers.Execute(c.Context(), toLocationRef(in.Source), toLocationRef(in.Destination), lines)
	if err != nil {
		// Un traslado abortado conserva su registro failed; el error manda el código.
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(transfer))
}

// GetStockItem devuelve la ficha de un (producto, ubicación). 404 distingue
// "nunca almacenado"; una ficha en cero responde 200.
func (h *LedgerHandler) GetStockItem(c *fiber.Ctx) error {
	ref := entity.LocationRef{
		Type: entity.LocationType(c.Params("locType")),
		ID:   c.Params("locID"),
	}
	if !ref.Type.Valid() {
		return writeError(c, domain.ErrInvalidInput)
	}
	item, err := h.stock.Get(c.Params("productID"), ref)
	if err != nil {
		return writeError(c, err)
	}
	if item == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto nunca almacenado en la ubicación"})
	}
	return c.JSON(dto.StockItemResponse{
		ProductID: item.ProductID,
		Location:  toLocationDTO(item.Location),
		Quantity:  item.Quantity,
		UnitCost:  item.UnitCost,
		SalePrice: item.SalePrice,
		Unit:      item.Unit,
		EntryDate: item.EntryDate,
		UpdatedAt: item.UpdatedAt,
	})
}

// ListMovements lista el historial de un producto, fecha ascendente, paginado.
// Query params: location_type+location_id (opcional), since (RFC3339), limit, offset.
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	productID := c.Params("productID")

	var loc *entity.LocationRef
	if lt := c.Query("location_type"); lt != "" {
		ref := entity.LocationRef{Type: entity.LocationType(lt), ID: c.Query("location_id")}
		if !ref.Type.Valid() || ref.ID == "" {
			return writeError(c, domain.ErrInvalidInput)
		}
		loc = &ref
	}

	var since *time.Time
	if s := c.Query("since"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return writeError(c, domain.ErrInvalidInput)
		}
		since = &ts
	}

	list, err := h.queries.ListMovements(productID, loc, since, c.QueryInt("limit", 100), c.QueryInt("offset", 0))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]*dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// GetTransfer devuelve un traslado por id.
func (h *LedgerHandler) GetTransfer(c *fiber.Ctx) error {
	transfer, err := h.queries.GetTransfer(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if transfer == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "traslado no encontrado"})
	}
	return c.JSON(toTransferResponse(transfer))
}

// ListTransfers lista traslados recientes.
func (h *LedgerHandler) ListTransfers(c *fiber.Ctx) error {
	list, err := h.queries.ListTransfers(c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]*dto.TransferResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransferResponse(t))
	}
	return c.JSON(fiber.Map{"total": len(out), "transfers": out})
}
