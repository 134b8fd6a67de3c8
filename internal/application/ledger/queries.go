package ledger

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// Queries expone la superficie de consulta del ledger para reportes:
// solo lectura, paginada, nunca muta estado.
type Queries struct {
	movementRepo repository.StockMovementRepository
	transferRepo repository.StockTransferRepository
}

// NewQueries construye la superficie de consulta.
func NewQueries(movementRepo repository.StockMovementRepository, transferRepo repository.StockTransferRepository) *Queries {
	return &Queries{movementRepo: movementRepo, transferRepo: transferRepo}
}

// ListMovements lista los movimientos de un producto (opcionalmente acotados
// a una ubicación y a partir de una fecha), ordenados por fecha ascendente.
func (q *Queries) ListMovements(productID string, loc *entity.LocationRef, since *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return q.movementRepo.List(repository.MovementFilter{
		ProductID: productID,
		Location:  loc,
		Since:     since,
		Limit:     limit,
		Offset:    offset,
	})
}

// ListByLocation lista movimientos de una ubicación en un rango de fechas.
func (q *Queries) ListByLocation(loc entity.LocationRef, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return q.movementRepo.ListByLocation(loc, from, to, limit, offset)
}

// GetTransfer devuelve un traslado por id (nil si no existe).
func (q *Queries) GetTransfer(id string) (*entity.StockTransfer, error) {
	return q.transferRepo.GetByID(id)
}

// ListTransfers lista traslados recientes, paginado.
func (q *Queries) ListTransfers(limit, offset int) ([]*entity.StockTransfer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return q.transferRepo.List(limit, offset)
}
