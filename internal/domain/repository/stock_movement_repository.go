package repository

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// MovementFilter acota el listado de movimientos. Location y Since son
// opcionales; ProductID es obligatorio.
type MovementFilter struct {
	ProductID string
	Location  *entity.LocationRef
	Since     *time.Time
	Limit     int
	Offset    int
}

// StockMovementRepository define el puerto de persistencia para el historial
// de movimientos. Solo inserción y lectura: los movimientos son inmutables.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	// List devuelve movimientos ordenados por fecha de creación ascendente
	// (paginado, reiniciable).
	List(filter MovementFilter) ([]*entity.StockMovement, error)
	// ListByLocation lista movimientos de una ubicación en un rango de fechas.
	ListByLocation(loc entity.LocationRef, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
}
