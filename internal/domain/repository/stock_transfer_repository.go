package repository

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// StockTransferRepository define el puerto de persistencia para traslados.
// El registro de traslado es contabilidad de la unidad de trabajo; la
// atomicidad del ledger vive en la transacción de los movimientos.
type StockTransferRepository interface {
	Create(transfer *entity.StockTransfer) error
	GetByID(id string) (*entity.StockTransfer, error)
	// UpdateStatus marca completed/failed; completedAt solo aplica a completed.
	UpdateStatus(id, status, failReason string, completedAt *time.Time) error
	List(limit, offset int) ([]*entity.StockTransfer, error)
}
