package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un traslado.
const (
	TransferPending   = "pending"
	TransferCompleted = "completed"
	TransferFailed    = "failed"
)

// TransferLine es una línea (producto, cantidad) de un traslado.
type TransferLine struct {
	ProductID string
	Quantity  decimal.Decimal // siempre > 0
}

// StockTransfer agrupa el traslado de uno o más productos entre dos
// ubicaciones como unidad de trabajo todo-o-nada: o se aplican todas las
// líneas (pares transfer-out/transfer-in) o ninguna.
type StockTransfer struct {
	ID          string
	Source      LocationRef
	Destination LocationRef
	Lines       []TransferLine
	Status      string
	FailReason  string // error que disparó el aborto, si Status = failed
	CreatedAt   time.Time
	CompletedAt *time.Time
}
