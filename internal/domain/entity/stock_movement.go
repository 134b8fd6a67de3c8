package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementReceipt     = "receipt"      // entrada de mercancía
	MovementIssue       = "issue"        // salida
	MovementCorrection  = "correction"   // ajuste (+/-)
	MovementTransferIn  = "transfer-in"  // entrada por traslado
	MovementTransferOut = "transfer-out" // salida por traslado
)

// ValidMovementKind indica si el tipo es uno de los conocidos.
func ValidMovementKind(kind string) bool {
	switch kind {
	case MovementReceipt, MovementIssue, MovementCorrection,
		MovementTransferIn, MovementTransferOut:
		return true
	}
	return false
}

// StockMovement es un registro de historial inmutable, solo-inserción: el
// rastro de auditoría del ledger. Nunca se actualiza ni se borra.
type StockMovement struct {
	ID            string
	TransactionID string // agrupa los movimientos de una misma transacción (ej. un traslado)
	ProductID     string
	Location      LocationRef
	Kind          string
	Quantity      decimal.Decimal // delta con signo: positivo aumenta, negativo disminuye
	UnitCost      decimal.Decimal
	TotalCost     decimal.Decimal
	Reason        string // texto libre opcional
	CreatedAt     time.Time
}
