package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocationRefDTO referencia a una ubicación en el cuerpo de las peticiones.
type LocationRefDTO struct {
	Type string `json:"type"` // warehouse | store
	ID   string `json:"id"`
}

// RecordMovementRequest body para POST /api/ledger/movements.
// Quantity lleva signo; unit_cost es obligatorio en receipt.
type RecordMovementRequest struct {
	ProductID string           `json:"product_id"`
	Location  LocationRefDTO   `json:"location"`
	Kind      string           `json:"kind"` // receipt, issue, correction
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

// MovementResponse representación de salida de un movimiento.
type MovementResponse struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	ProductID     string          `json:"product_id"`
	Location      LocationRefDTO  `json:"location"`
	Kind          string          `json:"kind"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Reason        string          `json:"reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransferLineDTO línea (producto, cantidad) de un traslado.
type TransferLineDTO struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ExecuteTransferRequest body para POST /api/ledger/transfers.
type ExecuteTransferRequest struct {
	Source      LocationRefDTO    `json:"source"`
	Destination LocationRefDTO    `json:"destination"`
	Lines       []TransferLineDTO `json:"lines"`
}

// TransferResponse representación de salida de un traslado.
type TransferResponse struct {
	ID          string            `json:"id"`
	Source      LocationRefDTO    `json:"source"`
	Destination LocationRefDTO    `json:"destination"`
	Lines       []TransferLineDTO `json:"lines"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// StockItemResponse ficha de costo actual de un (producto, ubicación).
type StockItemResponse struct {
	ProductID string          `json:"product_id"`
	Location  LocationRefDTO  `json:"location"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Unit      string          `json:"unit"`
	EntryDate time.Time       `json:"entry_date"`
	UpdatedAt time.Time       `json:"updated_at"`
}
