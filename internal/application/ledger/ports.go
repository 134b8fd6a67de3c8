package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Items     repository.StockItemRepository
	Movements repository.StockMovementRepository
	Products  repository.ProductRepository
	Transfers repository.StockTransferRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// inventario: Commit si fn devuelve nil, Rollback si no.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// StockChanged es el evento post-commit que se publica cuando cambia la
// cantidad de un (producto, ubicación).
type StockChanged struct {
	ProductID   string             `json:"product_id"`
	Location    entity.LocationRef `json:"-"`
	LocationKey string             `json:"location"` // "tipo:id"
	NewQuantity decimal.Decimal    `json:"new_quantity"`
	At          time.Time          `json:"at"`
}

// ChangeNotifier publica eventos StockChanged a los observadores (UI en vivo,
// integraciones). La entrega es best-effort y at-most-once: un fallo de
// publicación nunca revierte ni se reporta como fallo del ledger.
type ChangeNotifier interface {
	Publish(ctx context.Context, event StockChanged) error
}
