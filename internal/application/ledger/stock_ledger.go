package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	domledger "github.com/tu-usuario/stock-ledger/internal/domain/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// StockLedger mantiene el estado actual cantidad/costo/precio por
// (producto, ubicación) y serializa las mutaciones por clave mediante el
// bloqueo de fila del repositorio (SELECT FOR UPDATE o equivalente).
type StockLedger struct {
	itemRepo     repository.StockItemRepository // lectura fuera de tx
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewStockLedger construye el ledger con los puertos de identidad y lectura.
func NewStockLedger(
	itemRepo repository.StockItemRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *StockLedger {
	return &StockLedger{
		itemRepo:     itemRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
	}
}

// Get devuelve la ficha actual o nil si el producto nunca se almacenó en la
// ubicación (equivale a cantidad cero para validación de movimientos).
func (l *StockLedger) Get(productID string, loc entity.LocationRef) (*entity.StockItem, error) {
	return l.itemRepo.Get(productID, loc)
}

// ApplyDelta es el único mutador del ledger. Corre sobre repositorios atados
// a la transacción del caller: bloquea la fila, valida que la cantidad
// resultante sea >= 0, crea la ficha en la primera escritura y recalcula el
// costo promedio ponderado en entradas con costo. Devuelve el snapshot
// post-mutación para que el caller construya el movimiento sin releer.
func (l *StockLedger) ApplyDelta(
	r Repos,
	productID string,
	loc entity.LocationRef,
	delta decimal.Decimal,
	unitCost *decimal.Decimal,
	now time.Time,
) (*entity.StockItem, error) {
	product, err := l.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrUnknownReference
	}
	if !loc.Type.Valid() {
		return nil, domain.ErrUnknownReference
	}
	location, err := l.locationRepo.GetByRef(loc)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, domain.ErrUnknownReference
	}

	// Bloquea la clave (producto, ubicación) hasta el fin de la transacción.
	item, err := r.Items.GetForUpdate(productID, loc)
	if err != nil {
		return nil, err
	}
	if item == nil {
		// Creación perezosa en la primera escritura: defaults desde el producto.
		item = &entity.StockItem{
			ProductID: productID,
			Location:  loc,
			Quantity:  decimal.Zero,
			UnitCost:  product.Cost,
			SalePrice: product.Price,
			Unit:      product.Unit,
			EntryDate: now,
		}
	}

	newQty := item.Quantity.Add(delta)
	if newQty.IsNegative() {
		return nil, domain.ErrInsufficientStock
	}

	// Entrada con costo: promedio ponderado sobre la ficha y sobre el producto.
	if delta.GreaterThan(decimal.Zero) && unitCost != nil {
		newCost := domledger.WeightedAverageCost(item.Quantity, item.UnitCost, delta, *unitCost)
		item.UnitCost = newCost
		if err := r.Products.UpdateCost(productID, newCost); err != nil {
			return nil, err
		}
	}

	item.Quantity = newQty
	item.UpdatedAt = now
	if err := r.Items.Upsert(item); err != nil {
		return nil, err
	}
	return item, nil
}
