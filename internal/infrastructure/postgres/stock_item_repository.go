package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL
// (usable con pool o tx). La clave primaria de la tabla stock_items es
// (product_id, location_type, location_id).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

const stockItemColumns = `product_id, location_type, location_id, quantity, unit_cost, sale_price, unit, entry_date, updated_at`

func scanStockItem(row pgx.Row) (*entity.StockItem, error) {
	var s entity.StockItem
	var locType string
	err := row.Scan(
		&s.ProductID, &locType, &s.Location.ID,
		&s.Quantity, &s.UnitCost, &s.SalePrice, &s.Unit,
		&s.EntryDate, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Location.Type = entity.LocationType(locType)
	return &s, nil
}

// Get obtiene la ficha actual. Devuelve nil si el producto nunca se almacenó
// en la ubicación (distinto de una ficha existente en cero).
func (r *StockItemRepo) Get(productID string, loc entity.LocationRef) (*entity.StockItem, error) {
	query := `
		SELECT ` + stockItemColumns + `
		FROM stock_items
		WHERE product_id = $1 AND location_type = $2 AND location_id = $3`
	item, err := scanStockItem(r.q.QueryRow(context.Background(), query, productID, string(loc.Type), loc.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return item, nil
}

// GetForUpdate obtiene la ficha y bloquea la fila (SELECT FOR UPDATE).
// Si la fila no existe, SELECT FOR UPDATE no bloquea nada: dos primeras
// escrituras concurrentes leerían ambas nil y la segunda pisaría a la
// primera vía ON CONFLICT DO UPDATE. Para esa ruta se serializa con un
// advisory lock transaccional sobre la clave y se relee: la transacción que
// espera ve la ficha que la otra insertó al hacer commit. El advisory lock
// respeta lock_timeout, así que la espera sigue acotada (ErrBusy).
func (r *StockItemRepo) GetForUpdate(productID string, loc entity.LocationRef) (*entity.StockItem, error) {
	item, err := r.selectForUpdate(productID, loc)
	if err != nil || item != nil {
		return item, err
	}
	lockKey := productID + "|" + loc.String()
	if _, err := r.q.Exec(context.Background(), `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return nil, fmt.Errorf("advisory lock stock item: %w", err)
	}
	return r.selectForUpdate(productID, loc)
}

func (r *StockItemRepo) selectForUpdate(productID string, loc entity.LocationRef) (*entity.StockItem, error) {
	query := `
		SELECT ` + stockItemColumns + `
		FROM stock_items
		WHERE product_id = $1 AND location_type = $2 AND location_id = $3
		FOR UPDATE`
	item, err := scanStockItem(r.q.QueryRow(context.Background(), query, productID, string(loc.Type), loc.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item for update: %w", err)
	}
	return item, nil
}

// Upsert inserta o actualiza la ficha. entry_date solo se escribe al insertar
// (primera escritura, inmutable después).
func (r *StockItemRepo) Upsert(item *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (product_id, location_type, location_id, quantity, unit_cost, sale_price, unit, entry_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (product_id, location_type, location_id)
		DO UPDATE SET
			quantity   = EXCLUDED.quantity,
			unit_cost  = EXCLUDED.unit_cost,
			sale_price = EXCLUDED.sale_price,
			updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		item.ProductID, string(item.Location.Type), item.Location.ID,
		item.Quantity, item.UnitCost, item.SalePrice, item.Unit, item.EntryDate,
	)
	if err != nil {
		return fmt.Errorf("upsert stock item: %w", err)
	}
	return nil
}

// ExistsForProduct indica si alguna ficha referencia al producto.
func (r *StockItemRepo) ExistsForProduct(productID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM stock_items WHERE product_id = $1)`
	var exists bool
	if err := r.q.QueryRow(context.Background(), query, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists for product: %w", err)
	}
	return exists, nil
}
