package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// StockItemRepository define el puerto para consultar/actualizar la ficha de
// costo por (producto, ubicación). Las mutaciones van siempre dentro de una
// transacción para garantizar consistencia.
type StockItemRepository interface {
	// Get devuelve nil (sin error) si el producto nunca se almacenó en la ubicación.
	Get(productID string, loc entity.LocationRef) (*entity.StockItem, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE o equivalente).
	// Devuelve nil si no existe; aun así la implementación debe serializar dos
	// primeras escrituras concurrentes sobre la misma clave.
	GetForUpdate(productID string, loc entity.LocationRef) (*entity.StockItem, error)
	// Upsert inserta o actualiza la ficha. EntryDate solo se escribe en la inserción.
	Upsert(item *entity.StockItem) error
	// ExistsForProduct indica si algún StockItem referencia al producto
	// (guarda referencial para el borrado de catálogo).
	ExistsForProduct(productID string) (bool, error)
}
