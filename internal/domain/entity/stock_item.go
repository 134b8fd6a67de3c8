package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem es la ficha de costo: estado actual de un producto en una
// ubicación. Clave primaria del ledger: (ProductID, Location).
// Invariante: Quantity >= 0 siempre; lo garantiza cada mutación, nunca una
// corrección posterior. Un item que llega a cero se conserva (distingue
// "nunca almacenado" de "actualmente vacío").
type StockItem struct {
	ProductID string
	Location  LocationRef
	Quantity  decimal.Decimal // en la unidad del item, fracciones permitidas
	UnitCost  decimal.Decimal // costo promedio ponderado en esta ubicación
	SalePrice decimal.Decimal
	Unit      string    // por defecto la unidad base del producto
	EntryDate time.Time // primera escritura; inmutable después
	UpdatedAt time.Time
}
