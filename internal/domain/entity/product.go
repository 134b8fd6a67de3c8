package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo.
// Cost es promedio ponderado calculado desde movimientos; el stock se maneja
// por ubicación en StockItem.
type Product struct {
	ID        string
	SKU       string // código único, normalizado a mayúsculas
	Name      string
	Unit      string          // unidad de medida base (ej. "und", "kg", "lt")
	Price     decimal.Decimal // precio de venta sugerido
	Cost      decimal.Decimal // costo promedio ponderado (inicia en 0)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeSKU lleva el SKU a su forma canónica (mayúsculas, sin espacios).
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
