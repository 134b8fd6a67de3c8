package ledger

import "github.com/shopspring/decimal"

// WeightedAverageCost implementa la política de costo promedio ponderado
// (servicio de dominio). Se recalcula en cada entrada con costo:
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(currentQty, currentCost, inQty, inCost decimal.Decimal) decimal.Decimal {
	sum := currentQty.Add(inQty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := currentQty.Mul(currentCost).Add(inQty.Mul(inCost))
	return num.Div(sum)
}
