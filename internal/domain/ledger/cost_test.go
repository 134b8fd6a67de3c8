package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/tu-usuario/stock-ledger/internal/domain/ledger"
)

// TestWeightedAverageCost valida la fórmula de costo promedio ponderado con
// casos calculados a mano.
func TestWeightedAverageCost(t *testing.T) {
	cases := []struct {
		name        string
		currentQty  string
		currentCost string
		inQty       string
		inCost      string
		want        string
	}{
		{"primera entrada toma el costo de entrada", "0", "0", "10", "100", "100"},
		{"mitad y mitad promedia", "10", "100", "10", "200", "150"},
		{"entrada pequeña mueve poco el promedio", "90", "100", "10", "200", "110"},
		{"cantidades fraccionales", "2.5", "10", "2.5", "20", "15"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ledger.WeightedAverageCost(
				decimal.RequireFromString(tc.currentQty),
				decimal.RequireFromString(tc.currentCost),
				decimal.RequireFromString(tc.inQty),
				decimal.RequireFromString(tc.inCost),
			)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"esperado %s, obtenido %s", tc.want, got)
		})
	}
}

// Sin stock previo ni entrada no hay base para promediar: el costo queda en cero.
func TestWeightedAverageCost_SumaCero(t *testing.T) {
	got := ledger.WeightedAverageCost(decimal.Zero, decimal.NewFromInt(50), decimal.Zero, decimal.NewFromInt(80))
	assert.True(t, got.IsZero())
}
