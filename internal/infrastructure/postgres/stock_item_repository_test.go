package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/postgres"
	"github.com/tu-usuario/stock-ledger/pkg/config"
)

// Tests de integración: requieren PostgreSQL. Se saltan si TEST_DATABASE_URL
// no está definida.
func newTestPool(t *testing.T) *poolEnv {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definida; test de integración omitido")
	}
	pool, err := postgres.NewPool(context.Background(), config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS stock_items (
			product_id    TEXT NOT NULL,
			location_type TEXT NOT NULL,
			location_id   TEXT NOT NULL,
			quantity      NUMERIC NOT NULL,
			unit_cost     NUMERIC NOT NULL,
			sale_price    NUMERIC NOT NULL,
			unit          TEXT NOT NULL,
			entry_date    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (product_id, location_type, location_id)
		)`)
	require.NoError(t, err)

	return &poolEnv{runner: postgres.NewTxRunner(pool, 3*time.Second)}
}

type poolEnv struct {
	runner *postgres.TxRunner
}

// Dos transacciones concurrentes hacen leer-sumar-escribir sobre una clave
// que aún no tiene fila. La segunda debe ver la ficha que la primera insertó
// al hacer commit, no partir de cero: la cantidad final es la suma.
func TestGetForUpdate_PrimerasEscriturasConcurrentes(t *testing.T) {
	env := newTestPool(t)
	ctx := context.Background()

	productID := uuid.New().String()
	loc := entity.LocationRef{Type: entity.LocationWarehouse, ID: uuid.New().String()}
	now := time.Now()

	addFive := func() error {
		return env.runner.Run(ctx, func(r ledger.Repos) error {
			item, err := r.Items.GetForUpdate(productID, loc)
			if err != nil {
				return err
			}
			current := decimal.Zero
			if item == nil {
				item = &entity.StockItem{
					ProductID: productID,
					Location:  loc,
					UnitCost:  decimal.NewFromInt(10),
					SalePrice: decimal.NewFromInt(20),
					Unit:      "und",
					EntryDate: now,
				}
			} else {
				current = item.Quantity
			}
			item.Quantity = current.Add(decimal.NewFromInt(5))
			item.UpdatedAt = time.Now()
			return r.Items.Upsert(item)
		})
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- addFive()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var final *entity.StockItem
	require.NoError(t, env.runner.Run(ctx, func(r ledger.Repos) error {
		item, err := r.Items.GetForUpdate(productID, loc)
		final = item
		return err
	}))
	require.NotNil(t, final)
	assert.True(t, final.Quantity.Equal(decimal.NewFromInt(10)),
		"esperado 10, obtenido %s: una de las dos escrituras se perdió", final.Quantity)
}
