package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
)

var (
	refWarehouse = entity.LocationRef{Type: entity.LocationWarehouse, ID: "w-001"}
	refStore     = entity.LocationRef{Type: entity.LocationStore, ID: "s-001"}
)

func newItem(productID string, loc entity.LocationRef, qty int64) *entity.StockItem {
	now := time.Now()
	return &entity.StockItem{
		ProductID: productID,
		Location:  loc,
		Quantity:  decimal.NewFromInt(qty),
		UnitCost:  decimal.NewFromInt(10),
		Unit:      "und",
		EntryDate: now,
		UpdatedAt: now,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones: commit y rollback
// ──────────────────────────────────────────────────────────────────────────────

// El commit publica las escrituras diferidas; antes del commit nadie las ve.
func TestTx_CommitPublicaEscrituras(t *testing.T) {
	store := memory.NewStore(time.Second)
	runner := memory.NewTxRunner(store)
	items := memory.NewStockItemRepository(store)

	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		if _, err := r.Items.GetForUpdate("p-001", refWarehouse); err != nil {
			return err
		}
		if err := r.Items.Upsert(newItem("p-001", refWarehouse, 9)); err != nil {
			return err
		}
		if err := r.Movements.Create(&entity.StockMovement{
			ID:        "m-001",
			ProductID: "p-001",
			Location:  refWarehouse,
			Kind:      entity.MovementReceipt,
			Quantity:  decimal.NewFromInt(9),
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}

		// La vista externa sigue vacía mientras la tx está en curso.
		outside, err := items.Get("p-001", refWarehouse)
		require.NoError(t, err)
		assert.Nil(t, outside, "las escrituras diferidas no deben filtrarse")
		return nil
	})
	require.NoError(t, err)

	item, err := items.Get("p-001", refWarehouse)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(9)))

	movs, err := memory.NewStockMovementRepository(store).List(repository.MovementFilter{ProductID: "p-001", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

// Un error del callback descarta todas las escrituras diferidas.
func TestTx_RollbackDescartaEscrituras(t *testing.T) {
	store := memory.NewStore(time.Second)
	runner := memory.NewTxRunner(store)
	items := memory.NewStockItemRepository(store)

	boom := errors.New("falla simulada")
	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		if _, err := r.Items.GetForUpdate("p-001", refWarehouse); err != nil {
			return err
		}
		if err := r.Items.Upsert(newItem("p-001", refWarehouse, 5)); err != nil {
			return err
		}
		if err := r.Movements.Create(&entity.StockMovement{ID: "m-x", ProductID: "p-001", Location: refWarehouse, Kind: entity.MovementReceipt, Quantity: decimal.NewFromInt(5), CreatedAt: time.Now()}); err != nil {
			return err
		}
		if err := r.Products.UpdateCost("p-001", decimal.NewFromInt(99)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	item, err := items.Get("p-001", refWarehouse)
	require.NoError(t, err)
	assert.Nil(t, item, "el rollback no debe dejar rastro")
}

// Dentro de la tx las escrituras propias sí son visibles al releer.
func TestTx_LecturaVeEscriturasPropias(t *testing.T) {
	store := memory.NewStore(time.Second)
	runner := memory.NewTxRunner(store)

	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		if _, err := r.Items.GetForUpdate("p-001", refWarehouse); err != nil {
			return err
		}
		if err := r.Items.Upsert(newItem("p-001", refWarehouse, 3)); err != nil {
			return err
		}
		again, err := r.Items.Get("p-001", refWarehouse)
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.True(t, again.Quantity.Equal(decimal.NewFromInt(3)))
		return nil
	})
	require.NoError(t, err)
}

// Escribir una clave sin haber tomado su cerrojo se rechaza.
func TestTx_UpsertSinCerrojo(t *testing.T) {
	store := memory.NewStore(time.Second)
	runner := memory.NewTxRunner(store)

	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		return r.Items.Upsert(newItem("p-001", refWarehouse, 1))
	})
	assert.ErrorIs(t, err, domain.ErrBusy)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cerrojos por clave
// ──────────────────────────────────────────────────────────────────────────────

// El cerrojo es reentrante dentro de la misma tx: bloquear dos veces la misma
// clave no se interbloquea a sí mismo.
func TestTx_CerrojoReentrante(t *testing.T) {
	store := memory.NewStore(200 * time.Millisecond)
	runner := memory.NewTxRunner(store)

	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		if _, err := r.Items.GetForUpdate("p-001", refWarehouse); err != nil {
			return err
		}
		_, err := r.Items.GetForUpdate("p-001", refWarehouse)
		return err
	})
	require.NoError(t, err)
}

// Una tx que espera una clave bloqueada falla con ErrBusy al vencer el plazo,
// jamás espera indefinidamente.
func TestTx_EsperaAcotada(t *testing.T) {
	store := memory.NewStore(100 * time.Millisecond)
	runner := memory.NewTxRunner(store)

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = runner.Run(context.Background(), func(r ledger.Repos) error {
			if _, err := r.Items.GetForUpdate("p-001", refWarehouse); err != nil {
				return err
			}
			close(holding)
			time.Sleep(400 * time.Millisecond) // retiene el cerrojo más allá del plazo ajeno
			return nil
		})
	}()

	<-holding
	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		_, err := r.Items.GetForUpdate("p-001", refWarehouse)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrBusy)
	<-done
}

// Claves disjuntas no comparten cerrojo: una tx larga sobre una clave no
// retrasa a otra clave.
func TestTx_ClavesIndependientes(t *testing.T) {
	store := memory.NewStore(100 * time.Millisecond)
	runner := memory.NewTxRunner(store)

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = runner.Run(context.Background(), func(r ledger.Repos) error {
			if _, err := r.Items.GetForUpdate("p-001", refWarehouse); err != nil {
				return err
			}
			close(holding)
			time.Sleep(300 * time.Millisecond)
			return nil
		})
	}()

	<-holding
	// Mismo producto, otra ubicación: clave distinta, no debe esperar.
	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		if _, err := r.Items.GetForUpdate("p-001", refStore); err != nil {
			return err
		}
		return r.Items.Upsert(newItem("p-001", refStore, 2))
	})
	require.NoError(t, err)
	<-done
}

// Al terminar la tx (éxito o error) los cerrojos quedan libres para el
// siguiente.
func TestTx_CerrojosSeLiberan(t *testing.T) {
	store := memory.NewStore(100 * time.Millisecond)
	runner := memory.NewTxRunner(store)

	_ = runner.Run(context.Background(), func(r ledger.Repos) error {
		if _, err := r.Items.GetForUpdate("p-001", refWarehouse); err != nil {
			return err
		}
		return errors.New("abortada")
	})

	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		_, err := r.Items.GetForUpdate("p-001", refWarehouse)
		return err
	})
	require.NoError(t, err)
}

// El cambio de estado de un traslado se difiere al commit: si la transacción
// falla, el traslado conserva su estado previo.
func TestTx_EstadoDeTrasladoDiferido(t *testing.T) {
	store := memory.NewStore(time.Second)
	runner := memory.NewTxRunner(store)
	transfers := memory.NewStockTransferRepository(store)

	now := time.Now()
	require.NoError(t, transfers.Create(&entity.StockTransfer{
		ID:          "t-001",
		Source:      entity.LocationRef{Type: entity.LocationWarehouse, ID: "w-001"},
		Destination: entity.LocationRef{Type: entity.LocationStore, ID: "s-001"},
		Status:      entity.TransferPending,
		CreatedAt:   now,
	}))

	boom := errors.New("falla simulada")
	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		at := time.Now()
		if err := r.Transfers.UpdateStatus("t-001", entity.TransferCompleted, "", &at); err != nil {
			return err
		}
		// La tx ve su propio cambio de estado.
		tr, err := r.Transfers.GetByID("t-001")
		require.NoError(t, err)
		require.NotNil(t, tr)
		assert.Equal(t, entity.TransferCompleted, tr.Status)
		return boom
	})
	require.ErrorIs(t, err, boom)

	tr, err := transfers.GetByID("t-001")
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, entity.TransferPending, tr.Status, "el rollback no debe cambiar el estado")
	assert.Nil(t, tr.CompletedAt)

	// Con commit el cambio sí se aplica.
	require.NoError(t, runner.Run(context.Background(), func(r ledger.Repos) error {
		at := time.Now()
		return r.Transfers.UpdateStatus("t-001", entity.TransferCompleted, "", &at)
	}))
	tr, err = transfers.GetByID("t-001")
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, entity.TransferCompleted, tr.Status)
	require.NotNil(t, tr.CompletedAt)
}

// ──────────────────────────────────────────────────────────────────────────────
// Costo de producto diferido
// ──────────────────────────────────────────────────────────────────────────────

func TestTx_CostoDiferidoVisibleEnTxYTrasCommit(t *testing.T) {
	store := memory.NewStore(time.Second)
	runner := memory.NewTxRunner(store)
	products := memory.NewProductRepository(store)

	now := time.Now()
	require.NoError(t, products.Create(&entity.Product{
		ID: "p-001", SKU: "SKU-001", Name: "Café molido 500g", Unit: "und",
		Cost: decimal.NewFromInt(100), CreatedAt: now, UpdatedAt: now,
	}))

	err := runner.Run(context.Background(), func(r ledger.Repos) error {
		if err := r.Products.UpdateCost("p-001", decimal.NewFromInt(150)); err != nil {
			return err
		}
		p, err := r.Products.GetByID("p-001")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.True(t, p.Cost.Equal(decimal.NewFromInt(150)), "la tx debe ver su propio costo")
		return nil
	})
	require.NoError(t, err)

	p, err := products.GetByID("p-001")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Cost.Equal(decimal.NewFromInt(150)))
}
