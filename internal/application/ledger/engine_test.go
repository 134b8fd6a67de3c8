package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test: entorno con sustrato en memoria, productos y ubicaciones
// sembrados.
// ──────────────────────────────────────────────────────────────────────────────

const (
	p1 = "p-001"
	p2 = "p-002"
)

var (
	warehouse1 = entity.LocationRef{Type: entity.LocationWarehouse, ID: "w-001"}
	store1     = entity.LocationRef{Type: entity.LocationStore, ID: "s-001"}
)

// captureNotifier acumula los eventos publicados (para aserciones).
type captureNotifier struct {
	mu     sync.Mutex
	events []ledger.StockChanged
}

func (n *captureNotifier) Publish(_ context.Context, event ledger.StockChanged) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *captureNotifier) all() []ledger.StockChanged {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ledger.StockChanged(nil), n.events...)
}

// failingNotifier siempre falla: verifica que la publicación sea best-effort.
type failingNotifier struct{}

func (failingNotifier) Publish(context.Context, ledger.StockChanged) error {
	return errors.New("broker caído")
}

type env struct {
	store     *memory.Store
	items     *memory.StockItemRepo
	stock     *ledger.StockLedger
	movements *ledger.MovementEngine
	transfers *ledger.TransferEngine
	queries   *ledger.Queries
	notifier  *captureNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithNotifier(t, &captureNotifier{})
}

func newEnvWithNotifier(t *testing.T, notifier ledger.ChangeNotifier) *env {
	t.Helper()
	store := memory.NewStore(2 * time.Second)
	productRepo := memory.NewProductRepository(store)
	locationRepo := memory.NewLocationRepository(store)
	itemRepo := memory.NewStockItemRepository(store)
	movementRepo := memory.NewStockMovementRepository(store)
	transferRepo := memory.NewStockTransferRepository(store)
	txRunner := memory.NewTxRunner(store)

	now := time.Now()
	for _, p := range []*entity.Product{
		{ID: p1, SKU: "SKU-001", Name: "Café molido 500g", Unit: "und", Price: decimal.NewFromInt(120), CreatedAt: now, UpdatedAt: now},
		{ID: p2, SKU: "SKU-002", Name: "Azúcar 1kg", Unit: "und", Price: decimal.NewFromInt(40), CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, productRepo.Create(p))
	}
	for _, l := range []*entity.Location{
		{Ref: warehouse1, Name: "Almacén Central", CreatedAt: now, UpdatedAt: now},
		{Ref: store1, Name: "Tienda Centro", CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, locationRepo.Create(l))
	}

	stock := ledger.NewStockLedger(itemRepo, productRepo, locationRepo)
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	movements := ledger.NewMovementEngine(txRunner, stock, notifier, log)
	transfers := ledger.NewTransferEngine(txRunner, movements, transferRepo, locationRepo, log)

	e := &env{
		store:     store,
		items:     itemRepo,
		stock:     stock,
		movements: movements,
		transfers: transfers,
		queries:   ledger.NewQueries(movementRepo, transferRepo),
	}
	if cap, ok := notifier.(*captureNotifier); ok {
		e.notifier = cap
	}
	return e
}

func costOf(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// receive siembra stock vía un movimiento receipt.
func (e *env) receive(t *testing.T, productID string, loc entity.LocationRef, qty int64, unitCost int64) {
	t.Helper()
	_, err := e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: productID,
		Location:  loc,
		Kind:      entity.MovementReceipt,
		Quantity:  decimal.NewFromInt(qty),
		UnitCost:  costOf(unitCost),
	})
	require.NoError(t, err)
}

func (e *env) quantity(t *testing.T, productID string, loc entity.LocationRef) decimal.Decimal {
	t.Helper()
	item, err := e.stock.Get(productID, loc)
	require.NoError(t, err)
	if item == nil {
		return decimal.Zero
	}
	return item.Quantity
}

// ──────────────────────────────────────────────────────────────────────────────
// MovementEngine
// ──────────────────────────────────────────────────────────────────────────────

// Una entrada crea la ficha perezosamente con defaults del producto y fecha
// de ingreso.
func TestRecord_ReceiptCreaFicha(t *testing.T) {
	e := newEnv(t)

	mov, err := e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: p1,
		Location:  warehouse1,
		Kind:      entity.MovementReceipt,
		Quantity:  decimal.NewFromInt(10),
		UnitCost:  costOf(80),
	})
	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.Equal(t, entity.MovementReceipt, mov.Kind)
	assert.True(t, mov.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, mov.TotalCost.Equal(decimal.NewFromInt(800)))

	item, err := e.stock.Get(p1, warehouse1)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, item.UnitCost.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, "und", item.Unit)
	assert.False(t, item.EntryDate.IsZero())
}

// Lectura inmediata tras el commit refleja la nueva cantidad (sin ventana
// read-after-write).
func TestRecord_LecturaTrasCommit(t *testing.T) {
	e := newEnv(t)
	e.receive(t, p1, warehouse1, 7, 10)
	assert.True(t, e.quantity(t, p1, warehouse1).Equal(decimal.NewFromInt(7)))
}

// El promedio ponderado se recalcula en cada entrada con costo.
func TestRecord_PromedioPonderado(t *testing.T) {
	e := newEnv(t)
	e.receive(t, p1, warehouse1, 10, 100)
	e.receive(t, p1, warehouse1, 10, 200)

	item, err := e.stock.Get(p1, warehouse1)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.UnitCost.Equal(decimal.NewFromInt(150)),
		"promedio esperado 150, obtenido %s", item.UnitCost)
}

// Los movimientos nulos se rechazan, no se aceptan en silencio.
func TestRecord_CantidadCero(t *testing.T) {
	e := newEnv(t)
	_, err := e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: p1,
		Location:  warehouse1,
		Kind:      entity.MovementCorrection,
		Quantity:  decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

// Producto o ubicación que no resuelven fallan con ErrUnknownReference.
func TestRecord_ReferenciaDesconocida(t *testing.T) {
	e := newEnv(t)

	_, err := e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: "p-999",
		Location:  warehouse1,
		Kind:      entity.MovementReceipt,
		Quantity:  decimal.NewFromInt(1),
		UnitCost:  costOf(10),
	})
	assert.ErrorIs(t, err, domain.ErrUnknownReference)

	_, err = e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: p1,
		Location:  entity.LocationRef{Type: entity.LocationStore, ID: "s-999"},
		Kind:      entity.MovementReceipt,
		Quantity:  decimal.NewFromInt(1),
		UnitCost:  costOf(10),
	})
	assert.ErrorIs(t, err, domain.ErrUnknownReference)
}

// Una salida que dejaría la cantidad negativa falla y no recorta a cero.
func TestRecord_StockInsuficiente(t *testing.T) {
	e := newEnv(t)
	e.receive(t, p1, warehouse1, 5, 10)

	_, err := e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: p1,
		Location:  warehouse1,
		Kind:      entity.MovementIssue,
		Quantity:  decimal.NewFromInt(-6),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, e.quantity(t, p1, warehouse1).Equal(decimal.NewFromInt(5)),
		"la cantidad no debe cambiar tras un fallo")
}

// Una ficha que llega exactamente a cero se conserva: distinta de "nunca
// almacenado".
func TestRecord_FichaEnCeroSeConserva(t *testing.T) {
	e := newEnv(t)
	e.receive(t, p1, warehouse1, 3, 10)

	_, err := e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: p1,
		Location:  warehouse1,
		Kind:      entity.MovementIssue,
		Quantity:  decimal.NewFromInt(-3),
	})
	require.NoError(t, err)

	item, err := e.stock.Get(p1, warehouse1)
	require.NoError(t, err)
	require.NotNil(t, item, "la ficha en cero debe seguir existiendo")
	assert.True(t, item.Quantity.IsZero())

	never, err := e.stock.Get(p2, warehouse1)
	require.NoError(t, err)
	assert.Nil(t, never, "un producto nunca almacenado no tiene ficha")
}

// Tras el commit se publica StockChanged con la cantidad resultante.
func TestRecord_EmiteEvento(t *testing.T) {
	e := newEnv(t)
	e.receive(t, p1, warehouse1, 4, 10)

	events := e.notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, p1, events[0].ProductID)
	assert.Equal(t, warehouse1.String(), events[0].LocationKey)
	assert.True(t, events[0].NewQuantity.Equal(decimal.NewFromInt(4)))
}

// Un notificador caído jamás convierte un movimiento exitoso en error.
func TestRecord_FalloDeNotificadorSeSuprime(t *testing.T) {
	e := newEnvWithNotifier(t, failingNotifier{})

	_, err := e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: p1,
		Location:  warehouse1,
		Kind:      entity.MovementReceipt,
		Quantity:  decimal.NewFromInt(2),
		UnitCost:  costOf(10),
	})
	require.NoError(t, err)
	assert.True(t, e.quantity(t, p1, warehouse1).Equal(decimal.NewFromInt(2)))
}

// Coherencia tipo/signo: receipt exige positivo, issue negativo.
func TestRecord_SignoIncoherente(t *testing.T) {
	e := newEnv(t)

	_, err := e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: p1,
		Location:  warehouse1,
		Kind:      entity.MovementReceipt,
		Quantity:  decimal.NewFromInt(-5),
		UnitCost:  costOf(10),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: p1,
		Location:  warehouse1,
		Kind:      entity.MovementIssue,
		Quantity:  decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

// Dos primeras entradas concurrentes sobre una clave nunca almacenada se
// serializan: ninguna pisa a la otra, la cantidad final es la suma.
func TestRecord_PrimerasEntradasConcurrentes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.movements.Record(ctx, ledger.MovementInput{
				ProductID: p1,
				Location:  warehouse1,
				Kind:      entity.MovementReceipt,
				Quantity:  decimal.NewFromInt(5),
				UnitCost:  costOf(10),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, e.quantity(t, p1, warehouse1).Equal(decimal.NewFromInt(10)),
		"ambas entradas deben sobrevivir")
	list, err := e.queries.ListMovements(p1, &warehouse1, nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// El historial se lista en orden ascendente de fecha y es consultable por
// ubicación.
func TestListMovements_OrdenAscendente(t *testing.T) {
	e := newEnv(t)
	e.receive(t, p1, warehouse1, 10, 100)
	_, err := e.movements.Record(context.Background(), ledger.MovementInput{
		ProductID: p1,
		Location:  warehouse1,
		Kind:      entity.MovementIssue,
		Quantity:  decimal.NewFromInt(-4),
		Reason:    "venta mostrador",
	})
	require.NoError(t, err)

	list, err := e.queries.ListMovements(p1, &warehouse1, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.MovementReceipt, list[0].Kind)
	assert.Equal(t, entity.MovementIssue, list[1].Kind)
	assert.Equal(t, "venta mostrador", list[1].Reason)
	assert.False(t, list[0].CreatedAt.After(list[1].CreatedAt))
}
