package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks como transacciones en memoria: las escrituras se
// difieren en la tx y se aplican al store solo en el commit; los cerrojos por
// clave se toman durante la tx (reentrantes dentro de ella) y se liberan al
// final. Equivale al par Begin/Commit/Rollback + SELECT FOR UPDATE del
// adaptador PostgreSQL.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// tx acumula el estado de una transacción en curso.
type tx struct {
	s     *Store
	ctx   context.Context
	held  []itemKey
	owned map[itemKey]bool

	items          map[itemKey]*entity.StockItem // escrituras diferidas
	movements      []*entity.StockMovement
	productCosts   map[string]decimal.Decimal
	transferStatus map[string]stagedTransferStatus
}

// stagedTransferStatus es un cambio de estado de traslado diferido al commit.
type stagedTransferStatus struct {
	status      string
	failReason  string
	completedAt *time.Time
}

// lock toma el cerrojo de la clave si la tx aún no lo posee.
func (t *tx) lock(key itemKey) error {
	if t.owned[key] {
		return nil
	}
	if err := t.s.locks.acquire(t.ctx, key, t.s.lockTimeout); err != nil {
		return err
	}
	t.owned[key] = true
	t.held = append(t.held, key)
	return nil
}

func (t *tx) releaseAll() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
	t.owned = map[itemKey]bool{}
}

// commit aplica las escrituras diferidas al store en una sola sección crítica.
func (t *tx) commit() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for key, item := range t.items {
		t.s.items[key] = copyItem(item)
	}
	for _, m := range t.movements {
		t.s.movements = append(t.s.movements, copyMovement(m))
	}
	for id, cost := range t.productCosts {
		if p, ok := t.s.products[id]; ok {
			p.Cost = cost
			p.UpdatedAt = time.Now()
		}
	}
	for id, st := range t.transferStatus {
		if tr, ok := t.s.transfers[id]; ok {
			tr.Status = st.status
			tr.FailReason = st.failReason
			tr.CompletedAt = st.completedAt
		}
	}
}

// Run ejecuta fn con repositorios atados a la tx. Si fn devuelve error las
// escrituras diferidas se descartan (rollback); si devuelve nil se aplican.
// En ambos casos los cerrojos se liberan al salir.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ledger.Repos) error) error {
	t := &tx{
		s:              r.s,
		ctx:            ctx,
		owned:          map[itemKey]bool{},
		items:          map[itemKey]*entity.StockItem{},
		productCosts:   map[string]decimal.Decimal{},
		transferStatus: map[string]stagedTransferStatus{},
	}
	defer t.releaseAll()

	repos := ledger.Repos{
		Items:     &txStockItemRepo{t: t},
		Movements: &txMovementRepo{t: t},
		Products:  &txProductRepo{t: t},
		Transfers: &txTransferRepo{t: t},
	}
	if err := fn(repos); err != nil {
		return err
	}
	t.commit()
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios atados a la transacción
// ──────────────────────────────────────────────────────────────────────────────

type txStockItemRepo struct {
	t *tx
}

var _ repository.StockItemRepository = (*txStockItemRepo)(nil)

func (r *txStockItemRepo) read(key itemKey) (*entity.StockItem, error) {
	if staged, ok := r.t.items[key]; ok {
		return copyItem(staged), nil
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	item, ok := r.t.s.items[key]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

// Get lee la ficha (vista de la tx: escrituras propias visibles).
func (r *txStockItemRepo) Get(productID string, loc entity.LocationRef) (*entity.StockItem, error) {
	return r.read(itemKey{productID: productID, loc: loc})
}

// GetForUpdate toma el cerrojo de la clave (espera acotada, ErrBusy al
// vencer) y lee la ficha. Reentrante dentro de la misma tx.
func (r *txStockItemRepo) GetForUpdate(productID string, loc entity.LocationRef) (*entity.StockItem, error) {
	key := itemKey{productID: productID, loc: loc}
	if err := r.t.lock(key); err != nil {
		return nil, err
	}
	return r.read(key)
}

// Upsert difiere la escritura hasta el commit.
func (r *txStockItemRepo) Upsert(item *entity.StockItem) error {
	key := itemKey{productID: item.ProductID, loc: item.Location}
	if !r.t.owned[key] {
		// Escribir sin el cerrojo de la clave rompería la serialización.
		return domain.ErrBusy
	}
	r.t.items[key] = copyItem(item)
	return nil
}

// ExistsForProduct consulta store + escrituras diferidas.
func (r *txStockItemRepo) ExistsForProduct(productID string) (bool, error) {
	for key := range r.t.items {
		if key.productID == productID {
			return true, nil
		}
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	for key := range r.t.s.items {
		if key.productID == productID {
			return true, nil
		}
	}
	return false, nil
}

type txMovementRepo struct {
	t *tx
}

var _ repository.StockMovementRepository = (*txMovementRepo)(nil)

// Create difiere la inserción hasta el commit.
func (r *txMovementRepo) Create(movement *entity.StockMovement) error {
	r.t.movements = append(r.t.movements, copyMovement(movement))
	return nil
}

func (r *txMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	return NewStockMovementRepository(r.t.s).GetByID(id)
}

func (r *txMovementRepo) List(filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	return NewStockMovementRepository(r.t.s).List(filter)
}

func (r *txMovementRepo) ListByLocation(loc entity.LocationRef, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return NewStockMovementRepository(r.t.s).ListByLocation(loc, from, to, limit, offset)
}

type txProductRepo struct {
	t *tx
}

var _ repository.ProductRepository = (*txProductRepo)(nil)

func (r *txProductRepo) Create(product *entity.Product) error {
	return NewProductRepository(r.t.s).Create(product)
}

// GetByID lee el producto con el costo diferido de esta tx si existe.
func (r *txProductRepo) GetByID(id string) (*entity.Product, error) {
	p, err := NewProductRepository(r.t.s).GetByID(id)
	if err != nil || p == nil {
		return p, err
	}
	if cost, ok := r.t.productCosts[id]; ok {
		p.Cost = cost
	}
	return p, nil
}

func (r *txProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	return NewProductRepository(r.t.s).GetBySKU(sku)
}

func (r *txProductRepo) Update(product *entity.Product) error {
	return NewProductRepository(r.t.s).Update(product)
}

// UpdateCost difiere la actualización de costo hasta el commit.
func (r *txProductRepo) UpdateCost(productID string, cost decimal.Decimal) error {
	r.t.productCosts[productID] = cost
	return nil
}

func (r *txProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	return NewProductRepository(r.t.s).List(limit, offset)
}

func (r *txProductRepo) Delete(id string) error {
	return NewProductRepository(r.t.s).Delete(id)
}

type txTransferRepo struct {
	t *tx
}

var _ repository.StockTransferRepository = (*txTransferRepo)(nil)

func (r *txTransferRepo) Create(transfer *entity.StockTransfer) error {
	return NewStockTransferRepository(r.t.s).Create(transfer)
}

// GetByID lee el traslado con el estado diferido de esta tx si existe.
func (r *txTransferRepo) GetByID(id string) (*entity.StockTransfer, error) {
	tr, err := NewStockTransferRepository(r.t.s).GetByID(id)
	if err != nil || tr == nil {
		return tr, err
	}
	if st, ok := r.t.transferStatus[id]; ok {
		tr.Status = st.status
		tr.FailReason = st.failReason
		tr.CompletedAt = st.completedAt
	}
	return tr, nil
}

// UpdateStatus difiere el cambio de estado hasta el commit.
func (r *txTransferRepo) UpdateStatus(id, status, failReason string, completedAt *time.Time) error {
	r.t.transferStatus[id] = stagedTransferStatus{status: status, failReason: failReason, completedAt: completedAt}
	return nil
}

func (r *txTransferRepo) List(limit, offset int) ([]*entity.StockTransfer, error) {
	return NewStockTransferRepository(r.t.s).List(limit, offset)
}
