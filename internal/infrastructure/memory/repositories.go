package memory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Adaptadores fuera de transacción: lecturas y CRUD de registros. Las
// mutaciones del ledger van siempre por el TxRunner.
// ──────────────────────────────────────────────────────────────────────────────

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo adaptador de catálogo sobre el store.
type ProductRepo struct {
	s *Store
}

// NewProductRepository construye el adaptador.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

// Create persiste un producto nuevo. SKU duplicado devuelve ErrDuplicate.
func (r *ProductRepo) Create(product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.SKU == product.SKU {
			return domain.ErrDuplicate
		}
	}
	r.s.products[product.ID] = copyProduct(product)
	return nil
}

// GetByID obtiene un producto por ID (nil si no existe).
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return copyProduct(p), nil
}

// GetBySKU obtiene un producto por SKU (nil si no existe).
func (r *ProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if p.SKU == sku {
			return copyProduct(p), nil
		}
	}
	return nil, nil
}

// Update reemplaza los campos editables del producto.
func (r *ProductRepo) Update(product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.ID]; !ok {
		return domain.ErrUnknownReference
	}
	r.s.products[product.ID] = copyProduct(product)
	return nil
}

// UpdateCost actualiza el costo promedio ponderado.
func (r *ProductRepo) UpdateCost(productID string, cost decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrUnknownReference
	}
	p.Cost = cost
	p.UpdatedAt = time.Now()
	return nil
}

// List lista productos por SKU ascendente, paginado.
func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		all = append(all, copyProduct(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
	return paginate(all, limit, offset), nil
}

// Delete elimina un producto. La guarda referencial vive en el caso de uso.
func (r *ProductRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.products, id)
	return nil
}

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo adaptador del registro de ubicaciones sobre el store.
type LocationRepo struct {
	s *Store
}

// NewLocationRepository construye el adaptador.
func NewLocationRepository(s *Store) *LocationRepo {
	return &LocationRepo{s: s}
}

// Create persiste una ubicación. Nombre duplicado en el tipo devuelve ErrDuplicate.
func (r *LocationRepo) Create(location *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for ref, l := range r.s.locations {
		if ref.Type == location.Ref.Type && l.Name == location.Name {
			return domain.ErrDuplicate
		}
	}
	r.s.locations[location.Ref] = copyLocation(location)
	return nil
}

// GetByRef obtiene una ubicación por (tipo, id); nil si no existe.
func (r *LocationRepo) GetByRef(ref entity.LocationRef) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locations[ref]
	if !ok {
		return nil, nil
	}
	return copyLocation(l), nil
}

// Update reemplaza nombre y dirección.
func (r *LocationRepo) Update(location *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.locations[location.Ref]; !ok {
		return domain.ErrUnknownReference
	}
	r.s.locations[location.Ref] = copyLocation(location)
	return nil
}

// ListByType lista ubicaciones de un tipo por nombre ascendente, paginado.
func (r *LocationRepo) ListByType(t entity.LocationType, limit, offset int) ([]*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*entity.Location
	for ref, l := range r.s.locations {
		if ref.Type == t {
			all = append(all, copyLocation(l))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, limit, offset), nil
}

// Delete elimina una ubicación por referencia.
func (r *LocationRepo) Delete(ref entity.LocationRef) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.locations, ref)
	return nil
}

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo adaptador de lectura de fichas fuera de transacción.
type StockItemRepo struct {
	s *Store
}

// NewStockItemRepository construye el adaptador de lectura.
func NewStockItemRepository(s *Store) *StockItemRepo {
	return &StockItemRepo{s: s}
}

// Get devuelve la ficha actual o nil si nunca se almacenó.
func (r *StockItemRepo) Get(productID string, loc entity.LocationRef) (*entity.StockItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	item, ok := r.s.items[itemKey{productID: productID, loc: loc}]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

// GetForUpdate fuera de transacción equivale a Get: el bloqueo por clave solo
// existe dentro del TxRunner.
func (r *StockItemRepo) GetForUpdate(productID string, loc entity.LocationRef) (*entity.StockItem, error) {
	return r.Get(productID, loc)
}

// Upsert escribe la ficha directamente (solo para siembra de datos).
func (r *StockItemRepo) Upsert(item *entity.StockItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[itemKey{productID: item.ProductID, loc: item.Location}] = copyItem(item)
	return nil
}

// ExistsForProduct indica si alguna ficha referencia al producto.
func (r *StockItemRepo) ExistsForProduct(productID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for key := range r.s.items {
		if key.productID == productID {
			return true, nil
		}
	}
	return false, nil
}

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo adaptador de lectura del historial.
type StockMovementRepo struct {
	s *Store
}

// NewStockMovementRepository construye el adaptador de lectura.
func NewStockMovementRepository(s *Store) *StockMovementRepo {
	return &StockMovementRepo{s: s}
}

// Create agrega un movimiento directamente (solo para siembra de datos).
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, copyMovement(movement))
	return nil
}

// GetByID obtiene un movimiento por ID (nil si no existe).
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movements {
		if m.ID == id {
			return copyMovement(m), nil
		}
	}
	return nil, nil
}

// List lista movimientos de un producto ordenados por fecha ascendente.
func (r *StockMovementRepo) List(filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID != filter.ProductID {
			continue
		}
		if filter.Location != nil && !m.Location.Equal(*filter.Location) {
			continue
		}
		if filter.Since != nil && m.CreatedAt.Before(*filter.Since) {
			continue
		}
		all = append(all, copyMovement(m))
	}
	sortMovements(all)
	return paginate(all, filter.Limit, filter.Offset), nil
}

// ListByLocation lista movimientos de una ubicación en un rango de fechas.
func (r *StockMovementRepo) ListByLocation(loc entity.LocationRef, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*entity.StockMovement
	for _, m := range r.s.movements {
		if !m.Location.Equal(loc) {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		all = append(all, copyMovement(m))
	}
	sortMovements(all)
	return paginate(all, limit, offset), nil
}

func sortMovements(list []*entity.StockMovement) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

var _ repository.StockTransferRepository = (*StockTransferRepo)(nil)

// StockTransferRepo adaptador del registro de traslados.
type StockTransferRepo struct {
	s *Store
}

// NewStockTransferRepository construye el adaptador.
func NewStockTransferRepository(s *Store) *StockTransferRepo {
	return &StockTransferRepo{s: s}
}

// Create persiste el traslado.
func (r *StockTransferRepo) Create(transfer *entity.StockTransfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.transfers[transfer.ID] = copyTransfer(transfer)
	return nil
}

// GetByID obtiene un traslado por ID (nil si no existe).
func (r *StockTransferRepo) GetByID(id string) (*entity.StockTransfer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.transfers[id]
	if !ok {
		return nil, nil
	}
	return copyTransfer(t), nil
}

// UpdateStatus marca el traslado como completed o failed.
func (r *StockTransferRepo) UpdateStatus(id, status, failReason string, completedAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok {
		return domain.ErrUnknownReference
	}
	t.Status = status
	t.FailReason = failReason
	t.CompletedAt = completedAt
	return nil
}

// List lista traslados (más nuevos primero), paginado.
func (r *StockTransferRepo) List(limit, offset int) ([]*entity.StockTransfer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]*entity.StockTransfer, 0, len(r.s.transfers))
	for _, t := range r.s.transfers {
		all = append(all, copyTransfer(t))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
