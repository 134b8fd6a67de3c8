// Package memory implementa los puertos de persistencia del ledger sobre
// estructuras en RAM: bloqueos por clave con espera acotada y transacciones
// por escritura diferida. Sirve para desarrollo local sin PostgreSQL y para
// los escenarios de concurrencia de los tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// itemKey es la clave primaria del ledger: (producto, ubicación).
type itemKey struct {
	productID string
	loc       entity.LocationRef
}

// Store guarda todo el estado compartido. Los mapas se protegen con mu;
// la serialización por clave del ledger la dan los bloqueos de locks.
type Store struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	locations map[entity.LocationRef]*entity.Location
	items     map[itemKey]*entity.StockItem
	movements []*entity.StockMovement
	transfers map[string]*entity.StockTransfer

	locks       *keyedLocks
	lockTimeout time.Duration
}

// NewStore construye un store vacío. lockTimeout <= 0 usa 3s.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &Store{
		products:    make(map[string]*entity.Product),
		locations:   make(map[entity.LocationRef]*entity.Location),
		items:       make(map[itemKey]*entity.StockItem),
		transfers:   make(map[string]*entity.StockTransfer),
		locks:       newKeyedLocks(),
		lockTimeout: lockTimeout,
	}
}

// keyedLocks es una tabla de cerrojos por clave de ledger. Cada cerrojo es un
// canal con capacidad 1: adquirir = enviar, liberar = recibir. La espera está
// acotada: si vence el plazo se devuelve ErrBusy en lugar de bloquear.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[itemKey]chan struct{}
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[itemKey]chan struct{})}
}

func (k *keyedLocks) get(key itemKey) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.locks[key] = ch
	}
	return ch
}

// acquire toma el cerrojo de la clave o falla con ErrBusy al vencer el plazo.
func (k *keyedLocks) acquire(ctx context.Context, key itemKey, timeout time.Duration) error {
	ch := k.get(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrBusy
	case <-ctx.Done():
		return domain.ErrBusy
	}
}

func (k *keyedLocks) release(key itemKey) {
	<-k.get(key)
}

func copyItem(item *entity.StockItem) *entity.StockItem {
	c := *item
	return &c
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func copyLocation(l *entity.Location) *entity.Location {
	c := *l
	return &c
}

func copyMovement(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	return &c
}

func copyTransfer(t *entity.StockTransfer) *entity.StockTransfer {
	c := *t
	c.Lines = append([]entity.TransferLine(nil), t.Lines...)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}
