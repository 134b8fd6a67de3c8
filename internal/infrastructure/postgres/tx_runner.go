package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Cada transacción fija lock_timeout: una espera de bloqueo que excede el
// límite falla con ErrBusy en lugar de bloquear indefinidamente.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout <= 0 usa 3s.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Contención de bloqueos (55P03/40P01) se traduce a
// ErrBusy para que el caller reintente con backoff.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ledger.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET LOCAL aplica solo a esta transacción.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	repos := ledger.Repos{
		Items:     NewStockItemRepository(tx),
		Movements: NewStockMovementRepository(tx),
		Products:  NewProductRepository(tx),
		Transfers: NewStockTransferRepository(tx),
	}

	if err := fn(repos); err != nil {
		if isLockUnavailable(err) {
			return domain.ErrBusy
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isLockUnavailable(err) {
			return domain.ErrBusy
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
