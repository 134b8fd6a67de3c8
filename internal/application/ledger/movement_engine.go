package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// MovementEngine es el único punto de entrada que convierte un delta del
// ledger en una acción durable y auditable: aplica el delta y agrega el
// movimiento en la misma transacción (commit juntos o ninguno).
type MovementEngine struct {
	txRunner TxRunner
	ledger   *StockLedger
	notifier ChangeNotifier
	log      *logger.Logger
}

// NewMovementEngine construye el motor. notifier puede ser nil (sin eventos).
func NewMovementEngine(txRunner TxRunner, ledger *StockLedger, notifier ChangeNotifier, log *logger.Logger) *MovementEngine {
	return &MovementEngine{txRunner: txRunner, ledger: ledger, notifier: notifier, log: log}
}

// MovementInput entrada para registrar un movimiento.
// Quantity lleva signo: positivo aumenta, negativo disminuye.
// UnitCost es obligatorio en receipt; en correction positiva es opcional.
type MovementInput struct {
	ProductID string
	Location  entity.LocationRef
	Kind      string
	Quantity  decimal.Decimal
	UnitCost  *decimal.Decimal
	Reason    string
}

// validate revisa coherencia tipo/signo antes de tocar el ledger.
func (in MovementInput) validate() error {
	if in.ProductID == "" || in.Location.ID == "" || !in.Location.Type.Valid() {
		return domain.ErrInvalidInput
	}
	if !entity.ValidMovementKind(in.Kind) {
		return domain.ErrInvalidInput
	}
	if in.Quantity.IsZero() {
		// Los movimientos nulos se rechazan, no se aceptan en silencio.
		return domain.ErrInvalidQuantity
	}
	switch in.Kind {
	case entity.MovementReceipt, entity.MovementTransferIn:
		if !in.Quantity.GreaterThan(decimal.Zero) {
			return domain.ErrInvalidQuantity
		}
	case entity.MovementIssue, entity.MovementTransferOut:
		if !in.Quantity.LessThan(decimal.Zero) {
			return domain.ErrInvalidQuantity
		}
	}
	if in.Kind == entity.MovementReceipt && (in.UnitCost == nil || in.UnitCost.IsNegative()) {
		return domain.ErrInvalidInput
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return domain.ErrInvalidInput
	}
	return nil
}

// Record inicia una transacción, aplica el delta sobre el ledger, agrega el
// movimiento y hace Commit o Rollback. Tras el commit publica StockChanged
// (best-effort, nunca afecta el resultado).
func (e *MovementEngine) Record(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	txID := uuid.New().String()

	var mov *entity.StockMovement
	var event StockChanged
	err := e.txRunner.Run(ctx, func(r Repos) error {
		var err error
		mov, event, err = e.RecordInTx(r, input, now, txID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.Emit(ctx, event)
	return mov, nil
}

// RecordInTx aplica un movimiento usando los repositorios proporcionados
// (misma transacción del caller). Lo usa TransferEngine para componer varios
// movimientos bajo una sola transacción. No publica eventos: el caller emite
// tras su propio commit.
func (e *MovementEngine) RecordInTx(r Repos, input MovementInput, now time.Time, txID string) (*entity.StockMovement, StockChanged, error) {
	item, err := e.ledger.ApplyDelta(r, input.ProductID, input.Location, input.Quantity, input.UnitCost, now)
	if err != nil {
		return nil, StockChanged{}, err
	}

	// Costo del movimiento: el suministrado en entradas, el promedio vigente
	// de la ficha en el resto.
	unitCost := item.UnitCost
	if input.Kind == entity.MovementReceipt && input.UnitCost != nil {
		unitCost = *input.UnitCost
	}

	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		TransactionID: txID,
		ProductID:     input.ProductID,
		Location:      input.Location,
		Kind:          input.Kind,
		Quantity:      input.Quantity,
		UnitCost:      unitCost,
		TotalCost:     input.Quantity.Mul(unitCost),
		Reason:        input.Reason,
		CreatedAt:     now,
	}
	if err := r.Movements.Create(mov); err != nil {
		return nil, StockChanged{}, err
	}

	event := StockChanged{
		ProductID:   input.ProductID,
		Location:    input.Location,
		LocationKey: input.Location.String(),
		NewQuantity: item.Quantity,
		At:          now,
	}
	return mov, event, nil
}

// Emit publica eventos post-commit. Un fallo del notificador se registra en
// el log y se suprime: la notificación es consultiva, no transaccional.
func (e *MovementEngine) Emit(ctx context.Context, events ...StockChanged) {
	if e.notifier == nil {
		return
	}
	for _, evt := range events {
		if err := e.notifier.Publish(ctx, evt); err != nil && e.log != nil {
			e.log.Warn().
				Err(err).
				Str("product_id", evt.ProductID).
				Str("location", evt.LocationKey).
				Msg("publicación de StockChanged fallida")
		}
	}
}
