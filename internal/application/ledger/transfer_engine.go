package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// TransferEngine mueve uno o más productos de una ubicación origen a una
// destino como unidad de trabajo todo-o-nada: todas las líneas dentro de una
// sola transacción, dos movimientos (transfer-out/transfer-in) por línea.
// Una aplicación parcial nunca es observable por los lectores del ledger.
type TransferEngine struct {
	txRunner     TxRunner
	movements    *MovementEngine
	transferRepo repository.StockTransferRepository
	locationRepo repository.LocationRepository
	log          *logger.Logger
}

// NewTransferEngine construye el motor de traslados.
func NewTransferEngine(
	txRunner TxRunner,
	movements *MovementEngine,
	transferRepo repository.StockTransferRepository,
	locationRepo repository.LocationRepository,
	log *logger.Logger,
) *TransferEngine {
	return &TransferEngine{
		txRunner:     txRunner,
		movements:    movements,
		transferRepo: transferRepo,
		locationRepo: locationRepo,
		log:          log,
	}
}

// validateLines revisa la forma de la solicitud antes de tocar el ledger.
func validateLines(source, dest entity.LocationRef, lines []entity.TransferLine) error {
	if !source.Type.Valid() || !dest.Type.Valid() || source.ID == "" || dest.ID == "" {
		return domain.ErrInvalidInput
	}
	if source.Equal(dest) {
		return domain.ErrSameLocation
	}
	if len(lines) == 0 {
		return domain.ErrInvalidQuantity
	}
	seen := make(map[string]struct{}, len(lines))
	for _, ln := range lines {
		if ln.ProductID == "" {
			return domain.ErrInvalidInput
		}
		if !ln.Quantity.GreaterThan(decimal.Zero) {
			return domain.ErrInvalidQuantity
		}
		if _, dup := seen[ln.ProductID]; dup {
			return domain.ErrDuplicateLineItem
		}
		seen[ln.ProductID] = struct{}{}
	}
	return nil
}

// Execute valida la solicitud, registra el traslado como pending y aplica
// todas las líneas dentro de una sola transacción. Si cualquier paso falla
// (típicamente stock insuficiente en el origen) la transacción completa se
// revierte y el traslado queda failed con el error que lo disparó. En éxito
// queda completed y ya se emitió un StockChanged por cada (producto,
// ubicación) afectado.
func (e *TransferEngine) Execute(
	ctx context.Context,
	source, dest entity.LocationRef,
	lines []entity.TransferLine,
) (*entity.StockTransfer, error) {
	if err := validateLines(source, dest, lines); err != nil {
		return nil, err
	}

	// Ambas ubicaciones deben resolver antes de abrir la transacción.
	for _, ref := range []entity.LocationRef{source, dest} {
		loc, err := e.locationRepo.GetByRef(ref)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, domain.ErrUnknownReference
		}
	}

	// Orden determinista de proceso: product id ascendente. Un orden
	// arbitrario arriesga estados de fallo parcial inconsistentes entre
	// traslados concurrentes que comparten par de ubicaciones.
	ordered := make([]entity.TransferLine, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	now := time.Now()
	transfer := &entity.StockTransfer{
		ID:          uuid.New().String(),
		Source:      source,
		Destination: dest,
		Lines:       ordered,
		Status:      entity.TransferPending,
		CreatedAt:   now,
	}
	if err := e.transferRepo.Create(transfer); err != nil {
		return nil, err
	}

	events := make([]StockChanged, 0, len(ordered)*2)
	var completedAt time.Time
	txErr := e.txRunner.Run(ctx, func(r Repos) error {
		for _, ln := range ordered {
			// Toma ambos bloqueos en orden canónico (tipo, id), independiente
			// del rol origen/destino, para que dos traslados opuestos entre
			// las mismas ubicaciones no puedan interbloquearse.
			first, second := source, dest
			if dest.Less(source) {
				first, second = dest, source
			}
			if _, err := r.Items.GetForUpdate(ln.ProductID, first); err != nil {
				return err
			}
			if _, err := r.Items.GetForUpdate(ln.ProductID, second); err != nil {
				return err
			}

			_, outEvt, err := e.movements.RecordInTx(r, MovementInput{
				ProductID: ln.ProductID,
				Location:  source,
				Kind:      entity.MovementTransferOut,
				Quantity:  ln.Quantity.Neg(),
			}, now, transfer.ID)
			if err != nil {
				return err
			}
			_, inEvt, err := e.movements.RecordInTx(r, MovementInput{
				ProductID: ln.ProductID,
				Location:  dest,
				Kind:      entity.MovementTransferIn,
				Quantity:  ln.Quantity,
			}, now, transfer.ID)
			if err != nil {
				return err
			}
			events = append(events, outEvt, inEvt)
		}
		// El estado completed se escribe en la misma transacción que los
		// movimientos: o el ledger cambió y el traslado quedó completed, o
		// nada de lo anterior existe. Sin ventana pending-pero-aplicado.
		completedAt = time.Now()
		return r.Transfers.UpdateStatus(transfer.ID, entity.TransferCompleted, "", &completedAt)
	})

	if txErr != nil {
		transfer.Status = entity.TransferFailed
		transfer.FailReason = txErr.Error()
		if err := e.transferRepo.UpdateStatus(transfer.ID, entity.TransferFailed, txErr.Error(), nil); err != nil && e.log != nil {
			e.log.Error().Err(err).Str("transfer_id", transfer.ID).Msg("marcar traslado como failed")
		}
		return transfer, txErr
	}

	transfer.Status = entity.TransferCompleted
	transfer.CompletedAt = &completedAt

	e.movements.Emit(ctx, events...)
	return transfer, nil
}
