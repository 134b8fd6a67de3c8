package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.StockTransferRepository = (*StockTransferRepo)(nil)

// StockTransferRepo implementación sobre PostgreSQL. Las líneas se guardan
// como JSONB: el detalle contable vive en stock_movements, esto es el
// registro de la unidad de trabajo.
type StockTransferRepo struct {
	q Querier
}

// NewStockTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransferRepository(q Querier) *StockTransferRepo {
	return &StockTransferRepo{q: q}
}

type transferLineRow struct {
	ProductID string `json:"product_id"`
	Quantity  string `json:"quantity"`
}

func encodeLines(lines []entity.TransferLine) ([]byte, error) {
	rows := make([]transferLineRow, 0, len(lines))
	for _, ln := range lines {
		rows = append(rows, transferLineRow{ProductID: ln.ProductID, Quantity: ln.Quantity.String()})
	}
	return json.Marshal(rows)
}

func decodeLines(raw []byte) ([]entity.TransferLine, error) {
	var rows []transferLineRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	lines := make([]entity.TransferLine, 0, len(rows))
	for _, row := range rows {
		qty, err := decimal.NewFromString(row.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, entity.TransferLine{ProductID: row.ProductID, Quantity: qty})
	}
	return lines, nil
}

// Create persiste el traslado (normalmente en estado pending).
func (r *StockTransferRepo) Create(transfer *entity.StockTransfer) error {
	lines, err := encodeLines(transfer.Lines)
	if err != nil {
		return fmt.Errorf("encode transfer lines: %w", err)
	}
	query := `
		INSERT INTO stock_transfers (id, source_type, source_id, dest_type, dest_id, lines, status, fail_reason, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	failReason := (*string)(nil)
	if transfer.FailReason != "" {
		failReason = &transfer.FailReason
	}
	_, err = r.q.Exec(context.Background(), query,
		transfer.ID,
		string(transfer.Source.Type), transfer.Source.ID,
		string(transfer.Destination.Type), transfer.Destination.ID,
		lines, transfer.Status, failReason, transfer.CreatedAt, transfer.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock transfer: %w", err)
	}
	return nil
}

// UpdateStatus marca el traslado como completed o failed.
func (r *StockTransferRepo) UpdateStatus(id, status, failReason string, completedAt *time.Time) error {
	query := `
		UPDATE stock_transfers
		SET status = $2, fail_reason = NULLIF($3, ''), completed_at = $4
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, status, failReason, completedAt)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	return nil
}

func scanTransfer(row pgx.Row) (*entity.StockTransfer, error) {
	var t entity.StockTransfer
	var sourceType, destType string
	var rawLines []byte
	var failReason *string
	err := row.Scan(
		&t.ID, &sourceType, &t.Source.ID, &destType, &t.Destination.ID,
		&rawLines, &t.Status, &failReason, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Source.Type = entity.LocationType(sourceType)
	t.Destination.Type = entity.LocationType(destType)
	if failReason != nil {
		t.FailReason = *failReason
	}
	lines, err := decodeLines(rawLines)
	if err != nil {
		return nil, fmt.Errorf("decode transfer lines: %w", err)
	}
	t.Lines = lines
	return &t, nil
}

const transferColumns = `id, source_type, source_id, dest_type, dest_id, lines, status, fail_reason, created_at, completed_at`

// GetByID obtiene un traslado por ID (nil si no existe).
func (r *StockTransferRepo) GetByID(id string) (*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE id = $1`
	t, err := scanTransfer(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

// List lista traslados recientes (más nuevos primero), paginado.
func (r *StockTransferRepo) List(limit, offset int) ([]*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
