package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// La tabla stock_movements es solo-inserción: sin UPDATE ni DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, transaction_id, product_id, location_type, location_id, kind, quantity, unit_cost, total_cost, reason, created_at`

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	reason := (*string)(nil)
	if movement.Reason != "" {
		reason = &movement.Reason
	}
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.TransactionID, movement.ProductID,
		string(movement.Location.Type), movement.Location.ID,
		movement.Kind, movement.Quantity, movement.UnitCost, movement.TotalCost,
		reason, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var locType string
	var reason *string
	err := row.Scan(
		&m.ID, &m.TransactionID, &m.ProductID, &locType, &m.Location.ID,
		&m.Kind, &m.Quantity, &m.UnitCost, &m.TotalCost, &reason, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Location.Type = entity.LocationType(locType)
	if reason != nil {
		m.Reason = *reason
	}
	return &m, nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List lista movimientos de un producto, opcionalmente acotados a una
// ubicación y a partir de una fecha, ordenados por created_at ascendente.
func (r *StockMovementRepo) List(filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1`
	args := []any{filter.ProductID}
	pos := 2
	if filter.Location != nil {
		query += fmt.Sprintf(" AND location_type = $%d AND location_id = $%d", pos, pos+1)
		args = append(args, string(filter.Location.Type), filter.Location.ID)
		pos += 2
	}
	if filter.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *filter.Since)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	return r.queryMovements(query, args...)
}

// ListByLocation lista movimientos de una ubicación en un rango de fechas.
func (r *StockMovementRepo) ListByLocation(loc entity.LocationRef, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE location_type = $1 AND location_id = $2`
	args := []any{string(loc.Type), loc.ID}
	pos := 3
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	return r.queryMovements(query, args...)
}

func (r *StockMovementRepo) queryMovements(query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
