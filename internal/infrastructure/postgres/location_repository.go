package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación de LocationRepository sobre PostgreSQL.
// Almacenes y tiendas comparten tabla con discriminador; la unicidad de
// nombre es por tipo (constraint única sobre (type, name)).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

const locationColumns = `type, id, name, address, created_at, updated_at`

// Create persiste una ubicación. Nombre duplicado en el tipo devuelve ErrDuplicate.
func (r *LocationRepo) Create(location *entity.Location) error {
	query := `
		INSERT INTO locations (` + locationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		string(location.Ref.Type), location.Ref.ID, location.Name, location.Address,
		location.CreatedAt, location.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

func scanLocation(row pgx.Row) (*entity.Location, error) {
	var l entity.Location
	var locType string
	err := row.Scan(&locType, &l.Ref.ID, &l.Name, &l.Address, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Ref.Type = entity.LocationType(locType)
	return &l, nil
}

// GetByRef obtiene una ubicación por (tipo, id); nil si no existe.
func (r *LocationRepo) GetByRef(ref entity.LocationRef) (*entity.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE type = $1 AND id = $2`
	l, err := scanLocation(r.q.QueryRow(context.Background(), query, string(ref.Type), ref.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

// Update actualiza nombre y dirección.
func (r *LocationRepo) Update(location *entity.Location) error {
	query := `
		UPDATE locations SET name = $3, address = $4, updated_at = $5
		WHERE type = $1 AND id = $2`
	_, err := r.q.Exec(context.Background(), query,
		string(location.Ref.Type), location.Ref.ID,
		location.Name, location.Address, location.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// ListByType lista ubicaciones de un tipo por nombre ascendente, paginado.
func (r *LocationRepo) ListByType(t entity.LocationType, limit, offset int) ([]*entity.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE type = $1 ORDER BY name ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, string(t), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Delete elimina una ubicación por referencia.
func (r *LocationRepo) Delete(ref entity.LocationRef) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM locations WHERE type = $1 AND id = $2`, string(ref.Type), ref.ID)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}
