package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// LocationUseCase casos de uso CRUD para el registro de ubicaciones
// (almacenes y tiendas). El ledger solo consume la identidad (tipo, id).
type LocationUseCase struct {
	repo repository.LocationRepository
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(repo repository.LocationRepository) *LocationUseCase {
	return &LocationUseCase{repo: repo}
}

// Create registra una nueva ubicación del tipo indicado.
func (uc *LocationUseCase) Create(in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	t := entity.LocationType(in.Type)
	if !t.Valid() || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	location := &entity.Location{
		Ref:       entity.LocationRef{Type: t, ID: uuid.New().String()},
		Name:      in.Name,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(location); err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// Resolve obtiene una ubicación por referencia; ErrUnknownReference si no existe.
func (uc *LocationUseCase) Resolve(ref entity.LocationRef) (*dto.LocationResponse, error) {
	location, err := uc.repo.GetByRef(ref)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, domain.ErrUnknownReference
	}
	return toLocationResponse(location), nil
}

// ListByType lista ubicaciones de un tipo, paginado.
func (uc *LocationUseCase) ListByType(t entity.LocationType, limit, offset int) ([]*dto.LocationResponse, error) {
	if !t.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	locations, err := uc.repo.ListByType(t, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.LocationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, toLocationResponse(l))
	}
	return out, nil
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	return &dto.LocationResponse{
		Type:      string(l.Ref.Type),
		ID:        l.Ref.ID,
		Name:      l.Name,
		Address:   l.Address,
		CreatedAt: l.CreatedAt,
	}
}
