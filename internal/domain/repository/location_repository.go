package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// LocationRepository define el puerto de persistencia para ubicaciones
// (almacenes y tiendas bajo un mismo registro polimórfico).
type LocationRepository interface {
	Create(location *entity.Location) error
	GetByRef(ref entity.LocationRef) (*entity.Location, error)
	Update(location *entity.Location) error
	ListByType(t entity.LocationType, limit, offset int) ([]*entity.Location, error)
	Delete(ref entity.LocationRef) error
}
