package entity

import "time"

// LocationType discrimina las clases de ubicación que poseen stock.
type LocationType string

const (
	LocationWarehouse LocationType = "warehouse" // almacén central
	LocationStore     LocationType = "store"     // tienda
)

// Valid indica si el discriminador es uno de los conocidos.
func (t LocationType) Valid() bool {
	return t == LocationWarehouse || t == LocationStore
}

// LocationRef identifica una ubicación: discriminador + id dentro de ese
// espacio de nombres. Dos referencias son iguales solo si coinciden ambos.
type LocationRef struct {
	Type LocationType
	ID   string
}

// Equal compara por (tipo, id).
func (r LocationRef) Equal(o LocationRef) bool {
	return r.Type == o.Type && r.ID == o.ID
}

// Less define un orden total sobre ubicaciones (tipo, luego id), independiente
// del rol origen/destino. Se usa para ordenar la toma de bloqueos.
func (r LocationRef) Less(o LocationRef) bool {
	if r.Type != o.Type {
		return r.Type < o.Type
	}
	return r.ID < o.ID
}

// String devuelve la forma "tipo:id" (clave de ledger legible en logs y eventos).
func (r LocationRef) String() string {
	return string(r.Type) + ":" + r.ID
}

// Location representa un almacén o una tienda donde se guarda inventario.
// El ledger solo consume su identidad; el ciclo de vida es del registro.
type Location struct {
	Ref       LocationRef
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
