package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrUnknownReference  = errors.New("producto o ubicación no encontrado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrSameLocation      = errors.New("origen y destino son la misma ubicación")
	ErrDuplicateLineItem = errors.New("producto duplicado en el traslado")
	ErrBusy              = errors.New("recurso bloqueado, reintentar más tarde")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidInput      = errors.New("entrada inválida")
)
