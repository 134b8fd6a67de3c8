package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Unit  string          `json:"unit,omitempty"`
	Price decimal.Decimal `json:"price"`
}

// UpdateProductRequest body para PUT /api/products/:id (campos opcionales).
type UpdateProductRequest struct {
	Name  *string          `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// ProductResponse representación de salida de un producto.
type ProductResponse struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateLocationRequest body para POST /api/locations.
type CreateLocationRequest struct {
	Type    string `json:"type"` // warehouse | store
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// LocationResponse representación de salida de una ubicación.
type LocationResponse struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
