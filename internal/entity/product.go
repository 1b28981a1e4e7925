package entity

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog product for data transfer between layers.
type Product struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	SKU         string     `json:"sku"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	UnitPrice   float64    `json:"unit_price"`
	Stock       int        `json:"stock"`
	MinStock    int        `json:"min_stock"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
