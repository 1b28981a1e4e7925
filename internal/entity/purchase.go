package entity

import (
	"time"

	"github.com/google/uuid"
)

// Purchase represents a posted purchase for data transfer between layers.
type Purchase struct {
	ID            uuid.UUID      `json:"id"`
	SupplierID    uuid.UUID      `json:"supplier_id"`
	InvoiceNumber *string        `json:"invoice_number,omitempty"`
	PurchaseDate  time.Time      `json:"purchase_date"`
	TotalAmount   float64        `json:"total_amount"`
	TaxAmount     float64        `json:"tax_amount"`
	Notes         *string        `json:"notes,omitempty"`
	Items         []PurchaseItem `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
}

// PurchaseItem is one received line on a purchase.
type PurchaseItem struct {
	ID         uuid.UUID `json:"id"`
	PurchaseID uuid.UUID `json:"purchase_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
}
