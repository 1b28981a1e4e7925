package entity

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a product category for data transfer between layers.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
