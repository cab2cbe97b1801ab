package entity

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a tenant account for data transfer between layers.
type Tenant struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DefaultCurrency string    `json:"default_currency"`
	ContactEmail    *string   `json:"contact_email,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
