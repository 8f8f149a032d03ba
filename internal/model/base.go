package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Provenance describes where a request came from. It is stored with consent
// records and audit entries.
type Provenance struct {
	IPAddress string
	UserAgent string
}

// IPAddressPtr returns nil for an unknown address so it is stored as NULL.
func (p Provenance) IPAddressPtr() *string {
	if p.IPAddress == "" {
		return nil
	}
	ip := p.IPAddress
	return &ip
}
