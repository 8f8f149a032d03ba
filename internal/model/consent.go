package model

import (
	"time"

	"github.com/google/uuid"
)

// ConsentRecord proves that a user agreed to a specific legal document
// version. Records are append only.
type ConsentRecord struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	IPAddress  *string   `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  string    `json:"user_agent" db:"user_agent"`
	AgreedAt   time.Time `json:"agreed_at" db:"agreed_at"`
}

// ActiveDocumentStatus is an active legal document annotated with whether
// the current user already agreed to it.
type ActiveDocumentStatus struct {
	ID      uuid.UUID         `json:"id"`
	Type    LegalDocumentType `json:"doc_type"`
	Version string            `json:"version"`
	Content string            `json:"content"`
	Agreed  bool              `json:"agreed"`
}

type ConsentAcceptResult struct {
	Created     int `json:"created"`
	TotalActive int `json:"total_active"`
}
