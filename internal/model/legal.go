package model

import (
	"time"

	"github.com/google/uuid"
)

type LegalDocumentType string

const (
	LegalDocumentTerms   LegalDocumentType = "TERMS"
	LegalDocumentPrivacy LegalDocumentType = "PRIVACY"
	LegalDocumentConsent LegalDocumentType = "CONSENT"
)

// RequiredLegalDocumentTypes must each have an active document before a
// patient can register.
var RequiredLegalDocumentTypes = []LegalDocumentType{
	LegalDocumentTerms,
	LegalDocumentPrivacy,
	LegalDocumentConsent,
}

func (t LegalDocumentType) Valid() bool {
	switch t {
	case LegalDocumentTerms, LegalDocumentPrivacy, LegalDocumentConsent:
		return true
	}
	return false
}

// LegalDocument is an immutable version of a legal text. At most one
// document per type is active.
type LegalDocument struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	Type      LegalDocumentType `json:"doc_type" db:"doc_type"`
	Version   string            `json:"version" db:"version"`
	Content   string            `json:"content" db:"content"`
	IsActive  bool              `json:"is_active" db:"is_active"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}
