package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionRead   AuditAction = "READ"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
	AuditActionLogin  AuditAction = "LOGIN"
	AuditActionExport AuditAction = "EXPORT"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionCreate, AuditActionRead, AuditActionUpdate,
		AuditActionDelete, AuditActionLogin, AuditActionExport:
		return true
	}
	return false
}

const (
	AuditEntityUser           = "User"
	AuditEntityPatientProfile = "PatientProfile"
	AuditEntityLegalDocument  = "LegalDocument"
)

// AuditLog is an append-only record of a sensitive state change. ActorID is
// nil for system actions.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty" db:"actor_id"`
	ClinicID   *uuid.UUID      `json:"clinic_id,omitempty" db:"clinic_id"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	Action     AuditAction     `json:"action" db:"action"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	IPAddress  *string         `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
