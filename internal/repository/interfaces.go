package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// ClinicRepository is the tenant directory's storage.
	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		GetActiveBySlug(ctx context.Context, slug string) (*model.Clinic, error)
		GetBySlug(ctx context.Context, slug string) (*model.Clinic, error)
		ListActive(ctx context.Context) ([]*model.Clinic, error)
	}

	// UserRepository stores identities. Email is globally unique.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		ExistsByEmail(ctx context.Context, email string) (bool, error)
		// MarkVerified sets both the active and verified flags.
		MarkVerified(ctx context.Context, id uuid.UUID) error
	}

	// PatientRepository stores patient profiles. (clinic, national id hash)
	// is unique.
	PatientRepository interface {
		Create(ctx context.Context, profile *model.PatientProfile) error
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error)
		ExistsByNationalIDHash(ctx context.Context, clinicID uuid.UUID, hash string) (bool, error)
	}

	LegalDocumentRepository interface {
		Create(ctx context.Context, doc *model.LegalDocument) error
		GetByTypeAndVersion(ctx context.Context, docType model.LegalDocumentType, version string) (*model.LegalDocument, error)
		GetActive(ctx context.Context, docType model.LegalDocumentType) (*model.LegalDocument, error)
		ListActive(ctx context.Context) ([]*model.LegalDocument, error)
		DeactivateType(ctx context.Context, docType model.LegalDocumentType) error
	}

	// ConsentRepository is append only: there is no update or delete.
	ConsentRepository interface {
		// Create inserts the record unless one already exists for the same
		// (user, document) pair and reports whether a row was written.
		Create(ctx context.Context, record *model.ConsentRecord) (bool, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.ConsentRecord, error)
	}

	TokenRepository interface {
		// Create returns ErrDuplicateToken on a token or live code clash
		// without aborting the surrounding transaction.
		Create(ctx context.Context, token *model.VerificationToken) error
		GetByToken(ctx context.Context, token string) (*model.VerificationToken, error)
		// MarkUsed flips is_used only if it was still false and reports
		// whether this call won.
		MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) (bool, error)
		// DeleteExpiredUnused drops unused tokens created at or before
		// cutoff, releasing their codes.
		DeleteExpiredUnused(ctx context.Context, cutoff time.Time) (int64, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		ListByEntity(ctx context.Context, entityType, entityID string) ([]*model.AuditLog, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// Store groups the repositories so a unit of work can span them.
	// Repositories obtained from the Store passed to WithTx's callback run
	// inside that transaction.
	Store interface {
		Clinics() ClinicRepository
		Users() UserRepository
		Patients() PatientRepository
		LegalDocuments() LegalDocumentRepository
		Consents() ConsentRepository
		Tokens() TokenRepository
		Audit() AuditRepository
		Outbox() OutboxRepository
		WithTx(ctx context.Context, fn func(tx Store) error) error
		Ping(ctx context.Context) error
	}
)
