package postgres

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

const uniqueViolation = "23505"

// constraintErrors maps unique constraint and index names from the
// migrations to repository errors.
var constraintErrors = map[string]error{
	"clinics_slug_key":                          repository.ErrDuplicateSlug,
	"users_email_key":                           repository.ErrDuplicateEmail,
	"patient_profiles_clinic_national_id_key":   repository.ErrDuplicateNationalID,
	"legal_documents_type_version_key":          repository.ErrDuplicateDocumentVersion,
	"legal_documents_one_active_per_type":       repository.ErrActiveDocumentConflict,
	"email_verification_tokens_token_key":       repository.ErrDuplicateToken,
	"email_verification_tokens_unused_code_idx": repository.ErrDuplicateToken,
}

// BaseRepository provides common functionality for all repositories. q is
// either the pool or the current transaction.
type BaseRepository struct {
	q sqlx.ExtContext
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(q sqlx.ExtContext) BaseRepository {
	return BaseRepository{q: q}
}

// translateError turns driver errors into repository errors callers can
// match with errors.Is. Unknown errors pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if mapped, ok := constraintErrors[pqErr.Constraint]; ok {
			return mapped
		}
	}
	return err
}
