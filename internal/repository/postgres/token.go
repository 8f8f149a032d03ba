package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type tokenRepository struct {
	BaseRepository
}

func NewTokenRepository(base BaseRepository) repository.TokenRepository {
	return &tokenRepository{base}
}

// Create relies on ON CONFLICT DO NOTHING so a collision with an existing
// token or live code leaves the enclosing transaction usable for a retry.
func (r *tokenRepository) Create(ctx context.Context, token *model.VerificationToken) error {
	query := `
		INSERT INTO email_verification_tokens (id, user_id, token, code, is_used, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		ON CONFLICT DO NOTHING
		RETURNING id
	`

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	var id uuid.UUID
	err := r.q.QueryRowxContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.Code,
		token.CreatedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrDuplicateToken
	}
	if err != nil {
		return fmt.Errorf("failed to store verification token: %w", translateError(err))
	}
	return nil
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*model.VerificationToken, error) {
	query := `
		SELECT id, user_id, token, code, is_used, used_at, created_at
		FROM email_verification_tokens
		WHERE token = $1
	`

	var t model.VerificationToken
	if err := sqlx.GetContext(ctx, r.q, &t, query, token); err != nil {
		return nil, fmt.Errorf("failed to get verification token: %w", translateError(err))
	}
	return &t, nil
}

func (r *tokenRepository) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) (bool, error) {
	query := `
		UPDATE email_verification_tokens
		SET is_used = TRUE, used_at = $2
		WHERE id = $1 AND is_used = FALSE
	`

	result, err := r.q.ExecContext(ctx, query, id, usedAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark token used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

func (r *tokenRepository) DeleteExpiredUnused(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM email_verification_tokens
		WHERE is_used = FALSE AND created_at <= $1
	`

	result, err := r.q.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
