package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type consentRepository struct {
	BaseRepository
}

func NewConsentRepository(base BaseRepository) repository.ConsentRepository {
	return &consentRepository{base}
}

func (r *consentRepository) Create(ctx context.Context, record *model.ConsentRecord) (bool, error) {
	query := `
		INSERT INTO user_consents (id, user_id, document_id, ip_address, user_agent, agreed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, document_id) DO NOTHING
	`

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.AgreedAt.IsZero() {
		record.AgreedAt = time.Now()
	}

	result, err := r.q.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.DocumentID,
		record.IPAddress,
		record.UserAgent,
		record.AgreedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record consent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

func (r *consentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.ConsentRecord, error) {
	query := `
		SELECT id, user_id, document_id, ip_address, user_agent, agreed_at
		FROM user_consents
		WHERE user_id = $1
		ORDER BY agreed_at
	`

	var records []*model.ConsentRecord
	if err := sqlx.SelectContext(ctx, r.q, &records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}
	return records, nil
}
