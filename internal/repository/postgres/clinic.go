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

const clinicColumns = `id, name, slug, is_active, created_at, updated_at`

type clinicRepository struct {
	BaseRepository
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (id, name, slug, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if clinic.ID == uuid.Nil {
		clinic.ID = uuid.New()
	}
	clinic.CreatedAt = time.Now()
	clinic.UpdatedAt = clinic.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.Slug,
		clinic.IsActive,
		clinic.CreatedAt,
		clinic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create clinic: %w", translateError(err))
	}
	return nil
}

func (r *clinicRepository) GetActiveBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE slug = $1 AND is_active = TRUE`

	var clinic model.Clinic
	if err := sqlx.GetContext(ctx, r.q, &clinic, query, slug); err != nil {
		return nil, fmt.Errorf("failed to get active clinic: %w", translateError(err))
	}
	return &clinic, nil
}

func (r *clinicRepository) GetBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE slug = $1`

	var clinic model.Clinic
	if err := sqlx.GetContext(ctx, r.q, &clinic, query, slug); err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", translateError(err))
	}
	return &clinic, nil
}

func (r *clinicRepository) ListActive(ctx context.Context) ([]*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE is_active = TRUE ORDER BY name`

	var clinics []*model.Clinic
	if err := sqlx.SelectContext(ctx, r.q, &clinics, query); err != nil {
		return nil, fmt.Errorf("failed to list active clinics: %w", err)
	}
	return clinics, nil
}
