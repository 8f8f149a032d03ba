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

const patientColumns = `id, user_id, clinic_id, full_name, phone, sex, birth_date,
	national_id_encrypted, national_id_hash, created_at, updated_at`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func (r *patientRepository) Create(ctx context.Context, profile *model.PatientProfile) error {
	query := `
		INSERT INTO patient_profiles (
			id, user_id, clinic_id, full_name, phone, sex, birth_date,
			national_id_encrypted, national_id_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.ClinicID,
		profile.FullName,
		profile.Phone,
		profile.Sex,
		profile.BirthDate,
		profile.NationalIDEncrypted,
		profile.NationalIDHash,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient profile: %w", translateError(err))
	}
	return nil
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	query := `SELECT ` + patientColumns + ` FROM patient_profiles WHERE user_id = $1`

	var profile model.PatientProfile
	if err := sqlx.GetContext(ctx, r.q, &profile, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get patient profile: %w", translateError(err))
	}
	return &profile, nil
}

func (r *patientRepository) ExistsByNationalIDHash(ctx context.Context, clinicID uuid.UUID, hash string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM patient_profiles WHERE clinic_id = $1 AND national_id_hash = $2
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, r.q, &exists, query, clinicID, hash); err != nil {
		return false, fmt.Errorf("failed to check national id: %w", err)
	}
	return exists, nil
}
