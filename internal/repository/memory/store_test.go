package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	clinic := &model.Clinic{Name: "Vida Plena", Slug: "vida_plena", IsActive: true}
	require.NoError(t, store.Clinics().Create(ctx, clinic))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Users().Create(ctx, &model.User{
			Email: "p@example.com", Role: model.RolePatient, ClinicID: &clinic.ID,
		}))
		exists, err := tx.Users().ExistsByEmail(ctx, "p@example.com")
		require.NoError(t, err)
		assert.True(t, exists, "writes are visible inside the transaction")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := store.Users().ExistsByEmail(ctx, "p@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithTx(ctx, func(tx repository.Store) error {
		return tx.Clinics().Create(ctx, &model.Clinic{Name: "A", Slug: "a", IsActive: true})
	})
	require.NoError(t, err)

	c, err := store.Clinics().GetActiveBySlug(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", c.Name)
}

func TestUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	clinicA, clinicB := uuid.New(), uuid.New()

	require.NoError(t, store.Users().Create(ctx, &model.User{Email: "x@example.com", Role: model.RolePatient, ClinicID: &clinicA}))
	err := store.Users().Create(ctx, &model.User{Email: "X@Example.com", Role: model.RolePatient, ClinicID: &clinicB})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	require.NoError(t, store.Patients().Create(ctx, &model.PatientProfile{UserID: uuid.New(), ClinicID: clinicA, NationalIDHash: "h"}))
	require.NoError(t, store.Patients().Create(ctx, &model.PatientProfile{UserID: uuid.New(), ClinicID: clinicB, NationalIDHash: "h"}))
	err = store.Patients().Create(ctx, &model.PatientProfile{UserID: uuid.New(), ClinicID: clinicA, NationalIDHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicateNationalID)
}

func TestTokensCodeUniqueOnlyWhileUnused(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := uuid.New()

	first := &model.VerificationToken{UserID: userID, Token: "t1", Code: "000123"}
	require.NoError(t, store.Tokens().Create(ctx, first))

	err := store.Tokens().Create(ctx, &model.VerificationToken{UserID: userID, Token: "t2", Code: "000123"})
	assert.ErrorIs(t, err, repository.ErrDuplicateToken)

	won, err := store.Tokens().MarkUsed(ctx, first.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, won)

	won, err = store.Tokens().MarkUsed(ctx, first.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, store.Tokens().Create(ctx, &model.VerificationToken{UserID: userID, Token: "t2", Code: "000123"}))
}

func TestTokensDeleteExpiredUnused(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := uuid.New()
	now := time.Now().UTC()

	stale := &model.VerificationToken{UserID: userID, Token: "stale", Code: "000123", CreatedAt: now.Add(-time.Hour)}
	redeemed := &model.VerificationToken{UserID: userID, Token: "redeemed", Code: "000456", CreatedAt: now.Add(-time.Hour)}
	live := &model.VerificationToken{UserID: userID, Token: "live", Code: "000789", CreatedAt: now}
	for _, tok := range []*model.VerificationToken{stale, redeemed, live} {
		require.NoError(t, store.Tokens().Create(ctx, tok))
	}
	_, err := store.Tokens().MarkUsed(ctx, redeemed.ID, now)
	require.NoError(t, err)

	n, err := store.Tokens().DeleteExpiredUnused(ctx, now.Add(-model.VerificationTokenTTL))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Tokens().GetByToken(ctx, "stale")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Tokens().GetByToken(ctx, "redeemed")
	assert.NoError(t, err)
	_, err = store.Tokens().GetByToken(ctx, "live")
	assert.NoError(t, err)

	require.NoError(t, store.Tokens().Create(ctx, &model.VerificationToken{UserID: userID, Token: "fresh", Code: "000123"}))
}

func TestLegalDocumentsOneActivePerType(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.LegalDocuments().Create(ctx, &model.LegalDocument{Type: model.LegalDocumentTerms, Version: "v1", IsActive: true}))
	err := store.LegalDocuments().Create(ctx, &model.LegalDocument{Type: model.LegalDocumentTerms, Version: "v2", IsActive: true})
	assert.ErrorIs(t, err, repository.ErrActiveDocumentConflict)

	require.NoError(t, store.LegalDocuments().DeactivateType(ctx, model.LegalDocumentTerms))
	require.NoError(t, store.LegalDocuments().Create(ctx, &model.LegalDocument{Type: model.LegalDocumentTerms, Version: "v2", IsActive: true}))

	active, err := store.LegalDocuments().GetActive(ctx, model.LegalDocumentTerms)
	require.NoError(t, err)
	assert.Equal(t, "v2", active.Version)
}
