package clinic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
)

func TestResolveActive(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Clinics().Create(ctx, &model.Clinic{Name: "Vida Plena", Slug: "vida_plena", IsActive: true}))
	require.NoError(t, store.Clinics().Create(ctx, &model.Clinic{Name: "Fechada", Slug: "fechada", IsActive: false}))

	svc := NewService(store.Clinics(), time.Minute)

	clinic, err := svc.ResolveActive(ctx, "vida_plena")
	require.NoError(t, err)
	assert.Equal(t, "Vida Plena", clinic.Name)

	_, err = svc.ResolveActive(ctx, "fechada")
	assert.True(t, errors.Is(err, ErrClinicNotFound))

	_, err = svc.ResolveActive(ctx, "unknown")
	assert.True(t, errors.Is(err, ErrClinicNotFound))
}

func TestListActiveIsCached(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Clinics().Create(ctx, &model.Clinic{Name: "Vida Plena", Slug: "vida_plena", IsActive: true}))

	svc := NewService(store.Clinics(), time.Minute)

	clinics, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, clinics, 1)

	require.NoError(t, store.Clinics().Create(ctx, &model.Clinic{Name: "Sorriso Feliz", Slug: "sorriso_feliz", IsActive: true}))

	clinics, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, clinics, 1)

	svc.Invalidate()
	clinics, err = svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, clinics, 2)
	assert.Equal(t, "Sorriso Feliz", clinics[0].Name)
}
