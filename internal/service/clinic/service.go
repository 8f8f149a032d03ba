package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var ErrClinicNotFound = apperrors.New(apperrors.ErrNotFound, "CLINIC_NOT_FOUND", "clinic not found or inactive")

const activeListKey = "clinics:active"

// Service is the tenant directory. The public listing is cached briefly;
// slug resolution always reads the store so a deactivated clinic stops
// accepting registrations at once.
type Service struct {
	repo  repository.ClinicRepository
	cache *cache.Cache
}

func NewService(repo repository.ClinicRepository, listTTL time.Duration) *Service {
	if listTTL <= 0 {
		listTTL = time.Minute
	}
	return &Service{
		repo:  repo,
		cache: cache.New(listTTL, 2*listTTL),
	}
}

func (s *Service) ResolveActive(ctx context.Context, slug string) (*model.Clinic, error) {
	clinic, err := s.repo.GetActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClinicNotFound
		}
		return nil, fmt.Errorf("failed to resolve clinic: %w", err)
	}
	return clinic, nil
}

func (s *Service) ListActive(ctx context.Context) ([]*model.Clinic, error) {
	if cached, found := s.cache.Get(activeListKey); found {
		return cached.([]*model.Clinic), nil
	}

	clinics, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}

	s.cache.Set(activeListKey, clinics, cache.DefaultExpiration)
	return clinics, nil
}

// Invalidate drops the cached listing.
func (s *Service) Invalidate() {
	s.cache.Delete(activeListKey)
}
