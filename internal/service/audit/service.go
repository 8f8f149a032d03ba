package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Service records audit entries. Write failures are returned to the caller;
// a recorder bound to a transaction with Tx makes the entry commit or roll
// back together with the change it describes.
type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

// Tx returns a recorder writing through the given transactional store.
func (s *Service) Tx(store repository.Store) *Service {
	return &Service{repo: store.Audit()}
}

type LogOptions struct {
	Changes    interface{}
	Provenance model.Provenance
}

// Log creates an audit log entry. actorID and clinicID may be nil for
// system actions and global accounts.
func (s *Service) Log(ctx context.Context, actorID, clinicID *uuid.UUID, action model.AuditAction, entityType, entityID string, opts *LogOptions) error {
	if !action.Valid() {
		return fmt.Errorf("invalid audit action %q", action)
	}

	changes := json.RawMessage("{}")
	var prov model.Provenance
	if opts != nil {
		prov = opts.Provenance
		if opts.Changes != nil {
			data, err := json.Marshal(opts.Changes)
			if err != nil {
				return fmt.Errorf("failed to marshal audit changes: %w", err)
			}
			changes = data
		}
	}

	log := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		ClinicID:   clinicID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		IPAddress:  prov.IPAddressPtr(),
		UserAgent:  prov.UserAgent,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func (s *Service) ListByEntity(ctx context.Context, entityType, entityID string) ([]*model.AuditLog, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID)
}
