package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Service is the consent ledger. Records are only ever appended; there is
// no path that edits or removes one.
type Service struct {
	store   repository.Store
	auditor *audit.Service
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store repository.Store, auditor *audit.Service, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		auditor: auditor,
		metrics: m,
		now:     time.Now,
	}
}

// Record appends one consent record per document through store and returns
// how many were new. Documents already agreed to are skipped. Callers report
// the count with ObserveAccepted once their transaction commits.
func (s *Service) Record(ctx context.Context, store repository.Store, userID uuid.UUID, docs []*model.LegalDocument, prov model.Provenance) (int, error) {
	agreedAt := s.now().UTC()
	created := 0
	for _, doc := range docs {
		ok, err := store.Consents().Create(ctx, &model.ConsentRecord{
			ID:         uuid.New(),
			UserID:     userID,
			DocumentID: doc.ID,
			IPAddress:  prov.IPAddressPtr(),
			UserAgent:  prov.UserAgent,
			AgreedAt:   agreedAt,
		})
		if err != nil {
			return created, fmt.Errorf("failed to record consent for %s %s: %w", doc.Type, doc.Version, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// ObserveAccepted counts committed consent records.
func (s *Service) ObserveAccepted(n int) {
	if n > 0 {
		s.metrics.ConsentAcceptances.Add(float64(n))
	}
}

// HasFullConsent reports whether the user agreed to every currently active
// document. With no active documents there is nothing to agree to.
func (s *Service) HasFullConsent(ctx context.Context, userID uuid.UUID) (bool, error) {
	statuses, err := s.ActiveDocuments(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, st := range statuses {
		if !st.Agreed {
			return false, nil
		}
	}
	return true, nil
}

func (s *Service) ActiveDocuments(ctx context.Context, userID uuid.UUID) ([]*model.ActiveDocumentStatus, error) {
	docs, err := s.store.LegalDocuments().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active documents: %w", err)
	}
	agreed, err := s.agreedDocuments(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*model.ActiveDocumentStatus, 0, len(docs))
	for _, doc := range docs {
		out = append(out, &model.ActiveDocumentStatus{
			ID:      doc.ID,
			Type:    doc.Type,
			Version: doc.Version,
			Content: doc.Content,
			Agreed:  agreed[doc.ID],
		})
	}
	return out, nil
}

// AcceptActive records agreement to every active document, typically after
// a new version was published.
func (s *Service) AcceptActive(ctx context.Context, user *model.User, prov model.Provenance) (*model.ConsentAcceptResult, error) {
	result := &model.ConsentAcceptResult{}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		docs, err := tx.LegalDocuments().ListActive(ctx)
		if err != nil {
			return fmt.Errorf("failed to list active documents: %w", err)
		}
		result.TotalActive = len(docs)

		created, err := s.Record(ctx, tx, user.ID, docs, prov)
		if err != nil {
			return err
		}
		result.Created = created
		if created == 0 {
			return nil
		}

		if err := s.auditor.Tx(tx).Log(ctx, &user.ID, user.ClinicID, model.AuditActionUpdate, model.AuditEntityLegalDocument, "*", &audit.LogOptions{
			Changes:    map[string]interface{}{"event": "consent accepted", "created": created},
			Provenance: prov,
		}); err != nil {
			return err
		}

		event, err := model.NewOutboxEvent(model.EventConsentAccepted, map[string]interface{}{
			"user_id": user.ID,
			"created": created,
		})
		if err != nil {
			return fmt.Errorf("failed to build outbox event: %w", err)
		}
		return tx.Outbox().Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	s.ObserveAccepted(result.Created)
	return result, nil
}

func (s *Service) agreedDocuments(ctx context.Context, store repository.Store, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	records, err := store.Consents().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}
	agreed := make(map[uuid.UUID]bool, len(records))
	for _, r := range records {
		agreed[r.DocumentID] = true
	}
	return agreed, nil
}
