package legal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var (
	ErrMissingLegalDocument   = apperrors.New(apperrors.ErrUnavailable, "MISSING_LEGAL_DOCUMENT", "required legal document is not available")
	ErrActiveDocumentConflict = apperrors.New(apperrors.ErrConflict, "ACTIVE_DOCUMENT_CONFLICT", "another document of this type is already active")
	ErrDuplicateVersion       = apperrors.New(apperrors.ErrConflict, "DUPLICATE_DOCUMENT_VERSION", "legal document version already exists")
	ErrInvalidDocumentType    = apperrors.New(apperrors.ErrBadRequest, "INVALID_DOCUMENT_TYPE", "unknown legal document type")
)

type Service struct {
	store   repository.Store
	auditor *audit.Service
}

func NewService(store repository.Store, auditor *audit.Service) *Service {
	return &Service{store: store, auditor: auditor}
}

func (s *Service) ListActive(ctx context.Context) ([]*model.LegalDocument, error) {
	docs, err := s.store.LegalDocuments().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list legal documents: %w", err)
	}
	return docs, nil
}

func (s *Service) GetActive(ctx context.Context, docType model.LegalDocumentType) (*model.LegalDocument, error) {
	return getActive(ctx, s.store, docType)
}

// RequireActive returns the active document of every required type, read
// through store so it can participate in a caller's transaction.
func (s *Service) RequireActive(ctx context.Context, store repository.Store) ([]*model.LegalDocument, error) {
	docs := make([]*model.LegalDocument, 0, len(model.RequiredLegalDocumentTypes))
	for _, docType := range model.RequiredLegalDocumentTypes {
		doc, err := getActive(ctx, store, docType)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func getActive(ctx context.Context, store repository.Store, docType model.LegalDocumentType) (*model.LegalDocument, error) {
	doc, err := store.LegalDocuments().GetActive(ctx, docType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMissingLegalDocument.WithMessage("no active %s document", docType)
		}
		return nil, fmt.Errorf("failed to load %s document: %w", docType, err)
	}
	return doc, nil
}

// Publish stores a new version and makes it the only active document of its
// type. Versions already published are left untouched.
func (s *Service) Publish(ctx context.Context, actorID *uuid.UUID, doc *model.LegalDocument) error {
	if !doc.Type.Valid() {
		return ErrInvalidDocumentType
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.LegalDocuments().DeactivateType(ctx, doc.Type); err != nil {
			return fmt.Errorf("failed to deactivate %s documents: %w", doc.Type, err)
		}
		doc.IsActive = true
		if err := tx.LegalDocuments().Create(ctx, doc); err != nil {
			return err
		}
		return s.auditor.Tx(tx).Log(ctx, actorID, nil, model.AuditActionCreate, model.AuditEntityLegalDocument, doc.ID.String(), &audit.LogOptions{
			Changes: map[string]string{"doc_type": string(doc.Type), "version": doc.Version},
		})
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicateDocumentVersion):
		return ErrDuplicateVersion.Wrap(err)
	case errors.Is(err, repository.ErrActiveDocumentConflict):
		return ErrActiveDocumentConflict.Wrap(err)
	default:
		return fmt.Errorf("failed to publish legal document: %w", err)
	}
}
