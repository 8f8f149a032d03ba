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

const legalColumns = `id, doc_type, version, content, is_active, created_at`

type legalDocumentRepository struct {
	BaseRepository
}

func NewLegalDocumentRepository(base BaseRepository) repository.LegalDocumentRepository {
	return &legalDocumentRepository{base}
}

func (r *legalDocumentRepository) Create(ctx context.Context, doc *model.LegalDocument) error {
	query := `
		INSERT INTO legal_documents (id, doc_type, version, content, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.CreatedAt = time.Now()

	_, err := r.q.ExecContext(ctx, query,
		doc.ID,
		doc.Type,
		doc.Version,
		doc.Content,
		doc.IsActive,
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create legal document: %w", translateError(err))
	}
	return nil
}

func (r *legalDocumentRepository) GetByTypeAndVersion(ctx context.Context, docType model.LegalDocumentType, version string) (*model.LegalDocument, error) {
	query := `SELECT ` + legalColumns + ` FROM legal_documents WHERE doc_type = $1 AND version = $2`

	var doc model.LegalDocument
	if err := sqlx.GetContext(ctx, r.q, &doc, query, docType, version); err != nil {
		return nil, fmt.Errorf("failed to get legal document: %w", translateError(err))
	}
	return &doc, nil
}

func (r *legalDocumentRepository) GetActive(ctx context.Context, docType model.LegalDocumentType) (*model.LegalDocument, error) {
	query := `SELECT ` + legalColumns + ` FROM legal_documents WHERE doc_type = $1 AND is_active = TRUE`

	var doc model.LegalDocument
	if err := sqlx.GetContext(ctx, r.q, &doc, query, docType); err != nil {
		return nil, fmt.Errorf("failed to get active legal document: %w", translateError(err))
	}
	return &doc, nil
}

func (r *legalDocumentRepository) ListActive(ctx context.Context) ([]*model.LegalDocument, error) {
	query := `SELECT ` + legalColumns + ` FROM legal_documents WHERE is_active = TRUE ORDER BY doc_type`

	var docs []*model.LegalDocument
	if err := sqlx.SelectContext(ctx, r.q, &docs, query); err != nil {
		return nil, fmt.Errorf("failed to list active legal documents: %w", err)
	}
	return docs, nil
}

func (r *legalDocumentRepository) DeactivateType(ctx context.Context, docType model.LegalDocumentType) error {
	query := `UPDATE legal_documents SET is_active = FALSE WHERE doc_type = $1 AND is_active = TRUE`

	if _, err := r.q.ExecContext(ctx, query, docType); err != nil {
		return fmt.Errorf("failed to deactivate legal documents: %w", err)
	}
	return nil
}
