package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Store is the Postgres implementation of repository.Store.
type Store struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) base() BaseRepository {
	if s.tx != nil {
		return NewBaseRepository(s.tx)
	}
	return NewBaseRepository(s.db)
}

func (s *Store) Clinics() repository.ClinicRepository {
	return NewClinicRepository(s.base())
}

func (s *Store) Users() repository.UserRepository {
	return NewUserRepository(s.base())
}

func (s *Store) Patients() repository.PatientRepository {
	return NewPatientRepository(s.base())
}

func (s *Store) LegalDocuments() repository.LegalDocumentRepository {
	return NewLegalDocumentRepository(s.base())
}

func (s *Store) Consents() repository.ConsentRepository {
	return NewConsentRepository(s.base())
}

func (s *Store) Tokens() repository.TokenRepository {
	return NewTokenRepository(s.base())
}

func (s *Store) Audit() repository.AuditRepository {
	return NewAuditRepository(s.base())
}

func (s *Store) Outbox() repository.OutboxRepository {
	return NewOutboxRepository(s.base())
}

// WithTx executes fn within a transaction. Nested calls join the outer
// transaction.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
