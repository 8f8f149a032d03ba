// Package memory is an in-process repository.Store used by the demo
// profile and by service tests. Transactions run on a private copy of the
// data and are swapped in on commit, so a failed unit of work leaves no
// trace. Transactions are serialized.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type data struct {
	clinics  map[uuid.UUID]model.Clinic
	users    map[uuid.UUID]model.User
	patients map[uuid.UUID]model.PatientProfile
	docs     map[uuid.UUID]model.LegalDocument
	consents []model.ConsentRecord
	tokens   map[uuid.UUID]model.VerificationToken
	audit    []model.AuditLog
	outbox   []model.OutboxEvent
}

func newData() *data {
	return &data{
		clinics:  make(map[uuid.UUID]model.Clinic),
		users:    make(map[uuid.UUID]model.User),
		patients: make(map[uuid.UUID]model.PatientProfile),
		docs:     make(map[uuid.UUID]model.LegalDocument),
		tokens:   make(map[uuid.UUID]model.VerificationToken),
	}
}

func (d *data) clone() *data {
	c := &data{
		clinics:  make(map[uuid.UUID]model.Clinic, len(d.clinics)),
		users:    make(map[uuid.UUID]model.User, len(d.users)),
		patients: make(map[uuid.UUID]model.PatientProfile, len(d.patients)),
		docs:     make(map[uuid.UUID]model.LegalDocument, len(d.docs)),
		tokens:   make(map[uuid.UUID]model.VerificationToken, len(d.tokens)),
		consents: append([]model.ConsentRecord(nil), d.consents...),
		audit:    append([]model.AuditLog(nil), d.audit...),
		outbox:   append([]model.OutboxEvent(nil), d.outbox...),
	}
	for k, v := range d.clinics {
		c.clinics[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.patients {
		c.patients[k] = v
	}
	for k, v := range d.docs {
		c.docs[k] = v
	}
	for k, v := range d.tokens {
		c.tokens[k] = v
	}
	return c
}

// Store implements repository.Store on maps guarded by a mutex.
type Store struct {
	mu   *sync.Mutex
	root **data
	tx   *data
}

func NewStore() *Store {
	d := newData()
	return &Store{mu: &sync.Mutex{}, root: &d}
}

// view runs fn against the data visible to this store: the transaction's
// copy, or the committed data under the lock.
func (s *Store) view(fn func(d *data) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(*s.root)
}

func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := (*s.root).clone()
	if err := fn(&Store{mu: s.mu, root: s.root, tx: work}); err != nil {
		return err
	}
	*s.root = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Clinics() repository.ClinicRepository { return clinicRepository{s} }
func (s *Store) Users() repository.UserRepository { return userRepository{s} }
func (s *Store) Patients() repository.PatientRepository { return patientRepository{s} }
func (s *Store) LegalDocuments() repository.LegalDocumentRepository { return legalRepository{s} }
func (s *Store) Consents() repository.ConsentRepository { return consentRepository{s} }
func (s *Store) Tokens() repository.TokenRepository { return tokenRepository{s} }
func (s *Store) Audit() repository.AuditRepository { return auditRepository{s} }
func (s *Store) Outbox() repository.OutboxRepository { return outboxRepository{s} }
