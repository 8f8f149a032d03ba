package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type clinicRepository struct{ s *Store }

func (r clinicRepository) Create(_ context.Context, clinic *model.Clinic) error {
	return r.s.view(func(d *data) error {
		for _, c := range d.clinics {
			if c.Slug == clinic.Slug {
				return repository.ErrDuplicateSlug
			}
		}
		if clinic.ID == uuid.Nil {
			clinic.ID = uuid.New()
		}
		clinic.CreatedAt = time.Now()
		clinic.UpdatedAt = clinic.CreatedAt
		d.clinics[clinic.ID] = *clinic
		return nil
	})
}

func (r clinicRepository) GetActiveBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	c, err := r.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (r clinicRepository) GetBySlug(_ context.Context, slug string) (*model.Clinic, error) {
	var found *model.Clinic
	err := r.s.view(func(d *data) error {
		for _, c := range d.clinics {
			if c.Slug == slug {
				c := c
				found = &c
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r clinicRepository) ListActive(_ context.Context) ([]*model.Clinic, error) {
	var out []*model.Clinic
	err := r.s.view(func(d *data) error {
		for _, c := range d.clinics {
			if c.IsActive {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type userRepository struct{ s *Store }

func (r userRepository) Create(_ context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return r.s.view(func(d *data) error {
		email := model.NormalizeEmail(user.Email)
		for _, u := range d.users {
			if u.Email == email {
				return repository.ErrDuplicateEmail
			}
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		user.Email = email
		user.CreatedAt = time.Now()
		user.UpdatedAt = user.CreatedAt
		d.users[user.ID] = *user
		return nil
	})
}

func (r userRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	var found *model.User
	err := r.s.view(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		found = &u
		return nil
	})
	return found, err
}

func (r userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	var found *model.User
	email = model.NormalizeEmail(email)
	err := r.s.view(func(d *data) error {
		for _, u := range d.users {
			if u.Email == email {
				u := u
				found = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r userRepository) MarkVerified(_ context.Context, id uuid.UUID) error {
	return r.s.view(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.IsActive = true
		u.IsVerified = true
		u.UpdatedAt = time.Now()
		d.users[id] = u
		return nil
	})
}

type patientRepository struct{ s *Store }

func (r patientRepository) Create(_ context.Context, profile *model.PatientProfile) error {
	return r.s.view(func(d *data) error {
		for _, p := range d.patients {
			if p.ClinicID == profile.ClinicID && p.NationalIDHash == profile.NationalIDHash {
				return repository.ErrDuplicateNationalID
			}
			if p.UserID == profile.UserID {
				return fmt.Errorf("patient profile already exists for user %s", profile.UserID)
			}
		}
		if profile.ID == uuid.Nil {
			profile.ID = uuid.New()
		}
		profile.CreatedAt = time.Now()
		profile.UpdatedAt = profile.CreatedAt
		d.patients[profile.ID] = *profile
		return nil
	})
}

func (r patientRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	var found *model.PatientProfile
	err := r.s.view(func(d *data) error {
		for _, p := range d.patients {
			if p.UserID == userID {
				p := p
				found = &p
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r patientRepository) ExistsByNationalIDHash(_ context.Context, clinicID uuid.UUID, hash string) (bool, error) {
	var exists bool
	err := r.s.view(func(d *data) error {
		for _, p := range d.patients {
			if p.ClinicID == clinicID && p.NationalIDHash == hash {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

type legalRepository struct{ s *Store }

func (r legalRepository) Create(_ context.Context, doc *model.LegalDocument) error {
	return r.s.view(func(d *data) error {
		for _, existing := range d.docs {
			if existing.Type == doc.Type && existing.Version == doc.Version {
				return repository.ErrDuplicateDocumentVersion
			}
			if doc.IsActive && existing.IsActive && existing.Type == doc.Type {
				return repository.ErrActiveDocumentConflict
			}
		}
		if doc.ID == uuid.Nil {
			doc.ID = uuid.New()
		}
		doc.CreatedAt = time.Now()
		d.docs[doc.ID] = *doc
		return nil
	})
}

func (r legalRepository) GetByTypeAndVersion(_ context.Context, docType model.LegalDocumentType, version string) (*model.LegalDocument, error) {
	var found *model.LegalDocument
	err := r.s.view(func(d *data) error {
		for _, doc := range d.docs {
			if doc.Type == docType && doc.Version == version {
				doc := doc
				found = &doc
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r legalRepository) GetActive(_ context.Context, docType model.LegalDocumentType) (*model.LegalDocument, error) {
	var found *model.LegalDocument
	err := r.s.view(func(d *data) error {
		for _, doc := range d.docs {
			if doc.Type == docType && doc.IsActive {
				doc := doc
				found = &doc
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r legalRepository) ListActive(_ context.Context) ([]*model.LegalDocument, error) {
	var out []*model.LegalDocument
	err := r.s.view(func(d *data) error {
		for _, doc := range d.docs {
			if doc.IsActive {
				doc := doc
				out = append(out, &doc)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, err
}

func (r legalRepository) DeactivateType(_ context.Context, docType model.LegalDocumentType) error {
	return r.s.view(func(d *data) error {
		for id, doc := range d.docs {
			if doc.Type == docType && doc.IsActive {
				doc.IsActive = false
				d.docs[id] = doc
			}
		}
		return nil
	})
}

type consentRepository struct{ s *Store }

func (r consentRepository) Create(_ context.Context, record *model.ConsentRecord) (bool, error) {
	created := false
	err := r.s.view(func(d *data) error {
		for _, c := range d.consents {
			if c.UserID == record.UserID && c.DocumentID == record.DocumentID {
				return nil
			}
		}
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		if record.AgreedAt.IsZero() {
			record.AgreedAt = time.Now()
		}
		d.consents = append(d.consents, *record)
		created = true
		return nil
	})
	return created, err
}

func (r consentRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.ConsentRecord, error) {
	var out []*model.ConsentRecord
	err := r.s.view(func(d *data) error {
		for _, c := range d.consents {
			if c.UserID == userID {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

type tokenRepository struct{ s *Store }

func (r tokenRepository) Create(_ context.Context, token *model.VerificationToken) error {
	return r.s.view(func(d *data) error {
		for _, t := range d.tokens {
			if t.Token == token.Token || (!t.IsUsed && t.Code == token.Code) {
				return repository.ErrDuplicateToken
			}
		}
		if token.ID == uuid.Nil {
			token.ID = uuid.New()
		}
		if token.CreatedAt.IsZero() {
			token.CreatedAt = time.Now()
		}
		d.tokens[token.ID] = *token
		return nil
	})
}

func (r tokenRepository) GetByToken(_ context.Context, token string) (*model.VerificationToken, error) {
	var found *model.VerificationToken
	err := r.s.view(func(d *data) error {
		for _, t := range d.tokens {
			if t.Token == token {
				t := t
				found = &t
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r tokenRepository) MarkUsed(_ context.Context, id uuid.UUID, usedAt time.Time) (bool, error) {
	won := false
	err := r.s.view(func(d *data) error {
		t, ok := d.tokens[id]
		if !ok || t.IsUsed {
			return nil
		}
		t.IsUsed = true
		t.UsedAt = &usedAt
		d.tokens[id] = t
		won = true
		return nil
	})
	return won, err
}

func (r tokenRepository) DeleteExpiredUnused(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.s.view(func(d *data) error {
		for id, t := range d.tokens {
			if !t.IsUsed && !t.CreatedAt.After(cutoff) {
				delete(d.tokens, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

type auditRepository struct{ s *Store }

func (r auditRepository) Create(_ context.Context, log *model.AuditLog) error {
	return r.s.view(func(d *data) error {
		if log.ID == uuid.Nil {
			log.ID = uuid.New()
		}
		log.CreatedAt = time.Now()
		d.audit = append(d.audit, *log)
		return nil
	})
}

func (r auditRepository) ListByEntity(_ context.Context, entityType, entityID string) ([]*model.AuditLog, error) {
	var out []*model.AuditLog
	err := r.s.view(func(d *data) error {
		for _, l := range d.audit {
			if l.EntityType == entityType && l.EntityID == entityID {
				l := l
				out = append(out, &l)
			}
		}
		return nil
	})
	return out, err
}

type outboxRepository struct{ s *Store }

func (r outboxRepository) Create(_ context.Context, event *model.OutboxEvent) error {
	return r.s.view(func(d *data) error {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		event.CreatedAt = time.Now()
		event.Status = model.OutboxStatusPending
		d.outbox = append(d.outbox, *event)
		return nil
	})
}

func (r outboxRepository) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	var out []*model.OutboxEvent
	now := time.Now()
	err := r.s.view(func(d *data) error {
		for _, e := range d.outbox {
			if len(out) == limit {
				break
			}
			if e.Status == model.OutboxStatusPending && (e.RetryAt == nil || !e.RetryAt.After(now)) {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	return out, err
}

func (r outboxRepository) update(id uuid.UUID, fn func(e *model.OutboxEvent)) error {
	return r.s.view(func(d *data) error {
		for i := range d.outbox {
			if d.outbox[i].ID == id {
				fn(&d.outbox[i])
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (r outboxRepository) MarkProcessed(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(e *model.OutboxEvent) {
		now := time.Now()
		e.Status = model.OutboxStatusProcessed
		e.ErrorMessage = nil
		e.ProcessedAt = &now
	})
}

func (r outboxRepository) MarkFailed(_ context.Context, id uuid.UUID, errorMessage string, retryAt *time.Time) error {
	return r.update(id, func(e *model.OutboxEvent) {
		e.Status = model.OutboxStatusFailed
		if retryAt != nil {
			e.Status = model.OutboxStatusPending
		}
		e.ErrorMessage = &errorMessage
		e.RetryAt = retryAt
		e.RetryCount++
	})
}

func (r outboxRepository) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := r.s.view(func(d *data) error {
		kept := d.outbox[:0]
		for _, e := range d.outbox {
			if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
				deleted++
				continue
			}
			kept = append(kept, e)
		}
		d.outbox = kept
		return nil
	})
	return deleted, err
}
