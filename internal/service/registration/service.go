package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/service/clinic"
	"github.com/jwalitptl/clinic-api/internal/service/consent"
	"github.com/jwalitptl/clinic-api/internal/service/legal"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	"github.com/jwalitptl/clinic-api/internal/service/verification"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var (
	ErrEmailAlreadyExists  = apperrors.New(apperrors.ErrConflict, "EMAIL_ALREADY_EXISTS", "email already registered")
	ErrDuplicateNationalID = apperrors.New(apperrors.ErrConflict, "DUPLICATE_NATIONAL_ID", "national id already registered in this clinic")
	ErrInvalidNationalID   = apperrors.New(apperrors.ErrBadRequest, "INVALID_NATIONAL_ID", "national id must contain digits")
	ErrPasswordMismatch    = apperrors.New(apperrors.ErrBadRequest, "PASSWORD_MISMATCH", "password confirmation does not match")
	ErrWeakPassword        = apperrors.New(apperrors.ErrBadRequest, "WEAK_PASSWORD", fmt.Sprintf("password must have at least %d characters", security.MinPasswordLen))
	ErrPasswordTooLong     = apperrors.New(apperrors.ErrBadRequest, "PASSWORD_TOO_LONG", fmt.Sprintf("password must fit in %d bytes", security.MaxPasswordBytes))
	ErrConsentIncomplete   = apperrors.New(apperrors.ErrBadRequest, "CONSENT_INCOMPLETE", "terms of use, privacy policy and consent term must all be accepted")
	ErrInvalidBirthDate    = apperrors.New(apperrors.ErrBadRequest, "INVALID_BIRTH_DATE", "birth date must be dd/mm/yyyy or yyyy-mm-dd")
	ErrInvalidSex          = apperrors.New(apperrors.ErrBadRequest, "INVALID_SEX", "sex must be M, F or N")
)

const successMessage = "Cadastro recebido! Enviamos um código de verificação de 6 dígitos para o seu e-mail. Use o código para ativar o acesso."

// Service orchestrates patient self-registration. Every check runs before
// the first write and all writes share one transaction; the verification
// email goes out only after commit.
type Service struct {
	store        repository.Store
	clinics      *clinic.Service
	legal        *legal.Service
	consent      *consent.Service
	verification *verification.Service
	auditor      *audit.Service
	notifier     notification.Notifier
	hasher       security.PasswordHasher
	encryptor    security.Encryptor
	metrics      *metrics.Metrics
	log          *logger.Logger
}

type Deps struct {
	Store        repository.Store
	Clinics      *clinic.Service
	Legal        *legal.Service
	Consent      *consent.Service
	Verification *verification.Service
	Auditor      *audit.Service
	Notifier     notification.Notifier
	Hasher       security.PasswordHasher
	Encryptor    security.Encryptor
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		store:        d.Store,
		clinics:      d.Clinics,
		legal:        d.Legal,
		consent:      d.Consent,
		verification: d.Verification,
		auditor:      d.Auditor,
		notifier:     d.Notifier,
		hasher:       d.Hasher,
		encryptor:    d.Encryptor,
		metrics:      d.Metrics,
		log:          d.Logger,
	}
}

// validated is a request that passed every check before the transaction.
type validated struct {
	clinic     *model.Clinic
	email      string
	nationalID string // as entered, trimmed
	idHash     string // of the digits only
	sex        *model.Sex
	birthDate  *time.Time
}

func (s *Service) Register(ctx context.Context, req *model.PatientRegistrationRequest, prov model.Provenance) (*model.RegistrationResult, error) {
	result, err := s.register(ctx, req, prov)
	s.metrics.Registrations.WithLabelValues(outcome(err)).Inc()
	return result, err
}

func (s *Service) register(ctx context.Context, req *model.PatientRegistrationRequest, prov model.Provenance) (*model.RegistrationResult, error) {
	v, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	encryptedID, err := s.encryptor.Encrypt([]byte(v.nationalID))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt national id: %w", err)
	}

	clinicID := v.clinic.ID
	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        v.email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.FullName),
		Role:         model.RolePatient,
		ClinicID:     &clinicID,
		IsActive:     false,
		IsVerified:   false,
	}
	profile := &model.PatientProfile{
		Base:                model.Base{ID: uuid.New()},
		UserID:              user.ID,
		ClinicID:            clinicID,
		FullName:            user.Name,
		Phone:               strings.TrimSpace(req.Phone),
		Sex:                 v.sex,
		BirthDate:           v.birthDate,
		NationalIDEncrypted: encryptedID,
		NationalIDHash:      v.idHash,
	}

	var (
		token    *model.VerificationToken
		consents int
	)
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		docs, err := s.legal.RequireActive(ctx, tx)
		if err != nil {
			return err
		}

		if err := tx.Users().Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := tx.Patients().Create(ctx, profile); err != nil {
			return fmt.Errorf("failed to create patient profile: %w", err)
		}
		consents, err = s.consent.Record(ctx, tx, user.ID, docs, prov)
		if err != nil {
			return err
		}

		token, err = s.verification.Issue(ctx, tx, user)
		if err != nil {
			return err
		}

		if err := s.auditor.Tx(tx).Log(ctx, &user.ID, &clinicID, model.AuditActionCreate, model.AuditEntityPatientProfile, profile.ID.String(), &audit.LogOptions{
			Changes: map[string]interface{}{
				"user_id":   user.ID,
				"clinic_id": clinicID,
				"event":     "patient self-registration",
			},
			Provenance: prov,
		}); err != nil {
			return err
		}

		event, err := model.NewOutboxEvent(model.EventPatientRegistered, map[string]interface{}{
			"user_id":    user.ID,
			"patient_id": profile.ID,
			"clinic_id":  clinicID,
		})
		if err != nil {
			return fmt.Errorf("failed to build outbox event: %w", err)
		}
		return tx.Outbox().Create(ctx, event)
	})
	if err != nil {
		return nil, translateError(err)
	}
	s.consent.ObserveAccepted(consents)

	s.notifier.NotifyVerification(ctx, s.verification.Notice(user, token))
	s.log.Info("patient registered", "user_id", user.ID.String(), "clinic", v.clinic.Slug)

	return &model.RegistrationResult{
		UserID:    user.ID,
		PatientID: profile.ID,
		ClinicID:  clinicID,
		Email:     user.Email,
		Message:   successMessage,
	}, nil
}

// validate runs the pre-write checks in order; the first failure wins.
// Legal documents are checked inside the transaction, right before the
// first write.
func (s *Service) validate(ctx context.Context, req *model.PatientRegistrationRequest) (*validated, error) {
	c, err := s.clinics.ResolveActive(ctx, strings.TrimSpace(req.ClinicSlug))
	if err != nil {
		return nil, err
	}

	email := model.NormalizeEmail(req.Email)
	exists, err := s.store.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	digits := security.DigitsOnly(req.NationalID)
	if digits == "" {
		return nil, ErrInvalidNationalID
	}
	idHash := security.HashIdentifier(digits)
	taken, err := s.store.Patients().ExistsByNationalIDHash(ctx, c.ID, idHash)
	if err != nil {
		return nil, fmt.Errorf("failed to check national id: %w", err)
	}
	if taken {
		return nil, ErrDuplicateNationalID
	}

	if req.Password != req.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}
	if !security.MeetsPolicy(req.Password) {
		return nil, ErrWeakPassword
	}
	if !security.FitsHashLimit(req.Password) {
		return nil, ErrPasswordTooLong
	}

	if !req.ConsentComplete() {
		return nil, ErrConsentIncomplete
	}

	birthDate, err := model.ParseBirthDate(req.BirthDate)
	if err != nil {
		return nil, ErrInvalidBirthDate.Wrap(err)
	}

	var sex *model.Sex
	if req.Sex != "" {
		sx := model.Sex(req.Sex)
		if !sx.Valid() {
			return nil, ErrInvalidSex
		}
		sex = &sx
	}

	return &validated{
		clinic:     c,
		email:      email,
		nationalID: strings.TrimSpace(req.NationalID),
		idHash:     idHash,
		sex:        sex,
		birthDate:  birthDate,
	}, nil
}

// translateError maps constraint violations from a lost race onto the
// same failures the pre-checks report.
func translateError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailAlreadyExists.Wrap(err)
	case errors.Is(err, repository.ErrDuplicateNationalID):
		return ErrDuplicateNationalID.Wrap(err)
	default:
		return err
	}
}

func outcome(err error) string {
	if err == nil {
		return "created"
	}
	if appErr, ok := apperrors.As(err); ok && appErr.Reason != "" {
		return strings.ToLower(appErr.Reason)
	}
	return "error"
}
