package registration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/service/clinic"
	"github.com/jwalitptl/clinic-api/internal/service/consent"
	"github.com/jwalitptl/clinic-api/internal/service/legal"
	"github.com/jwalitptl/clinic-api/internal/service/verification"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type recordingNotifier struct {
	mu      sync.Mutex
	notices []model.VerificationNotice
}

func (n *recordingNotifier) NotifyVerification(_ context.Context, notice model.VerificationNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

// faultyStore fails every outbox write made inside a transaction.
type faultyStore struct {
	repository.Store
}

func (f faultyStore) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	return f.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(faultyStore{tx})
	})
}

func (f faultyStore) Outbox() repository.OutboxRepository {
	return failingOutbox{}
}

type failingOutbox struct {
	repository.OutboxRepository
}

func (failingOutbox) Create(context.Context, *model.OutboxEvent) error {
	return errors.New("outbox unavailable")
}

type RegistrationServiceTestSuite struct {
	suite.Suite
	ctx          context.Context
	store        *memory.Store
	notifier     *recordingNotifier
	encryptor    security.Encryptor
	legal        *legal.Service
	verification *verification.Service
	metrics      *metrics.Metrics
	service      *Service
	vidaPlena    *model.Clinic
	sorriso      *model.Clinic
}

func (s *RegistrationServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.notifier = &recordingNotifier{}

	enc, err := security.NewAESEncryptor(testKey)
	s.Require().NoError(err)
	s.encryptor = enc

	s.vidaPlena = &model.Clinic{Name: "Clínica Vida Plena", Slug: "vida_plena", IsActive: true}
	s.sorriso = &model.Clinic{Name: "Sorriso Feliz", Slug: "sorriso_feliz", IsActive: true}
	s.Require().NoError(s.store.Clinics().Create(s.ctx, s.vidaPlena))
	s.Require().NoError(s.store.Clinics().Create(s.ctx, s.sorriso))
	s.Require().NoError(s.store.Clinics().Create(s.ctx, &model.Clinic{Name: "Fechada", Slug: "fechada", IsActive: false}))

	s.service = s.newService(s.store)
	for _, docType := range model.RequiredLegalDocumentTypes {
		s.Require().NoError(s.legal.Publish(s.ctx, nil, &model.LegalDocument{Type: docType, Version: "v1", Content: "..."}))
	}
}

func (s *RegistrationServiceTestSuite) newService(store repository.Store) *Service {
	m := metrics.NewNop()
	s.metrics = m
	log := logger.Nop()
	auditor := audit.NewService(store.Audit())
	s.legal = legal.NewService(store, auditor)
	s.verification = verification.NewService(store, auditor, s.notifier,
		verification.NewMemoryLimiter(5, time.Hour), m, log,
		verification.Config{FrontendBaseURL: "http://localhost:5173"})

	return NewService(Deps{
		Store:        store,
		Clinics:      clinic.NewService(store.Clinics(), time.Minute),
		Legal:        s.legal,
		Consent:      consent.NewService(store, auditor, m),
		Verification: s.verification,
		Auditor:      auditor,
		Notifier:     s.notifier,
		Hasher:       security.NewBcryptHasher(4),
		Encryptor:    s.encryptor,
		Metrics:      m,
		Logger:       log,
	})
}

func (s *RegistrationServiceTestSuite) request() *model.PatientRegistrationRequest {
	return &model.PatientRegistrationRequest{
		ClinicSlug:      "vida_plena",
		FullName:        "Maria da Silva",
		NationalID:      "000.000.000-00",
		Phone:           "+55 11 99999-0000",
		Email:           "Maria.Silva@Example.com",
		Password:        "segredo123",
		PasswordConfirm: "segredo123",
		Sex:             "F",
		BirthDate:       "15/04/1990",
		AgreeTerms:      true,
		AgreePrivacy:    true,
		AgreeConsent:    true,
	}
}

func (s *RegistrationServiceTestSuite) prov() model.Provenance {
	return model.Provenance{IPAddress: "203.0.113.7", UserAgent: "Mozilla/5.0"}
}

func (s *RegistrationServiceTestSuite) assertNothingWritten(email string) {
	_, err := s.store.Users().GetByEmail(s.ctx, email)
	s.True(errors.Is(err, repository.ErrNotFound), "user must not exist")
	s.Empty(s.notifier.notices)
}

func (s *RegistrationServiceTestSuite) TestRegisterVidaPlena() {
	result, err := s.service.Register(s.ctx, s.request(), s.prov())
	s.Require().NoError(err)

	s.Equal("maria.silva@example.com", result.Email)
	s.Equal(s.vidaPlena.ID, result.ClinicID)
	s.NotEmpty(result.Message)

	user, err := s.store.Users().GetByID(s.ctx, result.UserID)
	s.Require().NoError(err)
	s.Equal(model.RolePatient, user.Role)
	s.Equal(s.vidaPlena.ID, *user.ClinicID)
	s.False(user.IsActive)
	s.False(user.IsVerified)
	s.NotEqual("segredo123", user.PasswordHash)
	s.NoError(security.NewBcryptHasher(4).Compare(user.PasswordHash, "segredo123"))

	profile, err := s.store.Patients().GetByUserID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(result.PatientID, profile.ID)
	s.Equal("Maria da Silva", profile.FullName)
	s.Equal(security.HashIdentifier("00000000000"), profile.NationalIDHash)
	s.Require().NotNil(profile.Sex)
	s.Equal(model.SexFemale, *profile.Sex)
	s.Require().NotNil(profile.BirthDate)
	s.Equal("1990-04-15", profile.BirthDate.Format("2006-01-02"))

	plain, err := s.encryptor.Decrypt(profile.NationalIDEncrypted)
	s.Require().NoError(err)
	s.Equal("000.000.000-00", string(plain))

	consents, err := s.store.Consents().ListByUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Len(consents, 3)
	s.Equal(float64(3), testutil.ToFloat64(s.metrics.ConsentAcceptances))
	for _, c := range consents {
		s.Equal("203.0.113.7", *c.IPAddress)
		s.Equal("Mozilla/5.0", c.UserAgent)
		s.False(c.AgreedAt.IsZero())
	}

	logs, err := s.store.Audit().ListByEntity(s.ctx, model.AuditEntityPatientProfile, profile.ID.String())
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(model.AuditActionCreate, logs[0].Action)
	s.Equal(user.ID, *logs[0].ActorID)

	events, err := s.store.Outbox().GetPendingEventsWithLock(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(model.EventPatientRegistered, events[0].EventType)
	s.NotContains(string(events[0].Payload), "maria")

	s.Require().Len(s.notifier.notices, 1)
	notice := s.notifier.notices[0]
	s.Equal(user.Email, notice.Email)
	s.Regexp(`^\d{6}$`, notice.Code)
	s.Regexp(`^http://localhost:5173/verify-email\?token=`, notice.Link)
}

func (s *RegistrationServiceTestSuite) TestRegisterThenVerify() {
	result, err := s.service.Register(s.ctx, s.request(), s.prov())
	s.Require().NoError(err)
	s.Require().Len(s.notifier.notices, 1)
	notice := s.notifier.notices[0]

	token := notice.Link[len("http://localhost:5173/verify-email?token="):]
	s.Require().NoError(s.verification.Redeem(s.ctx, token, notice.Code, s.prov()))

	user, err := s.store.Users().GetByID(s.ctx, result.UserID)
	s.Require().NoError(err)
	s.True(user.IsActive)
	s.True(user.IsVerified)
}

func (s *RegistrationServiceTestSuite) TestValidationFailures() {
	cases := []struct {
		name   string
		mutate func(r *model.PatientRegistrationRequest)
		want   error
	}{
		{"unknown clinic", func(r *model.PatientRegistrationRequest) { r.ClinicSlug = "nope" }, clinic.ErrClinicNotFound},
		{"inactive clinic", func(r *model.PatientRegistrationRequest) { r.ClinicSlug = "fechada" }, clinic.ErrClinicNotFound},
		{"no digits in national id", func(r *model.PatientRegistrationRequest) { r.NationalID = "abc.def" }, ErrInvalidNationalID},
		{"password mismatch", func(r *model.PatientRegistrationRequest) { r.PasswordConfirm = "segredo124" }, ErrPasswordMismatch},
		{"weak password", func(r *model.PatientRegistrationRequest) { r.Password, r.PasswordConfirm = "curta12", "curta12" }, ErrWeakPassword},
		{"password over hash limit", func(r *model.PatientRegistrationRequest) {
			r.Password = strings.Repeat("a", 100)
			r.PasswordConfirm = r.Password
		}, ErrPasswordTooLong},
		{"multi-byte password over hash limit", func(r *model.PatientRegistrationRequest) {
			r.Password = strings.Repeat("senhação", 10)
			r.PasswordConfirm = r.Password
		}, ErrPasswordTooLong},
		{"missing terms", func(r *model.PatientRegistrationRequest) { r.AgreeTerms = false }, ErrConsentIncomplete},
		{"missing privacy", func(r *model.PatientRegistrationRequest) { r.AgreePrivacy = false }, ErrConsentIncomplete},
		{"missing consent", func(r *model.PatientRegistrationRequest) { r.AgreeConsent = false }, ErrConsentIncomplete},
		{"bad birth date", func(r *model.PatientRegistrationRequest) { r.BirthDate = "1990/04/15" }, ErrInvalidBirthDate},
		{"bad sex", func(r *model.PatientRegistrationRequest) { r.Sex = "X" }, ErrInvalidSex},
		{"clinic checked first", func(r *model.PatientRegistrationRequest) {
			r.ClinicSlug = "fechada"
			r.PasswordConfirm = "other"
			r.AgreeConsent = false
		}, clinic.ErrClinicNotFound},
		{"mismatch before weak", func(r *model.PatientRegistrationRequest) {
			r.Password, r.PasswordConfirm = "a", "b"
		}, ErrPasswordMismatch},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := s.request()
			tc.mutate(req)
			_, err := s.service.Register(s.ctx, req, s.prov())
			s.True(errors.Is(err, tc.want), "got %v", err)
			s.assertNothingWritten(req.Email)
		})
	}
}

func (s *RegistrationServiceTestSuite) TestPasswordOfExactlyEightCharacters() {
	req := s.request()
	req.Password, req.PasswordConfirm = "12345678", "12345678"
	_, err := s.service.Register(s.ctx, req, s.prov())
	s.NoError(err)
}

func (s *RegistrationServiceTestSuite) TestPasswordAtHashLimit() {
	req := s.request()
	req.Password = strings.Repeat("a", 72)
	req.PasswordConfirm = req.Password
	_, err := s.service.Register(s.ctx, req, s.prov())
	s.NoError(err)
}

func (s *RegistrationServiceTestSuite) TestNationalIDStoredAsEnteredAndHashedAsDigits() {
	req := s.request()
	req.NationalID = "  123.456.789-09 "
	result, err := s.service.Register(s.ctx, req, s.prov())
	s.Require().NoError(err)

	profile, err := s.store.Patients().GetByUserID(s.ctx, result.UserID)
	s.Require().NoError(err)
	plain, err := s.encryptor.Decrypt(profile.NationalIDEncrypted)
	s.Require().NoError(err)
	s.Equal("123.456.789-09", string(plain))
	s.Equal(security.HashIdentifier("12345678909"), profile.NationalIDHash)
}

func (s *RegistrationServiceTestSuite) TestOptionalFieldsMayBeEmpty() {
	req := s.request()
	req.Sex = ""
	req.BirthDate = ""
	result, err := s.service.Register(s.ctx, req, s.prov())
	s.Require().NoError(err)

	profile, err := s.store.Patients().GetByUserID(s.ctx, result.UserID)
	s.Require().NoError(err)
	s.Nil(profile.Sex)
	s.Nil(profile.BirthDate)
}

func (s *RegistrationServiceTestSuite) TestDuplicateEmailIsCaseInsensitive() {
	_, err := s.service.Register(s.ctx, s.request(), s.prov())
	s.Require().NoError(err)

	req := s.request()
	req.Email = "MARIA.SILVA@example.com"
	req.NationalID = "111.111.111-11"
	_, err = s.service.Register(s.ctx, req, s.prov())
	s.True(errors.Is(err, ErrEmailAlreadyExists))
}

func (s *RegistrationServiceTestSuite) TestDuplicateNationalIDIsPerClinic() {
	_, err := s.service.Register(s.ctx, s.request(), s.prov())
	s.Require().NoError(err)

	req := s.request()
	req.Email = "outra@example.com"
	req.NationalID = "00000000000"
	_, err = s.service.Register(s.ctx, req, s.prov())
	s.True(errors.Is(err, ErrDuplicateNationalID))

	req.ClinicSlug = "sorriso_feliz"
	_, err = s.service.Register(s.ctx, req, s.prov())
	s.NoError(err)
}

func (s *RegistrationServiceTestSuite) TestMissingLegalDocumentWritesNothing() {
	store := memory.NewStore()
	s.Require().NoError(store.Clinics().Create(s.ctx, &model.Clinic{Name: "Vida Plena", Slug: "vida_plena", IsActive: true}))
	svc := s.newService(store)
	s.Require().NoError(s.legal.Publish(s.ctx, nil, &model.LegalDocument{Type: model.LegalDocumentTerms, Version: "v1"}))

	_, err := svc.Register(s.ctx, s.request(), s.prov())
	s.True(errors.Is(err, legal.ErrMissingLegalDocument))

	_, err = store.Users().GetByEmail(s.ctx, "maria.silva@example.com")
	s.True(errors.Is(err, repository.ErrNotFound))
}

func (s *RegistrationServiceTestSuite) TestFailureInsideTransactionRollsBack() {
	svc := s.newService(faultyStore{s.store})

	_, err := svc.Register(s.ctx, s.request(), s.prov())
	s.Require().Error(err)
	s.Contains(err.Error(), "outbox unavailable")

	s.assertNothingWritten("maria.silva@example.com")
	exists, err := s.store.Patients().ExistsByNationalIDHash(s.ctx, s.vidaPlena.ID, security.HashIdentifier("00000000000"))
	s.NoError(err)
	s.False(exists)
	s.Zero(testutil.ToFloat64(s.metrics.ConsentAcceptances))
}

func (s *RegistrationServiceTestSuite) TestConcurrentSameEmailHasOneWinner() {
	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := s.request()
			req.NationalID = []string{"1", "2", "3", "4", "5", "6"}[i] + "2345678901"
			_, errs[i] = s.service.Register(s.ctx, req, s.prov())
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		s.True(errors.Is(err, ErrEmailAlreadyExists), "got %v", err)
	}
	s.Equal(1, wins)
}

func TestRegistrationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceTestSuite))
}
