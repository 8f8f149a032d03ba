package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// MaxIssueAttempts bounds retries after a token or code collision.
const MaxIssueAttempts = 5

var (
	ErrInvalidOrExpired         = apperrors.New(apperrors.ErrBadRequest, "INVALID_OR_EXPIRED_TOKEN", "verification token is invalid or expired")
	ErrCodeMismatch             = apperrors.New(apperrors.ErrBadRequest, "CODE_MISMATCH", "verification code does not match")
	ErrTokenGenerationExhausted = apperrors.New(apperrors.ErrInternal, "TOKEN_GENERATION_EXHAUSTED", "could not generate a unique verification token")
)

type Config struct {
	FrontendBaseURL string
}

type Service struct {
	store    repository.Store
	auditor  *audit.Service
	notifier notification.Notifier
	limiter  AttemptLimiter
	metrics  *metrics.Metrics
	log      *logger.Logger
	cfg      Config

	now      func() time.Time
	newCode  func() (string, error)
	newToken func() (string, error)
}

func NewService(
	store repository.Store,
	auditor *audit.Service,
	notifier notification.Notifier,
	limiter AttemptLimiter,
	m *metrics.Metrics,
	log *logger.Logger,
	cfg Config,
) *Service {
	return &Service{
		store:    store,
		auditor:  auditor,
		notifier: notifier,
		limiter:  limiter,
		metrics:  m,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
		newCode:  generateCode,
		newToken: generateToken,
	}
}

// Issue creates a verification token for user through store, which is
// usually the caller's transaction.
func (s *Service) Issue(ctx context.Context, store repository.Store, user *model.User) (*model.VerificationToken, error) {
	purged := false
	for attempt := 1; attempt <= MaxIssueAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		value, err := s.newToken()
		if err != nil {
			return nil, err
		}

		token := &model.VerificationToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			Token:     value,
			Code:      code,
			CreatedAt: s.now().UTC(),
		}
		err = store.Tokens().Create(ctx, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, repository.ErrDuplicateToken) {
			return nil, fmt.Errorf("failed to issue verification token: %w", err)
		}
		s.metrics.TokenIssueRetries.Inc()

		// Expired tokens that were never redeemed still hold their codes.
		if !purged {
			purged = true
			cutoff := s.now().UTC().Add(-model.VerificationTokenTTL)
			n, err := store.Tokens().DeleteExpiredUnused(ctx, cutoff)
			if err != nil {
				return nil, fmt.Errorf("failed to release expired tokens: %w", err)
			}
			if n > 0 {
				s.log.Debug("released expired verification tokens", "count", n)
			}
		}
	}
	return nil, ErrTokenGenerationExhausted
}

// Redeem checks token and code and, on success, marks the token used and
// activates the account in one transaction. A token that used up its
// attempts behaves as expired.
func (s *Service) Redeem(ctx context.Context, tokenValue, code string, prov model.Provenance) error {
	err := s.redeem(ctx, tokenValue, code, prov)
	s.metrics.Verifications.WithLabelValues(outcome(err)).Inc()
	return err
}

func (s *Service) redeem(ctx context.Context, tokenValue, code string, prov model.Provenance) error {
	if tokenValue == "" {
		return ErrInvalidOrExpired
	}

	token, err := s.store.Tokens().GetByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("failed to load verification token: %w", err)
	}

	now := s.now().UTC()
	if !token.Redeemable(now) {
		return ErrInvalidOrExpired
	}
	if !s.reserveAttempt(ctx, tokenValue) {
		return ErrInvalidOrExpired
	}

	if subtle.ConstantTimeCompare([]byte(token.Code), []byte(code)) != 1 {
		return ErrCodeMismatch
	}

	return s.store.WithTx(ctx, func(tx repository.Store) error {
		won, err := tx.Tokens().MarkUsed(ctx, token.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return ErrInvalidOrExpired
		}

		user, err := tx.Users().GetByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if err := tx.Users().MarkVerified(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to activate user: %w", err)
		}

		if err := s.auditor.Tx(tx).Log(ctx, &user.ID, user.ClinicID, model.AuditActionUpdate, model.AuditEntityUser, user.ID.String(), &audit.LogOptions{
			Changes:    map[string]string{"event": "email verified"},
			Provenance: prov,
		}); err != nil {
			return err
		}

		event, err := model.NewOutboxEvent(model.EventEmailVerified, map[string]interface{}{
			"user_id":   user.ID,
			"clinic_id": user.ClinicID,
		})
		if err != nil {
			return fmt.Errorf("failed to build outbox event: %w", err)
		}
		return tx.Outbox().Create(ctx, event)
	})
}

// Resend issues a fresh token for an unverified patient and notifies them.
// Earlier tokens stay valid until they expire. Unknown and already verified
// addresses succeed silently so the endpoint cannot be used to probe for
// accounts.
func (s *Service) Resend(ctx context.Context, email string) error {
	user, err := s.store.Users().GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsVerified || user.Role != model.RolePatient {
		return nil
	}

	var token *model.VerificationToken
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		token, err = s.Issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return err
	}

	s.notifier.NotifyVerification(ctx, s.Notice(user, token))
	return nil
}

// Notice builds the notification for a freshly issued token.
func (s *Service) Notice(user *model.User, token *model.VerificationToken) model.VerificationNotice {
	return model.VerificationNotice{
		Email: user.Email,
		Name:  user.Name,
		Link:  s.link(token.Token),
		Code:  token.Code,
	}
}

func (s *Service) link(token string) string {
	base := strings.TrimRight(s.cfg.FrontendBaseURL, "/")
	return base + "/verify-email?token=" + url.QueryEscape(token)
}

// reserveAttempt fails open when the limiter is unreachable.
func (s *Service) reserveAttempt(ctx context.Context, key string) bool {
	allowed, err := s.limiter.Reserve(ctx, key)
	if err != nil {
		s.log.Error(err, "attempt limiter unavailable")
		return true
	}
	return allowed
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "verified"
	case errors.Is(err, ErrCodeMismatch):
		return "code_mismatch"
	case errors.Is(err, ErrInvalidOrExpired):
		return "invalid_or_expired"
	default:
		return "error"
	}
}
