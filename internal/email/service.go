package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// Service delivers transactional email.
type Service interface {
	SendVerification(ctx context.Context, notice model.VerificationNotice) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppName  string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	cfg    Config
	dialer dialer
	cb     *circuitbreaker.CircuitBreaker
}

// NewSMTPService sends through an SMTP relay. Repeated relay failures open
// a breaker so callers fail fast instead of queueing behind timeouts.
func NewSMTPService(cfg Config, log *logger.Logger) Service {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return newSMTPService(cfg, d, log)
}

func newSMTPService(cfg Config, d dialer, log *logger.Logger) *smtpService {
	return &smtpService{
		cfg:    cfg,
		dialer: d,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:             "smtp",
			MaxFailures:      5,
			HalfOpenRequests: 1,
			Timeout:          30 * time.Second,
			OnStateChange: func(name, from, to string) {
				log.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
			},
		}),
	}
}

func (s *smtpService) SendVerification(ctx context.Context, notice model.VerificationNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := VerificationMessage(s.cfg.AppName, notice)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from())
	m.SetHeader("To", notice.Email)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	if err := s.cb.Execute(func() error { return s.dialer.DialAndSend(m) }); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func (s *smtpService) from() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return fmt.Sprintf("%s <no-reply@localhost>", s.cfg.AppName)
}

type logService struct {
	appName string
	log     *logger.Logger
}

// NewLogService writes messages to the log instead of sending them. Used
// when email delivery is disabled.
func NewLogService(appName string, log *logger.Logger) Service {
	return &logService{appName: appName, log: log}
}

func (s *logService) SendVerification(_ context.Context, notice model.VerificationNotice) error {
	msg := VerificationMessage(s.appName, notice)
	s.log.Info("email delivery disabled, message not sent", "to", notice.Email, "subject", msg.Subject)
	s.log.Debug("verification email body", "body", msg.Text)
	return nil
}
