package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var (
	ErrInvalidCredentials = apperrors.New(apperrors.ErrUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrAccountNotVerified = apperrors.New(apperrors.ErrForbidden, "ACCOUNT_NOT_VERIFIED", "account not active, confirm your email first")
	ErrUserNotFound       = apperrors.New(apperrors.ErrNotFound, "USER_NOT_FOUND", "user not found")
)

// dummyHash keeps the unknown-email path about as slow as a real compare.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3qWlJbJmYHrBkKJtOuA/Eum"

type Service struct {
	users   repository.UserRepository
	jwtSvc  auth.JWTService
	hasher  security.PasswordHasher
	auditor *audit.Service
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, auditor *audit.Service) *Service {
	return &Service{
		users:   users,
		jwtSvc:  jwtSvc,
		hasher:  hasher,
		auditor: auditor,
	}
}

// Login exchanges credentials for an access token. Accounts that have not
// confirmed their email are refused once the password checks out.
func (s *Service) Login(ctx context.Context, email, password string, prov model.Provenance) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.hasher.Compare(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountNotVerified
	}

	token, expiresAt, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.auditor.Log(ctx, &user.ID, user.ClinicID, model.AuditActionLogin, model.AuditEntityUser, user.ID.String(), &audit.LogOptions{
		Provenance: prov,
	}); err != nil {
		return nil, err
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
