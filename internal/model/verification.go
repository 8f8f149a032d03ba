package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// VerificationTokenTTL is the redemption window counted from creation.
	VerificationTokenTTL = 30 * time.Minute
	// VerificationCodeLength is the number of digits in a verification code.
	VerificationCodeLength = 6
)

// VerificationToken pairs an opaque link identifier with a short numeric
// code. Expiry is derived from CreatedAt and never stored.
type VerificationToken struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Token     string     `json:"-" db:"token"`
	Code      string     `json:"-" db:"code"`
	IsUsed    bool       `json:"is_used" db:"is_used"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

func (t *VerificationToken) ExpiresAt() time.Time {
	return t.CreatedAt.Add(VerificationTokenTTL)
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}

// Redeemable reports whether the token is unused and inside its window.
func (t *VerificationToken) Redeemable(now time.Time) bool {
	return !t.IsUsed && !t.Expired(now)
}

// VerificationNotice is what the notification channel needs to deliver a
// verification email.
type VerificationNotice struct {
	Email string
	Name  string
	Link  string
	Code  string
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required,max=128"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}
