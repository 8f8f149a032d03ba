package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// User is an account (identity). Patients are created inactive and become
// active once their email is verified.
type User struct {
	Base
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	Role         Role       `json:"role" db:"role"`
	ClinicID     *uuid.UUID `json:"clinic_id,omitempty" db:"clinic_id"`
	ActingForID  *uuid.UUID `json:"acting_for_id,omitempty" db:"acting_for_id"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsVerified   bool       `json:"is_verified" db:"is_verified"`
}

var (
	ErrUserClinicRequired   = errors.New("clinic is required for this role")
	ErrUserClinicNotAllowed = errors.New("global administrators cannot belong to a clinic")
)

// Validate checks the role-conditioned invariants of an account. The role
// of the acting-for target is checked by the caller that loads it.
func (u *User) Validate() error {
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if u.Role.RequiresClinic() && u.ClinicID == nil {
		return ErrUserClinicRequired
	}
	if !u.Role.RequiresClinic() && u.ClinicID != nil {
		return ErrUserClinicNotAllowed
	}
	if u.ActingForID != nil && !u.Role.MayActFor(RoleDoctor) {
		return fmt.Errorf("role %s cannot act for another account", u.Role)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email so uniqueness is case
// insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserResponse struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	ClinicID   *uuid.UUID `json:"clinic_id,omitempty"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		ClinicID:   u.ClinicID,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
	}
}
