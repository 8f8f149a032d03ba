package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleDispatch(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.Valid(), r)
		assert.Equal(t, r != RoleSaaSAdmin, r.RequiresClinic(), r)
		assert.Equal(t, r == RoleSaaSAdmin, r.ConsentExempt(), r)
		assert.Equal(t, r == RoleSecretary, r.MayActFor(RoleDoctor), r)
	}

	_, err := ParseRole("NURSE")
	assert.Error(t, err)

	r, err := ParseRole("DOCTOR")
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, r)
}

func TestUserValidate(t *testing.T) {
	clinicID := uuid.New()
	doctorID := uuid.New()

	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"patient with clinic", User{Role: RolePatient, ClinicID: &clinicID}, false},
		{"patient without clinic", User{Role: RolePatient}, true},
		{"admin without clinic", User{Role: RoleSaaSAdmin}, false},
		{"admin with clinic", User{Role: RoleSaaSAdmin, ClinicID: &clinicID}, true},
		{"secretary acting for doctor", User{Role: RoleSecretary, ClinicID: &clinicID, ActingForID: &doctorID}, false},
		{"doctor acting for someone", User{Role: RoleDoctor, ClinicID: &clinicID, ActingForID: &doctorID}, true},
		{"unknown role", User{Role: "NURSE", ClinicID: &clinicID}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerificationTokenWindow(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := &VerificationToken{CreatedAt: created}

	assert.Equal(t, created.Add(30*time.Minute), tok.ExpiresAt())
	assert.True(t, tok.Redeemable(created.Add(29*time.Minute)))
	assert.False(t, tok.Redeemable(created.Add(30*time.Minute)))

	tok.IsUsed = true
	assert.False(t, tok.Redeemable(created))
}

func TestParseBirthDate(t *testing.T) {
	d, err := ParseBirthDate("25/12/1990")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 12, 25, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseBirthDate("1990-12-25")
	require.NoError(t, err)
	assert.Equal(t, 1990, d.Year())

	d, err = ParseBirthDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseBirthDate("12/25/1990")
	assert.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "p@example.com", NormalizeEmail("  P@Example.COM "))
}
