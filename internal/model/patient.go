package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Sex string

const (
	SexMale        Sex = "M"
	SexFemale      Sex = "F"
	SexNotInformed Sex = "N"
)

func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexNotInformed:
		return true
	}
	return false
}

// PatientProfile holds per-clinic demographic data for a PATIENT account.
// The national ID is only stored encrypted; NationalIDHash is the hex
// SHA-256 of its digits and backs the (clinic, hash) uniqueness.
type PatientProfile struct {
	Base
	UserID              uuid.UUID  `json:"user_id" db:"user_id"`
	ClinicID            uuid.UUID  `json:"clinic_id" db:"clinic_id"`
	FullName            string     `json:"full_name" db:"full_name"`
	Phone               string     `json:"phone" db:"phone"`
	Sex                 *Sex       `json:"sex,omitempty" db:"sex"`
	BirthDate           *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	NationalIDEncrypted []byte     `json:"-" db:"national_id_encrypted"`
	NationalIDHash      string     `json:"-" db:"national_id_hash"`
}

// Accepted birth date layouts, day-first as typed in the registration form
// or ISO as sent by date pickers.
var birthDateLayouts = []string{"02/01/2006", "2006-01-02"}

func ParseBirthDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid birth date %q", value)
}
