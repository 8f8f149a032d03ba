package model

import "github.com/google/uuid"

// PatientRegistrationRequest is the public self-registration form.
type PatientRegistrationRequest struct {
	ClinicSlug      string `json:"clinic_schema_name" binding:"required,max=63,slug"`
	FullName        string `json:"full_name" binding:"required,max=255"`
	NationalID      string `json:"cpf" binding:"required,max=14,nationalid"`
	Phone           string `json:"phone" binding:"required,max=20"`
	Email           string `json:"email" binding:"required,email,max=254"`
	Password        string `json:"password" binding:"required,max=128"`
	PasswordConfirm string `json:"password_confirm" binding:"required,max=128"`
	Sex             string `json:"sex" binding:"omitempty,oneof=M F N"`
	BirthDate       string `json:"birth_date" binding:"omitempty,max=10"`
	AgreeTerms      bool   `json:"agree_terms"`
	AgreePrivacy    bool   `json:"agree_privacy"`
	AgreeConsent    bool   `json:"agree_consent"`
}

// ConsentComplete reports whether all three LGPD agreements were given.
func (r *PatientRegistrationRequest) ConsentComplete() bool {
	return r.AgreeTerms && r.AgreePrivacy && r.AgreeConsent
}

type RegistrationResult struct {
	UserID    uuid.UUID `json:"user_id"`
	PatientID uuid.UUID `json:"patient_id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	Email     string    `json:"email"`
	Message   string    `json:"detail"`
}
