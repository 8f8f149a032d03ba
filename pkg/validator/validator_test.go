package validator

import (
	"testing"

	playground "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Clinic string `json:"clinic_schema_name" validate:"required,slug"`
	CPF    string `json:"cpf" validate:"required,nationalid"`
}

func TestCustomTags(t *testing.T) {
	v := playground.New()
	require.NoError(t, Register(v))

	cases := []struct {
		name  string
		in    form
		field string
	}{
		{"valid formatted", form{"vida_plena", "000.000.000-00"}, ""},
		{"valid bare", form{"sorriso-feliz", "12345678901"}, ""},
		{"upper case slug", form{"Vida_Plena", "12345678901"}, "clinic_schema_name"},
		{"slug with spaces", form{"vida plena", "12345678901"}, "clinic_schema_name"},
		{"letters in national id", form{"vida_plena", "123.abc"}, "cpf"},
		{"punctuation only", form{"vida_plena", "..-"}, "cpf"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.in)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			verrs, ok := err.(playground.ValidationErrors)
			require.True(t, ok)
			assert.Equal(t, tc.field, verrs[0].Field())
		})
	}
}

func TestRegisterBindingValidatorsIsIdempotent(t *testing.T) {
	assert.NoError(t, RegisterBindingValidators())
	assert.NoError(t, RegisterBindingValidators())
}
