package model

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleSaaSAdmin   Role = "SAAS_ADMIN"
	RoleClinicOwner Role = "CLINIC_OWNER"
	RoleSecretary   Role = "SECRETARY"
	RoleDoctor      Role = "DOCTOR"
	RolePatient     Role = "PATIENT"
)

// Roles lists every role in display order.
var Roles = []Role{RoleSaaSAdmin, RoleClinicOwner, RoleSecretary, RoleDoctor, RolePatient}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleSaaSAdmin, RoleClinicOwner, RoleSecretary, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// RequiresClinic reports whether accounts with this role must belong to a
// clinic. Only the platform administrator is global.
func (r Role) RequiresClinic() bool {
	switch r {
	case RoleSaaSAdmin:
		return false
	case RoleClinicOwner, RoleSecretary, RoleDoctor, RolePatient:
		return true
	}
	panic(fmt.Sprintf("model: unhandled role %q", string(r)))
}

// MayActFor reports whether an account of role r can carry an acting-for
// reference to an account of role target.
func (r Role) MayActFor(target Role) bool {
	switch r {
	case RoleSecretary:
		return target == RoleDoctor
	case RoleSaaSAdmin, RoleClinicOwner, RoleDoctor, RolePatient:
		return false
	}
	panic(fmt.Sprintf("model: unhandled role %q", string(r)))
}

// ConsentExempt reports whether the role skips the legal consent gate.
func (r Role) ConsentExempt() bool {
	switch r {
	case RoleSaaSAdmin:
		return true
	case RoleClinicOwner, RoleSecretary, RoleDoctor, RolePatient:
		return false
	}
	panic(fmt.Sprintf("model: unhandled role %q", string(r)))
}

func (r Role) String() string {
	return string(r)
}
