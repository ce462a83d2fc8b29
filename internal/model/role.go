package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Role is the inferred business meaning of a column.
type Role string

const (
	RoleIdentifier  Role = "identifier"
	RoleName        Role = "name"
	RoleDate        Role = "date"
	RoleAmount      Role = "amount"
	RoleMeasurement Role = "measurement"
	RoleCurrency    Role = "currency"
	RoleStatus      Role = "status"
	RoleDepartment  Role = "department"
	RoleCategory    Role = "category"
	RoleNotes       Role = "notes"

	// RoleIgnore is only valid as an override. It removes any assignment.
	RoleIgnore Role = "ignore"
)

// Roles lists the assignable roles in assignment priority order.
var Roles = []Role{
	RoleIdentifier,
	RoleName,
	RoleDate,
	RoleAmount,
	RoleMeasurement,
	RoleCurrency,
	RoleStatus,
	RoleDepartment,
	RoleCategory,
	RoleNotes,
}

// ParseRole resolves a role name, accepting "ignore".
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == RoleIgnore {
		return r, nil
	}
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", eris.Errorf("model: unknown role %q", s)
}
