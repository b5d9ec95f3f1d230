package models

import (
	"fmt"
	"strings"
)

// Role tags an actor with the portal it may use.
type Role string

const (
	Farmer Role = "farmer"
	Buyer  Role = "buyer"
	Admin  Role = "admin"
	Agent  Role = "agent"
)

// Roles lists every role in display order.
var Roles = []Role{Farmer, Buyer, Admin, Agent}

// SignUpRoles are the roles an actor may pick for themselves.
var SignUpRoles = []Role{Farmer, Buyer, Agent}

var roleLabels = map[Role]string{
	Farmer: "Farmer",
	Buyer:  "Buyer",
	Admin:  "Admin",
	Agent:  "Agent",
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleLabels[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label is the human readable role name.
func (r Role) Label() string {
	return roleLabels[r]
}

// SelfAssignable reports whether r may be chosen at sign-up.
func (r Role) SelfAssignable() bool {
	for _, candidate := range SignUpRoles {
		if candidate == r {
			return true
		}
	}
	return false
}
