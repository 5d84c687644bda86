package models

import "fmt"

// Role is the closed set of positions a profile can declare and a team slot can require.
// Profile role and slot role share this type so compatibility checks cannot drift.
type Role string

const (
	RoleBackend  Role = "backend"
	RoleFrontend Role = "frontend"
	RoleMobile   Role = "mobile"
	RoleML       Role = "ml"
	RoleProduct  Role = "product"
	RoleDesigner Role = "designer"
)

// Roles lists every valid role in declaration order.
func Roles() []Role {
	return []Role{RoleBackend, RoleFrontend, RoleMobile, RoleML, RoleProduct, RoleDesigner}
}

// ParseRole validates a raw string against the role enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleBackend, RoleFrontend, RoleMobile, RoleML, RoleProduct, RoleDesigner:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

func (r Role) String() string { return string(r) }
