// internal/domain/models/actor.go
package models

import "strings"

// Role is one of the three roles a signed-in user may hold.
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleSupervisor Role = "Supervisor"
	RoleExecutive  Role = "Executive"
)

// ParseRole maps a stored or session role string to a Role.
// Older records use "Employee"/"user" for executives and "admin" for
// super admins. Anything else returns ok=false.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "superadmin", "super_admin", "admin":
		return RoleSuperAdmin, true
	case "supervisor":
		return RoleSupervisor, true
	case "executive", "employee", "user":
		return RoleExecutive, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleSupervisor, RoleExecutive:
		return true
	}
	return false
}

// Actor is the authenticated identity on whose behalf a call runs.
// It is supplied per call by the session layer and never persisted.
type Actor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	TeamID string `json:"team_id,omitempty"`
}
