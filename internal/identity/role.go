package identity

import "strings"

type Role string

const (
	RoleIntern    Role = "intern"
	RoleMentor    Role = "mentor"
	RoleAdmin     Role = "admin"
	RoleSuspended Role = "suspended"
)

// NormalizeRole maps any stored or submitted spelling onto the canonical
// role. "Suspend", "suspend" and "Suspended" all become RoleSuspended.
func NormalizeRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "intern", "student":
		return RoleIntern, true
	case "mentor":
		return RoleMentor, true
	case "admin":
		return RoleAdmin, true
	case "suspended", "suspend":
		return RoleSuspended, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleIntern, RoleMentor, RoleAdmin, RoleSuspended:
		return true
	}
	return false
}

// CanReview reports whether the role may act on other users' applications.
func (r Role) CanReview() bool {
	return r == RoleMentor || r == RoleAdmin
}
