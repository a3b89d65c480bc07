package authz

import (
	"strings"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser       Role = "user"
	RoleTeacher    Role = "teacher"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Account statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
	StatusDeleted  = "deleted"
)

// NormalizeRole is the single parse point for role strings coming from the
// database or a token. Anything unrecognized is treated as a student account.
func NormalizeRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleTeacher:
		return RoleTeacher
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleUser
	}
}

// In reports whether the role is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// Elevated reports whether the role bypasses roster scoping.
func (r Role) Elevated() bool {
	return r.In(RoleAdmin, RoleSuperAdmin)
}

// Staff reports whether the role may enter the admin surface at all.
func (r Role) Staff() bool {
	return r.In(RoleTeacher, RoleAdmin, RoleSuperAdmin)
}

// RosterChecker reports whether a student is on a teacher's roster.
type RosterChecker interface {
	OnRoster(teacherID, studentID uint) (bool, error)
}

// CanActOnStudent is the one predicate behind every roster-scoped endpoint:
// elevated roles see every student, teachers only students linked to them.
func CanActOnStudent(roster RosterChecker, role Role, teacherID, studentID uint) (bool, error) {
	if role.Elevated() {
		return true, nil
	}
	if role != RoleTeacher {
		return false, nil
	}
	return roster.OnRoster(teacherID, studentID)
}
