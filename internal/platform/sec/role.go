// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package sec

// # User Roles

// Role represents the authorization tier granted to an account.
//
// It is a closed sum type: any value outside the three constants below is
// invalid and rejected at the API boundary, so invalid states never reach
// storage.
type Role string

const (
	// Unrestricted system access
	RoleAdmin Role = "admin"

	// Can manage their own data plus data of users they referred
	RoleModerator Role = "moderator"

	// Default tier for standard registered users
	RoleUser Role = "user"
)

// ParseRole validates a raw string against the closed role set.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleModerator, RoleUser:
		return Role(raw), true
	}
	return "", false
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// CanRefer reports whether accounts of this role may be named as a referrer
// by signing-up users.
func (r Role) CanRefer() bool {
	return r == RoleModerator || r == RoleAdmin
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleModerator:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
