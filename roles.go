package ledgerauth

// UserRole is the user's role
type UserRole string

const (
	// RoleUser is the default role assigned at signup
	RoleUser UserRole = "user"
	// RoleAdmin grants access to admin-only routes
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}

// AllRoles returns every predefined role
func AllRoles() []UserRole {
	return []UserRole{RoleUser, RoleAdmin}
}

// IsAllowed reports whether role is a member of the allowed set. It is
// the single membership predicate behind the route guard.
func IsAllowed(role UserRole, allowed []UserRole) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
