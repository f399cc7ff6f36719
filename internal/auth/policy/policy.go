// Package policy defines the typed authorization model: the closed set of
// roles and the pure decision function the HTTP layer delegates to. Keeping
// the decision transport-free lets it be tested without gin.
package policy

// Role is a named authorization level assigned to a user.
type Role string

const (
	// RoleAdmin has full access, including the validation queue and analytics.
	RoleAdmin Role = "admin"
	// RoleValidator reviews AI-drafted messages before they reach clients.
	RoleValidator Role = "validator"
	// RoleAgent creates messages, conversations, clients, and quotes.
	RoleAgent Role = "agent"
	// RoleViewer has read-only access.
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleValidator, RoleAgent, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// IsAuthorized reports whether any of the user's roles is in the required
// set. An empty required set denies by default.
func IsAuthorized(userRoles []string, required ...Role) bool {
	for _, have := range userRoles {
		for _, want := range required {
			if Role(have) == want {
				return true
			}
		}
	}
	return false
}

// Strings converts a role list to its string form for JWT claims.
func Strings(roles []Role) []string {
	result := make([]string, len(roles))
	for i, r := range roles {
		result[i] = string(r)
	}
	return result
}
