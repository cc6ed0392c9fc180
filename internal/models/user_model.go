package models

// Role is the authorization tier stored on a user's role record.
// The zero value means no role has been resolved.
type Role string

const (
	RoleNone   Role = ""
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ParseRole returns the Role for s, or RoleNone (and false) for anything
// that is not a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleMember:
		return RoleMember, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return RoleNone, false
}

// UserProfile is the role-resolution record stored in the users collection,
// keyed by the Firebase Auth UID.
type UserProfile struct {
	ID        string `json:"id" firestore:"-"`
	Email     string `json:"email" firestore:"email"`
	Role      string `json:"role" firestore:"role"`
	CreatedAt string `json:"createdAt" firestore:"createdAt"` // RFC3339, written by the client at signup
}
