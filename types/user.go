package types

import "time"

// Role names recognised by the authorization checks.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account in the system.
// Accounts are created at first boot (the admin) or seeded; there are no
// update or delete endpoints for them.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id"`

	// Username is the unique login name chosen by the user.
	// Lookup is a case-sensitive exact match.
	Username string `json:"username"`

	// Role indicates the user's authorization level within the
	// system ("admin" or "user").
	Role string `json:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal is the authenticated identity derived from a verified token.
type Principal struct {
	// ID is the user id carried in the token subject.
	ID string `json:"id"`

	// Username is the login name carried in the token.
	Username string `json:"username"`

	// Role is the authorization role carried in the token.
	Role string `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
