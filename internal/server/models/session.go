package models

import "time"

// Role is the authorization level bound to a session. The admin is a single
// implicit identity, not an account, so it is a role value rather than a
// special-cased username.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
)

// Session holds the server-side state for an authenticated client. The
// session table is the authority: a signed token that no longer resolves to
// a live Session is invalid regardless of its expiry.
type Session struct {
	// ID is the opaque session identifier carried in the token claims.
	ID string
	// Role is Admin or User; anonymous clients have no Session at all.
	Role Role
	// Username is set only for user-role sessions.
	Username string
	// CreatedAt records when the credential gate accepted the login.
	CreatedAt time.Time
}
