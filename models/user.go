package models

const (
	// DefaultAdminUsername is seeded on first run.
	DefaultAdminUsername = "admin"
	// DefaultAdminPassword is the well-known initial credential; the
	// admin UI nags until it is changed.
	DefaultAdminPassword = "admin123"

	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// User is a portal staff account (admin or editor). PasswordHash is the
// on-disk bcrypt hash; API responses use UserSummary instead.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password"`
	Role         string `json:"role"`
	Created      string `json:"created"`
}

// UserSummary is the client-visible shape of a staff account.
type UserSummary struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Created  string `json:"created"`
}

// Summary strips the credential material off a user.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Role: u.Role, Created: u.Created}
}
