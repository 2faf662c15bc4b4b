package models

// User is a registered account. Password always holds the bcrypt hash,
// never the plaintext, and is excluded from JSON output.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Role     string `json:"role,omitempty"`
	Enabled  bool   `json:"enabled"`
}
