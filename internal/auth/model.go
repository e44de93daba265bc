package auth

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the subset of User that is safe to return to clients. The
// password hash never leaves the package.
type PublicUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{Username: u.Username, Email: u.Email, Role: u.Role}
}

// NewUser carries the plaintext password to the store, which hashes it at
// write time. The plaintext is never persisted.
type NewUser struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Session is the result of a successful register or login.
type Session struct {
	User         PublicUser
	AccessToken  string
	RefreshToken string
}
