package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already in use")
	ErrUsernameTaken = errors.New("username already in use")
)

type SocialLinks struct {
	Website   string `json:"website,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	X         string `json:"x,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

// Profile is the user as seen by the profile endpoints. It never carries
// the password hash.
type Profile struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	FirstName   string      `json:"firstName,omitempty"`
	LastName    string      `json:"lastName,omitempty"`
	SocialLinks SocialLinks `json:"socialLinks"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Store separates profile updates from password changes: Update never
// touches the hash, SetPassword always rehashes. There is no conditional
// "rehash if dirty" path.
type Store interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	List(ctx context.Context, limit, offset int) ([]Profile, error)
	Update(ctx context.Context, p Profile) error
	SetPassword(ctx context.Context, id, plaintext string) error
	Delete(ctx context.Context, id string) error
}
