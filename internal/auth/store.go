package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserStore persists credentials. Hashing happens inside the store: Create
// always hashes the plaintext, reads return the stored hash only through
// FindByEmail (the login path needs it for comparison).
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, input NewUser) (User, error)
	GetRole(ctx context.Context, userID string) (string, error)
}

// RefreshTokenStore persists issued refresh tokens. A row exists exactly as
// long as the token is honored; deleting the row revokes it regardless of
// the token's embedded expiry.
type RefreshTokenStore interface {
	Save(ctx context.Context, token, userID string, expiresAt time.Time) error
	ExistsByToken(ctx context.Context, token string) (bool, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, batchSize int) (int64, error)
}
