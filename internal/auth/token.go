package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failures are split three ways so the middleware and the
// refresh flow can tell an expired token (client should refresh) from a
// forged or garbled one (client must re-authenticate).
var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenMalformed        = errors.New("token malformed")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type sessionClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPayload is the verified content of a token.
type TokenPayload struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies access and refresh tokens. The two token classes
// use independent secrets, so compromising one never compromises the other.
// A Codec holds no mutable state and is safe for concurrent use.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

func (c *Codec) IssueAccessToken(userID string) (string, error) {
	return c.issue(userID, tokenTypeAccess, c.accessSecret, c.accessTTL)
}

func (c *Codec) IssueRefreshToken(userID string) (string, error) {
	return c.issue(userID, tokenTypeRefresh, c.refreshSecret, c.refreshTTL)
}

func (c *Codec) VerifyAccessToken(token string) (TokenPayload, error) {
	return c.verify(token, tokenTypeAccess, c.accessSecret)
}

func (c *Codec) VerifyRefreshToken(token string) (TokenPayload, error) {
	return c.verify(token, tokenTypeRefresh, c.refreshSecret)
}

func (c *Codec) issue(userID, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return signed, nil
}

func (c *Codec) verify(token, wantType string, secret []byte) (TokenPayload, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return TokenPayload{}, mapJWTError(err)
	}
	if !parsed.Valid {
		return TokenPayload{}, ErrTokenMalformed
	}

	// A token of the wrong class is as unusable as one with a bad signature.
	if claims.TokenType != wantType {
		return TokenPayload{}, ErrTokenInvalidSignature
	}
	if claims.Subject == "" {
		return TokenPayload{}, ErrTokenMalformed
	}

	payload := TokenPayload{UserID: claims.Subject}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}

	return payload, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenInvalidSignature
	default:
		return ErrTokenMalformed
	}
}
