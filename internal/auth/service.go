package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"blog-api/internal/observability"
)

var (
	ErrAdminNotAllowed     = errors.New("email not allowed to register as admin")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// Service orchestrates the session lifecycle: register, login, refresh and
// logout. It owns no state beyond its collaborators; the admin allow-list is
// injected at construction and read-only afterwards.
type Service struct {
	users       UserStore
	tokens      RefreshTokenStore
	codec       *Codec
	adminEmails map[string]struct{}
	logger      *observability.Logger
}

func NewService(users UserStore, tokens RefreshTokenStore, codec *Codec, adminEmails []string, logger *observability.Logger) *Service {
	allowed := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		allowed[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}

	return &Service{
		users:       users,
		tokens:      tokens,
		codec:       codec,
		adminEmails: allowed,
		logger:      logger,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

// Register creates a credential record and opens a session. The admin
// allow-list is checked before anything is persisted.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if input.Role == RoleAdmin {
		if _, ok := s.adminEmails[email]; !ok {
			s.logger.Warn("admin_registration_denied", observability.Fields{"email": email})
			return Session{}, ErrAdminNotAllowed
		}
	}

	// Pre-flight only; the unique index on users.email decides the race
	// between concurrent registrations.
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, ErrEmailTaken
	}

	user, err := s.users.Create(ctx, NewUser{
		Username: genUsername(),
		Email:    email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		return Session{}, err
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("user_registered", observability.Fields{"user_id": user.ID, "role": user.Role})
	return session, nil
}

// Login verifies the supplied credentials against the stored hash. A missing
// user and a wrong password are reported separately so the handler can map
// them to 404 and 401 respectively.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("user_logged_in", observability.Fields{"user_id": user.ID})
	return session, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
// Store presence outranks signature validity: a token deleted by logout is
// rejected even though it would still verify.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	payload, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	exists, err := s.tokens.ExistsByToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrRefreshTokenRevoked
	}

	access, err := s.codec.IssueAccessToken(payload.UserID)
	if err != nil {
		return "", err
	}

	s.logger.Info("access_token_refreshed", observability.Fields{"user_id": payload.UserID})
	return access, nil
}

// Logout revokes the refresh token by deleting its store record. Deleting a
// token that was already gone is not an error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	return s.tokens.DeleteByToken(ctx, refreshToken)
}

func (s *Service) openSession(ctx context.Context, user User) (Session, error) {
	access, err := s.codec.IssueAccessToken(user.ID)
	if err != nil {
		return Session{}, err
	}

	refresh, err := s.codec.IssueRefreshToken(user.ID)
	if err != nil {
		return Session{}, err
	}

	expiresAt := time.Now().UTC().Add(s.codec.RefreshTTL())
	if err := s.tokens.Save(ctx, refresh, user.ID, expiresAt); err != nil {
		return Session{}, err
	}

	return Session{
		User:         user.Public(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// genUsername produces a throwaway handle like "user-3f9a1c0b2d4e"; users
// can change it later through the profile endpoint.
func genUsername() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("user-%d", time.Now().UnixNano())
	}
	return "user-" + hex.EncodeToString(buf)
}
