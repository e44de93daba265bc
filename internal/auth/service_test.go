package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blog-api/internal/observability"
)

type fakeUserStore struct {
	byEmail map[string]User
	created []NewUser
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]User)}
}

func (f *fakeUserStore) seed(t *testing.T, email, password, role string) User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := User{
		ID:           "id-" + email,
		Username:     "user-" + email,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	f.byEmail[email] = user
	return user
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserStore) Create(ctx context.Context, input NewUser) (User, error) {
	if _, ok := f.byEmail[input.Email]; ok {
		return User{}, ErrEmailTaken
	}
	f.created = append(f.created, input)
	hash, _ := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.MinCost)
	role := input.Role
	if role == "" {
		role = RoleUser
	}
	user := User{
		ID:           "id-" + input.Email,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	f.byEmail[input.Email] = user
	return user, nil
}

func (f *fakeUserStore) GetRole(ctx context.Context, userID string) (string, error) {
	for _, user := range f.byEmail {
		if user.ID == userID {
			return user.Role, nil
		}
	}
	return "", ErrUserNotFound
}

type fakeTokenStore struct {
	tokens map[string]time.Time
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]time.Time)}
}

func (f *fakeTokenStore) Save(ctx context.Context, token, userID string, expiresAt time.Time) error {
	f.tokens[token] = expiresAt
	return nil
}

func (f *fakeTokenStore) ExistsByToken(ctx context.Context, token string) (bool, error) {
	_, ok := f.tokens[token]
	return ok, nil
}

func (f *fakeTokenStore) DeleteByToken(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *fakeTokenStore) DeleteExpired(ctx context.Context, batchSize int) (int64, error) {
	var deleted int64
	now := time.Now()
	for token, expiresAt := range f.tokens {
		if expiresAt.Before(now) {
			delete(f.tokens, token)
			deleted++
		}
	}
	return deleted, nil
}

func newTestService(users *fakeUserStore, tokens *fakeTokenStore, adminEmails ...string) *Service {
	return NewService(users, tokens, newTestCodec(), adminEmails, observability.NewLogger("test"))
}

func TestServiceRegisterOpensSession(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	service := newTestService(users, tokens)

	session, err := service.Register(context.Background(), RegisterInput{
		Email:    "reader@example.com",
		Password: "hunter12",
	})
	require.NoError(t, err)

	assert.Equal(t, "reader@example.com", session.User.Email)
	assert.Equal(t, RoleUser, session.User.Role)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.NotEqual(t, session.AccessToken, session.RefreshToken)

	exists, err := tokens.ExistsByToken(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestServiceRegisterNormalizesEmail(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	service := newTestService(users, newFakeTokenStore())

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "  Reader@Example.COM ",
		Password: "hunter12",
	})
	require.NoError(t, err)

	require.Len(t, users.created, 1)
	assert.Equal(t, "reader@example.com", users.created[0].Email)
}

func TestServiceRegisterAdminRequiresAllowList(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	service := newTestService(users, newFakeTokenStore(), "boss@example.com")

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "intruder@example.com",
		Password: "hunter12",
		Role:     RoleAdmin,
	})
	assert.ErrorIs(t, err, ErrAdminNotAllowed)
	assert.Empty(t, users.created, "denied registration must not persist anything")

	session, err := service.Register(context.Background(), RegisterInput{
		Email:    "Boss@Example.com",
		Password: "hunter12",
		Role:     RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, session.User.Role)
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.seed(t, "reader@example.com", "hunter12", RoleUser)
	service := newTestService(users, newFakeTokenStore())

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "reader@example.com",
		Password: "different",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Empty(t, users.created)
}

func TestServiceLogin(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.seed(t, "reader@example.com", "hunter12", RoleUser)
	tokens := newFakeTokenStore()
	service := newTestService(users, tokens)

	_, err := service.Login(context.Background(), "reader@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(context.Background(), "ghost@example.com", "hunter12")
	assert.ErrorIs(t, err, ErrUserNotFound)

	session, err := service.Login(context.Background(), "reader@example.com", "hunter12")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", session.User.Email)

	payload, err := service.codec.VerifyRefreshToken(session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "id-reader@example.com", payload.UserID)
}

func TestServiceRefresh(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.seed(t, "reader@example.com", "hunter12", RoleUser)
	tokens := newFakeTokenStore()
	service := newTestService(users, tokens)

	session, err := service.Login(context.Background(), "reader@example.com", "hunter12")
	require.NoError(t, err)

	access, err := service.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)

	payload, err := service.codec.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "id-reader@example.com", payload.UserID)
}

func TestServiceRefreshRejectsRevokedToken(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.seed(t, "reader@example.com", "hunter12", RoleUser)
	tokens := newFakeTokenStore()
	service := newTestService(users, tokens)

	session, err := service.Login(context.Background(), "reader@example.com", "hunter12")
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), session.RefreshToken))

	// The signature is still valid; revocation comes from the store alone.
	_, err = service.codec.VerifyRefreshToken(session.RefreshToken)
	require.NoError(t, err)

	_, err = service.Refresh(context.Background(), session.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestServiceRefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.seed(t, "reader@example.com", "hunter12", RoleUser)
	service := newTestService(users, newFakeTokenStore())

	session, err := service.Login(context.Background(), "reader@example.com", "hunter12")
	require.NoError(t, err)

	_, err = service.Refresh(context.Background(), session.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestServiceLogoutIsIdempotent(t *testing.T) {
	t.Parallel()

	service := newTestService(newFakeUserStore(), newFakeTokenStore())

	require.NoError(t, service.Logout(context.Background(), ""))
	require.NoError(t, service.Logout(context.Background(), "never-issued"))
	require.NoError(t, service.Logout(context.Background(), "never-issued"))
}
