package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(users *fakeUserStore, tokens *fakeTokenStore, adminEmails ...string) *Handler {
	return NewHandler(newTestService(users, tokens, adminEmails...), false)
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandlerRegisterSuccess(t *testing.T) {
	t.Parallel()

	tokens := newFakeTokenStore()
	handler := newTestHandler(newFakeUserStore(), tokens)

	rec := httptest.NewRecorder()
	handler.Register(rec, postJSON("/api/v1/auth/register", `{"email":"reader@example.com","password":"hunter12"}`))

	require.Equal(t, http.StatusCreated, rec.Code)

	var body sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "User registered successfully", body.Message)
	assert.Equal(t, "reader@example.com", body.User.Email)
	assert.Equal(t, RoleUser, body.User.Role)
	assert.NotEmpty(t, body.AccessToken)

	cookie := findCookie(t, rec, "refreshToken")
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 168*60*60, cookie.MaxAge)

	exists, err := tokens.ExistsByToken(t.Context(), cookie.Value)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestHandlerRegisterValidation(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(newFakeUserStore(), newFakeTokenStore())

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing email", `{"password":"hunter12"}`, "Email is required"},
		{"bad email", `{"email":"not-an-email","password":"hunter12"}`, "Invalid email address"},
		{"missing password", `{"email":"reader@example.com"}`, "Password is required"},
		{"short password", `{"email":"reader@example.com","password":"abc"}`, "Password must be at least 6 characters long"},
		{"bad role", `{"email":"reader@example.com","password":"hunter12","role":"owner"}`, "Role must be either admin or user"},
		{"unknown field", `{"email":"reader@example.com","password":"hunter12","extra":true}`, "Invalid request body"},
		{"not json", `email=reader`, "Invalid request body"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			handler.Register(rec, postJSON("/api/v1/auth/register", tc.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeErrorBody(t, rec)
			assert.Equal(t, "InvalidRequest", body["code"])
			assert.Equal(t, tc.want, body["message"])
		})
	}
}

func TestHandlerRegisterAdminDenied(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	handler := newTestHandler(users, newFakeTokenStore(), "boss@example.com")

	rec := httptest.NewRecorder()
	handler.Register(rec, postJSON("/api/v1/auth/register", `{"email":"intruder@example.com","password":"hunter12","role":"admin"}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "AuthorizationError", body["code"])
	assert.Equal(t, "You cannot register as an admin", body["message"])
	assert.Empty(t, users.created)
}

func TestHandlerRegisterConflict(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.seed(t, "reader@example.com", "hunter12", RoleUser)
	handler := newTestHandler(users, newFakeTokenStore())

	rec := httptest.NewRecorder()
	handler.Register(rec, postJSON("/api/v1/auth/register", `{"email":"reader@example.com","password":"hunter12"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "Conflict", body["code"])
}

func TestHandlerLogin(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.seed(t, "reader@example.com", "hunter12", RoleUser)
	handler := newTestHandler(users, newFakeTokenStore())

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON("/api/v1/auth/login", `{"email":"ghost@example.com","password":"hunter12"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", decodeErrorBody(t, rec)["code"])

	rec = httptest.NewRecorder()
	handler.Login(rec, postJSON("/api/v1/auth/login", `{"email":"reader@example.com","password":"wrong-pass"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AuthenticationError", decodeErrorBody(t, rec)["code"])

	rec = httptest.NewRecorder()
	handler.Login(rec, postJSON("/api/v1/auth/login", `{"email":"reader@example.com","password":"hunter12"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var body sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Login successful", body.Message)
	assert.NotEmpty(t, body.AccessToken)

	cookie := findCookie(t, rec, "refreshToken")
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
}

func TestHandlerRefresh(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	users.seed(t, "reader@example.com", "hunter12", RoleUser)
	tokens := newFakeTokenStore()
	handler := newTestHandler(users, tokens)

	loginRec := httptest.NewRecorder()
	handler.Login(loginRec, postJSON("/api/v1/auth/login", `{"email":"reader@example.com","password":"hunter12"}`))
	require.Equal(t, http.StatusOK, loginRec.Code)
	refreshCookie := findCookie(t, loginRec, "refreshToken")
	require.NotNil(t, refreshCookie)

	// No cookie at all.
	rec := httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Refresh token required", decodeErrorBody(t, rec)["message"])

	// Garbage cookie.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "garbage"})
	handler.Refresh(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token invalid", decodeErrorBody(t, rec)["message"])

	// The real one.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", nil)
	req.AddCookie(refreshCookie)
	handler.Refresh(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body["accessToken"])

	// After logout the same cookie is refused even though its signature holds.
	logoutRec := httptest.NewRecorder()
	logoutReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	logoutReq.AddCookie(refreshCookie)
	handler.Logout(logoutRec, logoutReq)
	require.Equal(t, http.StatusNoContent, logoutRec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", nil)
	req.AddCookie(refreshCookie)
	handler.Refresh(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token invalid", decodeErrorBody(t, rec)["message"])
}

func TestHandlerRegisterThenLogin(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(newFakeUserStore(), newFakeTokenStore())

	registerRec := httptest.NewRecorder()
	handler.Register(registerRec, postJSON("/api/v1/auth/register", `{"email":"reader@example.com","password":"hunter12"}`))
	require.Equal(t, http.StatusCreated, registerRec.Code)

	var registered sessionResponse
	require.NoError(t, json.NewDecoder(registerRec.Body).Decode(&registered))

	loginRec := httptest.NewRecorder()
	handler.Login(loginRec, postJSON("/api/v1/auth/login", `{"email":"reader@example.com","password":"hunter12"}`))
	require.Equal(t, http.StatusOK, loginRec.Code)

	var loggedIn sessionResponse
	require.NoError(t, json.NewDecoder(loginRec.Body).Decode(&loggedIn))

	assert.Equal(t, registered.User, loggedIn.User)
	assert.NotEqual(t, registered.AccessToken, loggedIn.AccessToken, "every login mints a fresh access token")
}

func TestHandlerLogoutClearsCookie(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(newFakeUserStore(), newFakeTokenStore())

	// Without a cookie logout still succeeds and clears client state.
	rec := httptest.NewRecorder()
	handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookie := findCookie(t, rec, "refreshToken")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}
