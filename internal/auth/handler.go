package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"

	"blog-api/internal/respond"
)

const (
	refreshCookieName = "refreshToken"
	maxJSONBodyBytes  = 1 << 20
	maxEmailLength    = 50
	minPasswordLength = 6
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Handler struct {
	service       *Service
	secureCookies bool
}

// NewHandler wires the session flows to HTTP. secureCookies should be true
// in production so the refresh cookie is only sent over HTTPS.
func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{service: service, secureCookies: secureCookies}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message     string     `json:"message"`
	User        PublicUser `json:"user"`
	AccessToken string     `json:"accessToken"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body registerRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid request body")
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	body.Role = strings.TrimSpace(body.Role)
	if msg, ok := validateCredentials(body.Email, body.Password); !ok {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, msg)
		return
	}
	if body.Role != "" && body.Role != RoleUser && body.Role != RoleAdmin {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Role must be either admin or user")
		return
	}

	session, err := h.service.Register(r.Context(), RegisterInput{
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAdminNotAllowed):
			respond.Error(w, http.StatusForbidden, respond.CodeAuthorizationError, "You cannot register as an admin")
		case errors.Is(err, ErrEmailTaken):
			respond.Error(w, http.StatusConflict, respond.CodeConflict, "User with this email already exists")
		default:
			sentry.CaptureException(err)
			respond.ServerError(w)
		}
		return
	}

	h.setRefreshCookie(w, session.RefreshToken)
	respond.JSON(w, http.StatusCreated, sessionResponse{
		Message:     "User registered successfully",
		User:        session.User,
		AccessToken: session.AccessToken,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid request body")
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if msg, ok := validateCredentials(body.Email, body.Password); !ok {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, msg)
		return
	}

	session, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "User not found")
		case errors.Is(err, ErrInvalidCredentials):
			respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Invalid credentials")
		default:
			sentry.CaptureException(err)
			respond.ServerError(w)
		}
		return
	}

	h.setRefreshCookie(w, session.RefreshToken)
	respond.JSON(w, http.StatusOK, sessionResponse{
		Message:     "Login successful",
		User:        session.User,
		AccessToken: session.AccessToken,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Refresh token required")
		return
	}

	access, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Refresh token expired, please login again")
		case errors.Is(err, ErrTokenInvalidSignature), errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrRefreshTokenRevoked):
			respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Refresh token invalid")
		default:
			sentry.CaptureException(err)
			respond.ServerError(w)
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		token = cookie.Value
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	// Cleared unconditionally; logout succeeds even without a cookie.
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func validateCredentials(email, password string) (string, bool) {
	if email == "" {
		return "Email is required", false
	}
	if len(email) > maxEmailLength {
		return "Email must be less than 50 characters", false
	}
	if !emailRegex.MatchString(email) {
		return "Invalid email address", false
	}
	if password == "" {
		return "Password is required", false
	}
	if len(password) < minPasswordLength {
		return "Password must be at least 6 characters long", false
	}
	return "", true
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.service.codec.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
