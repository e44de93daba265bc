package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"blog-api/internal/auth"
	"blog-api/internal/respond"
)

const (
	maxJSONBodyBytes  = 1 << 20
	maxUsernameLength = 20
	maxNameLength     = 20
	maxEmailLength    = 50
	maxLinkLength     = 100
	minPasswordLength = 6
)

type Handler struct {
	store        Store
	defaultLimit int
	maxLimit     int
}

func NewHandler(store Store, defaultLimit, maxLimit int) *Handler {
	return &Handler{store: store, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
		return
	}

	h.getByID(w, r, userID)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if _, err := uuid.Parse(userID); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid user ID")
		return
	}

	h.getByID(w, r, userID)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.store.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"user": profile})
}

type updateRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Website   *string `json:"website"`
	Facebook  *string `json:"facebook"`
	Instagram *string `json:"instagram"`
	X         *string `json:"x"`
	YouTube   *string `json:"youtube"`
}

// UpdateCurrent applies the provided fields to the caller's profile. A
// password in the payload always rehashes; an absent password never does.
func (h *Handler) UpdateCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	var body updateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid request body")
		return
	}

	profile, err := h.store.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	if msg, ok := applyUpdate(&profile, body); !ok {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, msg)
		return
	}

	if err := h.store.Update(r.Context(), profile); err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			respond.Error(w, http.StatusConflict, respond.CodeConflict, "This email is already in use")
		case errors.Is(err, ErrUsernameTaken):
			respond.Error(w, http.StatusConflict, respond.CodeConflict, "This username is already in use")
		case errors.Is(err, ErrNotFound):
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "User not found")
		default:
			sentry.CaptureException(err)
			respond.ServerError(w)
		}
		return
	}

	if body.Password != nil {
		if err := h.store.SetPassword(r.Context(), userID, *body.Password); err != nil {
			sentry.CaptureException(err)
			respond.ServerError(w)
			return
		}
	}

	respond.JSON(w, http.StatusOK, map[string]any{"user": profile})
}

func (h *Handler) DeleteCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
		return
	}

	h.delete(w, r, userID)
}

func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if _, err := uuid.Parse(userID); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid user ID")
		return
	}

	h.delete(w, r, userID)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.store.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	offset := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > h.maxLimit {
			respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Limit must be between 1 and "+strconv.Itoa(h.maxLimit))
			return
		}
		limit = parsed
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	profiles, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"limit":  limit,
		"offset": offset,
		"users":  profiles,
	})
}

func applyUpdate(profile *Profile, body updateRequest) (string, bool) {
	if body.Username != nil {
		username := strings.TrimSpace(*body.Username)
		if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
			return "Username must be between 1 and 20 characters", false
		}
		profile.Username = username
	}
	if body.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*body.Email))
		if email == "" || len(email) > maxEmailLength || !strings.Contains(email, "@") {
			return "Invalid email address", false
		}
		profile.Email = email
	}
	if body.Password != nil && len(*body.Password) < minPasswordLength {
		return "Password must be at least 6 characters long", false
	}
	if body.FirstName != nil {
		if utf8.RuneCountInString(*body.FirstName) > maxNameLength {
			return "First name must be less than 20 characters", false
		}
		profile.FirstName = strings.TrimSpace(*body.FirstName)
	}
	if body.LastName != nil {
		if utf8.RuneCountInString(*body.LastName) > maxNameLength {
			return "Last name must be less than 20 characters", false
		}
		profile.LastName = strings.TrimSpace(*body.LastName)
	}

	links := []struct {
		value *string
		dest  *string
	}{
		{body.Website, &profile.SocialLinks.Website},
		{body.Facebook, &profile.SocialLinks.Facebook},
		{body.Instagram, &profile.SocialLinks.Instagram},
		{body.X, &profile.SocialLinks.X},
		{body.YouTube, &profile.SocialLinks.YouTube},
	}
	for _, link := range links {
		if link.value == nil {
			continue
		}
		trimmed := strings.TrimSpace(*link.value)
		if trimmed == "" {
			*link.dest = ""
			continue
		}
		if len(trimmed) > maxLinkLength || !validLink(trimmed) {
			return "Invalid URL", false
		}
		*link.dest = trimmed
	}

	return "", true
}

func validLink(raw string) bool {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}
