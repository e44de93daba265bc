package comment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"blog-api/internal/auth"
	"blog-api/internal/blog"
	"blog-api/internal/respond"
)

const (
	maxJSONBodyBytes = 1 << 20
	maxContentLength = 1000
)

type Handler struct {
	store Store
	blogs blog.Store
	roles auth.RoleStore
}

func NewHandler(store Store, blogs blog.Store, roles auth.RoleStore) *Handler {
	return &Handler{store: store, blogs: blogs, roles: roles}
}

type createRequest struct {
	Content string `json:"content"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
		return
	}

	blogID := r.PathValue("blogId")
	if _, err := uuid.Parse(blogID); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid blog ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	var body createRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid request body")
		return
	}

	body.Content = strings.TrimSpace(body.Content)
	if body.Content == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Content is required")
		return
	}
	if utf8.RuneCountInString(body.Content) > maxContentLength {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Content must be less than 1000 characters")
		return
	}

	if _, err := h.blogs.GetByID(r.Context(), blogID); err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Blog not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	c := Comment{
		ID:        id.String(),
		BlogID:    blogID,
		UserID:    userID,
		Content:   body.Content,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.Create(r.Context(), c); err != nil {
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusCreated, c)
}

func (h *Handler) ListByBlog(w http.ResponseWriter, r *http.Request) {
	blogID := r.PathValue("blogId")
	if _, err := uuid.Parse(blogID); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid blog ID")
		return
	}

	if _, err := h.blogs.GetByID(r.Context(), blogID); err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Blog not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	comments, err := h.store.ListByBlog(r.Context(), blogID)
	if err != nil {
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"comments": comments})
}

// Delete removes a comment. Only its author or an admin may delete it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
		return
	}

	commentID := r.PathValue("commentId")
	if _, err := uuid.Parse(commentID); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid comment ID")
		return
	}

	c, err := h.store.GetByID(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Comment not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	if c.UserID != userID {
		role, err := h.roles.GetRole(r.Context(), userID)
		if err != nil || role != auth.RoleAdmin {
			respond.Error(w, http.StatusForbidden, respond.CodeAuthorizationError, "Access denied, insufficient permission")
			return
		}
	}

	if err := h.store.Delete(r.Context(), commentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Comment not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
