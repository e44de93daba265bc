package like

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"blog-api/internal/auth"
	"blog-api/internal/blog"
	"blog-api/internal/respond"
)

type Handler struct {
	store Store
	blogs blog.Store
}

func NewHandler(store Store, blogs blog.Store) *Handler {
	return &Handler{store: store, blogs: blogs}
}

func (h *Handler) LikeBlog(w http.ResponseWriter, r *http.Request) {
	userID, blogID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := h.store.LikeBlog(r.Context(), userID, blogID); err != nil {
		if errors.Is(err, ErrAlreadyLiked) {
			respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Blog already liked")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UnlikeBlog(w http.ResponseWriter, r *http.Request) {
	userID, blogID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := h.store.UnlikeBlog(r.Context(), userID, blogID); err != nil {
		if errors.Is(err, ErrNotLiked) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Like not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolve validates the request and confirms the target blog exists.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (userID, blogID string, ok bool) {
	userID, hasUser := auth.UserIDFromContext(r.Context())
	if !hasUser {
		respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
		return "", "", false
	}

	blogID = r.PathValue("blogId")
	if _, err := uuid.Parse(blogID); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid blog ID")
		return "", "", false
	}

	if _, err := h.blogs.GetByID(r.Context(), blogID); err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Blog not found")
			return "", "", false
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return "", "", false
	}

	return userID, blogID, true
}
