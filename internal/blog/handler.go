package blog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"blog-api/internal/auth"
	"blog-api/internal/respond"
)

const (
	maxJSONBodyBytes = 1 << 20
	maxTitleLength   = 180
)

type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
}

type Handler struct {
	store        Store
	roles        auth.RoleStore
	uploader     ImageUploader
	defaultLimit int
	maxLimit     int
}

func NewHandler(store Store, roles auth.RoleStore, uploader ImageUploader, defaultLimit, maxLimit int) *Handler {
	return &Handler{
		store:        store,
		roles:        roles,
		uploader:     uploader,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
		return
	}

	input, ok := parseInput(w, r)
	if !ok {
		return
	}

	bannerURL, err := h.uploader.UploadImage(r.Context(), input.BannerImage)
	if err != nil {
		sentry.CaptureException(err)
		respond.Error(w, http.StatusBadGateway, respond.CodeServerError, "Failed to upload banner image")
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	now := time.Now().UTC()
	b := Blog{
		ID:        id.String(),
		Title:     input.Title,
		Slug:      GenSlug(input.Title),
		Content:   input.Content,
		BannerURL: bannerURL,
		AuthorID:  userID,
		Status:    input.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.Create(r.Context(), b); err != nil {
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusCreated, b)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := h.parsePagination(w, r)
	if !ok {
		return
	}

	filter := ListFilter{Limit: limit, Offset: offset}
	if !h.isAdmin(r) {
		// Non-admin readers only ever see published blogs.
		filter.Status = StatusPublished
	}

	blogs, err := h.store.List(r.Context(), filter)
	if err != nil {
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"limit":  limit,
		"offset": offset,
		"blogs":  blogs,
	})
}

func (h *Handler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID := r.PathValue("userId")
	if _, err := uuid.Parse(authorID); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid user ID")
		return
	}

	limit, offset, ok := h.parsePagination(w, r)
	if !ok {
		return
	}

	filter := ListFilter{AuthorID: authorID, Limit: limit, Offset: offset}
	if !h.isAdmin(r) {
		filter.Status = StatusPublished
	}

	blogs, err := h.store.List(r.Context(), filter)
	if err != nil {
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"limit":  limit,
		"offset": offset,
		"blogs":  blogs,
	})
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Blog not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	// Drafts are invisible to everyone but admins.
	if b.Status == StatusDraft && !h.isAdmin(r) {
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Blog not found")
		return
	}

	respond.JSON(w, http.StatusOK, b)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("blogId")
	if _, err := uuid.Parse(id); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid blog ID")
		return
	}

	input, ok := parseInput(w, r)
	if !ok {
		return
	}

	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Blog not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	bannerURL := existing.BannerURL
	if input.BannerImage != bannerURL {
		bannerURL, err = h.uploader.UploadImage(r.Context(), input.BannerImage)
		if err != nil {
			sentry.CaptureException(err)
			respond.Error(w, http.StatusBadGateway, respond.CodeServerError, "Failed to upload banner image")
			return
		}
	}

	existing.Title = input.Title
	existing.Content = input.Content
	existing.BannerURL = bannerURL
	existing.Status = input.Status
	existing.UpdatedAt = time.Now().UTC()

	if err := h.store.Update(r.Context(), existing); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Blog not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, existing)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("blogId")
	if _, err := uuid.Parse(id); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid blog ID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Blog not found")
			return
		}
		sentry.CaptureException(err)
		respond.ServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) isAdmin(r *http.Request) bool {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return false
	}

	role, err := h.roles.GetRole(r.Context(), userID)
	if err != nil {
		return false
	}
	return role == auth.RoleAdmin
}

func (h *Handler) parsePagination(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	limit := h.defaultLimit
	offset := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > h.maxLimit {
			respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Limit must be between 1 and "+strconv.Itoa(h.maxLimit))
			return 0, 0, false
		}
		limit = parsed
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Offset must be a non-negative integer")
			return 0, 0, false
		}
		offset = parsed
	}

	return limit, offset, true
}

func parseInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input Input
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid request body")
		return Input{}, false
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	input.BannerImage = strings.TrimSpace(input.BannerImage)
	input.Status = strings.TrimSpace(input.Status)

	if input.Title == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Title is required")
		return Input{}, false
	}
	if !utf8.ValidString(input.Title) || utf8.RuneCountInString(input.Title) > maxTitleLength {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Title must be less than 180 characters")
		return Input{}, false
	}
	if input.Content == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Content is required")
		return Input{}, false
	}
	if input.BannerImage == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Banner image is required")
		return Input{}, false
	}
	if !validBannerSource(input.BannerImage) {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Banner image must be a valid http(s) URL")
		return Input{}, false
	}
	if input.Status == "" {
		input.Status = StatusDraft
	}
	if input.Status != StatusDraft && input.Status != StatusPublished {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Status must be either draft or published")
		return Input{}, false
	}

	return input, true
}

func validBannerSource(raw string) bool {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}
