package maintenance

import (
	"net/http"
	"strings"

	"blog-api/internal/auth"
	"blog-api/internal/observability"
	"blog-api/internal/respond"
)

// CleanupHandler sweeps refresh-token rows whose embedded expiry already
// lapsed. It is meant to be hit by a scheduled job and is hidden unless a
// cron secret is configured.
type CleanupHandler struct {
	tokens     auth.RefreshTokenStore
	logger     *observability.Logger
	cronSecret string
	batchSize  int
}

func NewCleanupHandler(tokens auth.RefreshTokenStore, logger *observability.Logger, cronSecret string, batchSize int) *CleanupHandler {
	return &CleanupHandler{
		tokens:     tokens,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		batchSize:  batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Not found")
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Unauthorized")
		return
	}

	deleted, err := h.tokens.DeleteExpired(r.Context(), h.batchSize)
	if err != nil {
		h.logger.Error("refresh_token_sweep_failed", observability.Fields{"error": err.Error()})
		respond.ServerError(w)
		return
	}

	h.logger.Info("refresh_token_sweep_completed", observability.Fields{"deleted": deleted})
	respond.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"deleted": deleted,
	})
}
