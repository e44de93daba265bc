package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"blog-api/internal/respond"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFromContext returns the verified subject attached by Authenticate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// ContextWithUserID attaches a subject the way Authenticate does. Handlers
// outside this package use it to build authenticated test requests.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Authenticate verifies the bearer access token and attaches the subject to
// the request context. It performs no I/O beyond signature verification.
// An expired token is reported distinctly so clients know to attempt the
// refresh flow instead of re-authenticating.
func Authenticate(codec *Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
				return
			}

			payload, err := codec.VerifyAccessToken(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access token expired, request a new one with refresh token")
					return
				}
				respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access token invalid")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, payload.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleStore is the single lookup RequireRole needs.
type RoleStore interface {
	GetRole(ctx context.Context, userID string) (string, error)
}

// RequireRole gates a route to the given roles. It runs after Authenticate
// and resolves the caller's role from the store, since the access token
// deliberately carries no role claim.
func RequireRole(store RoleStore, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access denied, no token provided")
				return
			}

			role, err := store.GetRole(r.Context(), userID)
			if err != nil {
				if errors.Is(err, ErrUserNotFound) {
					respond.Error(w, http.StatusUnauthorized, respond.CodeAuthenticationError, "Access token invalid")
					return
				}
				sentry.CaptureException(err)
				respond.ServerError(w)
				return
			}

			if _, ok := allowed[role]; !ok {
				respond.Error(w, http.StatusForbidden, respond.CodeAuthorizationError, "Access denied, insufficient permission")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
