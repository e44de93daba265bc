package middleware

import (
	"net/http"

	"blog-api/internal/observability"
	"blog-api/internal/respond"
)

// CORS allows requests from the configured origin whitelist. Requests
// without an Origin header (curl, same-origin, tests) always pass, and in
// development every origin is accepted.
func CORS(whitelist []string, env string, logger *observability.Logger) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(whitelist))
	for _, origin := range whitelist {
		allowed[origin] = struct{}{}
	}
	permissive := env == "development"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := allowed[origin]; !ok && !permissive {
				logger.Warn("cors_blocked", observability.Fields{"origin": origin})
				respond.Error(w, http.StatusForbidden, respond.CodeAuthorizationError, "Origin not allowed by CORS")
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
