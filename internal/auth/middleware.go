package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Middleware extracts the bearer token, verifies it, and stores the resulting
// identity in the request context. Requests without a valid credential never
// reach the handler.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "missing_token", ErrMissingToken.Error())
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				unauthorized(w, "invalid_token_format", "expected 'Bearer <token>'")
				return
			}

			identity, err := verifier.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				unauthorized(w, "invalid_token", ErrInvalidToken.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin gates a route on allowlist membership. Must run after
// Middleware.
func RequireAdmin(admins AdminSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				unauthorized(w, "unauthorized", "missing user authentication")
				return
			}
			if !admins.Contains(identity.UID) {
				writeError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, code, details string) {
	writeError(w, http.StatusUnauthorized, code, details)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"code":    code,
		"details": details,
	})
}
