package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/signgate/signgate/internal/auth"
	"github.com/signgate/signgate/internal/model"
)

type contextKeyAuth string

// AuthPrincipalKey is the context key for the authenticated principal.
const AuthPrincipalKey contextKeyAuth = "auth_principal"

// Authenticate returns an HTTP middleware that validates the request's
// session token from the Authorization header. CORS preflight requests
// pass through unauthenticated. On success, the verified principal is
// attached to the request context; on failure, a 401 envelope response
// is returned.
func Authenticate(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required. Provide a Bearer token.")
				return
			}

			principal, err := authSvc.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), AuthPrincipalKey, &principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireManager returns an HTTP middleware that enforces manager-level
// access. It must be used after Authenticate in the middleware chain.
func RequireManager() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil || principal.Role != model.RoleManager {
				writeAuthError(w, http.StatusForbidden, "Manager access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil for unauthenticated requests.
func GetPrincipal(ctx context.Context) *auth.Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*auth.Principal); ok {
		return p
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.Error(message))
}
