package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/http/response"
	"github.com/docsecure/docsecure/internal/service"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// Authenticate resolves the bearer token to a live user and rejects the
// request otherwise. Handlers behind it can rely on UserFromContext.
func Authenticate(guard *service.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing access token", nil)
				return
			}
			user, err := guard.Resolve(r.Context(), raw)
			if err != nil {
				response.ServiceError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, tokenContextKey, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin sits behind Authenticate and blocks non-admin users.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
			return
		}
		if !user.IsAdmin {
			response.Error(w, r, http.StatusForbidden, "forbidden", "admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userContextKey).(*domain.User)
	return u, ok
}

func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenContextKey).(string)
	return t, ok
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// ClientMeta extracts the caller's address and user agent for audit records.
// Proxy headers are resolved upstream by chi's RealIP, so only RemoteAddr is
// consulted here.
func ClientMeta(r *http.Request) service.ClientMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return service.ClientMeta{IP: ip, UserAgent: r.UserAgent()}
}
