package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dropgate/dropgate/internal/identity"
	"github.com/dropgate/dropgate/internal/metrics"
)

// TokenResolver resolves a bearer token to the account it belongs to.
type TokenResolver interface {
	UserFromToken(ctx context.Context, token string) (*identity.Account, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Resolver TokenResolver
	Metrics  metrics.Recorder
}

// Auth returns a middleware that authenticates requests with a bearer token.
// The token is resolved against the identity provider on every request; the
// service keeps no session state of its own. On success the resolved account
// is injected into the request context.
//
// A missing or malformed Authorization header is rejected without calling
// the provider.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				rec.IncAuthCheck("unauthorized")
				writeAuthError(w)
				return
			}

			account, err := cfg.Resolver.UserFromToken(r.Context(), token)
			if err != nil {
				reason := "invalid_token"
				outcome := "unauthorized"
				if !errors.Is(err, identity.ErrInvalidToken) {
					reason = "provider_error"
					outcome = "provider_error"
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("error", err.Error()),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				rec.IncAuthCheck(outcome)
				writeAuthError(w)
				return
			}

			rec.IncAuthCheck("ok")

			ctx := identity.ContextWithAccount(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"invalid or missing bearer token","code":"UNAUTHORIZED"}`))
}
