package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/guardian/guardian/internal/auth"
	"github.com/guardian/guardian/internal/model"
)

// SessionVerifier introspects bearer tokens.
type SessionVerifier interface {
	VerifySession(raw string) (*model.Caller, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier SessionVerifier
}

// Auth returns a middleware that authenticates requests by their bearer
// session token and injects the caller into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, kindUnauthenticated, "missing authorization header")
				return
			}

			caller, err := cfg.Verifier.VerifySession(token)
			if err != nil {
				reason := "invalid_token"
				message := "invalid session token"
				if errors.Is(err, auth.ErrTokenExpired) {
					reason = "expired_token"
					message = "session has expired"
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, kindUnauthenticated, message)
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", caller.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the token of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
