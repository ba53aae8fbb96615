package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
	"digibank/pkg/platform/httputil"
	"digibank/pkg/requestcontext"
)

// TokenValidator validates a bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims are the authenticated caller's identity.
type Claims struct {
	UserID id.UserID
	Email  string
	Role   string
}

type contextKeyClaims struct{}

// ContextKeyClaims is exported for tests that inject an identity directly.
var ContextKeyClaims = contextKeyClaims{}

// WithClaims injects an authenticated identity into ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ContextKeyClaims, c)
}

// GetClaims returns the authenticated identity, or nil.
func GetClaims(ctx context.Context) *Claims {
	c, _ := ctx.Value(ContextKeyClaims).(*Claims)
	return c
}

// GetUserID returns the authenticated user ID, or the zero ID.
func GetUserID(ctx context.Context) id.UserID {
	if c := GetClaims(ctx); c != nil {
		return c.UserID
	}
	return 0
}

func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}
