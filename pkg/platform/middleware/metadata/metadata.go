package metadata

import (
	"context"
	"net/http"

	"digibank/pkg/requestcontext"
)

// RequestIDHeader is the correlation header clients send.
const RequestIDHeader = "X-Request-ID"

type contextKeyUserAgent struct{}

// ClientMetadata copies the caller's X-Request-ID (or a fresh one) and
// User-Agent into the context and echoes the request ID on the response.
// Apply it early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := r.Header.Get(RequestIDHeader); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		ctx, reqID := requestcontext.EnsureRequestID(ctx)
		ctx = context.WithValue(ctx, contextKeyUserAgent{}, r.Header.Get("User-Agent"))

		w.Header().Set(RequestIDHeader, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserAgent retrieves the User-Agent from the context.
func GetUserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(contextKeyUserAgent{}).(string); ok {
		return ua
	}
	return ""
}
