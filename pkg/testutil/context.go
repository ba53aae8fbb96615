package testutil

import (
	"net/http"

	"digibank/internal/idempotency"
)

// WithBearer sets the Authorization header the backend expects.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithIdempotencyKey sets the Idempotency-Key header.
func WithIdempotencyKey(req *http.Request, key string) *http.Request {
	req.Header.Set(idempotency.Header, key)
	return req
}
