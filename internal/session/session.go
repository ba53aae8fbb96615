// Package session holds the authenticated user's access token.
//
// A Session is created once and passed by pointer into the HTTP layer. The
// HTTP layer reads the bearer token from it and clears it on a 401, so no
// component reads credentials from ambient global state.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyToken is returned by Init for a blank token.
var ErrEmptyToken = errors.New("session: access token is empty")

// Session is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	token     string
	subject   string
	expiresAt time.Time
	onClear   []func()
}

// New returns an unauthenticated session.
func New() *Session {
	return &Session{}
}

// Init stores an access token. JWT claims are read without verifying the
// signature (the backend verifies); they only drive local expiry checks.
// Opaque tokens are accepted and never expire locally. expiresIn, when
// positive, bounds the expiry from the login response.
func (s *Session) Init(token string, expiresIn time.Duration) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	var (
		subject   string
		expiresAt time.Time
	)
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		subject = claims.Subject
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	}
	if expiresIn > 0 {
		bound := time.Now().Add(expiresIn)
		if expiresAt.IsZero() || bound.Before(expiresAt) {
			expiresAt = bound
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.subject = subject
	s.expiresAt = expiresAt
	return nil
}

// Clear drops the token and runs the registered clear hooks.
func (s *Session) Clear() {
	s.mu.Lock()
	hadToken := s.token != ""
	s.token = ""
	s.subject = ""
	s.expiresAt = time.Time{}
	hooks := append([]func(){}, s.onClear...)
	s.mu.Unlock()

	if !hadToken {
		return
	}
	for _, fn := range hooks {
		fn()
	}
}

// OnClear registers fn to run after a non-empty session is cleared.
func (s *Session) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Token returns the bearer token, or "" when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subject returns the token's sub claim when it had one.
func (s *Session) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

// ExpiresAt returns the zero time for tokens without a known expiry.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Authenticated reports whether a token is present and not expired at now.
func (s *Session) Authenticated(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	return s.expiresAt.IsZero() || now.Before(s.expiresAt)
}
