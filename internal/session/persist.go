package session

import (
	"errors"
	"time"

	"digibank/internal/platform/filestore"
	"digibank/pkg/platform/sentinel"
)

type persisted struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
}

// Save writes the current token to path. An unauthenticated session removes
// the file instead.
func (s *Session) Save(path string) error {
	s.mu.RLock()
	rec := persisted{AccessToken: s.token, ExpiresAt: s.expiresAt}
	s.mu.RUnlock()

	if rec.AccessToken == "" {
		return filestore.Remove(path)
	}
	return filestore.Save(path, rec)
}

// Load initialises s from a file written by Save. A missing file leaves the
// session unauthenticated and is not an error.
func (s *Session) Load(path string) error {
	var rec persisted
	err := filestore.Load(path, &rec)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var expiresIn time.Duration
	if !rec.ExpiresAt.IsZero() {
		expiresIn = time.Until(rec.ExpiresAt)
		if expiresIn <= 0 {
			return filestore.Remove(path)
		}
	}
	return s.Init(rec.AccessToken, expiresIn)
}
