// Package idempotency mints the opaque Idempotency-Key tokens attached to
// transfer submissions.
package idempotency

import (
	"regexp"

	"github.com/google/uuid"

	dErrors "digibank/pkg/domain-errors"
)

// Header is the request header the backend reads the key from.
const Header = "Idempotency-Key"

// MaxKeyLength is the longest key the backend accepts.
const MaxKeyLength = 128

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Generator mints a fresh key per financial intent.
type Generator interface {
	NewKey() string
}

// UUIDGenerator mints random (version 4) UUIDs. The random source is
// crypto/rand, so two keys minted in the same instant still differ.
type UUIDGenerator struct{}

func (UUIDGenerator) NewKey() string {
	return uuid.NewString()
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() string

func (f GeneratorFunc) NewKey() string {
	return f()
}

// Validate reports whether key is acceptable to the backend.
func Validate(key string) error {
	if key == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "idempotency key is required")
	}
	if len(key) > MaxKeyLength || !keyPattern.MatchString(key) {
		return dErrors.New(dErrors.CodeInvalidInput, "idempotency key contains invalid characters")
	}
	return nil
}
