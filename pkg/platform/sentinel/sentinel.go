package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores (the on-disk journal and
// the redis journal) return these, optionally wrapped, and callers translate
// them into coded domain errors.
//
// - ErrNotFound: the record does not exist
// - ErrUnavailable: the backing service cannot be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
