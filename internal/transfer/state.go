package transfer

import (
	dErrors "digibank/pkg/domain-errors"
)

// State is the lifecycle position of the current transfer intent.
type State int

const (
	StateEmpty State = iota
	StateEditing
	StateKeyBound
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateKeyBound:
		return "key_bound"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Failure describes why the last submission ended in StateFailed.
type Failure struct {
	Code dErrors.Code
	// Retryable is true when submitting the unchanged draft again is safe and
	// will reuse the bound key.
	Retryable bool
	Err       error
}
