package transfer

import "errors"

var (
	// ErrSubmitInProgress is returned by Submit and the setters while a
	// submission is in flight. The call has no effect.
	ErrSubmitInProgress = errors.New("transfer: submission in progress")
	// ErrClosed is returned once the manager has been closed, including for a
	// response that arrives after Close.
	ErrClosed = errors.New("transfer: manager closed")
	// ErrNotEmpty is returned by Resume when the manager already holds a draft.
	ErrNotEmpty = errors.New("transfer: draft already in progress")
)
