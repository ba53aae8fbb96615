// Package journal persists the one pending transfer intent of a client so a
// retry issued from a new process reuses the idempotency key of the original
// attempt.
package journal

import (
	"context"
	"time"

	id "digibank/pkg/domain"
)

// PendingIntent is a bound, not yet confirmed, transfer draft.
type PendingIntent struct {
	Key           string       `json:"key"`
	FromAccountID id.AccountID `json:"fromAccountId"`
	PayeeID       id.PayeeID   `json:"payeeId"`
	Amount        string       `json:"amount"`
	Currency      string       `json:"currency,omitempty"`
	SavedAt       time.Time    `json:"savedAt"`
}

// Store holds at most one PendingIntent. Load returns sentinel.ErrNotFound
// when nothing is pending; Clear on an empty store is not an error.
type Store interface {
	Save(ctx context.Context, intent PendingIntent) error
	Load(ctx context.Context) (*PendingIntent, error)
	Clear(ctx context.Context) error
}
