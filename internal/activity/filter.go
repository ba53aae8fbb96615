package activity

import (
	"strings"
	"time"

	"digibank/internal/models"
)

// Filter narrows the loaded sequence. Zero fields match everything. It never
// fetches, so results cover only pages already loaded.
type Filter struct {
	Direction models.Direction
	Status    models.TransferStatus
	// From is inclusive, To exclusive.
	From  time.Time
	To    time.Time
	Query string
}

// Match reports whether t passes every set criterion.
func (f Filter) Match(t models.Transfer) bool {
	if f.Direction != "" && !strings.EqualFold(string(f.Direction), string(t.Direction)) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(string(f.Status), string(t.Status)) {
		return false
	}
	if !f.From.IsZero() && t.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.CreatedAt.Before(f.To) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return matchesQuery(t, q)
	}
	return true
}

// Apply returns the matching items in their original order.
func (f Filter) Apply(items []models.Transfer) []models.Transfer {
	out := make([]models.Transfer, 0, len(items))
	for _, t := range items {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func matchesQuery(t models.Transfer, q string) bool {
	for _, field := range []string{t.CounterpartyEmail, t.FromEmail, t.ToEmail, t.ID.String()} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
