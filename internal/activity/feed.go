// Package activity pages through the user's transfer history and offers
// client-side filtering and day grouping over what has been loaded.
package activity

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"digibank/internal/models"
	"digibank/internal/platform/logger"
	"digibank/internal/platform/metrics"
	dErrors "digibank/pkg/domain-errors"
)

// Page size bounds, matching the backend.
const (
	MinPageSize     = 1
	MaxPageSize     = 100
	DefaultPageSize = 25
)

var (
	// ErrStale is returned when a page arrives for a sequence that has since
	// been reset, or for a cursor that is no longer the current one. The page
	// is not applied.
	ErrStale = errors.New("activity: page is stale")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("activity: feed closed")
	// ErrEndOfHistory is returned by More once the last page is loaded.
	ErrEndOfHistory = errors.New("activity: no more pages")
)

// Lister fetches one page of transfers, newest first.
type Lister interface {
	ListTransfers(ctx context.Context, limit int, cursor string) (*models.TransferPage, error)
}

// ClampPageSize maps n into [MinPageSize, MaxPageSize]; non-positive sizes
// use DefaultPageSize.
func ClampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}

// Feed accumulates pages. Next-page loads append; a first-page load resets the
// sequence and invalidates any load still in flight.
type Feed struct {
	mu         sync.Mutex
	lister     Lister
	items      []models.Transfer
	cursor     *string
	loaded     bool
	generation uint64
	closed     bool

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Feed)

func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Feed) {
		f.metrics = m
	}
}

func NewFeed(lister Lister, opts ...Option) *Feed {
	f := &Feed{lister: lister, logger: logger.Discard()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LoadFirstPage discards the loaded sequence and fetches history from the top.
func (f *Feed) LoadFirstPage(ctx context.Context, pageSize int) (*models.TransferPage, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	f.generation++
	gen := f.generation
	f.mu.Unlock()

	page, err := f.lister.ListTransfers(ctx, ClampPageSize(pageSize), "")
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if gen != f.generation {
		return nil, ErrStale
	}
	f.items = slices.Clone(page.Items)
	f.cursor = page.NextCursor
	f.loaded = true
	f.metrics.IncrementPagesLoaded()
	return page, nil
}

// LoadNextPage fetches the page after cursor and appends it. cursor must be
// the feed's current continuation cursor.
func (f *Feed) LoadNextPage(ctx context.Context, cursor string, pageSize int) (*models.TransferPage, error) {
	if cursor == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "cursor is required")
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	if !f.currentCursor(cursor) {
		f.mu.Unlock()
		return nil, ErrStale
	}
	gen := f.generation
	f.mu.Unlock()

	page, err := f.lister.ListTransfers(ctx, ClampPageSize(pageSize), cursor)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if gen != f.generation || !f.currentCursor(cursor) {
		f.logger.DebugContext(ctx, "discarding stale activity page", "cursor", cursor)
		return nil, ErrStale
	}
	f.items = append(f.items, page.Items...)
	f.cursor = page.NextCursor
	f.metrics.IncrementPagesLoaded()
	return page, nil
}

// More loads the page after the current cursor, or the first page when
// nothing has been loaded yet.
func (f *Feed) More(ctx context.Context, pageSize int) (*models.TransferPage, error) {
	f.mu.Lock()
	loaded, cursor := f.loaded, f.cursor
	f.mu.Unlock()

	if !loaded {
		return f.LoadFirstPage(ctx, pageSize)
	}
	if cursor == nil {
		return nil, ErrEndOfHistory
	}
	return f.LoadNextPage(ctx, *cursor, pageSize)
}

// Items returns a copy of the loaded sequence in server order.
func (f *Feed) Items() []models.Transfer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

// HasMore is true until a page without a continuation cursor is loaded.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.loaded || f.cursor != nil
}

// Close stops the feed; pages arriving afterwards are dropped.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *Feed) currentCursor(cursor string) bool {
	return f.loaded && f.cursor != nil && *f.cursor == cursor
}
