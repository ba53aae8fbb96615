// Package transfer turns a user's transfer intent into an idempotent,
// retry-safe submission.
//
// The Manager owns the draft and its idempotency-key binding. A key is bound
// synchronously, under the manager's lock, before any network call starts, so
// two submit triggers in quick succession observe the same key and only one
// request is sent. The key survives retryable failures and is dropped on
// success or when the draft changes.
package transfer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"digibank/internal/idempotency"
	"digibank/internal/journal"
	"digibank/internal/models"
	"digibank/internal/platform/logger"
	"digibank/internal/platform/metrics"
	id "digibank/pkg/domain"
	"digibank/pkg/platform/sentinel"
)

// Directory serves the account and payee snapshots used for referential
// validation. Invalidate signals that a refresh is due.
type Directory interface {
	Accounts(ctx context.Context) ([]models.Account, error)
	ActivePayees(ctx context.Context) ([]models.Payee, error)
	Invalidate()
}

// API submits a transfer under an idempotency key.
type API interface {
	CreateTransfer(ctx context.Context, key string, req models.CreateTransferRequest) (*models.Transfer, error)
}

// DefaultCurrency is used when the source account carries no currency.
const DefaultCurrency = "CAD"

// Manager is safe for concurrent use. The lock is never held across I/O.
type Manager struct {
	mu       sync.Mutex
	state    State
	draft    Draft
	binding  *Binding
	result   *models.Transfer
	lastErr  error
	failure  *Failure
	closed   bool
	inflight context.CancelFunc

	directory       Directory
	api             API
	journal         journal.Store
	keys            idempotency.Generator
	submitTimeout   time.Duration
	defaultCurrency string
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithJournal persists the binding so a later process can resume it.
func WithJournal(j journal.Store) Option {
	return func(m *Manager) {
		if j != nil {
			m.journal = j
		}
	}
}

// WithKeyGenerator replaces the UUID key generator.
func WithKeyGenerator(g idempotency.Generator) Option {
	return func(m *Manager) {
		if g != nil {
			m.keys = g
		}
	}
}

// WithSubmitTimeout abandons a hung submission after d and treats it as a
// retryable failure. Zero disables the timeout.
func WithSubmitTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.submitTimeout = d
	}
}

func WithDefaultCurrency(code string) Option {
	return func(m *Manager) {
		if code != "" {
			m.defaultCurrency = code
		}
	}
}

// New creates a Manager in StateEmpty.
func New(directory Directory, api API, opts ...Option) *Manager {
	m := &Manager{
		directory:       directory,
		api:             api,
		journal:         journal.NewMemory(),
		keys:            idempotency.UUIDGenerator{},
		defaultCurrency: DefaultCurrency,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// =============================================================================
// Draft editing
// =============================================================================

func (m *Manager) SetFromAccount(accountID id.AccountID) error {
	return m.edit(func(d *Draft) { d.FromAccountID = accountID })
}

func (m *Manager) SetPayee(payeeID id.PayeeID) error {
	return m.edit(func(d *Draft) { d.PayeeID = payeeID })
}

// SetAmount stores the amount as typed. It is parsed on submit.
func (m *Manager) SetAmount(amount string) error {
	return m.edit(func(d *Draft) { d.Amount = amount })
}

// SetCurrency overrides the source account's currency. Empty restores it.
func (m *Manager) SetCurrency(code string) error {
	return m.edit(func(d *Draft) { d.Currency = code })
}

// edit applies fn to the draft. A value equal to the current one is a no-op;
// a real change drops any bound key and returns the draft to editing.
func (m *Manager) edit(fn func(*Draft)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state == StateSubmitting {
		m.mu.Unlock()
		return ErrSubmitInProgress
	}

	next := m.draft
	fn(&next)
	if next.Same(m.draft) {
		m.draft = next
		m.mu.Unlock()
		return nil
	}

	m.draft = next
	dropped := m.binding != nil
	m.binding = nil
	m.state = StateEditing
	m.lastErr = nil
	m.failure = nil
	m.mu.Unlock()

	if dropped {
		m.clearJournal(context.Background())
	}
	return nil
}

// Resume restores a journaled pending intent into an empty manager, leaving
// it in StateKeyBound. It reports false when nothing was pending.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	intent, err := m.journal.Load(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := idempotency.Validate(intent.Key); err != nil {
		m.logger.WarnContext(ctx, "discarding journaled intent with invalid key", "error", err)
		m.clearJournal(ctx)
		return false, nil
	}

	b := bindingFromIntent(*intent)
	if _, err := b.Draft.validate(); err != nil {
		m.logger.WarnContext(ctx, "discarding journaled intent that fails validation", "error", err)
		m.clearJournal(ctx)
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	if m.state != StateEmpty || !m.draft.IsZero() {
		return false, ErrNotEmpty
	}
	m.draft = b.Draft
	m.binding = &b
	m.state = StateKeyBound
	m.logger.InfoContext(ctx, "resumed pending transfer intent", "saved_at", intent.SavedAt)
	return true, nil
}

// Close marks the manager dead. An in-flight submission is cancelled and its
// response, if any, is discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	cancel := m.inflight
	m.inflight = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// Accessors
// =============================================================================

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Key returns the bound idempotency key, or "" when none is bound.
func (m *Manager) Key() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.binding == nil {
		return ""
	}
	return m.binding.Key
}

// LastResult returns the transfer confirmed by the last successful submit.
// It is dropped when a new submission starts.
func (m *Manager) LastResult() *models.Transfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return nil
	}
	cp := *m.result
	return &cp
}

func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Failure is non-nil only in StateFailed.
func (m *Manager) Failure() *Failure {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure == nil {
		return nil
	}
	cp := *m.failure
	return &cp
}

func (m *Manager) saveJournal(ctx context.Context, b Binding) {
	intent := b.intent()
	intent.SavedAt = time.Now().UTC()
	if err := m.journal.Save(ctx, intent); err != nil {
		m.logger.WarnContext(ctx, "failed to journal pending transfer", "error", err)
	}
}

func (m *Manager) clearJournal(ctx context.Context) {
	if err := m.journal.Clear(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to clear pending transfer journal", "error", err)
	}
}
