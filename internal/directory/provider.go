// Package directory serves read-only snapshots of the user's accounts and
// active payees, refreshed from the backend on demand.
package directory

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"digibank/internal/models"
	"digibank/internal/platform/logger"
	"digibank/internal/platform/metrics"
	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
)

// Backend is the subset of the API client the provider needs.
type Backend interface {
	Accounts(ctx context.Context) ([]models.Account, error)
	Payees(ctx context.Context) ([]models.Payee, error)
	AddPayee(ctx context.Context, req models.AddPayeeRequest) (*models.Payee, error)
	DisablePayee(ctx context.Context, payeeID id.PayeeID) (*models.Payee, error)
	Me(ctx context.Context) (*models.Me, error)
}

const (
	refreshKey            = "refresh"
	defaultRefreshTimeout = 10 * time.Second
)

// Snapshot is replaced wholesale on refresh and never mutated afterwards.
type Snapshot struct {
	Accounts  []models.Account
	Payees    []models.Payee
	FetchedAt time.Time

	generation uint64
}

// Account looks up an account by id.
func (s *Snapshot) Account(accountID id.AccountID) (models.Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == accountID {
			return a, true
		}
	}
	return models.Account{}, false
}

// Payee looks up an active payee by id.
func (s *Snapshot) Payee(payeeID id.PayeeID) (models.Payee, bool) {
	for _, p := range s.Payees {
		if p.ID == payeeID {
			return p, true
		}
	}
	return models.Payee{}, false
}

// Provider caches the latest Snapshot. Invalidate marks it stale; the next
// read refreshes it. Concurrent refreshes share one pair of backend calls.
type Provider struct {
	backend        Backend
	snapshot       atomic.Pointer[Snapshot]
	generation     atomic.Uint64
	group          singleflight.Group
	refreshTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// Option configures a Provider.
type Option func(*Provider)

func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// WithRefreshTimeout bounds a shared refresh independently of the caller
// that started it.
func WithRefreshTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.refreshTimeout = d
		}
	}
}

func New(backend Backend, opts ...Option) *Provider {
	p := &Provider{
		backend:        backend,
		refreshTimeout: defaultRefreshTimeout,
		logger:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot returns the current snapshot, refreshing it first when it is
// missing or stale.
func (p *Provider) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := p.snapshot.Load(); snap != nil && snap.generation == p.generation.Load() {
		return snap, nil
	}
	return p.Refresh(ctx)
}

// Accounts returns the user's accounts from the current snapshot.
func (p *Provider) Accounts(ctx context.Context) ([]models.Account, error) {
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.Accounts), nil
}

// ActivePayees returns the user's active payees from the current snapshot.
func (p *Provider) ActivePayees(ctx context.Context) ([]models.Payee, error) {
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.Payees), nil
}

// Invalidate marks the snapshot stale. A refresh already in flight still
// completes but its result is not served as fresh.
func (p *Provider) Invalidate() {
	p.generation.Add(1)
	p.group.Forget(refreshKey)
}

// Refresh fetches accounts and payees in parallel and swaps the snapshot.
// The caller stops waiting when ctx ends; the shared fetch keeps running for
// other waiters until the refresh timeout.
func (p *Provider) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := p.group.DoChan(refreshKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.refreshTimeout)
		defer cancel()
		return p.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeRequestFailed, "refresh directory")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (p *Provider) fetch(ctx context.Context) (*Snapshot, error) {
	gen := p.generation.Load()

	var (
		accounts []models.Account
		payees   []models.Payee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = p.backend.Accounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		payees, err = p.backend.Payees(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		p.metrics.ObserveRefresh("error")
		p.logger.WarnContext(ctx, "directory refresh failed", "error", err)
		return nil, err
	}

	snap := &Snapshot{
		Accounts:   accounts,
		Payees:     activeOnly(payees),
		FetchedAt:  time.Now(),
		generation: gen,
	}
	p.store(snap)
	p.metrics.ObserveRefresh("ok")
	p.logger.DebugContext(ctx, "directory refreshed",
		"accounts", len(snap.Accounts),
		"payees", len(snap.Payees),
	)
	return snap, nil
}

// store keeps the newest generation when an older fetch finishes last.
func (p *Provider) store(snap *Snapshot) {
	for {
		cur := p.snapshot.Load()
		if cur != nil && cur.generation > snap.generation {
			return
		}
		if p.snapshot.CompareAndSwap(cur, snap) {
			return
		}
	}
}

func activeOnly(payees []models.Payee) []models.Payee {
	out := make([]models.Payee, 0, len(payees))
	for _, p := range payees {
		if strings.EqualFold(p.Status, models.PayeeStatusActive) {
			out = append(out, p)
		}
	}
	return out
}
