package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"digibank/internal/apiclient"
	"digibank/internal/directory"
	"digibank/internal/journal"
	"digibank/internal/platform/config"
	"digibank/internal/platform/metrics"
	"digibank/internal/platform/redis"
	"digibank/internal/session"
	"digibank/pkg/money"
)

// app holds what every command needs. It is built once per invocation.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	out       io.Writer
	metrics   *metrics.Metrics
	session   *session.Session
	client    *apiclient.Client
	directory *directory.Provider
	money     *money.Formatter
}

func newApp(cfg *config.Config, log *slog.Logger, out io.Writer) (*app, error) {
	sess := session.New()
	if err := sess.Load(cfg.SessionPath); err != nil {
		log.Warn("ignoring unreadable session file", "path", cfg.SessionPath, "error", err)
	}
	sess.OnClear(func() {
		if err := sess.Save(cfg.SessionPath); err != nil {
			log.Warn("failed to remove session file", "error", err)
		}
	})

	m := metrics.New(nil)
	client := apiclient.New(cfg.BaseURL, sess,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithLogger(log),
		apiclient.WithMetrics(m),
	)
	dir := directory.New(client,
		directory.WithLogger(log),
		directory.WithMetrics(m),
		directory.WithRefreshTimeout(cfg.RequestTimeout),
	)

	return &app{
		cfg:       cfg,
		log:       log,
		out:       out,
		metrics:   m,
		session:   sess,
		client:    client,
		directory: dir,
		money:     money.NewFormatter(money.ParseLocale(cfg.Locale)),
	}, nil
}

var errNotLoggedIn = errors.New("not logged in: run `digibank login` first")

func (a *app) requireSession() error {
	if a.session.Token() == "" {
		return errNotLoggedIn
	}
	return nil
}

// openJournal returns the configured pending-intent store and a closer. The
// redis and file stores are scoped to the signed-in user.
func (a *app) openJournal(ctx context.Context) (journal.Store, func(), error) {
	if a.cfg.Journal == config.JournalMemory {
		return journal.NewMemory(), func() {}, nil
	}
	owner := a.session.Subject()
	if owner == "" {
		return nil, nil, fmt.Errorf("%s journal: session token carries no subject", a.cfg.Journal)
	}
	if a.cfg.Journal == config.JournalRedis {
		rc, err := redis.New(ctx, a.cfg.RedisURL, redis.Options{DialTimeout: a.cfg.RequestTimeout})
		if err != nil {
			return nil, nil, fmt.Errorf("redis journal: %w", err)
		}
		return journal.NewRedis(rc.Client, owner, journal.DefaultRedisTTL), func() { _ = rc.Close() }, nil
	}
	return journal.NewFile(journal.ScopedPath(a.cfg.JournalPath, owner)), func() {}, nil
}
