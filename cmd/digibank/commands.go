package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"digibank/internal/activity"
	"digibank/internal/models"
	"digibank/internal/transfer"
	id "digibank/pkg/domain"
)

// usageError marks mistakes in how a command was invoked.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// retryableError is a failed submission whose key is journaled for a retry.
type retryableError struct {
	err error
	key string
}

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func isUsage(err error) bool {
	var ue usageError
	return errors.As(err, &ue)
}

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	return nil
}

// credentials reads --email and --password, falling back to
// DIGIBANK_PASSWORD so the password stays out of shell history.
func credentials(name string, args []string) (models.Credentials, error) {
	fs := newFlags(name)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or DIGIBANK_PASSWORD)")
	if err := parse(fs, args); err != nil {
		return models.Credentials{}, err
	}
	if *password == "" {
		*password = os.Getenv("DIGIBANK_PASSWORD")
	}
	if strings.TrimSpace(*email) == "" || *password == "" {
		return models.Credentials{}, usagef("%s: --email and --password are required", name)
	}
	return models.Credentials{Email: *email, Password: *password}, nil
}

// =============================================================================
// Session
// =============================================================================

func cmdRegister(ctx context.Context, a *app, args []string) error {
	creds, err := credentials("register", args)
	if err != nil {
		return err
	}
	res, err := a.client.Register(ctx, creds)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s (user %s, account %s)\n", res.Email, res.UserID, res.AccountID)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	creds, err := credentials("login", args)
	if err != nil {
		return err
	}
	res, err := a.client.Login(ctx, creds)
	if err != nil {
		return err
	}
	if err := a.session.Save(a.cfg.SessionPath); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(a.out, "logged in as %s\n", res.Email)
	return nil
}

func cmdLogout(_ context.Context, a *app, _ []string) error {
	a.session.Clear()
	if err := a.session.Save(a.cfg.SessionPath); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func cmdMe(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	me, err := a.directory.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (user %s, role %s)\n", me.Email, me.UserID, me.Role)
	return nil
}

// =============================================================================
// Accounts and payees
// =============================================================================

func cmdAccounts(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	accounts, err := a.directory.Accounts(ctx)
	if err != nil {
		return err
	}
	a.printAccounts(accounts)
	return nil
}

func cmdPayees(ctx context.Context, a *app, args []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list":
		payees, err := a.directory.ActivePayees(ctx)
		if err != nil {
			return err
		}
		a.printPayees(payees)
		return nil

	case "add":
		fs := newFlags("payees add")
		email := fs.String("email", "", "payee's registered email")
		label := fs.String("label", "", "optional display label")
		if err := parse(fs, args); err != nil {
			return err
		}
		if strings.TrimSpace(*email) == "" {
			return usagef("payees add: --email is required")
		}
		p, err := a.directory.AddPayee(ctx, *email, *label)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "added payee %s (%s)\n", p.ID, p.Email)
		return nil

	case "disable":
		fs := newFlags("payees disable")
		raw := fs.String("id", "", "payee id")
		if err := parse(fs, args); err != nil {
			return err
		}
		payeeID, err := id.ParsePayeeID(*raw)
		if err != nil {
			return usagef("payees disable: %v", err)
		}
		p, err := a.directory.DisablePayee(ctx, payeeID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "disabled payee %s (%s)\n", p.ID, p.Email)
		return nil

	default:
		return usagef("payees: unknown subcommand %q", sub)
	}
}

// =============================================================================
// Transfers
// =============================================================================

// cmdTransfer submits a transfer. A pending intent left by an earlier failed
// run is resumed first, so re-running the same command retries under the
// same idempotency key while changed arguments start a new intent.
func cmdTransfer(ctx context.Context, a *app, args []string) error {
	fs := newFlags("transfer")
	from := fs.String("from", "", "source account id")
	payee := fs.String("payee", "", "payee id")
	amount := fs.String("amount", "", "amount, e.g. 12.34")
	currency := fs.String("currency", "", "currency override, e.g. CAD")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	store, closeStore, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	m := transfer.New(a.directory, a.client,
		transfer.WithLogger(a.log),
		transfer.WithMetrics(a.metrics),
		transfer.WithJournal(store),
		transfer.WithSubmitTimeout(a.cfg.SubmitTimeout),
		transfer.WithDefaultCurrency(a.cfg.DefaultCurrency),
	)
	defer m.Close()

	resumed, err := m.Resume(ctx)
	if err != nil {
		return fmt.Errorf("resume pending transfer: %w", err)
	}
	given := *from != "" || *payee != "" || *amount != ""
	if !resumed && (*from == "" || *payee == "" || *amount == "") {
		return usagef("transfer: --from, --payee and --amount are required")
	}
	if resumed && !given {
		d := m.Draft()
		fmt.Fprintf(a.out, "retrying pending transfer of %s from account %s to payee %s\n", d.Amount, d.FromAccountID, d.PayeeID)
	}

	if *from != "" {
		accountID, err := id.ParseAccountID(*from)
		if err != nil {
			return usagef("transfer: --from: %v", err)
		}
		if err := m.SetFromAccount(accountID); err != nil {
			return err
		}
	}
	if *payee != "" {
		payeeID, err := id.ParsePayeeID(*payee)
		if err != nil {
			return usagef("transfer: --payee: %v", err)
		}
		if err := m.SetPayee(payeeID); err != nil {
			return err
		}
	}
	if *amount != "" {
		if err := m.SetAmount(*amount); err != nil {
			return err
		}
	}
	if fs.Changed("currency") || given {
		if err := m.SetCurrency(*currency); err != nil {
			return err
		}
	}

	t, err := m.Submit(ctx)
	if err != nil {
		if f := m.Failure(); f != nil && f.Retryable {
			return retryableError{err: err, key: m.Key()}
		}
		return err
	}
	a.printTransfer(t)
	return nil
}

// =============================================================================
// Activity
// =============================================================================

const dateLayout = "2006-01-02"

func cmdActivity(ctx context.Context, a *app, args []string) error {
	fs := newFlags("activity")
	limit := fs.Int("limit", a.cfg.PageSize, "items per page (1-100)")
	pages := fs.Int("pages", 1, "number of pages to load")
	direction := fs.String("direction", "", "sent or received")
	status := fs.String("status", "", "PENDING, COMPLETED or FAILED")
	since := fs.String("since", "", "first day to include (YYYY-MM-DD)")
	until := fs.String("until", "", "last day to include (YYYY-MM-DD)")
	query := fs.String("query", "", "match counterparty email or transfer id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	if *pages < 1 {
		return usagef("activity: --pages must be at least 1")
	}

	loc := a.cfg.Location()
	filter := activity.Filter{
		Direction: models.Direction(strings.ToUpper(*direction)),
		Status:    models.TransferStatus(strings.ToUpper(*status)),
		Query:     *query,
	}
	if *since != "" {
		day, err := time.ParseInLocation(dateLayout, *since, loc)
		if err != nil {
			return usagef("activity: --since: %v", err)
		}
		filter.From = day
	}
	if *until != "" {
		day, err := time.ParseInLocation(dateLayout, *until, loc)
		if err != nil {
			return usagef("activity: --until: %v", err)
		}
		filter.To = day.AddDate(0, 0, 1)
	}

	feed := activity.NewFeed(a.client, activity.WithLogger(a.log), activity.WithMetrics(a.metrics))
	defer feed.Close()
	size := activity.ClampPageSize(*limit)
	for i := 0; i < *pages && feed.HasMore(); i++ {
		if _, err := feed.More(ctx, size); err != nil {
			return err
		}
	}

	groups := activity.Group(filter.Apply(feed.Items()), loc)
	a.printActivity(groups)
	if feed.HasMore() {
		fmt.Fprintf(a.out, "\nolder activity available: rerun with --pages %d\n", *pages+1)
	}
	return nil
}
