package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"digibank/internal/journal"
	jwttoken "digibank/internal/jwt_token"
	"digibank/internal/mockbank"
)

type cli struct {
	t       *testing.T
	baseURL string
	bank    *mockbank.Bank
	faults  *mockbank.Faults
	dir     string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	bank := mockbank.NewBank(mockbank.WithOpeningBalance(100_000), mockbank.WithBcryptCost(bcrypt.MinCost))
	tokens := jwttoken.NewJWTService("cli-test-signing-key-32-bytes-long", "mockbank", time.Hour)
	handler := mockbank.NewHandler(bank, tokens)
	srv := httptest.NewServer(mockbank.NewRouter(handler, nil))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("DIGIBANK_SESSION_PATH", filepath.Join(dir, "session.json"))
	t.Setenv("DIGIBANK_JOURNAL_PATH", filepath.Join(dir, "pending.json"))
	t.Setenv("DIGIBANK_TIMEZONE", "UTC")

	return &cli{t: t, baseURL: srv.URL + "/api", bank: bank, faults: handler.Faults(), dir: dir}
}

// pendingPath is where the file journal keeps owner's pending intent.
func (c *cli) pendingPath(owner string) string {
	return journal.ScopedPath(filepath.Join(c.dir, "pending.json"), owner)
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--base-url", c.baseURL, "--journal", "file"}, args...)
	code := run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	code, out, errOut := c.run(args...)
	require.Equal(c.t, 0, code, "stderr: %s", errOut)
	return out
}

func TestCLITransferFlow(t *testing.T) {
	c := newCLI(t)

	c.mustRun("register", "--email", "bob@example.com", "--password", "bob-password")
	out := c.mustRun("register", "--email", "alice@example.com", "--password", "alice-password")
	assert.Contains(t, out, "registered alice@example.com")

	code, _, errOut := c.run("accounts")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not logged in")

	c.mustRun("login", "--email", "alice@example.com", "--password", "alice-password")
	assert.FileExists(t, filepath.Join(c.dir, "session.json"))

	out = c.mustRun("accounts")
	assert.Contains(t, out, "CHEQUING")

	out = c.mustRun("payees", "add", "--email", "bob@example.com", "--label", "Bob")
	assert.Contains(t, out, "added payee 1")
	out = c.mustRun("payees")
	assert.Contains(t, out, "bob@example.com")

	c.faults.FailNext(http.StatusServiceUnavailable, 1)
	code, _, errOut = c.run("transfer", "--from", "2", "--payee", "1", "--amount", "25.00")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "status 503")
	assert.Contains(t, errOut, "run the same command again")
	assert.FileExists(t, c.pendingPath("alice@example.com"))
	assert.Zero(t, c.bank.TransferCount())

	out = c.mustRun("transfer", "--from", "2", "--payee", "1", "--amount", "25")
	assert.Contains(t, out, "COMPLETED")
	assert.Equal(t, 1, c.bank.TransferCount())
	assert.NoFileExists(t, c.pendingPath("alice@example.com"))

	out = c.mustRun("activity", "--direction", "sent")
	assert.Contains(t, out, "bob@example.com")
	assert.Contains(t, out, "#1")

	out = c.mustRun("activity", "--direction", "received")
	assert.Contains(t, out, "no activity")

	c.mustRun("logout")
	_, err := os.Stat(filepath.Join(c.dir, "session.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestCLIResumesPendingTransferWithoutArguments(t *testing.T) {
	c := newCLI(t)
	c.mustRun("register", "--email", "bob@example.com", "--password", "bob-password")
	c.mustRun("register", "--email", "alice@example.com", "--password", "alice-password")
	c.mustRun("login", "--email", "alice@example.com", "--password", "alice-password")
	c.mustRun("payees", "add", "--email", "bob@example.com")

	c.faults.FailAfterCommit(1)
	code, _, _ := c.run("transfer", "--from", "2", "--payee", "1", "--amount", "3.50")
	require.Equal(t, 1, code)
	require.Equal(t, 1, c.bank.TransferCount())

	out := c.mustRun("transfer")
	assert.Contains(t, out, "retrying pending transfer")
	assert.Equal(t, 1, c.bank.TransferCount(), "the retry was answered from the committed transfer")

	balance, ok := c.bank.Balance(2)
	require.True(t, ok)
	assert.Equal(t, int64(100_000-350), balance)
}

func TestCLIPendingTransferBelongsToItsUser(t *testing.T) {
	c := newCLI(t)
	c.mustRun("register", "--email", "bob@example.com", "--password", "bob-password")
	c.mustRun("register", "--email", "alice@example.com", "--password", "alice-password")
	c.mustRun("login", "--email", "alice@example.com", "--password", "alice-password")
	c.mustRun("payees", "add", "--email", "bob@example.com")

	c.faults.FailNext(http.StatusServiceUnavailable, 1)
	code, _, _ := c.run("transfer", "--from", "2", "--payee", "1", "--amount", "4.00")
	require.Equal(t, 1, code)
	assert.FileExists(t, c.pendingPath("alice@example.com"))
	c.mustRun("logout")

	c.mustRun("login", "--email", "bob@example.com", "--password", "bob-password")
	code, out, errOut := c.run("transfer")
	assert.Equal(t, 2, code, "bob has nothing pending")
	assert.NotContains(t, out, "retrying pending transfer")
	assert.Contains(t, errOut, "--amount")
	assert.Zero(t, c.bank.TransferCount())
	c.mustRun("logout")

	c.mustRun("login", "--email", "alice@example.com", "--password", "alice-password")
	out = c.mustRun("transfer")
	assert.Contains(t, out, "retrying pending transfer")
	assert.Equal(t, 1, c.bank.TransferCount())
	assert.NoFileExists(t, c.pendingPath("alice@example.com"))
}

func TestCLIUsageErrors(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run()
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage")

	code, _, _ = c.run("bogus")
	assert.Equal(t, 2, code)

	code, _, errOut = c.run("register", "--email", "x@example.com")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "--password")
}
