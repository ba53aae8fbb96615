// Command digibank is a terminal client for the digibank REST API.
//
//	digibank [global flags] <command> [command flags]
//
// Commands: register, login, logout, me, accounts, payees (list|add|disable),
// transfer, activity.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"digibank/internal/platform/config"
	"digibank/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"register": cmdRegister,
	"login":    cmdLogin,
	"logout":   cmdLogout,
	"me":       cmdMe,
	"accounts": cmdAccounts,
	"payees":   cmdPayees,
	"transfer": cmdTransfer,
	"activity": cmdActivity,
}

// run returns the process exit code: 0 on success, 1 on a failed command and
// 2 on a usage or configuration error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("digibank", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		usage(stderr)
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, stderr)

	a, err := newApp(cfg, log, stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := cmd(ctx, a, rest[1:]); err != nil {
		printError(stderr, err)
		if isUsage(err) {
			return 2
		}
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: digibank [--base-url URL] [--journal memory|file|redis] <command> [flags]

commands:
  register  --email E --password P
  login     --email E --password P
  logout
  me
  accounts
  payees    list | add --email E [--label L] | disable --id N
  transfer  --from ACCOUNT --payee PAYEE --amount 12.34 [--currency CAD]
  activity  [--limit N] [--pages N] [--direction sent|received] [--status S]
            [--since YYYY-MM-DD] [--until YYYY-MM-DD] [--query TEXT]`)
}
