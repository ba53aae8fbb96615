package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"digibank/internal/activity"
	"digibank/internal/apiclient"
	"digibank/internal/models"
	dErrors "digibank/pkg/domain-errors"
)

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

func (a *app) printAccounts(accounts []models.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "no accounts")
		return
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tTYPE\tCURRENCY\tBALANCE\tSTATUS")
	for _, acct := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			acct.ID, acct.AccountType, acct.Currency, a.money.Format(acct.BalanceCents, acct.Currency), acct.Status)
	}
	_ = w.Flush()
}

func (a *app) printPayees(payees []models.Payee) {
	if len(payees) == 0 {
		fmt.Fprintln(a.out, "no payees")
		return
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tEMAIL\tLABEL")
	for _, p := range payees {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Email, p.Label)
	}
	_ = w.Flush()
}

func (a *app) printTransfer(t *models.Transfer) {
	fmt.Fprintf(a.out, "transfer %s %s: %s from account %s to account %s\n",
		t.ID, t.Status, a.money.Format(t.AmountCents, t.Currency), t.FromAccountID, t.ToAccountID)
}

func (a *app) printActivity(groups []activity.DayGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "no activity")
		return
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintln(a.out, g.Day.Format("Mon Jan 2, 2006"))
		w := a.table()
		for _, t := range g.Items {
			amount := a.money.Format(t.AmountCents, t.Currency)
			if t.Direction == models.DirectionSent {
				amount = "-" + amount
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t#%s\n",
				t.CreatedAt.In(g.Day.Location()).Format("15:04"), counterparty(t), amount, t.Status, t.ID)
		}
		_ = w.Flush()
	}
}

func counterparty(t models.Transfer) string {
	switch {
	case t.CounterpartyEmail != "":
		return t.CounterpartyEmail
	case t.Direction == models.DirectionReceived:
		return t.FromEmail
	default:
		return t.ToEmail
	}
}

// printError writes err for a human. Backend failures include the status and
// response body so the user can decide whether to retry.
func printError(w io.Writer, err error) {
	var he *apiclient.HTTPError
	switch {
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		fmt.Fprintln(w, "error: session expired or invalid: run `digibank login`")
	case dErrors.HasCode(err, dErrors.CodeResponseMalformed):
		fmt.Fprintf(w, "error: %v\nthe backend's reply could not be read; check `digibank activity` before retrying\n", err)
	case errors.As(err, &he):
		fmt.Fprintf(w, "error: request failed with status %d\n", he.Status)
		if body := strings.TrimSpace(he.Body); body != "" {
			fmt.Fprintf(w, "response: %s\n", body)
		}
	default:
		fmt.Fprintf(w, "error: %v\n", err)
	}

	var re retryableError
	if errors.As(err, &re) {
		fmt.Fprintf(w, "the transfer was not confirmed; run the same command again to retry with key %s\n", re.key)
	}
}
