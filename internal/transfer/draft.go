package transfer

import (
	"strings"

	"digibank/internal/journal"
	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
	"digibank/pkg/money"
)

// Draft is the transfer being edited. Amount is kept as typed.
type Draft struct {
	FromAccountID id.AccountID
	PayeeID       id.PayeeID
	Amount        string
	// Currency overrides the source account's currency when set.
	Currency string
}

// IsZero reports whether no field has been set.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// Same reports whether d and o describe the same financial intent. Amounts
// are compared in minor units when both parse, so "10.5" and "10.50" match.
func (d Draft) Same(o Draft) bool {
	return d.FromAccountID == o.FromAccountID &&
		d.PayeeID == o.PayeeID &&
		strings.EqualFold(d.Currency, o.Currency) &&
		sameAmount(d.Amount, o.Amount)
}

// validate runs the format and presence checks that need no network.
func (d Draft) validate() (int64, error) {
	cents, err := money.ParseAmount(d.Amount)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, dErrors.New(dErrors.CodeNonPositiveAmount, "amount must be greater than zero")
	}
	if d.FromAccountID.IsNil() {
		return 0, dErrors.New(dErrors.CodeUnknownAccount, "choose an account to send from")
	}
	if d.PayeeID.IsNil() {
		return 0, dErrors.New(dErrors.CodeUnknownPayee, "choose a payee")
	}
	return cents, nil
}

// Binding ties an idempotency key to the draft it was minted for.
type Binding struct {
	Key   string
	Draft Draft
}

func (b Binding) intent() journal.PendingIntent {
	return journal.PendingIntent{
		Key:           b.Key,
		FromAccountID: b.Draft.FromAccountID,
		PayeeID:       b.Draft.PayeeID,
		Amount:        b.Draft.Amount,
		Currency:      b.Draft.Currency,
	}
}

func bindingFromIntent(p journal.PendingIntent) Binding {
	return Binding{
		Key: p.Key,
		Draft: Draft{
			FromAccountID: p.FromAccountID,
			PayeeID:       p.PayeeID,
			Amount:        p.Amount,
			Currency:      p.Currency,
		},
	}
}

func sameAmount(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	ca, errA := money.ParseAmount(a)
	cb, errB := money.ParseAmount(b)
	return errA == nil && errB == nil && ca == cb
}
