package transfer

import (
	"context"
	"strings"

	"digibank/internal/models"
	"digibank/internal/platform/metrics"
	dErrors "digibank/pkg/domain-errors"
)

// Submit sends the current draft. It returns ErrSubmitInProgress without
// side effects while another submission is in flight.
//
// Order of operations:
//  1. local checks (amount format and sign, account and payee chosen)
//  2. bind or reuse the idempotency key and enter StateSubmitting, under the lock
//  3. journal the binding
//  4. resolve the account and payee against the directory snapshots
//  5. POST /transfers with the bound key
//
// A failure in 1 or 4 returns the draft to StateEditing with no request
// sent; a key minted in this attempt is discarded.
func (m *Manager) Submit(ctx context.Context) (*models.Transfer, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.state == StateSubmitting {
		m.mu.Unlock()
		return nil, ErrSubmitInProgress
	}

	draft := m.draft
	cents, err := draft.validate()
	if err != nil {
		m.state = StateEditing
		m.lastErr = err
		m.failure = nil
		m.mu.Unlock()
		m.metrics.ObserveSubmission(metrics.OutcomeInvalid)
		return nil, err
	}

	minted := false
	if m.binding == nil || !m.binding.Draft.Same(draft) {
		m.binding = &Binding{Key: m.keys.NewKey(), Draft: draft}
		minted = true
	}
	binding := *m.binding
	m.state = StateSubmitting
	m.result = nil
	m.lastErr = nil
	m.failure = nil

	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if m.submitTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, m.submitTimeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	m.inflight = cancel
	m.mu.Unlock()
	defer cancel()

	if minted {
		m.metrics.IncrementKeysMinted()
		m.saveJournal(ctx, binding)
	}

	req, err := m.resolve(callCtx, draft, cents)
	if err != nil {
		return nil, m.rejectResolved(ctx, binding, minted, err)
	}

	m.logger.DebugContext(ctx, "submitting transfer",
		"from_account_id", req.FromAccountID,
		"payee_id", req.PayeeID,
		"amount_cents", req.AmountCents,
	)
	t, err := m.api.CreateTransfer(callCtx, binding.Key, req)
	return m.complete(ctx, binding, t, err)
}

// resolve checks the draft against the latest account and payee snapshots
// and builds the request body.
func (m *Manager) resolve(ctx context.Context, d Draft, cents int64) (models.CreateTransferRequest, error) {
	accounts, err := m.directory.Accounts(ctx)
	if err != nil {
		return models.CreateTransferRequest{}, err
	}
	var from *models.Account
	for i := range accounts {
		if accounts[i].ID == d.FromAccountID {
			from = &accounts[i]
			break
		}
	}
	if from == nil {
		return models.CreateTransferRequest{}, dErrors.New(dErrors.CodeUnknownAccount, "account "+d.FromAccountID.String()+" is not one of yours")
	}

	payees, err := m.directory.ActivePayees(ctx)
	if err != nil {
		return models.CreateTransferRequest{}, err
	}
	found := false
	for _, p := range payees {
		if p.ID == d.PayeeID {
			found = true
			break
		}
	}
	if !found {
		return models.CreateTransferRequest{}, dErrors.New(dErrors.CodeUnknownPayee, "payee "+d.PayeeID.String()+" is not an active payee")
	}

	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = strings.ToUpper(from.Currency)
	}
	if currency == "" {
		currency = m.defaultCurrency
	}

	return models.CreateTransferRequest{
		FromAccountID: d.FromAccountID,
		PayeeID:       d.PayeeID,
		AmountCents:   cents,
		Currency:      currency,
	}, nil
}

// rejectResolved handles a failure before the request was sent.
func (m *Manager) rejectResolved(ctx context.Context, b Binding, minted bool, err error) error {
	m.mu.Lock()
	m.inflight = nil
	if m.closed {
		m.mu.Unlock()
		m.metrics.ObserveSubmission(metrics.OutcomeDiscarded)
		return ErrClosed
	}

	validation := dErrors.HasCode(err, dErrors.CodeUnknownAccount) || dErrors.HasCode(err, dErrors.CodeUnknownPayee)
	if !validation {
		// The directory could not be read; nothing was sent, the key stays.
		err = m.fail(ctx, err)
		m.mu.Unlock()
		return err
	}

	dropped := false
	if minted && m.binding != nil && m.binding.Key == b.Key {
		m.binding = nil
		dropped = true
	}
	m.state = StateEditing
	m.lastErr = err
	m.mu.Unlock()

	if dropped {
		m.clearJournal(ctx)
	}
	m.metrics.ObserveSubmission(metrics.OutcomeInvalid)
	return err
}

// complete applies the API outcome unless the manager was closed meanwhile.
func (m *Manager) complete(ctx context.Context, b Binding, t *models.Transfer, err error) (*models.Transfer, error) {
	m.mu.Lock()
	m.inflight = nil
	if m.closed {
		m.mu.Unlock()
		m.metrics.ObserveSubmission(metrics.OutcomeDiscarded)
		m.logger.InfoContext(ctx, "discarding transfer response after close", "idempotency_key", b.Key)
		return nil, ErrClosed
	}

	if err != nil {
		err = m.fail(ctx, err)
		m.mu.Unlock()
		return nil, err
	}

	m.state = StateSucceeded
	m.result = t
	m.binding = nil
	m.draft = Draft{}
	m.mu.Unlock()

	m.clearJournal(ctx)
	m.directory.Invalidate()
	m.metrics.ObserveSubmission(metrics.OutcomeSucceeded)
	m.logger.InfoContext(ctx, "transfer submitted",
		"transfer_id", t.ID,
		"status", t.Status,
		"amount_cents", t.AmountCents,
		"currency", t.Currency,
	)
	return t, nil
}

// fail records a failed attempt and returns the error to surface. The bound
// key is left as is. Callers hold mu.
func (m *Manager) fail(ctx context.Context, err error) error {
	f := &Failure{Err: err}
	outcome := metrics.OutcomeRetryable
	switch {
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		f.Code = dErrors.CodeUnauthorized
		outcome = metrics.OutcomeAuth
	case dErrors.HasCode(err, dErrors.CodeResponseMalformed):
		f.Code = dErrors.CodeResponseMalformed
		outcome = metrics.OutcomeMalformed
	case dErrors.HasCode(err, dErrors.CodeInvalidInput):
		// Rejected before sending; the same request would be rejected again.
		f.Code = dErrors.CodeInvalidInput
		outcome = metrics.OutcomeInvalid
	default:
		f.Code = dErrors.CodeRequestFailed
		f.Retryable = true
		if dErrors.CodeOf(err) == "" {
			err = dErrors.Wrap(err, dErrors.CodeRequestFailed, "submit transfer")
			f.Err = err
		}
	}
	m.state = StateFailed
	m.failure = f
	m.lastErr = f.Err
	m.metrics.ObserveSubmission(outcome)
	m.logger.WarnContext(ctx, "transfer submission failed",
		"code", f.Code,
		"retryable", f.Retryable,
		"error", err,
	)
	return err
}
