package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"digibank/internal/idempotency"
	"digibank/internal/journal"
	"digibank/internal/models"
	"digibank/internal/transfer/mocks"
	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
	"digibank/pkg/platform/sentinel"
)

type apiCall struct {
	key string
	req models.CreateTransferRequest
}

// fakeAPI records every submission and answers from a queue of responders.
// With no responder queued it returns a completed transfer.
type fakeAPI struct {
	mu         sync.Mutex
	calls      []apiCall
	responders []func(ctx context.Context) (*models.Transfer, error)
}

func (f *fakeAPI) respond(fn func(ctx context.Context) (*models.Transfer, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responders = append(f.responders, fn)
}

func (f *fakeAPI) CreateTransfer(ctx context.Context, key string, req models.CreateTransferRequest) (*models.Transfer, error) {
	f.mu.Lock()
	f.calls = append(f.calls, apiCall{key: key, req: req})
	n := len(f.calls)
	var fn func(ctx context.Context) (*models.Transfer, error)
	if len(f.responders) > 0 {
		fn = f.responders[0]
		f.responders = f.responders[1:]
	}
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return &models.Transfer{
		ID:            id.TransferID(n),
		FromAccountID: req.FromAccountID,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
		Status:        models.TransferStatusCompleted,
	}, nil
}

func (f *fakeAPI) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func failWith(err error) func(context.Context) (*models.Transfer, error) {
	return func(context.Context) (*models.Transfer, error) { return nil, err }
}

type ManagerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	directory *mocks.MockDirectory
	api       *fakeAPI
	journal   *journal.Memory
	minted    atomic.Int32
	manager   *Manager
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.directory = mocks.NewMockDirectory(s.ctrl)
	s.api = &fakeAPI{}
	s.journal = journal.NewMemory()
	s.minted.Store(0)
	s.manager = New(s.directory, s.api,
		WithJournal(s.journal),
		WithKeyGenerator(idempotency.GeneratorFunc(func() string {
			return fmt.Sprintf("key-%d", s.minted.Add(1))
		})),
	)
}

func (s *ManagerSuite) expectSnapshots() {
	s.directory.EXPECT().Accounts(gomock.Any()).Return([]models.Account{
		{ID: 1, AccountType: models.AccountTypeChequing, Currency: "CAD", Status: models.AccountStatusActive},
		{ID: 3, AccountType: models.AccountTypeSavings, Currency: "usd", Status: models.AccountStatusActive},
	}, nil).AnyTimes()
	s.directory.EXPECT().ActivePayees(gomock.Any()).Return([]models.Payee{
		{ID: 2, Email: "bob@example.com", Status: models.PayeeStatusActive},
	}, nil).AnyTimes()
}

func (s *ManagerSuite) fillDraft(amount string) {
	s.Require().NoError(s.manager.SetFromAccount(1))
	s.Require().NoError(s.manager.SetPayee(2))
	s.Require().NoError(s.manager.SetAmount(amount))
}

// =============================================================================
// Local validation
// =============================================================================

func (s *ManagerSuite) TestZeroAmountIsNonPositive() {
	s.fillDraft("0")

	_, err := s.manager.Submit(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeNonPositiveAmount))
	s.Equal(StateEditing, s.manager.State())
	s.Empty(s.manager.Key())
	s.Empty(s.api.Calls())
	s.EqualValues(0, s.minted.Load())
}

func (s *ManagerSuite) TestMalformedAmounts() {
	for _, amount := range []string{"10.555", "-5", "abc", ""} {
		s.Run(fmt.Sprintf("%q", amount), func() {
			s.fillDraft(amount)
			_, err := s.manager.Submit(context.Background())
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))
			s.Equal(StateEditing, s.manager.State())
			s.Empty(s.manager.Key())
		})
	}
	s.Empty(s.api.Calls())
	s.EqualValues(0, s.minted.Load())
}

func (s *ManagerSuite) TestMissingFields() {
	s.Run("no source account", func() {
		s.Require().NoError(s.manager.SetPayee(2))
		s.Require().NoError(s.manager.SetAmount("5"))
		_, err := s.manager.Submit(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownAccount))
	})
	s.Run("no payee", func() {
		s.Require().NoError(s.manager.SetFromAccount(1))
		s.Require().NoError(s.manager.SetPayee(0))
		_, err := s.manager.Submit(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownPayee))
	})
	s.Empty(s.api.Calls())
}

// =============================================================================
// Referential validation
// =============================================================================

func (s *ManagerSuite) TestUnknownPayeeDiscardsFreshKey() {
	s.expectSnapshots()
	s.Require().NoError(s.manager.SetFromAccount(1))
	s.Require().NoError(s.manager.SetPayee(99))
	s.Require().NoError(s.manager.SetAmount("10"))

	_, err := s.manager.Submit(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownPayee))
	s.Equal(StateEditing, s.manager.State())
	s.Empty(s.manager.Key())
	s.Empty(s.api.Calls())

	_, err = s.journal.Load(context.Background())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ManagerSuite) TestUnknownAccount() {
	s.expectSnapshots()
	s.Require().NoError(s.manager.SetFromAccount(42))
	s.Require().NoError(s.manager.SetPayee(2))
	s.Require().NoError(s.manager.SetAmount("10"))

	_, err := s.manager.Submit(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownAccount))
	s.Empty(s.api.Calls())
}

func (s *ManagerSuite) TestDirectoryFailureIsRetryable() {
	s.directory.EXPECT().Accounts(gomock.Any()).Return(nil, dErrors.New(dErrors.CodeRequestFailed, "backend down"))
	s.fillDraft("10")

	_, err := s.manager.Submit(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeRequestFailed))
	s.Equal(StateFailed, s.manager.State())
	s.True(s.manager.Failure().Retryable)
	s.Equal("key-1", s.manager.Key())
	s.Empty(s.api.Calls())
}

// =============================================================================
// Key stability
// =============================================================================

func (s *ManagerSuite) TestRetryAfterFailureReusesKey() {
	s.expectSnapshots()
	s.directory.EXPECT().Invalidate().Times(1)
	s.api.respond(failWith(dErrors.Wrap(errors.New("http 503"), dErrors.CodeRequestFailed, "POST /transfers")))
	s.fillDraft("10.50")

	_, err := s.manager.Submit(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeRequestFailed))
	s.Equal(StateFailed, s.manager.State())
	s.True(s.manager.Failure().Retryable)
	s.Equal("key-1", s.manager.Key())

	t, err := s.manager.Submit(context.Background())
	s.Require().NoError(err)
	s.Equal(StateSucceeded, s.manager.State())

	calls := s.api.Calls()
	s.Require().Len(calls, 2)
	s.Equal(calls[0].key, calls[1].key)
	s.Equal(int64(1050), calls[1].req.AmountCents)
	s.Equal(t.ID, s.manager.LastResult().ID)
	s.Empty(s.manager.Key())
	s.True(s.manager.Draft().IsZero())
}

func (s *ManagerSuite) TestChangedAmountMintsNewKey() {
	s.expectSnapshots()
	s.api.respond(failWith(dErrors.New(dErrors.CodeRequestFailed, "timeout")))
	s.api.respond(failWith(dErrors.New(dErrors.CodeRequestFailed, "timeout")))
	s.fillDraft("10")

	_, _ = s.manager.Submit(context.Background())
	s.Require().NoError(s.manager.SetAmount("11"))
	s.Equal(StateEditing, s.manager.State())
	s.Empty(s.manager.Key())
	_, _ = s.manager.Submit(context.Background())

	calls := s.api.Calls()
	s.Require().Len(calls, 2)
	s.NotEqual(calls[0].key, calls[1].key)
}

func (s *ManagerSuite) TestSettingSameValueKeepsKey() {
	s.expectSnapshots()
	s.api.respond(failWith(dErrors.New(dErrors.CodeRequestFailed, "502")))
	s.api.respond(failWith(dErrors.New(dErrors.CodeRequestFailed, "502")))
	s.fillDraft("10.5")

	_, _ = s.manager.Submit(context.Background())
	s.Require().NoError(s.manager.SetFromAccount(1))
	s.Require().NoError(s.manager.SetAmount("10.50"))
	s.Equal(StateFailed, s.manager.State())
	_, _ = s.manager.Submit(context.Background())

	calls := s.api.Calls()
	s.Require().Len(calls, 2)
	s.Equal(calls[0].key, calls[1].key)
	s.EqualValues(1, s.minted.Load())
}

func (s *ManagerSuite) TestSuccessClearsBindingForNextIntent() {
	s.expectSnapshots()
	s.directory.EXPECT().Invalidate().Times(2)
	s.fillDraft("1")
	_, err := s.manager.Submit(context.Background())
	s.Require().NoError(err)

	s.fillDraft("1")
	_, err = s.manager.Submit(context.Background())
	s.Require().NoError(err)

	calls := s.api.Calls()
	s.Require().Len(calls, 2)
	s.NotEqual(calls[0].key, calls[1].key)
}

func (s *ManagerSuite) TestDoubleSubmitSendsOneRequest() {
	s.expectSnapshots()
	s.directory.EXPECT().Invalidate().Times(1)

	release := make(chan struct{})
	entered := make(chan struct{})
	s.api.respond(func(ctx context.Context) (*models.Transfer, error) {
		close(entered)
		<-release
		return &models.Transfer{ID: 7, Status: models.TransferStatusCompleted}, nil
	})
	s.fillDraft("10")

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = s.manager.Submit(context.Background())
	}()
	<-entered

	_, err := s.manager.Submit(context.Background())
	s.ErrorIs(err, ErrSubmitInProgress)
	s.ErrorIs(s.manager.SetAmount("20"), ErrSubmitInProgress)
	s.Equal("10", s.manager.Draft().Amount)

	close(release)
	wg.Wait()
	s.Require().NoError(firstErr)

	calls := s.api.Calls()
	s.Require().Len(calls, 1)
	s.NotEmpty(calls[0].key)
	s.EqualValues(1, s.minted.Load())
}

// =============================================================================
// Failure variants
// =============================================================================

func (s *ManagerSuite) TestUnauthorizedIsNotRetryable() {
	s.expectSnapshots()
	s.api.respond(failWith(dErrors.New(dErrors.CodeUnauthorized, "session is not authorized")))
	s.fillDraft("10")

	_, err := s.manager.Submit(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	f := s.manager.Failure()
	s.Require().NotNil(f)
	s.Equal(dErrors.CodeUnauthorized, f.Code)
	s.False(f.Retryable)
	s.Equal("key-1", s.manager.Key())
}

func (s *ManagerSuite) TestMalformedResponseIsDistinct() {
	s.expectSnapshots()
	s.api.respond(failWith(dErrors.New(dErrors.CodeResponseMalformed, "transfer response has no id")))
	s.fillDraft("10")

	_, err := s.manager.Submit(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeResponseMalformed))
	f := s.manager.Failure()
	s.Require().NotNil(f)
	s.Equal(dErrors.CodeResponseMalformed, f.Code)
	s.False(f.Retryable)
	s.Equal("key-1", s.manager.Key(), "the transfer may have happened, so the key is kept")
}

func (s *ManagerSuite) TestRejectedKeyIsNotRetryable() {
	s.expectSnapshots()
	s.api.respond(failWith(idempotency.Validate("not a valid key!")))
	s.fillDraft("10")

	_, err := s.manager.Submit(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	f := s.manager.Failure()
	s.Require().NotNil(f)
	s.Equal(dErrors.CodeInvalidInput, f.Code)
	s.False(f.Retryable, "resending the same key can never pass validation")
	s.Equal(StateFailed, s.manager.State())
}

func (s *ManagerSuite) TestSubmitTimeoutIsRetryable() {
	s.expectSnapshots()
	s.manager = New(s.directory, s.api, WithSubmitTimeout(20*time.Millisecond))
	s.api.respond(func(ctx context.Context) (*models.Transfer, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	s.fillDraft("10")

	_, err := s.manager.Submit(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeRequestFailed))
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Equal(StateFailed, s.manager.State())
	s.True(s.manager.Failure().Retryable)
	s.NotEmpty(s.manager.Key())
}

func (s *ManagerSuite) TestLateResponseAfterCloseIsDiscarded() {
	s.expectSnapshots()
	entered := make(chan struct{})
	s.api.respond(func(ctx context.Context) (*models.Transfer, error) {
		close(entered)
		<-ctx.Done()
		return &models.Transfer{ID: 1}, nil
	})
	s.fillDraft("10")

	done := make(chan error, 1)
	go func() {
		_, err := s.manager.Submit(context.Background())
		done <- err
	}()
	<-entered
	s.manager.Close()

	s.ErrorIs(<-done, ErrClosed)
	s.Nil(s.manager.LastResult())
	s.NotEqual(StateSucceeded, s.manager.State())
	s.ErrorIs(s.manager.SetAmount("1"), ErrClosed)
}

// =============================================================================
// Journal and resume
// =============================================================================

func (s *ManagerSuite) TestBindingIsJournaledAndClearedOnSuccess() {
	s.expectSnapshots()
	s.directory.EXPECT().Invalidate().Times(1)
	s.api.respond(failWith(dErrors.New(dErrors.CodeRequestFailed, "503")))
	s.fillDraft("10")

	_, _ = s.manager.Submit(context.Background())
	intent, err := s.journal.Load(context.Background())
	s.Require().NoError(err)
	s.Equal("key-1", intent.Key)
	s.Equal("10", intent.Amount)

	_, err = s.manager.Submit(context.Background())
	s.Require().NoError(err)
	_, err = s.journal.Load(context.Background())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ManagerSuite) TestChangeClearsJournal() {
	s.expectSnapshots()
	s.api.respond(failWith(dErrors.New(dErrors.CodeRequestFailed, "503")))
	s.fillDraft("10")
	_, _ = s.manager.Submit(context.Background())

	s.Require().NoError(s.manager.SetPayee(5))
	_, err := s.journal.Load(context.Background())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ManagerSuite) TestResumeReusesJournaledKey() {
	s.expectSnapshots()
	s.directory.EXPECT().Invalidate().Times(1)
	s.Require().NoError(s.journal.Save(context.Background(), journal.PendingIntent{
		Key: "journaled-key", FromAccountID: 1, PayeeID: 2, Amount: "10.50",
	}))

	ok, err := s.manager.Resume(context.Background())
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(StateKeyBound, s.manager.State())

	s.fillDraft("10.50")
	s.Equal(StateKeyBound, s.manager.State())

	_, err = s.manager.Submit(context.Background())
	s.Require().NoError(err)
	calls := s.api.Calls()
	s.Require().Len(calls, 1)
	s.Equal("journaled-key", calls[0].key)
	s.EqualValues(0, s.minted.Load())
}

func (s *ManagerSuite) TestResumeWithNothingPending() {
	ok, err := s.manager.Resume(context.Background())
	s.Require().NoError(err)
	s.False(ok)
	s.Equal(StateEmpty, s.manager.State())
}

func (s *ManagerSuite) TestResumeDropsInvalidDraft() {
	for name, intent := range map[string]journal.PendingIntent{
		"malformed amount": {Key: "journaled-key", FromAccountID: 1, PayeeID: 2, Amount: "abc"},
		"zero amount":      {Key: "journaled-key", FromAccountID: 1, PayeeID: 2, Amount: "0"},
		"missing payee":    {Key: "journaled-key", FromAccountID: 1, Amount: "5"},
	} {
		s.Run(name, func() {
			s.SetupTest()
			s.Require().NoError(s.journal.Save(context.Background(), intent))

			ok, err := s.manager.Resume(context.Background())
			s.Require().NoError(err)
			s.False(ok)
			s.Equal(StateEmpty, s.manager.State())
			s.Empty(s.manager.Key())

			_, err = s.journal.Load(context.Background())
			s.ErrorIs(err, sentinel.ErrNotFound, "the bad intent must not be resumed again")
		})
	}
}

func (s *ManagerSuite) TestResumeRefusesNonEmptyDraft() {
	s.Require().NoError(s.journal.Save(context.Background(), journal.PendingIntent{Key: "k", FromAccountID: 1, PayeeID: 2, Amount: "1"}))
	s.Require().NoError(s.manager.SetAmount("3"))

	_, err := s.manager.Resume(context.Background())
	s.ErrorIs(err, ErrNotEmpty)
}

// =============================================================================
// Request body
// =============================================================================

func (s *ManagerSuite) TestCurrencyFollowsSourceAccount() {
	s.expectSnapshots()
	s.directory.EXPECT().Invalidate().AnyTimes()

	s.Require().NoError(s.manager.SetFromAccount(3))
	s.Require().NoError(s.manager.SetPayee(2))
	s.Require().NoError(s.manager.SetAmount("4"))
	_, err := s.manager.Submit(context.Background())
	s.Require().NoError(err)

	s.fillDraft("4")
	s.Require().NoError(s.manager.SetCurrency("eur"))
	_, err = s.manager.Submit(context.Background())
	s.Require().NoError(err)

	calls := s.api.Calls()
	s.Require().Len(calls, 2)
	s.Equal("USD", calls[0].req.Currency)
	s.Equal("EUR", calls[1].req.Currency)
	s.Equal(id.PayeeID(2), calls[0].req.PayeeID)
}

func (s *ManagerSuite) TestStateTransitions() {
	s.Equal(StateEmpty, s.manager.State())
	s.Require().NoError(s.manager.SetAmount(""))
	s.Equal(StateEmpty, s.manager.State(), "setting the current value is not an edit")
	s.Require().NoError(s.manager.SetAmount("1"))
	s.Equal(StateEditing, s.manager.State())
}
