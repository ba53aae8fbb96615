// Package mockbank is an in-memory implementation of the banking REST
// contract the client consumes. It backs local development and the
// end-to-end tests; it is not a ledger.
package mockbank

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"digibank/internal/models"
	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
	"digibank/pkg/email"
	"digibank/pkg/requestcontext"
)

const (
	// RoleUser is the only role the stub issues.
	RoleUser = "USER"

	minPasswordLength = 8
	defaultCurrency   = "CAD"
)

type user struct {
	id           id.UserID
	email        string
	passwordHash []byte
	role         string
}

type account struct {
	models.Account
	owner id.UserID
}

type payee struct {
	models.Payee
	owner     id.UserID
	payeeUser id.UserID
}

type transfer struct {
	models.Transfer
	key       string
	fromOwner id.UserID
	toOwner   id.UserID
}

// Bank is safe for concurrent use. One mutex serializes every operation,
// which stands in for the backend's row locks.
type Bank struct {
	mu sync.Mutex

	users     map[id.UserID]*user
	byEmail   map[string]*user
	accounts  map[id.AccountID]*account
	payees    map[id.PayeeID]*payee
	transfers []*transfer
	byKey     map[string]*transfer

	nextUser     id.UserID
	nextAccount  id.AccountID
	nextPayee    id.PayeeID
	nextTransfer id.TransferID

	openingBalance int64
	bcryptCost     int
}

type Option func(*Bank)

// WithOpeningBalance credits every new account with cents.
func WithOpeningBalance(cents int64) Option {
	return func(b *Bank) {
		if cents >= 0 {
			b.openingBalance = cents
		}
	}
}

// WithBcryptCost lowers the hashing cost for tests.
func WithBcryptCost(cost int) Option {
	return func(b *Bank) {
		b.bcryptCost = cost
	}
}

func NewBank(opts ...Option) *Bank {
	b := &Bank{
		users:      make(map[id.UserID]*user),
		byEmail:    make(map[string]*user),
		accounts:   make(map[id.AccountID]*account),
		payees:     make(map[id.PayeeID]*payee),
		byKey:      make(map[string]*transfer),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func normalizeEmail(addr string) (string, error) {
	addr = email.Normalize(addr)
	if addr == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "Email is required")
	}
	return addr, nil
}

// now truncates to milliseconds so a createdAt round-trips through a cursor.
func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Millisecond)
}

// =============================================================================
// Users
// =============================================================================

// Register creates a user and one ACTIVE CHEQUING CAD account.
func (b *Bank) Register(ctx context.Context, creds models.Credentials) (*models.RegisterResult, error) {
	addr, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, err
	}
	if !email.Valid(addr) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Email is invalid")
	}
	if strings.TrimSpace(creds.Password) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Password is required")
	}
	if len(creds.Password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), b.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.byEmail[addr]; exists {
		return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
	}

	b.nextUser++
	u := &user{id: b.nextUser, email: addr, passwordHash: hash, role: RoleUser}
	b.users[u.id] = u
	b.byEmail[addr] = u

	b.nextAccount++
	acct := &account{
		Account: models.Account{
			ID:           b.nextAccount,
			AccountType:  models.AccountTypeChequing,
			Currency:     defaultCurrency,
			BalanceCents: b.openingBalance,
			Status:       models.AccountStatusActive,
		},
		owner: u.id,
	}
	b.accounts[acct.ID] = acct

	return &models.RegisterResult{UserID: u.id, Email: u.email, AccountID: acct.ID}, nil
}

// Authenticate checks a password. Every failure is the same unauthorized
// error so callers cannot probe which emails exist.
func (b *Bank) Authenticate(creds models.Credentials) (*models.Me, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	addr, err := normalizeEmail(creds.Email)
	if err != nil || creds.Password == "" {
		return nil, invalid
	}

	b.mu.Lock()
	u, ok := b.byEmail[addr]
	b.mu.Unlock()
	if !ok {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(creds.Password)); err != nil {
		return nil, invalid
	}
	return &models.Me{UserID: u.id, Email: u.email, Role: u.role}, nil
}

func (b *Bank) Me(userID id.UserID) (*models.Me, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[userID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown user")
	}
	return &models.Me{UserID: u.id, Email: u.email, Role: u.role}, nil
}

// =============================================================================
// Accounts
// =============================================================================

func (b *Bank) Accounts(userID id.UserID) []models.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Account{}
	for _, a := range b.accounts {
		if a.owner == userID {
			out = append(out, a.Account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetAccountStatus freezes or closes an account. It exists for tests.
func (b *Bank) SetAccountStatus(accountID id.AccountID, status string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[accountID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "Account not found")
	}
	a.Status = status
	return nil
}

// =============================================================================
// Payees
// =============================================================================

func (b *Bank) ActivePayees(userID id.UserID) []models.Payee {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Payee{}
	for _, p := range b.payees {
		if p.owner == userID && p.Status == models.PayeeStatusActive {
			out = append(out, p.Payee)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddPayee links another registered user. A disabled payee for the same
// email is reactivated instead of duplicated.
func (b *Bank) AddPayee(ctx context.Context, userID id.UserID, req models.AddPayeeRequest) (*models.Payee, error) {
	addr, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	label := strings.TrimSpace(req.Label)

	b.mu.Lock()
	defer b.mu.Unlock()

	target, ok := b.byEmail[addr]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payee email not found")
	}
	if target.id == userID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot add yourself as a payee")
	}

	for _, p := range b.payees {
		if p.owner != userID || p.payeeUser != target.id {
			continue
		}
		if p.Status == models.PayeeStatusActive {
			return nil, dErrors.New(dErrors.CodeConflict, "payee already exists")
		}
		p.Status = models.PayeeStatusActive
		if label != "" {
			p.Label = label
		}
		out := p.Payee
		return &out, nil
	}

	b.nextPayee++
	p := &payee{
		Payee: models.Payee{
			ID:        b.nextPayee,
			Email:     target.email,
			Label:     label,
			Status:    models.PayeeStatusActive,
			CreatedAt: now(ctx),
		},
		owner:     userID,
		payeeUser: target.id,
	}
	b.payees[p.ID] = p
	out := p.Payee
	return &out, nil
}

func (b *Bank) DisablePayee(userID id.UserID, payeeID id.PayeeID) (*models.Payee, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.payees[payeeID]
	if !ok || p.owner != userID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payee not found")
	}
	p.Status = models.PayeeStatusDisabled
	out := p.Payee
	return &out, nil
}

// =============================================================================
// Transfers
// =============================================================================

// CreateTransfer moves money to a payee's CHEQUING account. A key already
// used by the same user for the same request returns the original transfer
// with replayed set; any other reuse is a conflict.
func (b *Bank) CreateTransfer(ctx context.Context, userID id.UserID, key string, req models.CreateTransferRequest) (t *models.Transfer, replayed bool, err error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if len(currency) != 3 {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "currency must be a 3-letter code")
	}
	if req.AmountCents <= 0 {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "amountCents must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.payees[req.PayeeID]
	if !ok || p.owner != userID {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "payee not found")
	}
	if p.Status != models.PayeeStatusActive {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "payee is disabled")
	}

	to := b.chequingFor(p.payeeUser, currency)
	if to == nil {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "payee account not found")
	}
	if req.FromAccountID == to.ID {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "fromAccountId and toAccountId must be different")
	}

	if existing, ok := b.byKey[key]; ok {
		if existing.fromOwner != userID {
			return nil, false, dErrors.New(dErrors.CodeConflict, "Idempotency-Key was already used")
		}
		same := existing.FromAccountID == req.FromAccountID &&
			existing.ToAccountID == to.ID &&
			existing.AmountCents == req.AmountCents &&
			strings.EqualFold(existing.Currency, currency)
		if !same {
			return nil, false, dErrors.New(dErrors.CodeConflict, "Idempotency-Key was already used with a different request")
		}
		return b.view(existing, userID), true, nil
	}

	from, ok := b.accounts[req.FromAccountID]
	if !ok || from.owner != userID {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "Account not found")
	}
	if from.Status != models.AccountStatusActive {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "From account is not active")
	}
	if !strings.EqualFold(from.Currency, currency) {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "currency must match both accounts")
	}
	if from.BalanceCents < req.AmountCents {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "insufficient funds")
	}

	from.BalanceCents -= req.AmountCents
	to.BalanceCents += req.AmountCents

	b.nextTransfer++
	rec := &transfer{
		Transfer: models.Transfer{
			ID:            b.nextTransfer,
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			AmountCents:   req.AmountCents,
			Currency:      currency,
			Status:        models.TransferStatusCompleted,
			CreatedAt:     now(ctx),
			FromEmail:     b.users[from.owner].email,
			ToEmail:       b.users[to.owner].email,
		},
		key:       key,
		fromOwner: from.owner,
		toOwner:   to.owner,
	}
	b.transfers = append(b.transfers, rec)
	b.byKey[key] = rec
	return b.view(rec, userID), false, nil
}

func (b *Bank) chequingFor(userID id.UserID, currency string) *account {
	var found *account
	for _, a := range b.accounts {
		if a.owner != userID || a.AccountType != models.AccountTypeChequing ||
			a.Status != models.AccountStatusActive || !strings.EqualFold(a.Currency, currency) {
			continue
		}
		if found == nil || a.ID < found.ID {
			found = a
		}
	}
	return found
}

// view renders a transfer relative to the viewing user.
func (b *Bank) view(t *transfer, viewer id.UserID) *models.Transfer {
	out := t.Transfer
	switch viewer {
	case t.fromOwner:
		out.Direction = models.DirectionSent
		out.CounterpartyEmail = t.ToEmail
	case t.toOwner:
		out.Direction = models.DirectionReceived
		out.CounterpartyEmail = t.FromEmail
	default:
		out.Direction = models.DirectionUnknown
	}
	return &out
}

// ListTransfers returns the user's sent and received transfers newest first.
// The limit is clamped to 1..100; zero means the default page size.
func (b *Bank) ListTransfers(userID id.UserID, limit int, rawCursor string) (*models.TransferPage, error) {
	limit = clampLimit(limit)

	var after *cursor
	if rawCursor != "" {
		c, err := decodeCursor(rawCursor)
		if err != nil {
			return nil, err
		}
		after = &c
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	mine := make([]*transfer, 0, len(b.transfers))
	for _, t := range b.transfers {
		if t.fromOwner != userID && t.toOwner != userID {
			continue
		}
		if after != nil && !after.before(t) {
			continue
		}
		mine = append(mine, t)
	}
	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		return mine[i].ID > mine[j].ID
	})

	page := &models.TransferPage{Items: []models.Transfer{}}
	hasMore := len(mine) > limit
	if hasMore {
		mine = mine[:limit]
	}
	for _, t := range mine {
		page.Items = append(page.Items, *b.view(t, userID))
	}
	if hasMore {
		last := mine[len(mine)-1]
		next := encodeCursor(cursor{createdAt: last.CreatedAt, id: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

// Balance returns an account's balance. It exists for tests.
func (b *Bank) Balance(accountID id.AccountID) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[accountID]
	if !ok {
		return 0, false
	}
	return a.BalanceCents, true
}

// TransferCount returns how many transfers were committed.
func (b *Bank) TransferCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.transfers)
}
