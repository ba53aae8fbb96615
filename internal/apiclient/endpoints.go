package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"digibank/internal/idempotency"
	"digibank/internal/models"
	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
)

// Register creates a user and its first account.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (*models.RegisterResult, error) {
	var out models.RegisterResult
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/register", endpoint: "POST /auth/register", body: creds}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for an access token and initialises the session
// with it.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	var out models.LoginResult
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", endpoint: "POST /auth/login", body: creds}, &out); err != nil {
		return nil, err
	}
	if err := c.session.Init(out.AccessToken, time.Duration(out.ExpiresInSeconds)*time.Second); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeResponseMalformed, "login response has no access token")
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*models.Me, error) {
	var out models.Me
	if err := c.do(ctx, call{method: http.MethodGet, path: "/me", endpoint: "GET /me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Accounts lists the caller's accounts.
func (c *Client) Accounts(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	if err := c.do(ctx, call{method: http.MethodGet, path: "/accounts", endpoint: "GET /accounts"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Payees lists the caller's active payees.
func (c *Client) Payees(ctx context.Context) ([]models.Payee, error) {
	var out []models.Payee
	if err := c.do(ctx, call{method: http.MethodGet, path: "/payees", endpoint: "GET /payees"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddPayee(ctx context.Context, req models.AddPayeeRequest) (*models.Payee, error) {
	var out models.Payee
	if err := c.do(ctx, call{method: http.MethodPost, path: "/payees", endpoint: "POST /payees", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DisablePayee(ctx context.Context, payeeID id.PayeeID) (*models.Payee, error) {
	var out models.Payee
	path := "/payees/" + payeeID.String() + "/disable"
	if err := c.do(ctx, call{method: http.MethodPatch, path: path, endpoint: "PATCH /payees/{id}/disable"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTransfer submits a transfer under key. Resending the same key with
// the same body is safe; the backend answers with the original transfer.
func (c *Client) CreateTransfer(ctx context.Context, key string, req models.CreateTransferRequest) (*models.Transfer, error) {
	if err := idempotency.Validate(key); err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set(idempotency.Header, key)

	var out models.Transfer
	if err := c.do(ctx, call{method: http.MethodPost, path: "/transfers", endpoint: "POST /transfers", header: header, body: req}, &out); err != nil {
		return nil, err
	}
	if out.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeResponseMalformed, "transfer response has no id")
	}
	return &out, nil
}

// ListTransfers fetches one page of history, newest first. An empty cursor
// requests the first page.
func (c *Client) ListTransfers(ctx context.Context, limit int, cursor string) (*models.TransferPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	path := "/transfers"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.TransferPage
	if err := c.do(ctx, call{method: http.MethodGet, path: path, endpoint: "GET /transfers"}, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []models.Transfer{}
	}
	return &out, nil
}
