// Package models holds the backend's wire records.
package models

import (
	"time"

	id "digibank/pkg/domain"
)

// AccountType mirrors the backend enum.
type AccountType string

const (
	AccountTypeChequing AccountType = "CHEQUING"
	AccountTypeSavings  AccountType = "SAVINGS"
)

// Account statuses.
const (
	AccountStatusActive = "ACTIVE"
	AccountStatusFrozen = "FROZEN"
	AccountStatusClosed = "CLOSED"
)

type Account struct {
	ID           id.AccountID `json:"id"`
	AccountType  AccountType  `json:"accountType"`
	Currency     string       `json:"currency"`
	BalanceCents int64        `json:"balanceCents"`
	Status       string       `json:"status"`
}

// Payee statuses.
const (
	PayeeStatusActive   = "ACTIVE"
	PayeeStatusDisabled = "DISABLED"
)

type Payee struct {
	ID        id.PayeeID `json:"id"`
	Email     string     `json:"email"`
	Label     string     `json:"label,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Direction is relative to the authenticated user.
type Direction string

const (
	DirectionSent     Direction = "SENT"
	DirectionReceived Direction = "RECEIVED"
	DirectionUnknown  Direction = "UNKNOWN"
)

// TransferStatus mirrors the backend enum.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusCompleted TransferStatus = "COMPLETED"
	TransferStatusFailed    TransferStatus = "FAILED"
)

type Transfer struct {
	ID                id.TransferID  `json:"id"`
	FromAccountID     id.AccountID   `json:"fromAccountId"`
	ToAccountID       id.AccountID   `json:"toAccountId"`
	AmountCents       int64          `json:"amountCents"`
	Currency          string         `json:"currency"`
	Status            TransferStatus `json:"status"`
	CreatedAt         time.Time      `json:"createdAt"`
	FromEmail         string         `json:"fromEmail,omitempty"`
	ToEmail           string         `json:"toEmail,omitempty"`
	Direction         Direction      `json:"direction,omitempty"`
	CounterpartyEmail string         `json:"counterpartyEmail,omitempty"`
}

// TransferPage is one page of GET /transfers. A nil NextCursor ends history.
type TransferPage struct {
	Items      []Transfer `json:"items"`
	NextCursor *string    `json:"nextCursor"`
}

// CreateTransferRequest is the POST /transfers body.
type CreateTransferRequest struct {
	FromAccountID id.AccountID `json:"fromAccountId"`
	PayeeID       id.PayeeID   `json:"payeeId"`
	AmountCents   int64        `json:"amountCents"`
	Currency      string       `json:"currency"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResult struct {
	UserID    id.UserID    `json:"userId"`
	Email     string       `json:"email"`
	AccountID id.AccountID `json:"accountId"`
}

type LoginResult struct {
	UserID           id.UserID `json:"userId"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	AccessToken      string    `json:"accessToken"`
	TokenType        string    `json:"tokenType"`
	ExpiresInSeconds int64     `json:"expiresInSeconds"`
}

type Me struct {
	UserID id.UserID `json:"userId"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

type AddPayeeRequest struct {
	Email string `json:"email"`
	Label string `json:"label,omitempty"`
}
