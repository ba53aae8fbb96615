package domain

import (
	"strconv"
	"strings"

	dErrors "digibank/pkg/domain-errors"
)

// Typed identifiers for backend resources. The backend issues positive 64-bit
// integers; the zero value means "not set".
type (
	UserID     int64
	AccountID  int64
	PayeeID    int64
	TransferID int64
)

// maxIDLength bounds input before strconv touches it.
const maxIDLength = 19

func parseID(kind, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return n, nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	n, err := parseID("user_id", s)
	return UserID(n), err
}

// ParseAccountID validates and returns an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	n, err := parseID("account_id", s)
	return AccountID(n), err
}

// ParsePayeeID validates and returns a PayeeID.
func ParsePayeeID(s string) (PayeeID, error) {
	n, err := parseID("payee_id", s)
	return PayeeID(n), err
}

// ParseTransferID validates and returns a TransferID.
func ParseTransferID(s string) (TransferID, error) {
	n, err := parseID("transfer_id", s)
	return TransferID(n), err
}

func (id UserID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id AccountID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id PayeeID) String() string    { return strconv.FormatInt(int64(id), 10) }
func (id TransferID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id UserID) IsNil() bool     { return id == 0 }
func (id AccountID) IsNil() bool  { return id == 0 }
func (id PayeeID) IsNil() bool    { return id == 0 }
func (id TransferID) IsNil() bool { return id == 0 }
