package directory

import (
	"context"
	"strings"

	"digibank/internal/models"
	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
	"digibank/pkg/email"
)

// AddPayee registers another user, by email, as a payee and invalidates the
// snapshot.
func (p *Provider) AddPayee(ctx context.Context, addr, label string) (*models.Payee, error) {
	addr = email.Normalize(addr)
	if addr == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payee email is required")
	}
	if !email.Valid(addr) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payee email is invalid")
	}
	payee, err := p.backend.AddPayee(ctx, models.AddPayeeRequest{Email: addr, Label: strings.TrimSpace(label)})
	if err != nil {
		return nil, err
	}
	p.Invalidate()
	return payee, nil
}

// DisablePayee disables a payee and invalidates the snapshot. The payee then
// no longer resolves for transfers.
func (p *Provider) DisablePayee(ctx context.Context, payeeID id.PayeeID) (*models.Payee, error) {
	if payeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnknownPayee, "payee id is required")
	}
	payee, err := p.backend.DisablePayee(ctx, payeeID)
	if err != nil {
		return nil, err
	}
	p.Invalidate()
	return payee, nil
}

// Me returns the authenticated user's profile.
func (p *Provider) Me(ctx context.Context) (*models.Me, error) {
	return p.backend.Me(ctx)
}
