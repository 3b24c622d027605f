package ynab

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ynab/internal/transport"
)

// Payee is a transaction counterparty. Transfer payees point at the
// receiving account through TransferAccountID.
type Payee struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	TransferAccountID *uuid.UUID `json:"transfer_account_id"`
	Deleted           bool       `json:"deleted"`

	budget       *Budget
	transactions Collection[*Transaction]
}

// Budget returns the budget this payee belongs to.
func (p *Payee) Budget() *Budget { return p.budget }

// TransferAccount resolves the account a transfer payee deposits into. The
// second return is false for regular payees.
func (p *Payee) TransferAccount(ctx context.Context) (*Account, bool, error) {
	if p.TransferAccountID == nil {
		return nil, false, nil
	}
	a, err := p.budget.accountByID(ctx, *p.TransferAccountID)
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// Transactions fetches the transactions booked against this payee, once.
// The memo drops when a mutation touches the budget.
func (p *Payee) Transactions(ctx context.Context) (_ Collection[*Transaction], err error) {
	if p.transactions != nil {
		return p.transactions, nil
	}
	start := time.Now()
	defer func() { p.budget.client.obs.observe("payee.transactions", start, err) }()

	payload, err := p.budget.client.api.Get(ctx, transport.PayeeTransactionsPath(p.budget.ID.String(), p.ID.String()), nil)
	if err != nil {
		return nil, err
	}
	list, err := p.budget.decodeTransactionList(payload)
	if err != nil {
		return nil, err
	}
	p.transactions = list
	return list, nil
}

// Locations returns the saved geolocations for this payee.
func (p *Payee) Locations(ctx context.Context) (Collection[*PayeeLocation], error) {
	all, err := p.budget.PayeeLocations(ctx)
	if err != nil {
		return nil, err
	}
	return all.Where(func(loc *PayeeLocation) bool { return loc.PayeeID == p.ID }), nil
}

// PayeeLocation is a geotagged point where a payee was used.
type PayeeLocation struct {
	ID        uuid.UUID `json:"id"`
	PayeeID   uuid.UUID `json:"payee_id"`
	Latitude  string    `json:"latitude"`
	Longitude string    `json:"longitude"`
	Deleted   bool      `json:"deleted"`

	budget *Budget
}

// Payee resolves the payee this location belongs to.
func (l *PayeeLocation) Payee(ctx context.Context) (*Payee, error) {
	p, err := l.budget.payeeByID(ctx, l.PayeeID)
	if err != nil {
		return nil, fmt.Errorf("payee for location %s: %w", l.ID, err)
	}
	return p, nil
}
