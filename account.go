package ynab

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ynab/internal/transport"
)

// Account is a bank, cash or tracking account inside a budget.
type Account struct {
	ID                  uuid.UUID   `json:"id"`
	Name                string      `json:"name"`
	Type                AccountType `json:"type"`
	OnBudget            bool        `json:"on_budget"`
	Closed              bool        `json:"closed"`
	Note                string      `json:"note"`
	Balance             Milliunits  `json:"balance"`
	ClearedBalance      Milliunits  `json:"cleared_balance"`
	UnclearedBalance    Milliunits  `json:"uncleared_balance"`
	TransferPayeeID     *uuid.UUID  `json:"transfer_payee_id"`
	DirectImportLinked  bool        `json:"direct_import_linked"`
	DirectImportInError bool        `json:"direct_import_in_error"`
	LastReconciledAt    *time.Time  `json:"last_reconciled_at"`
	DebtOriginalBalance *Milliunits `json:"debt_original_balance"`
	Deleted             bool        `json:"deleted"`

	budget       *Budget
	transactions Collection[*Transaction]
}

// Budget returns the budget this account belongs to.
func (a *Account) Budget() *Budget { return a.budget }

// Transactions fetches the transactions posted to this account, once. The
// memo drops when a mutation touches the budget.
func (a *Account) Transactions(ctx context.Context) (_ Collection[*Transaction], err error) {
	if a.transactions != nil {
		return a.transactions, nil
	}
	start := time.Now()
	defer func() { a.budget.client.obs.observe("account.transactions", start, err) }()

	payload, err := a.budget.client.api.Get(ctx, transport.AccountTransactionsPath(a.budget.ID.String(), a.ID.String()), nil)
	if err != nil {
		return nil, err
	}
	list, err := a.budget.decodeTransactionList(payload)
	if err != nil {
		return nil, err
	}
	a.transactions = list
	return list, nil
}

// TransferPayee resolves the payee used for transfers into this account.
// The second return is false when the account has none.
func (a *Account) TransferPayee(ctx context.Context) (*Payee, bool, error) {
	if a.TransferPayeeID == nil {
		return nil, false, nil
	}
	p, err := a.budget.payeeByID(ctx, *a.TransferPayeeID)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// CreateAccount adds an unlinked account to the budget. The balance seeds
// the starting balance transaction the server creates.
func (b *Budget) CreateAccount(ctx context.Context, name string, accountType AccountType, balance Milliunits) (_ *Account, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("budget.create_account", start, err) }()

	body := map[string]any{
		"account": map[string]any{
			"name":    name,
			"type":    accountType,
			"balance": balance,
		},
	}
	payload, err := b.client.api.Post(ctx, transport.AccountsPath(b.ID.String()), body)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Account *Account `json:"account"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	b.invalidateAfterMutation()
	envelope.Account.budget = b
	return envelope.Account, nil
}
