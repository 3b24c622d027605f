package ynab

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"

	"github.com/ledgerline/ynab/internal/transport"
)

// Transaction is a posted transaction. Split transactions carry their
// parts in Subtransactions; the parent's CategoryID is nil in that case.
//
// Transaction ids are strings, not UUIDs: imported and transfer-linked
// rows use prefixed composite ids.
type Transaction struct {
	ID                    string               `json:"id"`
	Date                  types.Date           `json:"date"`
	Amount                Milliunits           `json:"amount"`
	Memo                  string               `json:"memo"`
	Cleared               ClearedStatus        `json:"cleared"`
	Approved              bool                 `json:"approved"`
	FlagColor             *FlagColor           `json:"flag_color"`
	AccountID             uuid.UUID            `json:"account_id"`
	AccountName           string               `json:"account_name"`
	PayeeID               *uuid.UUID           `json:"payee_id"`
	PayeeName             string               `json:"payee_name"`
	CategoryID            *uuid.UUID           `json:"category_id"`
	CategoryName          string               `json:"category_name"`
	TransferAccountID     *uuid.UUID           `json:"transfer_account_id"`
	TransferTransactionID *string              `json:"transfer_transaction_id"`
	MatchedTransactionID  *string              `json:"matched_transaction_id"`
	ImportID              *string              `json:"import_id"`
	ImportPayeeName       *string              `json:"import_payee_name"`
	DebtType              *DebtTransactionType `json:"debt_transaction_type"`
	Deleted               bool                 `json:"deleted"`
	Subtransactions       []*Subtransaction    `json:"subtransactions"`

	budget *Budget
}

func (t *Transaction) id() string { return t.ID }

// Budget returns the budget this transaction belongs to.
func (t *Transaction) Budget() *Budget { return t.budget }

// Account resolves the account this transaction is posted to.
func (t *Transaction) Account(ctx context.Context) (*Account, error) {
	return t.budget.accountByID(ctx, t.AccountID)
}

// Payee resolves the transaction's payee. The second return is false when
// the transaction has none; no request is made in that case.
func (t *Transaction) Payee(ctx context.Context) (*Payee, bool, error) {
	if t.PayeeID == nil {
		return nil, false, nil
	}
	p, err := t.budget.payeeByID(ctx, *t.PayeeID)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Category resolves the transaction's category. The second return is false
// for uncategorized rows and split parents.
func (t *Transaction) Category(ctx context.Context) (*Category, bool, error) {
	if t.CategoryID == nil {
		return nil, false, nil
	}
	c, err := t.budget.categoryByID(ctx, *t.CategoryID)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// TransferAccount resolves the other side of a transfer. The second return
// is false for non-transfer transactions.
func (t *Transaction) TransferAccount(ctx context.Context) (*Account, bool, error) {
	if t.TransferAccountID == nil {
		return nil, false, nil
	}
	a, err := t.budget.accountByID(ctx, *t.TransferAccountID)
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// Edit starts an update of this transaction, prefilled with its current
// values. Call Save on the builder to send the update.
func (t *Transaction) Edit() *TransactionBuilder {
	b := &TransactionBuilder{budget: t.budget, existingID: t.ID}
	b.payload.AccountID = t.AccountID
	b.payload.Date = t.Date
	b.payload.Amount = t.Amount
	b.payload.PayeeID = t.PayeeID
	b.payload.CategoryID = t.CategoryID
	if t.Memo != "" {
		b.payload.Memo = &t.Memo
	}
	if t.Cleared != "" {
		b.payload.Cleared = &t.Cleared
	}
	b.payload.Approved = &t.Approved
	b.payload.FlagColor = t.FlagColor
	return b
}

// Delete removes this transaction from the budget.
func (t *Transaction) Delete(ctx context.Context) (*Transaction, error) {
	return t.budget.DeleteTransaction(ctx, t.ID)
}

// Subtransaction is one part of a split transaction.
type Subtransaction struct {
	ID                    string     `json:"id"`
	TransactionID         string     `json:"transaction_id"`
	Amount                Milliunits `json:"amount"`
	Memo                  string     `json:"memo"`
	PayeeID               *uuid.UUID `json:"payee_id"`
	PayeeName             string     `json:"payee_name"`
	CategoryID            *uuid.UUID `json:"category_id"`
	CategoryName          string     `json:"category_name"`
	TransferAccountID     *uuid.UUID `json:"transfer_account_id"`
	TransferTransactionID *string    `json:"transfer_transaction_id"`
	Deleted               bool       `json:"deleted"`
}

// transactionPayload is the request shape for creates and updates. Pointer
// fields are omitted unless set, so updates only touch what the builder
// changed.
type transactionPayload struct {
	AccountID  uuid.UUID      `json:"account_id"`
	Date       types.Date     `json:"date"`
	Amount     Milliunits     `json:"amount"`
	PayeeID    *uuid.UUID     `json:"payee_id,omitempty"`
	PayeeName  *string        `json:"payee_name,omitempty"`
	CategoryID *uuid.UUID     `json:"category_id,omitempty"`
	Memo       *string        `json:"memo,omitempty"`
	Cleared    *ClearedStatus `json:"cleared,omitempty"`
	Approved   *bool          `json:"approved,omitempty"`
	FlagColor  *FlagColor     `json:"flag_color,omitempty"`
	ImportID   *string        `json:"import_id,omitempty"`
}

// TransactionBuilder assembles a transaction create or update. Setters
// chain; Save sends the request.
type TransactionBuilder struct {
	budget     *Budget
	existingID string
	payload    transactionPayload
}

// NewTransaction starts a transaction create with the three required
// fields. Chain setters for the rest, then Save.
func (b *Budget) NewTransaction(accountID uuid.UUID, date time.Time, amount Milliunits) *TransactionBuilder {
	tb := &TransactionBuilder{budget: b}
	tb.payload.AccountID = accountID
	tb.payload.Date = types.Date{Time: date}
	tb.payload.Amount = amount
	return tb
}

// Account moves the transaction to another account.
func (tb *TransactionBuilder) Account(accountID uuid.UUID) *TransactionBuilder {
	tb.payload.AccountID = accountID
	return tb
}

// Date sets the transaction date.
func (tb *TransactionBuilder) Date(date time.Time) *TransactionBuilder {
	tb.payload.Date = types.Date{Time: date}
	return tb
}

// Amount sets the amount in milliunits, negative for outflows.
func (tb *TransactionBuilder) Amount(amount Milliunits) *TransactionBuilder {
	tb.payload.Amount = amount
	return tb
}

// Payee sets the payee by id.
func (tb *TransactionBuilder) Payee(payeeID uuid.UUID) *TransactionBuilder {
	tb.payload.PayeeID = &payeeID
	tb.payload.PayeeName = nil
	return tb
}

// PayeeName sets the payee by name. The server matches an existing payee
// or creates one.
func (tb *TransactionBuilder) PayeeName(name string) *TransactionBuilder {
	tb.payload.PayeeName = &name
	tb.payload.PayeeID = nil
	return tb
}

// Category sets the category.
func (tb *TransactionBuilder) Category(categoryID uuid.UUID) *TransactionBuilder {
	tb.payload.CategoryID = &categoryID
	return tb
}

// Memo sets the memo text.
func (tb *TransactionBuilder) Memo(memo string) *TransactionBuilder {
	tb.payload.Memo = &memo
	return tb
}

// Cleared sets the cleared status.
func (tb *TransactionBuilder) Cleared(status ClearedStatus) *TransactionBuilder {
	tb.payload.Cleared = &status
	return tb
}

// Approved marks the transaction approved or unapproved.
func (tb *TransactionBuilder) Approved(approved bool) *TransactionBuilder {
	tb.payload.Approved = &approved
	return tb
}

// Flag sets the flag color.
func (tb *TransactionBuilder) Flag(color FlagColor) *TransactionBuilder {
	tb.payload.FlagColor = &color
	return tb
}

// ImportID sets the import id used for duplicate detection on creates.
func (tb *TransactionBuilder) ImportID(importID string) *TransactionBuilder {
	tb.payload.ImportID = &importID
	return tb
}

// Save sends the create or update and returns the transaction as the
// server recorded it. Memoized collections whose amounts the write stales
// are dropped.
func (tb *TransactionBuilder) Save(ctx context.Context) (_ *Transaction, err error) {
	op := "transaction.create"
	if tb.existingID != "" {
		op = "transaction.update"
	}
	start := time.Now()
	defer func() { tb.budget.client.obs.observe(op, start, err) }()

	body := map[string]any{"transaction": tb.payload}
	budgetID := tb.budget.ID.String()

	var payload []byte
	if tb.existingID == "" {
		payload, err = tb.budget.client.api.Post(ctx, transport.TransactionsPath(budgetID), body)
	} else {
		payload, err = tb.budget.client.api.Put(ctx, transport.TransactionPath(budgetID, tb.existingID), body)
	}
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Transaction *Transaction `json:"transaction"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	tb.budget.invalidateAfterMutation()
	envelope.Transaction.budget = tb.budget
	return envelope.Transaction, nil
}

// DeleteTransaction removes a transaction. The server echoes the deleted
// row, returned here with Deleted set.
func (b *Budget) DeleteTransaction(ctx context.Context, transactionID string) (_ *Transaction, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("transaction.delete", start, err) }()

	payload, err := b.client.api.Delete(ctx, transport.TransactionPath(b.ID.String(), transactionID))
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Transaction *Transaction `json:"transaction"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	b.invalidateAfterMutation()
	envelope.Transaction.budget = b
	return envelope.Transaction, nil
}

// decodeTransactionList decodes an entity-scoped transactions response
// into a collection bound to this budget.
func (b *Budget) decodeTransactionList(payload []byte) (Collection[*Transaction], error) {
	var envelope struct {
		Transactions []*Transaction `json:"transactions"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	out := make(Collection[*Transaction], len(envelope.Transactions))
	for _, t := range envelope.Transactions {
		t.budget = b
		out[t.ID] = t
	}
	return out, nil
}
