package ynab

import (
	"context"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"
)

// ScheduledTransaction is a recurring transaction template. DateNext is
// the next occurrence the server will post.
type ScheduledTransaction struct {
	ID                uuid.UUID                  `json:"id"`
	DateFirst         types.Date                 `json:"date_first"`
	DateNext          types.Date                 `json:"date_next"`
	Frequency         Frequency                  `json:"frequency"`
	Amount            Milliunits                 `json:"amount"`
	Memo              string                     `json:"memo"`
	FlagColor         *FlagColor                 `json:"flag_color"`
	AccountID         uuid.UUID                  `json:"account_id"`
	AccountName       string                     `json:"account_name"`
	PayeeID           *uuid.UUID                 `json:"payee_id"`
	PayeeName         string                     `json:"payee_name"`
	CategoryID        *uuid.UUID                 `json:"category_id"`
	CategoryName      string                     `json:"category_name"`
	TransferAccountID *uuid.UUID                 `json:"transfer_account_id"`
	Deleted           bool                       `json:"deleted"`
	Subtransactions   []*ScheduledSubtransaction `json:"subtransactions"`

	budget *Budget
}

func (s *ScheduledTransaction) id() string { return s.ID.String() }

// Budget returns the budget this scheduled transaction belongs to.
func (s *ScheduledTransaction) Budget() *Budget { return s.budget }

// Account resolves the account the occurrences post to.
func (s *ScheduledTransaction) Account(ctx context.Context) (*Account, error) {
	return s.budget.accountByID(ctx, s.AccountID)
}

// Payee resolves the scheduled payee. The second return is false when the
// template has none.
func (s *ScheduledTransaction) Payee(ctx context.Context) (*Payee, bool, error) {
	if s.PayeeID == nil {
		return nil, false, nil
	}
	p, err := s.budget.payeeByID(ctx, *s.PayeeID)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Category resolves the scheduled category. The second return is false for
// uncategorized templates and split parents.
func (s *ScheduledTransaction) Category(ctx context.Context) (*Category, bool, error) {
	if s.CategoryID == nil {
		return nil, false, nil
	}
	c, err := s.budget.categoryByID(ctx, *s.CategoryID)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// ScheduledSubtransaction is one part of a split scheduled transaction.
type ScheduledSubtransaction struct {
	ID                     uuid.UUID  `json:"id"`
	ScheduledTransactionID uuid.UUID  `json:"scheduled_transaction_id"`
	Amount                 Milliunits `json:"amount"`
	Memo                   string     `json:"memo"`
	PayeeID                *uuid.UUID `json:"payee_id"`
	CategoryID             *uuid.UUID `json:"category_id"`
	TransferAccountID      *uuid.UUID `json:"transfer_account_id"`
	Deleted                bool       `json:"deleted"`
}
