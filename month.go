package ynab

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oapi-codegen/runtime/types"

	"github.com/ledgerline/ynab/internal/transport"
)

// Month is one calendar month of the budget. Summaries from the months
// listing carry totals only; the per-month category rows are resolved
// lazily by Categories.
type Month struct {
	Month        types.Date `json:"month"`
	Note         string     `json:"note"`
	Income       Milliunits `json:"income"`
	Budgeted     Milliunits `json:"budgeted"`
	Activity     Milliunits `json:"activity"`
	ToBeBudgeted Milliunits `json:"to_be_budgeted"`
	AgeOfMoney   *int       `json:"age_of_money"`
	Deleted      bool       `json:"deleted"`

	budget       *Budget
	categoryRows []*Category
	categories   Collection[*Category]
	transactions Collection[*Transaction]
}

// UnmarshalJSON captures the nested category rows a month detail response
// embeds, without exposing them as a public field that would shadow the
// lazy accessor.
func (m *Month) UnmarshalJSON(data []byte) error {
	type alias Month
	aux := struct {
		*alias
		Categories []*Category `json:"categories"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.categoryRows = aux.Categories
	return nil
}

// Budget returns the budget this month belongs to.
func (m *Month) Budget() *Budget { return m.budget }

// Date returns the first day of the month.
func (m *Month) Date() time.Time { return m.Month.Time }

// key is the canonical collection key, the month's ISO date.
func (m *Month) key() string { return m.Month.Time.Format("2006-01-02") }

// attachCategories promotes decoded category rows into the memo. A no-op
// for summaries, which have no rows.
func (m *Month) attachCategories() {
	if m.categoryRows == nil {
		return
	}
	m.categories = make(Collection[*Category], len(m.categoryRows))
	for _, cat := range m.categoryRows {
		cat.budget = m.budget
		m.categories[cat.ID.String()] = cat
	}
	m.categoryRows = nil
}

// Categories returns the category rows for this month, with amounts as of
// this month rather than the current one. Fetched once per month.
func (m *Month) Categories(ctx context.Context) (_ Collection[*Category], err error) {
	if m.categories != nil {
		return m.categories, nil
	}
	start := time.Now()
	defer func() { m.budget.client.obs.observe("month.categories", start, err) }()

	payload, err := m.budget.client.api.Get(ctx, transport.MonthPath(m.budget.ID.String(), m.key()), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Month *Month `json:"month"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	detail := envelope.Month
	detail.budget = m.budget
	detail.attachCategories()
	m.categories = detail.categories
	return m.categories, nil
}

// Transactions fetches the transactions dated within this month, once. The
// memo drops when a mutation touches the budget.
func (m *Month) Transactions(ctx context.Context) (_ Collection[*Transaction], err error) {
	if m.transactions != nil {
		return m.transactions, nil
	}
	start := time.Now()
	defer func() { m.budget.client.obs.observe("month.transactions", start, err) }()

	payload, err := m.budget.client.api.Get(ctx, transport.MonthTransactionsPath(m.budget.ID.String(), m.key()), nil)
	if err != nil {
		return nil, err
	}
	list, err := m.budget.decodeTransactionList(payload)
	if err != nil {
		return nil, err
	}
	m.transactions = list
	return list, nil
}
