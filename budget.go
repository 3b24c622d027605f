package ynab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"

	"github.com/ledgerline/ynab/internal/respcache"
	"github.com/ledgerline/ynab/internal/transport"
)

// Budget is the root of the resource graph. Every collection it owns is
// fetched lazily on first access and memoized until Invalidate drops the
// memos. A Budget and everything reachable from it belong to a single
// caller at a time; share the Client, not the Budget.
type Budget struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	LastModifiedOn time.Time       `json:"last_modified_on"`
	FirstMonth     types.Date      `json:"first_month"`
	LastMonth      types.Date      `json:"last_month"`
	DateFormat     *DateFormat     `json:"date_format"`
	CurrencyFormat *CurrencyFormat `json:"currency_format"`

	client *Client

	accounts       Collection[*Account]
	categoryGroups Collection[*CategoryGroup]
	categories     Collection[*Category]
	payees         Collection[*Payee]
	payeeLocations Collection[*PayeeLocation]
	months         Collection[*Month]
	transactions   Collection[*Transaction]
	scheduled      Collection[*ScheduledTransaction]
	settings       *BudgetSettings
}

// BudgetSettings holds the budget's display formats.
type BudgetSettings struct {
	DateFormat     *DateFormat     `json:"date_format"`
	CurrencyFormat *CurrencyFormat `json:"currency_format"`
}

// parseBudget decodes a budget summary. Listings requested with
// IncludeAccounts embed the accounts array, which seeds that memo up front.
func (c *Client) parseBudget(raw json.RawMessage) (*Budget, error) {
	b := &Budget{client: c}
	if err := decode(raw, b); err != nil {
		return nil, err
	}
	var embedded struct {
		Accounts []*Account `json:"accounts"`
	}
	if err := json.Unmarshal(raw, &embedded); err == nil && embedded.Accounts != nil {
		b.setAccounts(embedded.Accounts)
	}
	return b, nil
}

// populateDetail seeds every memo from a full budget export. Child rows
// arrive as flat arrays, so subtransactions are reattached to their parents
// here.
func (b *Budget) populateDetail(raw json.RawMessage) error {
	var detail struct {
		Accounts                 []*Account                 `json:"accounts"`
		Payees                   []*Payee                   `json:"payees"`
		PayeeLocations           []*PayeeLocation           `json:"payee_locations"`
		CategoryGroups           []*CategoryGroup           `json:"category_groups"`
		Categories               []*Category                `json:"categories"`
		Months                   []*Month                   `json:"months"`
		Transactions             []*Transaction             `json:"transactions"`
		Subtransactions          []*Subtransaction          `json:"subtransactions"`
		ScheduledTransactions    []*ScheduledTransaction    `json:"scheduled_transactions"`
		ScheduledSubtransactions []*ScheduledSubtransaction `json:"scheduled_subtransactions"`
	}
	if err := decode(raw, &detail); err != nil {
		return err
	}

	if detail.Accounts != nil {
		b.setAccounts(detail.Accounts)
	}
	if detail.Payees != nil {
		b.setPayees(detail.Payees)
	}
	if detail.PayeeLocations != nil {
		b.setPayeeLocations(detail.PayeeLocations)
	}
	if detail.CategoryGroups != nil {
		b.setCategoryGroups(detail.CategoryGroups)
	}
	if detail.Categories != nil {
		b.setCategories(detail.Categories)
	}
	if detail.Months != nil {
		b.setMonths(detail.Months)
	}
	if detail.Transactions != nil {
		for _, sub := range detail.Subtransactions {
			if parent, ok := lookup(detail.Transactions, sub.TransactionID); ok {
				parent.Subtransactions = append(parent.Subtransactions, sub)
			}
		}
		b.setTransactions(detail.Transactions)
	}
	if detail.ScheduledTransactions != nil {
		for _, sub := range detail.ScheduledSubtransactions {
			if parent, ok := lookup(detail.ScheduledTransactions, sub.ScheduledTransactionID.String()); ok {
				parent.Subtransactions = append(parent.Subtransactions, sub)
			}
		}
		b.setScheduledTransactions(detail.ScheduledTransactions)
	}
	return nil
}

// lookup finds an element with a matching id in a freshly decoded slice.
func lookup[E interface{ id() string }](items []E, target string) (E, bool) {
	for _, item := range items {
		if item.id() == target {
			return item, true
		}
	}
	var zero E
	return zero, false
}

// Accounts returns the budget's accounts, fetching them on first access.
func (b *Budget) Accounts(ctx context.Context) (_ Collection[*Account], err error) {
	if b.accounts != nil {
		return b.accounts, nil
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.accounts", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.AccountsPath(b.ID.String()), b.client.knowledgeQuery("get_accounts"))
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Accounts        []*Account `json:"accounts"`
		ServerKnowledge int64      `json:"server_knowledge"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	b.client.recordKnowledge("get_accounts", envelope.ServerKnowledge)
	b.setAccounts(envelope.Accounts)
	return b.accounts, nil
}

// Account fetches a single account by id, serving it from the memoized
// collection when that has already been resolved.
func (b *Budget) Account(ctx context.Context, accountID uuid.UUID) (_ *Account, err error) {
	if b.accounts != nil {
		if a, ok := b.accounts[accountID.String()]; ok {
			return a, nil
		}
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, accountID)
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.account", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.AccountPath(b.ID.String(), accountID.String()), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Account *Account `json:"account"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	envelope.Account.budget = b
	return envelope.Account, nil
}

// CategoryGroups returns the budget's category groups with their nested
// categories. One fetch resolves both this memo and Categories.
func (b *Budget) CategoryGroups(ctx context.Context) (Collection[*CategoryGroup], error) {
	if b.categoryGroups != nil {
		return b.categoryGroups, nil
	}
	if err := b.fetchCategories(ctx); err != nil {
		return nil, err
	}
	return b.categoryGroups, nil
}

// Categories returns every category across all groups, keyed by id.
func (b *Budget) Categories(ctx context.Context) (Collection[*Category], error) {
	if b.categories != nil {
		return b.categories, nil
	}
	if err := b.fetchCategories(ctx); err != nil {
		return nil, err
	}
	return b.categories, nil
}

func (b *Budget) fetchCategories(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("budget.categories", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.CategoriesPath(b.ID.String()), b.client.knowledgeQuery("get_categories"))
	if err != nil {
		return err
	}
	var envelope struct {
		CategoryGroups  []*CategoryGroup `json:"category_groups"`
		ServerKnowledge int64            `json:"server_knowledge"`
	}
	if err := decode(payload, &envelope); err != nil {
		return err
	}
	b.client.recordKnowledge("get_categories", envelope.ServerKnowledge)
	b.setCategoryGroups(envelope.CategoryGroups)

	flat := make([]*Category, 0, len(envelope.CategoryGroups))
	for _, group := range envelope.CategoryGroups {
		flat = append(flat, group.Categories...)
	}
	b.setCategories(flat)
	return nil
}

// Category fetches a single category by id.
func (b *Budget) Category(ctx context.Context, categoryID uuid.UUID) (_ *Category, err error) {
	if b.categories != nil {
		if cat, ok := b.categories[categoryID.String()]; ok {
			return cat, nil
		}
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.category", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.CategoryPath(b.ID.String(), categoryID.String()), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Category *Category `json:"category"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	envelope.Category.budget = b
	return envelope.Category, nil
}

// Payees returns the budget's payees, fetching them on first access.
func (b *Budget) Payees(ctx context.Context) (_ Collection[*Payee], err error) {
	if b.payees != nil {
		return b.payees, nil
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.payees", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.PayeesPath(b.ID.String()), b.client.knowledgeQuery("get_payees"))
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Payees          []*Payee `json:"payees"`
		ServerKnowledge int64    `json:"server_knowledge"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	b.client.recordKnowledge("get_payees", envelope.ServerKnowledge)
	b.setPayees(envelope.Payees)
	return b.payees, nil
}

// Payee fetches a single payee by id.
func (b *Budget) Payee(ctx context.Context, payeeID uuid.UUID) (_ *Payee, err error) {
	if b.payees != nil {
		if p, ok := b.payees[payeeID.String()]; ok {
			return p, nil
		}
		return nil, fmt.Errorf("%w: payee %s", ErrNotFound, payeeID)
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.payee", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.PayeePath(b.ID.String(), payeeID.String()), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Payee *Payee `json:"payee"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	envelope.Payee.budget = b
	return envelope.Payee, nil
}

// PayeeLocations returns the budget's payee locations.
func (b *Budget) PayeeLocations(ctx context.Context) (_ Collection[*PayeeLocation], err error) {
	if b.payeeLocations != nil {
		return b.payeeLocations, nil
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.payee_locations", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.PayeeLocationsPath(b.ID.String()), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		PayeeLocations []*PayeeLocation `json:"payee_locations"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	b.setPayeeLocations(envelope.PayeeLocations)
	return b.payeeLocations, nil
}

// Months returns the budget's month summaries, keyed by ISO month date
// ("2024-03-01"). Summaries carry totals only; Month.Categories resolves
// the per-month category rows.
func (b *Budget) Months(ctx context.Context) (_ Collection[*Month], err error) {
	if b.months != nil {
		return b.months, nil
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.months", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.MonthsPath(b.ID.String()), b.client.knowledgeQuery("get_months"))
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Months          []*Month `json:"months"`
		ServerKnowledge int64    `json:"server_knowledge"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	b.client.recordKnowledge("get_months", envelope.ServerKnowledge)
	b.setMonths(envelope.Months)
	return b.months, nil
}

// Month fetches a single budget month. The month argument takes the ISO
// date of the month's first day, or "current".
func (b *Budget) Month(ctx context.Context, month string) (_ *Month, err error) {
	if b.months != nil && month != "current" {
		if m, ok := b.months[month]; ok {
			return m, nil
		}
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.month", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.MonthPath(b.ID.String(), month), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Month *Month `json:"month"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	m := envelope.Month
	m.budget = b
	m.attachCategories()
	return m, nil
}

// Transactions returns the budget's transactions, fetching them on first
// access.
func (b *Budget) Transactions(ctx context.Context) (_ Collection[*Transaction], err error) {
	if b.transactions != nil {
		return b.transactions, nil
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.transactions", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.TransactionsPath(b.ID.String()), b.client.knowledgeQuery("get_transactions"))
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Transactions    []*Transaction `json:"transactions"`
		ServerKnowledge int64          `json:"server_knowledge"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	b.client.recordKnowledge("get_transactions", envelope.ServerKnowledge)
	b.setTransactions(envelope.Transactions)
	return b.transactions, nil
}

// Transaction fetches a single transaction by id.
func (b *Budget) Transaction(ctx context.Context, transactionID string) (_ *Transaction, err error) {
	if b.transactions != nil {
		if t, ok := b.transactions[transactionID]; ok {
			return t, nil
		}
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.transaction", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.TransactionPath(b.ID.String(), transactionID), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Transaction *Transaction `json:"transaction"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	envelope.Transaction.budget = b
	return envelope.Transaction, nil
}

// ScheduledTransactions returns the budget's scheduled transactions.
func (b *Budget) ScheduledTransactions(ctx context.Context) (_ Collection[*ScheduledTransaction], err error) {
	if b.scheduled != nil {
		return b.scheduled, nil
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.scheduled_transactions", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.ScheduledTransactionsPath(b.ID.String()), b.client.knowledgeQuery("get_scheduled_transactions"))
	if err != nil {
		return nil, err
	}
	var envelope struct {
		ScheduledTransactions []*ScheduledTransaction `json:"scheduled_transactions"`
		ServerKnowledge       int64                   `json:"server_knowledge"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	b.client.recordKnowledge("get_scheduled_transactions", envelope.ServerKnowledge)
	b.setScheduledTransactions(envelope.ScheduledTransactions)
	return b.scheduled, nil
}

// ScheduledTransaction fetches a single scheduled transaction by id.
func (b *Budget) ScheduledTransaction(ctx context.Context, scheduledID uuid.UUID) (_ *ScheduledTransaction, err error) {
	if b.scheduled != nil {
		if s, ok := b.scheduled[scheduledID.String()]; ok {
			return s, nil
		}
		return nil, fmt.Errorf("%w: scheduled transaction %s", ErrNotFound, scheduledID)
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.scheduled_transaction", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.ScheduledTransactionPath(b.ID.String(), scheduledID.String()), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		ScheduledTransaction *ScheduledTransaction `json:"scheduled_transaction"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	envelope.ScheduledTransaction.budget = b
	return envelope.ScheduledTransaction, nil
}

// accountByID resolves an id against the accounts collection, fetching it
// first if needed. Foreign-key back-references resolve through here, so a
// given id always yields the same object while the memo lives.
func (b *Budget) accountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	accounts, err := b.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := accounts[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, id)
	}
	return a, nil
}

func (b *Budget) payeeByID(ctx context.Context, id uuid.UUID) (*Payee, error) {
	payees, err := b.Payees(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := payees[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: payee %s", ErrNotFound, id)
	}
	return p, nil
}

func (b *Budget) categoryByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	categories, err := b.Categories(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := categories[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	return c, nil
}

// Settings returns the budget's display settings, fetching once.
func (b *Budget) Settings(ctx context.Context) (_ *BudgetSettings, err error) {
	if b.settings != nil {
		return b.settings, nil
	}
	start := time.Now()
	defer func() { b.client.obs.observe("budget.settings", start, err) }()

	payload, err := b.client.api.Get(ctx, transport.BudgetSettingsPath(b.ID.String()), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Settings *BudgetSettings `json:"settings"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	b.settings = envelope.Settings
	return b.settings, nil
}

// Invalidate drops every memoized collection and this budget's cached
// responses. The next access of each relation fetches fresh data.
func (b *Budget) Invalidate() {
	b.dropEntityMemos()
	b.accounts = nil
	b.categoryGroups = nil
	b.categories = nil
	b.payees = nil
	b.payeeLocations = nil
	b.months = nil
	b.transactions = nil
	b.scheduled = nil
	b.settings = nil
	if b.client.cache != nil {
		b.client.cache.DeletePrefix(respcache.Key(http.MethodGet, transport.BudgetPath(b.ID.String()), nil))
	}
}

// invalidateAfterMutation drops the memos a transaction or account write
// makes stale. Balances, activity and month rollups all shift, so only the
// static collections survive.
func (b *Budget) invalidateAfterMutation() {
	b.dropEntityMemos()
	b.accounts = nil
	b.categoryGroups = nil
	b.categories = nil
	b.payees = nil
	b.months = nil
	b.transactions = nil
	b.scheduled = nil
}

// dropEntityMemos clears the per-entity transaction memos. Entities the
// caller still holds would otherwise keep serving stale lists after their
// parent collection is dropped.
func (b *Budget) dropEntityMemos() {
	for _, a := range b.accounts {
		a.transactions = nil
	}
	for _, c := range b.categories {
		c.transactions = nil
	}
	for _, p := range b.payees {
		p.transactions = nil
	}
	for _, m := range b.months {
		m.transactions = nil
		m.categories = nil
	}
}

func (b *Budget) setAccounts(items []*Account) {
	b.accounts = make(Collection[*Account], len(items))
	for _, a := range items {
		a.budget = b
		b.accounts[a.ID.String()] = a
	}
}

func (b *Budget) setPayees(items []*Payee) {
	b.payees = make(Collection[*Payee], len(items))
	for _, p := range items {
		p.budget = b
		b.payees[p.ID.String()] = p
	}
}

func (b *Budget) setPayeeLocations(items []*PayeeLocation) {
	b.payeeLocations = make(Collection[*PayeeLocation], len(items))
	for _, pl := range items {
		pl.budget = b
		b.payeeLocations[pl.ID.String()] = pl
	}
}

func (b *Budget) setCategoryGroups(items []*CategoryGroup) {
	b.categoryGroups = make(Collection[*CategoryGroup], len(items))
	for _, g := range items {
		g.budget = b
		for _, cat := range g.Categories {
			cat.budget = b
		}
		b.categoryGroups[g.ID.String()] = g
	}
}

func (b *Budget) setCategories(items []*Category) {
	b.categories = make(Collection[*Category], len(items))
	for _, cat := range items {
		cat.budget = b
		b.categories[cat.ID.String()] = cat
	}
}

func (b *Budget) setMonths(items []*Month) {
	b.months = make(Collection[*Month], len(items))
	for _, m := range items {
		m.budget = b
		m.attachCategories()
		b.months[m.key()] = m
	}
}

func (b *Budget) setTransactions(items []*Transaction) {
	b.transactions = make(Collection[*Transaction], len(items))
	for _, t := range items {
		t.budget = b
		b.transactions[t.ID] = t
	}
}

func (b *Budget) setScheduledTransactions(items []*ScheduledTransaction) {
	b.scheduled = make(Collection[*ScheduledTransaction], len(items))
	for _, s := range items {
		s.budget = b
		b.scheduled[s.ID.String()] = s
	}
}
