package ynab

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"

	"github.com/ledgerline/ynab/internal/transport"
)

// CategoryGroup bundles related categories. The Categories slice is filled
// when the group was decoded from the categories endpoint; the flattened
// per-budget view lives in Budget.Categories.
type CategoryGroup struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Hidden     bool        `json:"hidden"`
	Deleted    bool        `json:"deleted"`
	Categories []*Category `json:"categories"`

	budget *Budget
}

// Budget returns the budget this group belongs to.
func (g *CategoryGroup) Budget() *Budget { return g.budget }

// Category is a budgeting envelope with its current month amounts and goal
// tracking fields.
type Category struct {
	ID                      uuid.UUID   `json:"id"`
	CategoryGroupID         uuid.UUID   `json:"category_group_id"`
	CategoryGroupName       string      `json:"category_group_name"`
	Name                    string      `json:"name"`
	Hidden                  bool        `json:"hidden"`
	OriginalCategoryGroupID *uuid.UUID  `json:"original_category_group_id"`
	Note                    string      `json:"note"`
	Budgeted                Milliunits  `json:"budgeted"`
	Activity                Milliunits  `json:"activity"`
	Balance                 Milliunits  `json:"balance"`
	GoalType                *GoalType   `json:"goal_type"`
	GoalCreationMonth       *types.Date `json:"goal_creation_month"`
	GoalTarget              Milliunits  `json:"goal_target"`
	GoalTargetMonth         *types.Date `json:"goal_target_month"`
	GoalPercentageComplete  *int        `json:"goal_percentage_complete"`
	GoalMonthsToBudget      *int        `json:"goal_months_to_budget"`
	GoalUnderFunded         *Milliunits `json:"goal_under_funded"`
	GoalOverallFunded       *Milliunits `json:"goal_overall_funded"`
	GoalOverallLeft         *Milliunits `json:"goal_overall_left"`
	Deleted                 bool        `json:"deleted"`

	budget       *Budget
	transactions Collection[*Transaction]
}

// Budget returns the budget this category belongs to.
func (c *Category) Budget() *Budget { return c.budget }

// Group resolves the category group this category sits in.
func (c *Category) Group(ctx context.Context) (*CategoryGroup, error) {
	groups, err := c.budget.CategoryGroups(ctx)
	if err != nil {
		return nil, err
	}
	group, ok := groups[c.CategoryGroupID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: category group %s", ErrNotFound, c.CategoryGroupID)
	}
	return group, nil
}

// Transactions fetches the transactions categorized under this category,
// once. The memo drops when a mutation touches the budget.
func (c *Category) Transactions(ctx context.Context) (_ Collection[*Transaction], err error) {
	if c.transactions != nil {
		return c.transactions, nil
	}
	start := time.Now()
	defer func() { c.budget.client.obs.observe("category.transactions", start, err) }()

	payload, err := c.budget.client.api.Get(ctx, transport.CategoryTransactionsPath(c.budget.ID.String(), c.ID.String()), nil)
	if err != nil {
		return nil, err
	}
	list, err := c.budget.decodeTransactionList(payload)
	if err != nil {
		return nil, err
	}
	c.transactions = list
	return list, nil
}

// SetBudgeted assigns the budgeted amount for this category in a month.
// The month argument takes the ISO date of the month's first day, or
// "current". The server returns the updated month row.
func (c *Category) SetBudgeted(ctx context.Context, month string, budgeted Milliunits) (_ *Category, err error) {
	start := time.Now()
	defer func() { c.budget.client.obs.observe("category.set_budgeted", start, err) }()

	body := map[string]any{
		"category": map[string]any{"budgeted": budgeted},
	}
	payload, err := c.budget.client.api.Patch(ctx, transport.MonthCategoryPath(c.budget.ID.String(), month, c.ID.String()), body)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Category *Category `json:"category"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	c.budget.invalidateAfterMutation()
	envelope.Category.budget = c.budget
	return envelope.Category, nil
}
