package transport

import "fmt"

// Endpoint path builders for the YNAB v1 REST catalog. Paths are relative
// to the client's base URL; query parameters are passed separately so the
// cache fingerprint stays deterministic.

func UserPath() string    { return "/user" }
func BudgetsPath() string { return "/budgets" }

func BudgetPath(budgetID string) string {
	return fmt.Sprintf("/budgets/%s", budgetID)
}

func BudgetSettingsPath(budgetID string) string {
	return fmt.Sprintf("/budgets/%s/settings", budgetID)
}

func AccountsPath(budgetID string) string {
	return fmt.Sprintf("/budgets/%s/accounts", budgetID)
}

func AccountPath(budgetID, accountID string) string {
	return fmt.Sprintf("/budgets/%s/accounts/%s", budgetID, accountID)
}

func CategoriesPath(budgetID string) string {
	return fmt.Sprintf("/budgets/%s/categories", budgetID)
}

func CategoryPath(budgetID, categoryID string) string {
	return fmt.Sprintf("/budgets/%s/categories/%s", budgetID, categoryID)
}

func PayeesPath(budgetID string) string {
	return fmt.Sprintf("/budgets/%s/payees", budgetID)
}

func PayeePath(budgetID, payeeID string) string {
	return fmt.Sprintf("/budgets/%s/payees/%s", budgetID, payeeID)
}

func PayeeLocationsPath(budgetID string) string {
	return fmt.Sprintf("/budgets/%s/payee_locations", budgetID)
}

func MonthsPath(budgetID string) string {
	return fmt.Sprintf("/budgets/%s/months", budgetID)
}

func MonthPath(budgetID, month string) string {
	return fmt.Sprintf("/budgets/%s/months/%s", budgetID, month)
}

func TransactionsPath(budgetID string) string {
	return fmt.Sprintf("/budgets/%s/transactions", budgetID)
}

func TransactionPath(budgetID, transactionID string) string {
	return fmt.Sprintf("/budgets/%s/transactions/%s", budgetID, transactionID)
}

func AccountTransactionsPath(budgetID, accountID string) string {
	return fmt.Sprintf("/budgets/%s/accounts/%s/transactions", budgetID, accountID)
}

func CategoryTransactionsPath(budgetID, categoryID string) string {
	return fmt.Sprintf("/budgets/%s/categories/%s/transactions", budgetID, categoryID)
}

func PayeeTransactionsPath(budgetID, payeeID string) string {
	return fmt.Sprintf("/budgets/%s/payees/%s/transactions", budgetID, payeeID)
}

func MonthCategoryPath(budgetID, month, categoryID string) string {
	return fmt.Sprintf("/budgets/%s/months/%s/categories/%s", budgetID, month, categoryID)
}

func MonthTransactionsPath(budgetID, month string) string {
	return fmt.Sprintf("/budgets/%s/months/%s/transactions", budgetID, month)
}

func ScheduledTransactionsPath(budgetID string) string {
	return fmt.Sprintf("/budgets/%s/scheduled_transactions", budgetID)
}

func ScheduledTransactionPath(budgetID, scheduledID string) string {
	return fmt.Sprintf("/budgets/%s/scheduled_transactions/%s", budgetID, scheduledID)
}
