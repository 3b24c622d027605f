package ynab

import "github.com/google/uuid"

// AccountType distinguishes account kinds.
type AccountType string

// Account type constants.
const (
	AccountTypeChecking       AccountType = "checking"
	AccountTypeSavings        AccountType = "savings"
	AccountTypeCash           AccountType = "cash"
	AccountTypeCreditCard     AccountType = "creditCard"
	AccountTypeLineOfCredit   AccountType = "lineOfCredit"
	AccountTypeOtherAsset     AccountType = "otherAsset"
	AccountTypeOtherLiability AccountType = "otherLiability"
	AccountTypeMortgage       AccountType = "mortgage"
	AccountTypeAutoLoan       AccountType = "autoLoan"
	AccountTypeStudentLoan    AccountType = "studentLoan"
	AccountTypePersonalLoan   AccountType = "personalLoan"
	AccountTypeMedicalDebt    AccountType = "medicalDebt"
	AccountTypeOtherDebt      AccountType = "otherDebt"
)

// ClearedStatus is a transaction's cleared state.
type ClearedStatus string

// Cleared status constants.
const (
	ClearedCleared    ClearedStatus = "cleared"
	ClearedUncleared  ClearedStatus = "uncleared"
	ClearedReconciled ClearedStatus = "reconciled"
)

// FlagColor is a transaction flag.
type FlagColor string

// Flag color constants.
const (
	FlagRed    FlagColor = "red"
	FlagOrange FlagColor = "orange"
	FlagYellow FlagColor = "yellow"
	FlagGreen  FlagColor = "green"
	FlagBlue   FlagColor = "blue"
	FlagPurple FlagColor = "purple"
)

// GoalType is a category's goal kind.
type GoalType string

// Goal type constants.
const (
	GoalTargetBalance       GoalType = "TB"
	GoalTargetBalanceByDate GoalType = "TBD"
	GoalMonthlyFunding      GoalType = "MF"
	GoalPlanSpending        GoalType = "NEED"
	GoalDebt                GoalType = "DEBT"
)

// Frequency is a scheduled transaction's repeat interval.
type Frequency string

// Frequency constants.
const (
	FrequencyNever           Frequency = "never"
	FrequencyDaily           Frequency = "daily"
	FrequencyWeekly          Frequency = "weekly"
	FrequencyEveryOtherWeek  Frequency = "everyOtherWeek"
	FrequencyTwiceAMonth     Frequency = "twiceAMonth"
	FrequencyEvery4Weeks     Frequency = "every4Weeks"
	FrequencyMonthly         Frequency = "monthly"
	FrequencyEveryOtherMonth Frequency = "everyOtherMonth"
	FrequencyEvery3Months    Frequency = "every3Months"
	FrequencyEvery4Months    Frequency = "every4Months"
	FrequencyTwiceAYear      Frequency = "twiceAYear"
	FrequencyYearly          Frequency = "yearly"
	FrequencyEveryOtherYear  Frequency = "everyOtherYear"
)

// DebtTransactionType classifies transactions on debt accounts.
type DebtTransactionType string

// Debt transaction type constants.
const (
	DebtPayment           DebtTransactionType = "payment"
	DebtRefund            DebtTransactionType = "refund"
	DebtFee               DebtTransactionType = "fee"
	DebtInterest          DebtTransactionType = "interest"
	DebtEscrow            DebtTransactionType = "escrow"
	DebtBalanceAdjustment DebtTransactionType = "balanceAdjustment"
	DebtCredit            DebtTransactionType = "credit"
	DebtCharge            DebtTransactionType = "charge"
)

// DateFormat is a budget's date display format.
type DateFormat struct {
	Format string `json:"format"`
}

// CurrencyFormat is a budget's currency display format.
type CurrencyFormat struct {
	ISOCode          string `json:"iso_code"`
	ExampleFormat    string `json:"example_format"`
	DecimalDigits    int    `json:"decimal_digits"`
	DecimalSeparator string `json:"decimal_separator"`
	SymbolFirst      bool   `json:"symbol_first"`
	GroupSeparator   string `json:"group_separator"`
	CurrencySymbol   string `json:"currency_symbol"`
	DisplaySymbol    bool   `json:"display_symbol"`
}

// User identifies the authenticated account holder.
type User struct {
	ID uuid.UUID `json:"id"`
}
