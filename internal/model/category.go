package model

import "time"

// CategoryType indicates whether a category is for income or expense entries.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income entries.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense entries.
	CategoryTypeExpense CategoryType = "expense"
)

// Category groups ledger entries for reporting.
type Category struct {
	CreatedAt time.Time
	ID        string
	Owner     string
	Name      string
	Type      CategoryType
}
