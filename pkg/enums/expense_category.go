package enums

import "fmt"

// ExpenseCategory classifies an operating expense entry.
type ExpenseCategory string

const (
	ExpenseCategoryInventoryPurchase ExpenseCategory = "inventory_purchase"
	ExpenseCategoryUtilities         ExpenseCategory = "utilities"
	ExpenseCategoryRent              ExpenseCategory = "rent"
	ExpenseCategoryTransportation    ExpenseCategory = "transportation"
	ExpenseCategoryMaintenance       ExpenseCategory = "maintenance"
	ExpenseCategorySalaries          ExpenseCategory = "salaries"
	ExpenseCategoryMiscellaneous     ExpenseCategory = "miscellaneous"
	ExpenseCategoryOther             ExpenseCategory = "other"
)

var validExpenseCategories = []ExpenseCategory{
	ExpenseCategoryInventoryPurchase,
	ExpenseCategoryUtilities,
	ExpenseCategoryRent,
	ExpenseCategoryTransportation,
	ExpenseCategoryMaintenance,
	ExpenseCategorySalaries,
	ExpenseCategoryMiscellaneous,
	ExpenseCategoryOther,
}

// String implements fmt.Stringer.
func (c ExpenseCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ExpenseCategory.
func (c ExpenseCategory) IsValid() bool {
	for _, candidate := range validExpenseCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseExpenseCategory converts raw input into an ExpenseCategory.
func ParseExpenseCategory(value string) (ExpenseCategory, error) {
	for _, candidate := range validExpenseCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense category %q", value)
}
