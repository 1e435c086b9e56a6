package expenses

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopledger-backend/pkg/enums"
)

// ExpenseInput is the full expense document. Updates replace the document the
// same way creates record it.
type ExpenseInput struct {
	ExpenseDate   time.Time             `json:"expense_date" validate:"required"`
	Category      enums.ExpenseCategory `json:"category" validate:"required"`
	Amount        decimal.Decimal       `json:"amount"`
	Description   string                `json:"description,omitempty" validate:"max=500"`
	PaymentMethod enums.PaymentMethod   `json:"payment_method" validate:"required"`
	InvoiceNumber string                `json:"invoice_number" validate:"required"`
}
