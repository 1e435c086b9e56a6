package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

// Expense is a single operating cost entry. The invoice number is the natural
// key a duplicate submission trips over.
type Expense struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExpenseDate   time.Time             `gorm:"column:expense_date;not null" json:"expense_date"`
	Category      enums.ExpenseCategory `gorm:"column:category;type:text;not null" json:"category"`
	Amount        decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Description   string                `gorm:"column:description" json:"description,omitempty"`
	PaymentMethod enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null" json:"payment_method"`
	InvoiceNumber string                `gorm:"column:invoice_number;not null" json:"invoice_number"`
	CreatedBy     uuid.UUID             `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	LastAction    types.LastAction      `gorm:"embedded" json:"last_action"`
	DeletedAt     *time.Time            `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
