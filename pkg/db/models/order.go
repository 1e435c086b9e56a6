package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

// Order is a customer sale. The item list is immutable after creation; only
// the payment fields and last action mutate afterwards, via debt payments.
type Order struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Customer      types.CustomerDetails `gorm:"embedded" json:"customer_details"`
	CreatedBy     uuid.UUID             `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	TotalAmount   decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	AmountPaid    decimal.Decimal       `gorm:"column:amount_paid;type:numeric(12,2);not null" json:"amount_paid"`
	Balance       decimal.Decimal       `gorm:"column:balance;type:numeric(12,2);not null;default:0" json:"balance"`
	Change        decimal.Decimal       `gorm:"column:change;type:numeric(12,2);not null;default:0" json:"change"`
	PaymentMethod enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null" json:"payment_method"`
	PaymentStatus enums.PaymentStatus   `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	Items         []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	LastAction    types.LastAction      `gorm:"embedded" json:"last_action"`
	DeletedAt     *time.Time            `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
