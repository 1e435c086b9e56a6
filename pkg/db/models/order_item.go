package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem draws from exactly one batch. A logical line auto-split across
// batches is stored as multiple sibling items referencing the same product.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	BatchNumber  string          `gorm:"column:batch_number;not null" json:"batch_number"`
	PackQuantity int             `gorm:"column:pack_quantity;not null;default:0" json:"pack_quantity"`
	UnitQuantity int             `gorm:"column:unit_quantity;not null;default:0" json:"unit_quantity"`
	PackPrice    decimal.Decimal `gorm:"column:pack_price;type:numeric(12,2);not null" json:"pack_price"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
