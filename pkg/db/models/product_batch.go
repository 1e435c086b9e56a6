package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductBatch is one dated lot of a product's stock. The batch number is a
// natural key scoped to the product; the composite index keeps lookups cheap
// while uniqueness stays advisory, because purchase reversal removes every
// batch carrying the number.
type ProductBatch struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID         uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index:idx_product_batches_product_number" json:"product_id"`
	BatchNumber       string          `gorm:"column:batch_number;not null;index:idx_product_batches_product_number" json:"batch_number"`
	Quantity          int             `gorm:"column:quantity;not null;default:0" json:"quantity"`
	PackPurchasePrice decimal.Decimal `gorm:"column:pack_purchase_price;type:numeric(12,2);not null" json:"pack_purchase_price"`
	ExpiryDate        *time.Time      `gorm:"column:expiry_date" json:"expiry_date,omitempty"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
