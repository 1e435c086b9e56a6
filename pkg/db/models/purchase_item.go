package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseItem records one batch intake. Quantity here is in packs, unlike
// the batch row it produces, which stores units.
type PurchaseItem struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PurchaseID        uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null;index" json:"purchase_id"`
	ProductID         uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Category          string          `gorm:"column:category" json:"category"`
	BatchNumber       string          `gorm:"column:batch_number;not null" json:"batch_number"`
	Quantity          int             `gorm:"column:quantity;not null" json:"quantity"`
	TotalCost         decimal.Decimal `gorm:"column:total_cost;type:numeric(12,2);not null" json:"total_cost"`
	PackPurchasePrice decimal.Decimal `gorm:"column:pack_purchase_price;type:numeric(12,2);not null" json:"pack_purchase_price"`
	UnitPurchasePrice decimal.Decimal `gorm:"column:unit_purchase_price;type:numeric(12,2);not null" json:"unit_purchase_price"`
	ExpiryDate        *time.Time      `gorm:"column:expiry_date" json:"expiry_date,omitempty"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
