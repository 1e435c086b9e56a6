package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

// Purchase is a supplier intake document. Each item corresponds 1:1 with a
// batch appended to the referenced product at creation time; editing or
// deleting the purchase removes those batches by batch number.
type Purchase struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PurchaseDate time.Time        `gorm:"column:purchase_date;not null" json:"purchase_date"`
	SupplierID   uuid.UUID        `gorm:"column:supplier_id;type:uuid;not null" json:"supplier_id"`
	CreatedBy    uuid.UUID        `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	Items        []PurchaseItem   `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"products"`
	LastAction   types.LastAction `gorm:"embedded" json:"last_action"`
	DeletedAt    *time.Time       `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
