package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

// Product is the canonical catalog entry. Stock lives in the owned batch
// rows; batch quantities are always expressed in units, never packs.
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name              string           `gorm:"column:name;not null" json:"name"`
	Category          string           `gorm:"column:category;not null" json:"category"`
	BarcodeOrSKU      *string          `gorm:"column:barcode_or_sku;uniqueIndex:idx_products_barcode,where:barcode_or_sku IS NOT NULL" json:"barcode_or_sku,omitempty"`
	UnitsInPack       int              `gorm:"column:units_in_pack;not null;default:1" json:"units_in_pack"`
	StandardPackPrice decimal.Decimal  `gorm:"column:standard_pack_price;type:numeric(12,2);not null;default:0" json:"standard_pack_price"`
	StandardUnitPrice decimal.Decimal  `gorm:"column:standard_unit_price;type:numeric(12,2);not null;default:0" json:"standard_unit_price"`
	Tags              pq.StringArray   `gorm:"column:tags;type:text[]" json:"tags,omitempty"`
	Description       *string          `gorm:"column:description" json:"description,omitempty"`
	Batches           []ProductBatch   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"batches"`
	LastAction        types.LastAction `gorm:"embedded" json:"last_action"`
	DeletedAt         *time.Time       `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
