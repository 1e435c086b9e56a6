package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseItemInput is one supplier intake line. Quantity is in packs; the
// batch it appends stores units.
type PurchaseItemInput struct {
	ProductID         uuid.UUID       `json:"product_id" validate:"required"`
	Category          string          `json:"category,omitempty"`
	BatchNumber       string          `json:"batch_number,omitempty"`
	Quantity          int             `json:"quantity" validate:"required,min=1"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	PackPurchasePrice decimal.Decimal `json:"pack_purchase_price"`
	UnitPurchasePrice decimal.Decimal `json:"unit_purchase_price"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	// Optional catalog price refresh shipped with the intake.
	NewStandardPackPrice *decimal.Decimal `json:"new_standard_pack_price,omitempty"`
	NewStandardUnitPrice *decimal.Decimal `json:"new_standard_unit_price,omitempty"`
}

// CreatePurchaseInput is the full intake document.
type CreatePurchaseInput struct {
	PurchaseDate time.Time           `json:"purchase_date" validate:"required"`
	SupplierID   uuid.UUID           `json:"supplier_id" validate:"required"`
	Items        []PurchaseItemInput `json:"products" validate:"required,min=1,dive"`
}
