package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductInput captures a catalog entry plus optional opening stock.
type CreateProductInput struct {
	Name              string          `json:"name" validate:"required"`
	Category          string          `json:"category" validate:"required"`
	BarcodeOrSKU      *string         `json:"barcode_or_sku,omitempty"`
	UnitsInPack       int             `json:"units_in_pack" validate:"omitempty,min=1"`
	StandardPackPrice decimal.Decimal `json:"standard_pack_price"`
	StandardUnitPrice decimal.Decimal `json:"standard_unit_price"`
	Tags              []string        `json:"tags,omitempty"`
	Description       *string         `json:"description,omitempty"`
	OpeningBatches    []AddBatchInput `json:"opening_batches,omitempty" validate:"dive"`
}

// AddBatchInput appends one lot to a product's ledger. Quantity arrives in
// packs and is converted to units against the product's units_in_pack.
type AddBatchInput struct {
	BatchNumber       string          `json:"batch_number,omitempty"`
	QuantityInPacks   int             `json:"quantity" validate:"required,min=1"`
	PackPurchasePrice decimal.Decimal `json:"pack_purchase_price"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
}
