package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

// AllocationInput is one client-declared draw against a batch, in units.
type AllocationInput struct {
	BatchNumber string `json:"batch_number" validate:"required"`
	Allocated   int    `json:"allocated" validate:"required,min=1"`
}

// OrderLineInput is one logical product line. It carries either a single
// batch draw (batch_number + quantities + subtotal) or an allocations list
// that the engine flattens into one item per batch.
type OrderLineInput struct {
	ProductID    uuid.UUID         `json:"product_id" validate:"required"`
	PackPrice    decimal.Decimal   `json:"pack_price"`
	UnitPrice    decimal.Decimal   `json:"unit_price"`
	BatchNumber  string            `json:"batch_number,omitempty"`
	PackQuantity int               `json:"pack_quantity" validate:"min=0"`
	UnitQuantity int               `json:"unit_quantity" validate:"min=0"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Allocations  []AllocationInput `json:"allocations,omitempty" validate:"dive"`
}

// CreateOrderInput is the full sale request.
type CreateOrderInput struct {
	Customer      *types.CustomerDetails `json:"customer_details,omitempty"`
	Items         []OrderLineInput       `json:"items" validate:"required,min=1,dive"`
	TotalAmount   decimal.Decimal        `json:"total_amount"`
	AmountPaid    decimal.Decimal        `json:"amount_paid"`
	PaymentMethod enums.PaymentMethod    `json:"payment_method" validate:"required"`
}

// UpdateOrderInput carries the only fields an order mutation may touch.
// Item lists are immutable after creation.
type UpdateOrderInput struct {
	PaymentStatus *enums.PaymentStatus `json:"payment_status,omitempty"`
	AmountPaid    *decimal.Decimal     `json:"amount_paid,omitempty"`
	Balance       *decimal.Decimal     `json:"balance,omitempty"`
}

// ProductSummary is the display-friendly reference resolved on reads.
type ProductSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	UnitsInPack int       `json:"units_in_pack"`
}

// OrderDetails pairs an order with the product summaries its items reference.
type OrderDetails struct {
	Order    models.Order                 `json:"order"`
	Products map[uuid.UUID]ProductSummary `json:"products"`
}
