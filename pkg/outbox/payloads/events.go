package payloads

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	"github.com/angelmondragon/shopledger-backend/pkg/outbox"
)

// Payload versions; bump when a structure changes shape.
const (
	OrderCreatedVersion        = 1
	OrderDeletedVersion        = 1
	DebtPaymentRecordedVersion = 1
	PurchaseCreatedVersion     = 1
	PurchaseRevertedVersion    = 1
)

// OrderLine is the per-line slice of an order payload.
type OrderLine struct {
	ProductID    uuid.UUID       `json:"productId"`
	BatchNumber  string          `json:"batchNumber"`
	PackQuantity int             `json:"packQuantity"`
	UnitQuantity int             `json:"unitQuantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// OrderCreated is published after a sale commits with its stock deductions.
type OrderCreated struct {
	OrderID       uuid.UUID           `json:"orderId"`
	CustomerName  string              `json:"customerName"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	AmountPaid    decimal.Decimal     `json:"amountPaid"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Lines         []OrderLine         `json:"lines"`
}

// OrderDeleted is published when a sale is removed from the books.
type OrderDeleted struct {
	OrderID uuid.UUID `json:"orderId"`
	Reason  string    `json:"reason,omitempty"`
}

// DebtPaymentRecorded is published after an incremental payment applies.
type DebtPaymentRecorded struct {
	OrderID       uuid.UUID           `json:"orderId"`
	Amount        decimal.Decimal     `json:"amount"`
	Method        enums.PaymentMethod `json:"method"`
	AmountPaid    decimal.Decimal     `json:"amountPaid"`
	Balance       decimal.Decimal     `json:"balance"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
}

// PurchaseLine is the per-line slice of a purchase payload.
type PurchaseLine struct {
	ProductID   uuid.UUID  `json:"productId"`
	BatchNumber string     `json:"batchNumber"`
	Quantity    int        `json:"quantity"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
}

// PurchaseCreated is published after supplier stock intake commits.
type PurchaseCreated struct {
	PurchaseID   uuid.UUID      `json:"purchaseId"`
	SupplierID   *uuid.UUID     `json:"supplierId,omitempty"`
	PurchaseDate time.Time      `json:"purchaseDate"`
	Lines        []PurchaseLine `json:"lines"`
}

// PurchaseReverted is published when an update or delete rolls prior intake
// back out of the batch ledger.
type PurchaseReverted struct {
	PurchaseID uuid.UUID      `json:"purchaseId"`
	Lines      []PurchaseLine `json:"lines"`
}

// RegisterAll wires every known payload decoder into the registry.
func RegisterAll(reg *outbox.DecoderRegistry) {
	reg.Register(enums.EventOrderCreated, OrderCreatedVersion, func(raw json.RawMessage) (interface{}, error) {
		var p OrderCreated
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	})
	reg.Register(enums.EventOrderDeleted, OrderDeletedVersion, func(raw json.RawMessage) (interface{}, error) {
		var p OrderDeleted
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	})
	reg.Register(enums.EventDebtPaymentRecorded, DebtPaymentRecordedVersion, func(raw json.RawMessage) (interface{}, error) {
		var p DebtPaymentRecorded
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	})
	reg.Register(enums.EventPurchaseCreated, PurchaseCreatedVersion, func(raw json.RawMessage) (interface{}, error) {
		var p PurchaseCreated
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	})
	reg.Register(enums.EventPurchaseReverted, PurchaseRevertedVersion, func(raw json.RawMessage) (interface{}, error) {
		var p PurchaseReverted
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	})
}
