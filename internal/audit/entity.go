package audit

import "github.com/google/uuid"

// EntityRef names an auditable entity. The set is closed: only the aggregate
// types below carry last-action columns, and the unexported method keeps
// callers from inventing new ones ad hoc.
type EntityRef interface {
	EntityID() uuid.UUID
	entityType() string
	tableName() string
}

// OrderRef points at an order aggregate.
type OrderRef struct {
	ID uuid.UUID
}

func (r OrderRef) EntityID() uuid.UUID { return r.ID }
func (r OrderRef) entityType() string  { return "order" }
func (r OrderRef) tableName() string   { return "orders" }

// ProductRef points at a product aggregate.
type ProductRef struct {
	ID uuid.UUID
}

func (r ProductRef) EntityID() uuid.UUID { return r.ID }
func (r ProductRef) entityType() string  { return "product" }
func (r ProductRef) tableName() string   { return "products" }

// PurchaseRef points at a purchase aggregate.
type PurchaseRef struct {
	ID uuid.UUID
}

func (r PurchaseRef) EntityID() uuid.UUID { return r.ID }
func (r PurchaseRef) entityType() string  { return "purchase" }
func (r PurchaseRef) tableName() string   { return "purchases" }

// ExpenseRef points at an expense entry.
type ExpenseRef struct {
	ID uuid.UUID
}

func (r ExpenseRef) EntityID() uuid.UUID { return r.ID }
func (r ExpenseRef) entityType() string  { return "expense" }
func (r ExpenseRef) tableName() string   { return "expenses" }
