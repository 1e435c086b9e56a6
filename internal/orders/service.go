package orders

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/internal/audit"
	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopledger-backend/pkg/errors"
	"github.com/angelmondragon/shopledger-backend/pkg/outbox"
	"github.com/angelmondragon/shopledger-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shopledger-backend/pkg/pagination"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

// moneyTolerance is the accepted drift between client-declared and computed
// amounts.
var moneyTolerance = decimal.NewFromFloat(0.01)

// Service executes the sale workflow.
type Service interface {
	Create(ctx context.Context, actor types.Actor, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDetails, error)
	List(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
	Update(ctx context.Context, actor types.Actor, id uuid.UUID, input UpdateOrderInput) (*models.Order, error)
	Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error
}

type service struct {
	tx       txRunner
	repo     Repository
	products productSource
	ledger   batchLedger
	audit    auditRecorder
	outbox   outboxPublisher
}

// NewService builds the order service.
func NewService(
	tx txRunner,
	repo Repository,
	products productSource,
	ledger batchLedger,
	auditSvc auditRecorder,
	publisher outboxPublisher,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("batch ledger required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		products: products,
		ledger:   ledger,
		audit:    auditSvc,
		outbox:   publisher,
	}, nil
}

// Create validates and persists a sale. Order items, stock decrements and the
// outbox event commit in one transaction with the touched batch rows locked,
// so two concurrent sales against the same batch cannot both pass the stock
// check.
func (s *service) Create(ctx context.Context, actor types.Actor, input CreateOrderInput) (*models.Order, error) {
	// Negative payment fails before any other validation runs.
	if input.AmountPaid.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidPayment, "amount paid must not be negative")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", input.PaymentMethod)
	}

	status, balance, change := derivePayment(input.TotalAmount, input.AmountPaid)

	productIDs := make([]uuid.UUID, 0, len(input.Items))
	seen := map[uuid.UUID]bool{}
	for _, line := range input.Items {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			productIDs = append(productIDs, line.ProductID)
		}
	}

	customer := types.WalkIn()
	if input.Customer != nil && input.Customer.Name != "" {
		customer = *input.Customer
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productsByID, err := s.products.FindByIDs(ctx, productIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
		}
		for _, id := range productIDs {
			if productsByID[id] == nil {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", id)
			}
		}

		flattened, err := FlattenItems(input.Items, productsByID)
		if err != nil {
			return err
		}

		orderItems := make([]models.OrderItem, 0, len(flattened))
		runningTotal := decimal.Zero
		for _, item := range flattened {
			product := productsByID[item.ProductID]
			units := item.TotalUnits(product.UnitsInPack)

			// Locks the batch rows, verifies the batch exists and holds enough
			// stock, then subtracts. Any later rejection rolls this back.
			if err := s.ledger.DecrementBatch(ctx, tx, item.ProductID, item.BatchNumber, units); err != nil {
				return err
			}

			if !item.PackPrice.IsPositive() || !item.UnitPrice.IsPositive() {
				return pkgerrors.Newf(pkgerrors.CodeInvalidPrice,
					"prices for %s must be greater than zero", product.Name)
			}
			if item.DeclaredSubtotal.Sub(item.Subtotal).Abs().GreaterThan(moneyTolerance) {
				return pkgerrors.Newf(pkgerrors.CodeSubtotalMismatch,
					"subtotal for %s in batch %s: declared %s, computed %s",
					product.Name, item.BatchNumber, item.DeclaredSubtotal.StringFixed(2), item.Subtotal.StringFixed(2))
			}

			runningTotal = runningTotal.Add(item.Subtotal)
			orderItems = append(orderItems, models.OrderItem{
				ProductID:    item.ProductID,
				BatchNumber:  item.BatchNumber,
				PackQuantity: item.PackQuantity,
				UnitQuantity: item.UnitQuantity,
				PackPrice:    item.PackPrice,
				UnitPrice:    item.UnitPrice,
				Subtotal:     item.Subtotal,
			})
		}

		if runningTotal.Sub(input.TotalAmount).Abs().GreaterThan(moneyTolerance) {
			return pkgerrors.Newf(pkgerrors.CodeTotalMismatch,
				"order total: declared %s, computed %s",
				input.TotalAmount.StringFixed(2), runningTotal.StringFixed(2))
		}

		order := &models.Order{
			Customer:      customer,
			CreatedBy:     actor.ID,
			TotalAmount:   input.TotalAmount,
			AmountPaid:    input.AmountPaid,
			Balance:       balance,
			Change:        change,
			PaymentMethod: input.PaymentMethod,
			PaymentStatus: status,
			Items:         orderItems,
			LastAction:    types.NewLastAction(enums.AuditActionCreate, actor.ID, ""),
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
		}

		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.OrderRef{ID: order.ID},
				Action:         enums.AuditActionCreate,
				NewValue:       order,
				SkipLastAction: true,
			})
		}
		if s.outbox != nil {
			if err := s.emitOrderCreated(ctx, tx, actor, order); err != nil {
				return err
			}
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDetails, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	productIDs := make([]uuid.UUID, 0, len(order.Items))
	seen := map[uuid.UUID]bool{}
	for _, item := range order.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}
	productsByID, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving products")
	}

	summaries := make(map[uuid.UUID]ProductSummary, len(productsByID))
	for id, product := range productsByID {
		if product == nil {
			continue
		}
		summaries[id] = ProductSummary{
			ID:          product.ID,
			Name:        product.Name,
			Category:    product.Category,
			UnitsInPack: product.UnitsInPack,
		}
	}
	return &OrderDetails{Order: *order, Products: summaries}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return rows, next, nil
}

func (s *service) Update(ctx context.Context, actor types.Actor, id uuid.UUID, input UpdateOrderInput) (*models.Order, error) {
	updates := map[string]any{}
	if input.PaymentStatus != nil {
		if !input.PaymentStatus.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", *input.PaymentStatus)
		}
		updates["payment_status"] = *input.PaymentStatus
	}
	if input.AmountPaid != nil {
		if input.AmountPaid.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidPayment, "amount paid must not be negative")
		}
		updates["amount_paid"] = *input.AmountPaid
	}
	if input.Balance != nil {
		if input.Balance.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "balance must not be negative")
		}
		updates["balance"] = *input.Balance
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updatable fields supplied")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		before, err := repo.FindByID(ctx, id)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
		}

		if err := repo.UpdateFields(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order")
		}
		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:  actor.ID,
				Entity:   audit.OrderRef{ID: id},
				Action:   enums.AuditActionUpdate,
				OldValue: before,
				NewValue: updates,
			})
		}

		updated, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the order for good. The audit snapshot carries the pre-delete
// state, so the trail may reference an order that no longer exists.
func (s *service) Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		before, err := repo.FindByID(ctx, id)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
		}

		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.OrderRef{ID: id},
				Action:         enums.AuditActionDelete,
				OldValue:       before,
				SkipLastAction: true,
			})
		}

		if err := repo.HardDelete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting order")
		}

		if s.outbox != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderDeleted,
				AggregateType: enums.AggregateOrder,
				AggregateID:   id,
				Actor:         &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
				Data:          payloads.OrderDeleted{OrderID: id},
				Version:       payloads.OrderDeletedVersion,
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, actor types.Actor, order *models.Order) error {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{
			ProductID:    item.ProductID,
			BatchNumber:  item.BatchNumber,
			PackQuantity: item.PackQuantity,
			UnitQuantity: item.UnitQuantity,
			Subtotal:     item.Subtotal,
		})
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
		Data: payloads.OrderCreated{
			OrderID:       order.ID,
			CustomerName:  order.Customer.Name,
			TotalAmount:   order.TotalAmount,
			AmountPaid:    order.AmountPaid,
			PaymentStatus: order.PaymentStatus,
			PaymentMethod: order.PaymentMethod,
			Lines:         lines,
		},
		Version: payloads.OrderCreatedVersion,
	}
	return s.outbox.Emit(ctx, tx, event)
}

// derivePayment applies the exact creation-time derivation: equality, not
// tolerance, decides the status.
func derivePayment(total, paid decimal.Decimal) (enums.PaymentStatus, decimal.Decimal, decimal.Decimal) {
	switch {
	case paid.GreaterThan(total):
		return enums.PaymentStatusPaid, decimal.Zero, paid.Sub(total)
	case paid.Equal(total):
		return enums.PaymentStatusPaid, decimal.Zero, decimal.Zero
	case paid.IsZero():
		return enums.PaymentStatusPending, total, decimal.Zero
	default:
		return enums.PaymentStatusPartial, total.Sub(paid), decimal.Zero
	}
}
