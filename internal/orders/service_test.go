package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopledger-backend/pkg/errors"
	"github.com/angelmondragon/shopledger-backend/pkg/outbox"
	"github.com/angelmondragon/shopledger-backend/pkg/pagination"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepository struct {
	created  *models.Order
	createFn func(ctx context.Context, order *models.Order) error
	findFn   func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	updates  map[string]any
	deleted  []uuid.UUID
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, order *models.Order) error {
	if f.createFn != nil {
		return f.createFn(ctx, order)
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.created = order
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeRepository) List(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (f *fakeRepository) ListDebtors(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (f *fakeRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates = updates
	return nil
}

func (f *fakeRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeProductSource struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeProductSource) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := map[uuid.UUID]*models.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type decrementCall struct {
	productID   uuid.UUID
	batchNumber string
	units       int
}

type fakeLedger struct {
	calls []decrementCall
	errFn func(productID uuid.UUID, batchNumber string, units int) error
}

func (f *fakeLedger) DecrementBatch(ctx context.Context, tx *gorm.DB, productID uuid.UUID, batchNumber string, units int) error {
	if f.errFn != nil {
		if err := f.errFn(productID, batchNumber, units); err != nil {
			return err
		}
	}
	f.calls = append(f.calls, decrementCall{productID: productID, batchNumber: batchNumber, units: units})
	return nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T, repo *fakeRepository, products *fakeProductSource, ledger *fakeLedger, publisher outboxPublisher) Service {
	t.Helper()
	svc, err := NewService(fakeTxRunner{}, repo, products, ledger, nil, publisher)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func catalogProduct(unitsInPack int) *models.Product {
	return &models.Product{ID: uuid.New(), Name: "Paracetamol 500mg", Category: "analgesics", UnitsInPack: unitsInPack}
}

func TestCreateOrderFullPayment(t *testing.T) {
	product := catalogProduct(12)
	repo := &fakeRepository{}
	ledger := &fakeLedger{}
	publisher := &fakeOutbox{}
	svc := newTestService(t, repo, &fakeProductSource{products: map[uuid.UUID]*models.Product{product.ID: product}}, ledger, publisher)

	input := CreateOrderInput{
		Items: []OrderLineInput{
			{
				ProductID:    product.ID,
				PackPrice:    decimal.NewFromInt(100),
				UnitPrice:    decimal.NewFromInt(10),
				BatchNumber:  "B1",
				PackQuantity: 5,
				UnitQuantity: 0,
				Subtotal:     decimal.NewFromInt(500),
			},
		},
		TotalAmount:   decimal.NewFromInt(500),
		AmountPaid:    decimal.NewFromInt(500),
		PaymentMethod: enums.PaymentMethodCash,
	}

	order, err := svc.Create(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleStaff}, input)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", order.PaymentStatus)
	}
	if !order.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", order.Balance)
	}
	if order.Customer.Name != types.WalkInCustomerName {
		t.Fatalf("expected walk-in default, got %q", order.Customer.Name)
	}
	if len(ledger.calls) != 1 || ledger.calls[0].units != 60 || ledger.calls[0].batchNumber != "B1" {
		t.Fatalf("unexpected ledger calls: %+v", ledger.calls)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected order.created event, got %+v", publisher.events)
	}
}

func TestCreateOrderPartialAndPendingDerivation(t *testing.T) {
	product := catalogProduct(12)
	base := CreateOrderInput{
		Items: []OrderLineInput{
			{
				ProductID:    product.ID,
				PackPrice:    decimal.NewFromInt(100),
				UnitPrice:    decimal.NewFromInt(10),
				BatchNumber:  "B1",
				PackQuantity: 5,
				Subtotal:     decimal.NewFromInt(500),
			},
		},
		TotalAmount:   decimal.NewFromInt(500),
		PaymentMethod: enums.PaymentMethodTransfer,
	}

	tests := []struct {
		name        string
		amountPaid  decimal.Decimal
		wantStatus  enums.PaymentStatus
		wantBalance decimal.Decimal
	}{
		{"partial", decimal.NewFromInt(200), enums.PaymentStatusPartial, decimal.NewFromInt(300)},
		{"pending", decimal.Zero, enums.PaymentStatusPending, decimal.NewFromInt(500)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepository{}
			svc := newTestService(t, repo, &fakeProductSource{products: map[uuid.UUID]*models.Product{product.ID: product}}, &fakeLedger{}, nil)

			input := base
			input.AmountPaid = tc.amountPaid
			order, err := svc.Create(context.Background(), types.Actor{ID: uuid.New()}, input)
			if err != nil {
				t.Fatalf("Create error: %v", err)
			}
			if order.PaymentStatus != tc.wantStatus {
				t.Fatalf("expected %s, got %s", tc.wantStatus, order.PaymentStatus)
			}
			if !order.Balance.Equal(tc.wantBalance) {
				t.Fatalf("expected balance %s, got %s", tc.wantBalance, order.Balance)
			}
		})
	}
}

func TestCreateOrderNegativePaymentFailsFirst(t *testing.T) {
	repo := &fakeRepository{}
	ledger := &fakeLedger{}
	svc := newTestService(t, repo, &fakeProductSource{products: map[uuid.UUID]*models.Product{}}, ledger, nil)

	// The item list is invalid too; the payment check must still win.
	input := CreateOrderInput{
		AmountPaid:    decimal.NewFromInt(-1),
		PaymentMethod: enums.PaymentMethodCash,
	}
	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New()}, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidPayment {
		t.Fatalf("expected INVALID_PAYMENT, got %v", err)
	}
	if len(ledger.calls) != 0 || repo.created != nil {
		t.Fatal("no mutation should occur on rejected payment")
	}
}

func TestCreateOrderInsufficientStockAborts(t *testing.T) {
	product := catalogProduct(1)
	repo := &fakeRepository{}
	ledger := &fakeLedger{
		errFn: func(productID uuid.UUID, batchNumber string, units int) error {
			return pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
				"insufficient stock for %s in batch %s: available %d, required %d", "Paracetamol 500mg", batchNumber, 10, units)
		},
	}
	svc := newTestService(t, repo, &fakeProductSource{products: map[uuid.UUID]*models.Product{product.ID: product}}, ledger, nil)

	input := CreateOrderInput{
		Items: []OrderLineInput{
			{
				ProductID:    product.ID,
				PackPrice:    decimal.NewFromInt(10),
				UnitPrice:    decimal.NewFromInt(10),
				BatchNumber:  "B1",
				UnitQuantity: 12,
				Subtotal:     decimal.NewFromInt(120),
			},
		},
		TotalAmount:   decimal.NewFromInt(120),
		AmountPaid:    decimal.NewFromInt(120),
		PaymentMethod: enums.PaymentMethodCash,
	}
	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New()}, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("order must not persist when stock is short")
	}
}

func TestCreateOrderSubtotalMismatch(t *testing.T) {
	product := catalogProduct(12)
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeProductSource{products: map[uuid.UUID]*models.Product{product.ID: product}}, &fakeLedger{}, nil)

	input := CreateOrderInput{
		Items: []OrderLineInput{
			{
				ProductID:    product.ID,
				PackPrice:    decimal.NewFromInt(100),
				UnitPrice:    decimal.NewFromInt(10),
				BatchNumber:  "B1",
				PackQuantity: 1,
				UnitQuantity: 3,
				Subtotal:     decimal.NewFromInt(150), // computed is 130
			},
		},
		TotalAmount:   decimal.NewFromInt(150),
		AmountPaid:    decimal.NewFromInt(150),
		PaymentMethod: enums.PaymentMethodCard,
	}
	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New()}, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeSubtotalMismatch {
		t.Fatalf("expected SUBTOTAL_MISMATCH, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("order must not persist on subtotal mismatch")
	}
}

func TestCreateOrderTotalMismatch(t *testing.T) {
	product := catalogProduct(12)
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeProductSource{products: map[uuid.UUID]*models.Product{product.ID: product}}, &fakeLedger{}, nil)

	input := CreateOrderInput{
		Items: []OrderLineInput{
			{
				ProductID:    product.ID,
				PackPrice:    decimal.NewFromInt(100),
				UnitPrice:    decimal.NewFromInt(10),
				BatchNumber:  "B1",
				PackQuantity: 1,
				UnitQuantity: 3,
				Subtotal:     decimal.NewFromInt(130),
			},
		},
		TotalAmount:   decimal.NewFromInt(200),
		AmountPaid:    decimal.NewFromInt(200),
		PaymentMethod: enums.PaymentMethodCash,
	}
	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New()}, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeTotalMismatch {
		t.Fatalf("expected TOTAL_MISMATCH, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("order must not persist on total mismatch")
	}
}

func TestCreateOrderFlattensAllocations(t *testing.T) {
	product := catalogProduct(12)
	repo := &fakeRepository{}
	ledger := &fakeLedger{}
	svc := newTestService(t, repo, &fakeProductSource{products: map[uuid.UUID]*models.Product{product.ID: product}}, ledger, nil)

	input := CreateOrderInput{
		Items: []OrderLineInput{
			{
				ProductID: product.ID,
				PackPrice: decimal.NewFromInt(100),
				UnitPrice: decimal.NewFromInt(10),
				Allocations: []AllocationInput{
					{BatchNumber: "B1", Allocated: 15},
					{BatchNumber: "B2", Allocated: 9},
				},
			},
		},
		TotalAmount:   decimal.NewFromInt(220),
		AmountPaid:    decimal.NewFromInt(220),
		PaymentMethod: enums.PaymentMethodCash,
	}
	order, err := svc.Create(context.Background(), types.Actor{ID: uuid.New()}, input)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 flattened items, got %d", len(order.Items))
	}
	if len(ledger.calls) != 2 || ledger.calls[0].units != 15 || ledger.calls[1].units != 9 {
		t.Fatalf("unexpected ledger calls: %+v", ledger.calls)
	}
	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(item.Subtotal)
	}
	if !sum.Equal(order.TotalAmount) {
		t.Fatalf("item subtotals %s do not add up to total %s", sum, order.TotalAmount)
	}
}

func TestUpdateOrderRejectsUnknownStatus(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeProductSource{}, &fakeLedger{}, nil)

	bogus := enums.PaymentStatus("settled")
	_, err := svc.Update(context.Background(), types.Actor{ID: uuid.New()}, uuid.New(), UpdateOrderInput{PaymentStatus: &bogus})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestDeleteOrderRecordsAndRemoves(t *testing.T) {
	orderID := uuid.New()
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: orderID, PaymentStatus: enums.PaymentStatusPaid}, nil
		},
	}
	publisher := &fakeOutbox{}
	svc := newTestService(t, repo, &fakeProductSource{}, &fakeLedger{}, publisher)

	if err := svc.Delete(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin}, orderID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != orderID {
		t.Fatalf("expected hard delete of %s, got %+v", orderID, repo.deleted)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventOrderDeleted {
		t.Fatalf("expected order.deleted event, got %+v", publisher.events)
	}
}
