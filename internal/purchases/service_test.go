package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/internal/products"
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

type fakeRepo struct {
	purchases map[uuid.UUID]*models.Purchase
	deleted   []uuid.UUID
	replaced  []models.PurchaseItem
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{purchases: map[uuid.UUID]*models.Purchase{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, purchase *models.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	f.purchases[purchase.ID] = purchase
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	p, ok := f.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeRepo) List(ctx context.Context, params pagination.Params) ([]models.Purchase, string, error) {
	out := make([]models.Purchase, 0, len(f.purchases))
	for _, p := range f.purchases {
		out = append(out, *p)
	}
	return out, "", nil
}

func (f *fakeRepo) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if _, ok := f.purchases[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (f *fakeRepo) ReplaceItems(ctx context.Context, purchaseID uuid.UUID, items []models.PurchaseItem) error {
	f.replaced = items
	if p, ok := f.purchases[purchaseID]; ok {
		p.Items = items
	}
	return nil
}

func (f *fakeRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	delete(f.purchases, id)
	return nil
}

type ledgerCall struct {
	kind        string
	productID   uuid.UUID
	batchNumber string
	packs       int
}

type fakeLedger struct {
	calls       []ledgerCall
	unitsInPack int
	missing     map[uuid.UUID]bool
}

func (f *fakeLedger) AppendBatch(ctx context.Context, tx *gorm.DB, productID uuid.UUID, input products.AddBatchInput) (*models.ProductBatch, error) {
	if f.missing[productID] {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", productID)
	}
	number := input.BatchNumber
	if number == "" {
		number = "BATCH-SYNTH"
	}
	f.calls = append(f.calls, ledgerCall{kind: "append", productID: productID, batchNumber: number, packs: input.QuantityInPacks})
	return &models.ProductBatch{
		ID:          uuid.New(),
		ProductID:   productID,
		BatchNumber: number,
		Quantity:    input.QuantityInPacks * f.unitsInPack,
	}, nil
}

func (f *fakeLedger) RemoveBatches(ctx context.Context, tx *gorm.DB, productID uuid.UUID, batchNumber string) error {
	f.calls = append(f.calls, ledgerCall{kind: "remove", productID: productID, batchNumber: batchNumber})
	return nil
}

func (f *fakeLedger) UpdateStandardPrices(ctx context.Context, tx *gorm.DB, productID uuid.UUID, packPrice, unitPrice decimal.Decimal) error {
	f.calls = append(f.calls, ledgerCall{kind: "reprice", productID: productID})
	return nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T, repo *fakeRepo, ledger *fakeLedger, publisher outboxPublisher) Service {
	t.Helper()
	svc, err := NewService(fakeTxRunner{}, repo, ledger, nil, publisher)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func intakeInput(productID uuid.UUID, batchNumber string, packs int) CreatePurchaseInput {
	return CreatePurchaseInput{
		PurchaseDate: time.Now(),
		SupplierID:   uuid.New(),
		Items: []PurchaseItemInput{
			{
				ProductID:         productID,
				BatchNumber:       batchNumber,
				Quantity:          packs,
				TotalCost:         decimal.NewFromInt(1000),
				PackPurchasePrice: decimal.NewFromInt(100),
				UnitPurchasePrice: decimal.NewFromInt(10),
			},
		},
	}
}

func TestCreatePurchaseAppendsBatches(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{unitsInPack: 12}
	publisher := &fakeOutbox{}
	svc := newTestService(t, repo, ledger, publisher)
	actor := types.Actor{ID: uuid.New(), Role: enums.MemberRoleManager}

	productID := uuid.New()
	purchase, err := svc.Create(context.Background(), actor, intakeInput(productID, "B1", 10))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(purchase.Items) != 1 || purchase.Items[0].BatchNumber != "B1" || purchase.Items[0].Quantity != 10 {
		t.Fatalf("unexpected purchase items: %+v", purchase.Items)
	}
	if len(ledger.calls) != 1 || ledger.calls[0].kind != "append" || ledger.calls[0].packs != 10 {
		t.Fatalf("unexpected ledger calls: %+v", ledger.calls)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventPurchaseCreated {
		t.Fatalf("expected purchase.created event, got %+v", publisher.events)
	}
}

func TestCreatePurchaseSynthesizesBatchNumber(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{unitsInPack: 6}
	svc := newTestService(t, repo, ledger, nil)

	purchase, err := svc.Create(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin},
		intakeInput(uuid.New(), "", 2))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if purchase.Items[0].BatchNumber == "" {
		t.Fatal("expected synthesized batch number on the stored item")
	}
}

func TestCreatePurchaseRoleGate(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeLedger{unitsInPack: 1}, nil)

	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleStaff},
		intakeInput(uuid.New(), "B1", 1))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestCreatePurchaseUnknownProduct(t *testing.T) {
	productID := uuid.New()
	ledger := &fakeLedger{unitsInPack: 1, missing: map[uuid.UUID]bool{productID: true}}
	repo := newFakeRepo()
	svc := newTestService(t, repo, ledger, nil)

	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin},
		intakeInput(productID, "B1", 1))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if len(repo.purchases) != 0 {
		t.Fatal("purchase must not persist when a product is missing")
	}
}

func TestUpdatePurchaseRevertsAndReplays(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{unitsInPack: 12}
	publisher := &fakeOutbox{}
	svc := newTestService(t, repo, ledger, publisher)
	actor := types.Actor{ID: uuid.New(), Role: enums.MemberRoleManager}

	productID := uuid.New()
	created, err := svc.Create(context.Background(), actor, intakeInput(productID, "OLD", 5))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	ledger.calls = nil
	publisher.events = nil

	updated, err := svc.Update(context.Background(), actor, created.ID, intakeInput(productID, "NEW", 7))
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if len(ledger.calls) != 2 {
		t.Fatalf("expected revert + append, got %+v", ledger.calls)
	}
	if ledger.calls[0].kind != "remove" || ledger.calls[0].batchNumber != "OLD" {
		t.Fatalf("expected removal of OLD first, got %+v", ledger.calls[0])
	}
	if ledger.calls[1].kind != "append" || ledger.calls[1].batchNumber != "NEW" || ledger.calls[1].packs != 7 {
		t.Fatalf("expected append of NEW, got %+v", ledger.calls[1])
	}
	if len(updated.Items) != 1 || updated.Items[0].BatchNumber != "NEW" {
		t.Fatalf("unexpected replaced items: %+v", updated.Items)
	}
	if len(publisher.events) != 2 ||
		publisher.events[0].EventType != enums.EventPurchaseReverted ||
		publisher.events[1].EventType != enums.EventPurchaseCreated {
		t.Fatalf("unexpected events: %+v", publisher.events)
	}
}

func TestDeletePurchaseAdminOnly(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{unitsInPack: 12}
	svc := newTestService(t, repo, ledger, nil)

	manager := types.Actor{ID: uuid.New(), Role: enums.MemberRoleManager}
	created, err := svc.Create(context.Background(), manager, intakeInput(uuid.New(), "B1", 3))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	err = svc.Delete(context.Background(), manager, created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for manager delete, got %v", err)
	}

	ledger.calls = nil
	admin := types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin}
	if err := svc.Delete(context.Background(), admin, created.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != created.ID {
		t.Fatalf("expected hard delete, got %+v", repo.deleted)
	}
	if len(ledger.calls) != 1 || ledger.calls[0].kind != "remove" || ledger.calls[0].batchNumber != "B1" {
		t.Fatalf("expected batch reversal on delete, got %+v", ledger.calls)
	}
}
