package products

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopledger-backend/pkg/errors"
	"github.com/angelmondragon/shopledger-backend/pkg/pagination"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepository struct {
	products   map[uuid.UUID]*models.Product
	batches    map[uuid.UUID][]models.ProductBatch
	quantities map[uuid.UUID]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		products:   map[uuid.UUID]*models.Product{},
		batches:    map[uuid.UUID][]models.ProductBatch{},
		quantities: map[uuid.UUID]int{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	clone.Batches = f.batches[id]
	return &clone, nil
}

func (f *fakeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := map[uuid.UUID]*models.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeRepository) List(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	out := make([]models.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, "", nil
}

func (f *fakeRepository) UpdateStandardPrices(ctx context.Context, id uuid.UUID, packPrice, unitPrice decimal.Decimal) error {
	p, ok := f.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StandardPackPrice = packPrice
	p.StandardUnitPrice = unitPrice
	return nil
}

func (f *fakeRepository) InsertBatch(ctx context.Context, batch *models.ProductBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	f.batches[batch.ProductID] = append(f.batches[batch.ProductID], *batch)
	f.quantities[batch.ID] = batch.Quantity
	return nil
}

func (f *fakeRepository) DeleteBatches(ctx context.Context, productID uuid.UUID, batchNumber string) (int64, error) {
	kept := f.batches[productID][:0]
	var removed int64
	for _, b := range f.batches[productID] {
		if b.BatchNumber == batchNumber {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	f.batches[productID] = kept
	return removed, nil
}

func (f *fakeRepository) LockBatches(ctx context.Context, productID uuid.UUID, batchNumber string) ([]models.ProductBatch, error) {
	var rows []models.ProductBatch
	for _, b := range f.batches[productID] {
		if b.BatchNumber == batchNumber {
			b.Quantity = f.quantities[b.ID]
			rows = append(rows, b)
		}
	}
	return rows, nil
}

func (f *fakeRepository) SetBatchQuantity(ctx context.Context, batchID uuid.UUID, quantity int) error {
	f.quantities[batchID] = quantity
	return nil
}

func newTestService(t *testing.T, repo Repository) *service {
	t.Helper()
	svc, err := NewService(fakeTxRunner{}, repo, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc.(*service)
}

func seedProduct(repo *fakeRepository, unitsInPack int) *models.Product {
	product := &models.Product{
		ID:          uuid.New(),
		Name:        "Paracetamol 500mg",
		Category:    "pharmacy",
		UnitsInPack: unitsInPack,
	}
	repo.products[product.ID] = product
	return product
}

func TestCreateProductWithOpeningBatches(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)
	actor := types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin}

	product, err := svc.Create(context.Background(), actor, CreateProductInput{
		Name:        "Amoxicillin 250mg",
		Category:    "pharmacy",
		UnitsInPack: 10,
		OpeningBatches: []AddBatchInput{
			{BatchNumber: "OPEN-1", QuantityInPacks: 3, PackPurchasePrice: decimal.NewFromInt(500)},
		},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(product.Batches) != 1 {
		t.Fatalf("expected one opening batch, got %d", len(product.Batches))
	}
	if got := product.Batches[0].Quantity; got != 30 {
		t.Fatalf("expected 3 packs x 10 units = 30, got %d", got)
	}
}

func TestCreateProductRejectsNegativePrices(t *testing.T) {
	svc := newTestService(t, newFakeRepository())

	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin}, CreateProductInput{
		Name:              "Bad",
		Category:          "pharmacy",
		StandardPackPrice: decimal.NewFromInt(-1),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidPrice {
		t.Fatalf("expected INVALID_PRICE, got %v", err)
	}
}

func TestAddBatchConvertsPacksToUnits(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)
	product := seedProduct(repo, 12)

	batch, err := svc.AddBatch(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleManager},
		product.ID, AddBatchInput{BatchNumber: "B1", QuantityInPacks: 5, PackPurchasePrice: decimal.NewFromInt(900)})
	if err != nil {
		t.Fatalf("AddBatch error: %v", err)
	}
	if batch.Quantity != 60 {
		t.Fatalf("expected 5 packs x 12 units = 60, got %d", batch.Quantity)
	}
}

func TestAddBatchSynthesizesBatchNumber(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	product := seedProduct(repo, 1)

	batch, err := svc.AddBatch(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleManager},
		product.ID, AddBatchInput{QuantityInPacks: 1, PackPurchasePrice: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("AddBatch error: %v", err)
	}
	if batch.BatchNumber != "BATCH-1700000000000" {
		t.Fatalf("unexpected synthesized batch number %q", batch.BatchNumber)
	}
}

func TestAddBatchUnknownProduct(t *testing.T) {
	svc := newTestService(t, newFakeRepository())

	_, err := svc.AddBatch(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleManager},
		uuid.New(), AddBatchInput{QuantityInPacks: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDecrementBatchDrainsRowsInArrivalOrder(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)
	product := seedProduct(repo, 12)

	first := &models.ProductBatch{ProductID: product.ID, BatchNumber: "B1", Quantity: 24}
	second := &models.ProductBatch{ProductID: product.ID, BatchNumber: "B1", Quantity: 36}
	if err := repo.InsertBatch(context.Background(), first); err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertBatch(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	if err := svc.DecrementBatch(context.Background(), nil, product.ID, "B1", 30); err != nil {
		t.Fatalf("DecrementBatch error: %v", err)
	}
	if got := repo.quantities[first.ID]; got != 0 {
		t.Fatalf("expected first row drained to 0, got %d", got)
	}
	if got := repo.quantities[second.ID]; got != 30 {
		t.Fatalf("expected second row at 30, got %d", got)
	}

	// Drained rows stay behind so the originating purchase stays revertible.
	rows, err := repo.LockBatches(context.Background(), product.ID, "B1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both rows retained, got %d", len(rows))
	}
}

func TestDecrementBatchInsufficientStock(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)
	product := seedProduct(repo, 12)
	if err := repo.InsertBatch(context.Background(), &models.ProductBatch{ProductID: product.ID, BatchNumber: "B1", Quantity: 10}); err != nil {
		t.Fatal(err)
	}

	err := svc.DecrementBatch(context.Background(), nil, product.ID, "B1", 11)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	if !strings.Contains(typed.Error(), "Paracetamol 500mg") || !strings.Contains(typed.Error(), "available 10, required 11") {
		t.Fatalf("unexpected message %q", typed.Error())
	}
}

func TestDecrementBatchUnknownBatch(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)
	product := seedProduct(repo, 12)

	err := svc.DecrementBatch(context.Background(), nil, product.ID, "NOPE", 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRemoveBatchesRequiresNumber(t *testing.T) {
	svc := newTestService(t, newFakeRepository())

	err := svc.RemoveBatches(context.Background(), nil, uuid.New(), "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
