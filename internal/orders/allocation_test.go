package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopledger-backend/pkg/errors"
)

func TestFlattenItemsSplitsAllocationsAcrossBatches(t *testing.T) {
	productID := uuid.New()
	productsByID := map[uuid.UUID]*models.Product{
		productID: {ID: productID, Name: "Paracetamol 500mg", UnitsInPack: 12},
	}

	lines := []OrderLineInput{
		{
			ProductID: productID,
			PackPrice: decimal.NewFromInt(100),
			UnitPrice: decimal.NewFromInt(10),
			Allocations: []AllocationInput{
				{BatchNumber: "B1", Allocated: 15},
				{BatchNumber: "B2", Allocated: 9},
			},
		},
	}

	items, err := FlattenItems(lines, productsByID)
	if err != nil {
		t.Fatalf("FlattenItems error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 flattened items, got %d", len(items))
	}

	first := items[0]
	if first.BatchNumber != "B1" || first.PackQuantity != 1 || first.UnitQuantity != 3 {
		t.Fatalf("unexpected first item split: %+v", first)
	}
	if !first.Subtotal.Equal(decimal.NewFromInt(130)) {
		t.Fatalf("expected first subtotal 130, got %s", first.Subtotal)
	}

	second := items[1]
	if second.BatchNumber != "B2" || second.PackQuantity != 0 || second.UnitQuantity != 9 {
		t.Fatalf("unexpected second item split: %+v", second)
	}
	if !second.Subtotal.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected second subtotal 90, got %s", second.Subtotal)
	}

	if first.TotalUnits(12) != 15 || second.TotalUnits(12) != 9 {
		t.Fatalf("unit round-trip mismatch: %d / %d", first.TotalUnits(12), second.TotalUnits(12))
	}
}

func TestFlattenItemsPassesSingleBatchLinesThrough(t *testing.T) {
	productID := uuid.New()
	productsByID := map[uuid.UUID]*models.Product{
		productID: {ID: productID, UnitsInPack: 6},
	}

	declared := decimal.NewFromInt(220)
	lines := []OrderLineInput{
		{
			ProductID:    productID,
			PackPrice:    decimal.NewFromInt(100),
			UnitPrice:    decimal.NewFromInt(20),
			BatchNumber:  "B9",
			PackQuantity: 2,
			UnitQuantity: 1,
			Subtotal:     declared,
		},
	}

	items, err := FlattenItems(lines, productsByID)
	if err != nil {
		t.Fatalf("FlattenItems error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].BatchNumber != "B9" || items[0].PackQuantity != 2 || items[0].UnitQuantity != 1 {
		t.Fatalf("pass-through altered the line: %+v", items[0])
	}
	if !items[0].DeclaredSubtotal.Equal(declared) {
		t.Fatalf("declared subtotal lost: %s", items[0].DeclaredSubtotal)
	}
	if !items[0].Subtotal.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("computed subtotal mismatch: %s", items[0].Subtotal)
	}
}

func TestFlattenItemsUnknownProduct(t *testing.T) {
	lines := []OrderLineInput{{ProductID: uuid.New()}}

	_, err := FlattenItems(lines, map[uuid.UUID]*models.Product{})
	if err == nil {
		t.Fatal("expected error for unknown product")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestFlattenItemsRejectsNonPositiveAllocation(t *testing.T) {
	productID := uuid.New()
	productsByID := map[uuid.UUID]*models.Product{
		productID: {ID: productID, UnitsInPack: 12},
	}
	lines := []OrderLineInput{
		{
			ProductID:   productID,
			Allocations: []AllocationInput{{BatchNumber: "B1", Allocated: 0}},
		},
	}

	_, err := FlattenItems(lines, productsByID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
