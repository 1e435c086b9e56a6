package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopledger-backend/pkg/errors"
)

// FlattenedItem is one concrete draw against exactly one batch, ready for
// validation and persistence.
type FlattenedItem struct {
	ProductID    uuid.UUID
	BatchNumber  string
	PackQuantity int
	UnitQuantity int
	PackPrice    decimal.Decimal
	UnitPrice    decimal.Decimal
	Subtotal     decimal.Decimal
	// DeclaredSubtotal preserves the client's figure for pass-through lines so
	// validation can reject mismatches; flattened allocations derive theirs.
	DeclaredSubtotal decimal.Decimal
}

// FlattenItems expands allocation lists into one item per batch. For each
// allocation of N units against a product whose pack holds unitsInPack,
// packQuantity = N / unitsInPack (integer) and unitQuantity = N % unitsInPack;
// the subtotal is derived from those split quantities. Lines without an
// allocations list pass through unchanged. unitsInPack always comes from the
// product record, never from the client.
func FlattenItems(lines []OrderLineInput, productsByID map[uuid.UUID]*models.Product) ([]FlattenedItem, error) {
	items := make([]FlattenedItem, 0, len(lines))
	for _, line := range lines {
		product, ok := productsByID[line.ProductID]
		if !ok || product == nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", line.ProductID)
		}

		if len(line.Allocations) == 0 {
			items = append(items, FlattenedItem{
				ProductID:        line.ProductID,
				BatchNumber:      line.BatchNumber,
				PackQuantity:     line.PackQuantity,
				UnitQuantity:     line.UnitQuantity,
				PackPrice:        line.PackPrice,
				UnitPrice:        line.UnitPrice,
				Subtotal:         computeSubtotal(line.PackQuantity, line.UnitQuantity, line.PackPrice, line.UnitPrice),
				DeclaredSubtotal: line.Subtotal,
			})
			continue
		}

		unitsInPack := product.UnitsInPack
		if unitsInPack < 1 {
			unitsInPack = 1
		}
		for _, alloc := range line.Allocations {
			if alloc.Allocated <= 0 {
				return nil, pkgerrors.Newf(pkgerrors.CodeValidation,
					"allocation for batch %s must be a positive unit count", alloc.BatchNumber)
			}
			packQty := alloc.Allocated / unitsInPack
			unitQty := alloc.Allocated % unitsInPack
			subtotal := computeSubtotal(packQty, unitQty, line.PackPrice, line.UnitPrice)
			items = append(items, FlattenedItem{
				ProductID:        line.ProductID,
				BatchNumber:      alloc.BatchNumber,
				PackQuantity:     packQty,
				UnitQuantity:     unitQty,
				PackPrice:        line.PackPrice,
				UnitPrice:        line.UnitPrice,
				Subtotal:         subtotal,
				DeclaredSubtotal: subtotal,
			})
		}
	}
	return items, nil
}

// TotalUnits converts the item's split quantities back to a unit count.
func (f FlattenedItem) TotalUnits(unitsInPack int) int {
	if unitsInPack < 1 {
		unitsInPack = 1
	}
	return f.PackQuantity*unitsInPack + f.UnitQuantity
}

func computeSubtotal(packQty, unitQty int, packPrice, unitPrice decimal.Decimal) decimal.Decimal {
	return packPrice.Mul(decimal.NewFromInt(int64(packQty))).
		Add(unitPrice.Mul(decimal.NewFromInt(int64(unitQty))))
}
