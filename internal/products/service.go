package products

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/internal/audit"
	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopledger-backend/pkg/errors"
	"github.com/angelmondragon/shopledger-backend/pkg/pagination"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry)
}

// Service owns the product catalog and its batch ledger.
type Service interface {
	Create(ctx context.Context, actor types.Actor, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, params pagination.Params) ([]models.Product, string, error)
	AddBatch(ctx context.Context, actor types.Actor, productID uuid.UUID, input AddBatchInput) (*models.ProductBatch, error)
	// AppendBatch is the transactional form used by purchase intake.
	AppendBatch(ctx context.Context, tx *gorm.DB, productID uuid.UUID, input AddBatchInput) (*models.ProductBatch, error)
	// UpdateStandardPrices refreshes the product's catalog prices, typically
	// alongside a purchase that changed the cost basis.
	UpdateStandardPrices(ctx context.Context, tx *gorm.DB, productID uuid.UUID, packPrice, unitPrice decimal.Decimal) error
	// RemoveBatches deletes every ledger row carrying the batch number; used
	// on purchase reversal.
	RemoveBatches(ctx context.Context, tx *gorm.DB, productID uuid.UUID, batchNumber string) error
	// DecrementBatch subtracts sold units from a batch's rows under lock.
	DecrementBatch(ctx context.Context, tx *gorm.DB, productID uuid.UUID, batchNumber string, units int) error
}

type service struct {
	tx    txRunner
	repo  Repository
	audit auditRecorder
	now   func() time.Time
}

// NewService builds the product service.
func NewService(tx txRunner, repo Repository, auditSvc auditRecorder) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{
		tx:    tx,
		repo:  repo,
		audit: auditSvc,
		now:   time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor types.Actor, input CreateProductInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product category required")
	}
	unitsInPack := input.UnitsInPack
	if unitsInPack <= 0 {
		unitsInPack = 1
	}
	if input.StandardPackPrice.IsNegative() || input.StandardUnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidPrice, "standard prices must not be negative")
	}

	product := &models.Product{
		Name:              input.Name,
		Category:          input.Category,
		BarcodeOrSKU:      input.BarcodeOrSKU,
		UnitsInPack:       unitsInPack,
		StandardPackPrice: input.StandardPackPrice,
		StandardUnitPrice: input.StandardUnitPrice,
		Description:       input.Description,
		LastAction:        types.NewLastAction(enums.AuditActionCreate, actor.ID, ""),
	}
	if len(input.Tags) > 0 {
		product.Tags = pq.StringArray(input.Tags)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
		}
		for _, batchInput := range input.OpeningBatches {
			batch, err := buildBatch(product, batchInput, s.now())
			if err != nil {
				return err
			}
			if err := repo.InsertBatch(ctx, batch); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending opening batch")
			}
			product.Batches = append(product.Batches, *batch)
		}
		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.ProductRef{ID: product.ID},
				Action:         enums.AuditActionCreate,
				NewValue:       product,
				SkipLastAction: true,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return rows, next, nil
}

func (s *service) AddBatch(ctx context.Context, actor types.Actor, productID uuid.UUID, input AddBatchInput) (*models.ProductBatch, error) {
	var batch *models.ProductBatch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		batch, err = s.AppendBatch(ctx, tx, productID, input)
		if err != nil {
			return err
		}
		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:  actor.ID,
				Entity:   audit.ProductRef{ID: productID},
				Action:   enums.AuditActionUpdate,
				NewValue: batch,
				Reason:   fmt.Sprintf("Batch %s added", batch.BatchNumber),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *service) AppendBatch(ctx context.Context, tx *gorm.DB, productID uuid.UUID, input AddBatchInput) (*models.ProductBatch, error) {
	repo := s.repo.WithTx(tx)

	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", productID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	batch, err := buildBatch(product, input, s.now())
	if err != nil {
		return nil, err
	}
	if err := repo.InsertBatch(ctx, batch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending batch")
	}
	return batch, nil
}

func (s *service) UpdateStandardPrices(ctx context.Context, tx *gorm.DB, productID uuid.UUID, packPrice, unitPrice decimal.Decimal) error {
	if packPrice.IsNegative() || unitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeInvalidPrice, "standard prices must not be negative")
	}
	if err := s.repo.WithTx(tx).UpdateStandardPrices(ctx, productID, packPrice, unitPrice); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating standard prices")
	}
	return nil
}

func (s *service) RemoveBatches(ctx context.Context, tx *gorm.DB, productID uuid.UUID, batchNumber string) error {
	if batchNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "batch number required")
	}
	repo := s.repo.WithTx(tx)
	if _, err := repo.DeleteBatches(ctx, productID, batchNumber); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing batches")
	}
	return nil
}

func (s *service) DecrementBatch(ctx context.Context, tx *gorm.DB, productID uuid.UUID, batchNumber string, units int) error {
	if units <= 0 {
		return nil
	}
	repo := s.repo.WithTx(tx)

	rows, err := repo.LockBatches(ctx, productID, batchNumber)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking batch rows")
	}

	available := 0
	for _, row := range rows {
		available += row.Quantity
	}
	if len(rows) == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "batch %s not found for product %s", batchNumber, productID)
	}
	if units > available {
		product, loadErr := s.repo.WithTx(tx).FindByID(ctx, productID)
		name := productID.String()
		if loadErr == nil && product != nil {
			name = product.Name
		}
		return pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
			"insufficient stock for %s in batch %s: available %d, required %d",
			name, batchNumber, available, units)
	}

	// Drain rows in arrival order. Zero-quantity rows stay behind so the
	// purchase document they came from remains revertible.
	remaining := units
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		take := row.Quantity
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			continue
		}
		if err := repo.SetBatchQuantity(ctx, row.ID, row.Quantity-take); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing batch quantity")
		}
		remaining -= take
	}
	return nil
}

func buildBatch(product *models.Product, input AddBatchInput, now time.Time) (*models.ProductBatch, error) {
	if input.QuantityInPacks <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch quantity must be at least one pack")
	}
	if input.PackPurchasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidPrice, "pack purchase price must not be negative")
	}

	batchNumber := input.BatchNumber
	if batchNumber == "" {
		batchNumber = fmt.Sprintf("BATCH-%d", now.UnixMilli())
	}

	return &models.ProductBatch{
		ProductID:         product.ID,
		BatchNumber:       batchNumber,
		Quantity:          input.QuantityInPacks * product.UnitsInPack,
		PackPurchasePrice: input.PackPurchasePrice,
		ExpiryDate:        input.ExpiryDate,
	}, nil
}
