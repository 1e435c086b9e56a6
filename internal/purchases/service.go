package purchases

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/internal/audit"
	"github.com/angelmondragon/shopledger-backend/internal/products"
	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopledger-backend/pkg/errors"
	"github.com/angelmondragon/shopledger-backend/pkg/outbox"
	"github.com/angelmondragon/shopledger-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shopledger-backend/pkg/pagination"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// batchLedger is the slice of the product service intake writes through.
type batchLedger interface {
	AppendBatch(ctx context.Context, tx *gorm.DB, productID uuid.UUID, input products.AddBatchInput) (*models.ProductBatch, error)
	RemoveBatches(ctx context.Context, tx *gorm.DB, productID uuid.UUID, batchNumber string) error
	UpdateStandardPrices(ctx context.Context, tx *gorm.DB, productID uuid.UUID, packPrice, unitPrice decimal.Decimal) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns supplier intake and its revert-and-replace lifecycle.
type Service interface {
	Create(ctx context.Context, actor types.Actor, input CreatePurchaseInput) (*models.Purchase, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	List(ctx context.Context, params pagination.Params) ([]models.Purchase, string, error)
	Update(ctx context.Context, actor types.Actor, id uuid.UUID, input CreatePurchaseInput) (*models.Purchase, error)
	Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error
}

type service struct {
	tx     txRunner
	repo   Repository
	ledger batchLedger
	audit  auditRecorder
	outbox outboxPublisher
}

// NewService builds the purchase service.
func NewService(tx txRunner, repo Repository, ledger batchLedger, auditSvc auditRecorder, publisher outboxPublisher) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("batch ledger required")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		ledger: ledger,
		audit:  auditSvc,
		outbox: publisher,
	}, nil
}

func (s *service) Create(ctx context.Context, actor types.Actor, input CreatePurchaseInput) (*models.Purchase, error) {
	if !actor.CanManagePurchases() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not record purchases")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var created *models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items, err := s.appendIntakeBatches(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		purchase := &models.Purchase{
			PurchaseDate: input.PurchaseDate,
			SupplierID:   input.SupplierID,
			CreatedBy:    actor.ID,
			Items:        items,
			LastAction:   types.NewLastAction(enums.AuditActionCreate, actor.ID, ""),
		}
		if err := s.repo.WithTx(tx).Create(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting purchase")
		}

		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.PurchaseRef{ID: purchase.ID},
				Action:         enums.AuditActionCreate,
				NewValue:       purchase,
				SkipLastAction: true,
			})
		}
		if s.outbox != nil {
			if err := s.emitPurchaseEvent(ctx, tx, actor, purchase, enums.EventPurchaseCreated); err != nil {
				return err
			}
		}

		created = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "purchase %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading purchase")
	}
	return purchase, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Purchase, string, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing purchases")
	}
	return rows, next, nil
}

// Update reverts every batch the old document appended, then replays the new
// document as if it were a fresh intake. Batches are matched by number, so a
// sale that already drew from an old batch loses that lot's remainder — the
// replacement quantities are authoritative.
func (s *service) Update(ctx context.Context, actor types.Actor, id uuid.UUID, input CreatePurchaseInput) (*models.Purchase, error) {
	if !actor.CanManagePurchases() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not edit purchases")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		before, err := repo.FindByID(ctx, id)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "purchase %s not found", id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading purchase")
		}

		if err := s.revertIntakeBatches(ctx, tx, before.Items); err != nil {
			return err
		}

		items, err := s.appendIntakeBatches(ctx, tx, input.Items)
		if err != nil {
			return err
		}
		if err := repo.ReplaceItems(ctx, id, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing purchase items")
		}

		la := types.NewLastAction(enums.AuditActionUpdate, actor.ID, "")
		if err := repo.UpdateFields(ctx, id, map[string]any{
			"purchase_date":  input.PurchaseDate,
			"supplier_id":    input.SupplierID,
			"last_action":    la.Action,
			"last_action_by": la.PerformedBy,
			"last_action_at": la.PerformedAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating purchase")
		}

		updated, err = repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading purchase")
		}

		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.PurchaseRef{ID: id},
				Action:         enums.AuditActionUpdate,
				OldValue:       before,
				NewValue:       updated,
				SkipLastAction: true,
			})
		}
		if s.outbox != nil {
			if err := s.emitPurchaseEvent(ctx, tx, actor, before, enums.EventPurchaseReverted); err != nil {
				return err
			}
			if err := s.emitPurchaseEvent(ctx, tx, actor, updated, enums.EventPurchaseCreated); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	if !actor.CanDeletePurchases() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins may delete purchases")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		before, err := repo.FindByID(ctx, id)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "purchase %s not found", id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading purchase")
		}

		if err := s.revertIntakeBatches(ctx, tx, before.Items); err != nil {
			return err
		}

		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.PurchaseRef{ID: id},
				Action:         enums.AuditActionDelete,
				OldValue:       before,
				SkipLastAction: true,
			})
		}

		if err := repo.HardDelete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting purchase")
		}

		if s.outbox != nil {
			return s.emitPurchaseEvent(ctx, tx, actor, before, enums.EventPurchaseReverted)
		}
		return nil
	})
}

func (s *service) appendIntakeBatches(ctx context.Context, tx *gorm.DB, inputs []PurchaseItemInput) ([]models.PurchaseItem, error) {
	items := make([]models.PurchaseItem, 0, len(inputs))
	for _, in := range inputs {
		batch, err := s.ledger.AppendBatch(ctx, tx, in.ProductID, products.AddBatchInput{
			BatchNumber:       in.BatchNumber,
			QuantityInPacks:   in.Quantity,
			PackPurchasePrice: in.PackPurchasePrice,
			ExpiryDate:        in.ExpiryDate,
		})
		if err != nil {
			return nil, err
		}

		if in.NewStandardPackPrice != nil && in.NewStandardUnitPrice != nil {
			if err := s.ledger.UpdateStandardPrices(ctx, tx, in.ProductID, *in.NewStandardPackPrice, *in.NewStandardUnitPrice); err != nil {
				return nil, err
			}
		}

		items = append(items, models.PurchaseItem{
			ProductID:         in.ProductID,
			Category:          in.Category,
			BatchNumber:       batch.BatchNumber,
			Quantity:          in.Quantity,
			TotalCost:         in.TotalCost,
			PackPurchasePrice: in.PackPurchasePrice,
			UnitPurchasePrice: in.UnitPurchasePrice,
			ExpiryDate:        in.ExpiryDate,
		})
	}
	return items, nil
}

func (s *service) revertIntakeBatches(ctx context.Context, tx *gorm.DB, items []models.PurchaseItem) error {
	for _, item := range items {
		if err := s.ledger.RemoveBatches(ctx, tx, item.ProductID, item.BatchNumber); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) emitPurchaseEvent(ctx context.Context, tx *gorm.DB, actor types.Actor, purchase *models.Purchase, eventType enums.OutboxEventType) error {
	lines := make([]payloads.PurchaseLine, 0, len(purchase.Items))
	for _, item := range purchase.Items {
		lines = append(lines, payloads.PurchaseLine{
			ProductID:   item.ProductID,
			BatchNumber: item.BatchNumber,
			Quantity:    item.Quantity,
			ExpiryDate:  item.ExpiryDate,
		})
	}

	var data any
	version := payloads.PurchaseCreatedVersion
	if eventType == enums.EventPurchaseReverted {
		data = payloads.PurchaseReverted{PurchaseID: purchase.ID, Lines: lines}
		version = payloads.PurchaseRevertedVersion
	} else {
		supplierID := purchase.SupplierID
		data = payloads.PurchaseCreated{
			PurchaseID:   purchase.ID,
			SupplierID:   &supplierID,
			PurchaseDate: purchase.PurchaseDate,
			Lines:        lines,
		}
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePurchase,
		AggregateID:   purchase.ID,
		Actor:         &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
		Data:          data,
		Version:       version,
	})
}

func validateInput(input CreatePurchaseInput) error {
	if input.PurchaseDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase date required")
	}
	if input.SupplierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase requires at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least one pack")
		}
		if item.TotalCost.IsNegative() || item.PackPurchasePrice.IsNegative() || item.UnitPurchasePrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeInvalidPrice, "purchase costs must not be negative")
		}
	}
	return nil
}
