package expenses

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/internal/audit"
	dbpkg "github.com/angelmondragon/shopledger-backend/pkg/db"
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

// Service owns operating expense entries.
type Service interface {
	Create(ctx context.Context, actor types.Actor, input ExpenseInput) (*models.Expense, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	List(ctx context.Context, params pagination.Params) ([]models.Expense, string, error)
	Update(ctx context.Context, actor types.Actor, id uuid.UUID, input ExpenseInput) (*models.Expense, error)
	Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error
}

type service struct {
	tx    txRunner
	repo  Repository
	audit auditRecorder
}

// NewService builds the expense service.
func NewService(tx txRunner, repo Repository, auditSvc auditRecorder) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("expense repository required")
	}
	return &service{
		tx:    tx,
		repo:  repo,
		audit: auditSvc,
	}, nil
}

func (s *service) Create(ctx context.Context, actor types.Actor, input ExpenseInput) (*models.Expense, error) {
	if !actor.CanManageExpenses() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not record expenses")
	}
	if err := validateExpense(input); err != nil {
		return nil, err
	}

	var created *models.Expense
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		expense := &models.Expense{
			ExpenseDate:   input.ExpenseDate,
			Category:      input.Category,
			Amount:        input.Amount,
			Description:   input.Description,
			PaymentMethod: input.PaymentMethod,
			InvoiceNumber: input.InvoiceNumber,
			CreatedBy:     actor.ID,
			LastAction:    types.NewLastAction(enums.AuditActionCreate, actor.ID, ""),
		}
		if err := s.repo.WithTx(tx).Create(ctx, expense); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_expenses_invoice_number") {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "expense with invoice %s already recorded", input.InvoiceNumber)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting expense")
		}

		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.ExpenseRef{ID: expense.ID},
				Action:         enums.AuditActionCreate,
				NewValue:       expense,
				Reason:         fmt.Sprintf("Created new %s expense of ₦%s", expense.Category, expense.Amount.StringFixed(2)),
				SkipLastAction: true,
			})
		}

		created = expense
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "expense %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading expense")
	}
	return expense, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Expense, string, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing expenses")
	}
	return rows, next, nil
}

func (s *service) Update(ctx context.Context, actor types.Actor, id uuid.UUID, input ExpenseInput) (*models.Expense, error) {
	if !actor.CanManageExpenses() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not edit expenses")
	}
	if err := validateExpense(input); err != nil {
		return nil, err
	}

	var updated *models.Expense
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		before, err := repo.FindByID(ctx, id)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "expense %s not found", id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading expense")
		}

		la := types.NewLastAction(enums.AuditActionUpdate, actor.ID, "")
		if err := repo.UpdateFields(ctx, id, map[string]any{
			"expense_date":   input.ExpenseDate,
			"category":       input.Category,
			"amount":         input.Amount,
			"description":    input.Description,
			"payment_method": input.PaymentMethod,
			"invoice_number": input.InvoiceNumber,
			"last_action":    la.Action,
			"last_action_by": la.PerformedBy,
			"last_action_at": la.PerformedAt,
		}); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_expenses_invoice_number") {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "expense with invoice %s already recorded", input.InvoiceNumber)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating expense")
		}

		updated, err = repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading expense")
		}

		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.ExpenseRef{ID: id},
				Action:         enums.AuditActionUpdate,
				OldValue:       before,
				NewValue:       updated,
				Reason:         fmt.Sprintf("Updated %s expense", updated.Category),
				SkipLastAction: true,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	if !actor.CanDeleteExpenses() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins may delete expenses")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		before, err := repo.FindByID(ctx, id)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "expense %s not found", id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading expense")
		}

		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.ExpenseRef{ID: id},
				Action:         enums.AuditActionDelete,
				OldValue:       before,
				Reason:         fmt.Sprintf("Deleted %s expense of ₦%s", before.Category, before.Amount.StringFixed(2)),
				SkipLastAction: true,
			})
		}

		if err := repo.HardDelete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting expense")
		}
		return nil
	})
}

func validateExpense(input ExpenseInput) error {
	if input.ExpenseDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "expense date required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid expense category %q", input.Category)
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "expense amount must be greater than zero")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", input.PaymentMethod)
	}
	if input.InvoiceNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice number required")
	}
	return nil
}
