package payments

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/internal/audit"
	"github.com/angelmondragon/shopledger-backend/internal/orders"
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

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ApplyPaymentInput is one incremental settlement against an order's balance.
type ApplyPaymentInput struct {
	Amount decimal.Decimal     `json:"amount_paid"`
	Method enums.PaymentMethod `json:"payment_method" validate:"required"`
}

// Service drives the pending → partial → paid state machine.
type Service interface {
	ApplyPayment(ctx context.Context, actor types.Actor, orderID uuid.UUID, input ApplyPaymentInput) (*models.Order, error)
	ListDebtors(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
}

type service struct {
	tx     txRunner
	repo   orders.Repository
	audit  auditRecorder
	outbox outboxPublisher
}

// NewService builds the payment service on top of the order repository.
func NewService(tx txRunner, repo orders.Repository, auditSvc auditRecorder, publisher outboxPublisher) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		audit:  auditSvc,
		outbox: publisher,
	}, nil
}

// ApplyPayment validates the four preconditions in order — the first failure
// wins — then moves the balance. The status only ever advances: pending or
// partial toward paid, never back.
func (s *service) ApplyPayment(ctx context.Context, actor types.Actor, orderID uuid.UUID, input ApplyPaymentInput) (*models.Order, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", input.Method)
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", orderID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeAlreadyPaid, "order already fully paid")
		}
		if !input.Amount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeInvalidPayment, "payment amount must be greater than zero")
		}
		if input.Amount.GreaterThan(order.Balance) {
			return pkgerrors.Newf(pkgerrors.CodeOverPayment,
				"payment %s exceeds outstanding balance %s",
				input.Amount.StringFixed(2), order.Balance.StringFixed(2))
		}

		before := *order

		newPaid := order.AmountPaid.Add(input.Amount)
		newBalance := order.Balance.Sub(input.Amount)
		newStatus := enums.PaymentStatusPartial
		if newBalance.IsZero() {
			newStatus = enums.PaymentStatusPaid
		}

		reason := fmt.Sprintf("Debt payment of ₦%s received via %s", input.Amount.String(), input.Method)
		la := types.NewLastAction(enums.AuditActionUpdate, actor.ID, reason)
		updates := map[string]any{
			"amount_paid":        newPaid,
			"balance":            newBalance,
			"payment_status":     newStatus,
			"last_action":        la.Action,
			"last_action_by":     la.PerformedBy,
			"last_action_at":     la.PerformedAt,
			"last_action_reason": la.Reason,
		}
		if err := repo.UpdateFields(ctx, orderID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying payment")
		}

		order.AmountPaid = newPaid
		order.Balance = newBalance
		order.PaymentStatus = newStatus
		order.LastAction = la

		if s.audit != nil {
			s.audit.Record(ctx, tx, audit.Entry{
				ActorID:        actor.ID,
				Entity:         audit.OrderRef{ID: orderID},
				Action:         enums.AuditActionUpdate,
				OldValue:       before,
				NewValue:       order,
				Reason:         reason,
				SkipLastAction: true,
			})
		}

		if s.outbox != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventDebtPaymentRecorded,
				AggregateType: enums.AggregateOrder,
				AggregateID:   orderID,
				Actor:         &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
				Data: payloads.DebtPaymentRecorded{
					OrderID:       orderID,
					Amount:        input.Amount,
					Method:        input.Method,
					AmountPaid:    newPaid,
					Balance:       newBalance,
					PaymentStatus: newStatus,
				},
				Version: payloads.DebtPaymentRecordedVersion,
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListDebtors returns orders still owing money: positive balance, a
// non-final payment status, and not deleted.
func (s *service) ListDebtors(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	rows, next, err := s.repo.ListDebtors(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing debtors")
	}
	return rows, next, nil
}
