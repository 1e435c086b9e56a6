package expenses

import (
	"context"
	"errors"
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

type fakeRepo struct {
	expenses map[uuid.UUID]*models.Expense
	invoices map[string]bool
	deleted  []uuid.UUID
	updates  map[string]any
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		expenses: map[uuid.UUID]*models.Expense{},
		invoices: map[string]bool{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, expense *models.Expense) error {
	if f.invoices[expense.InvoiceNumber] {
		return errors.New(`duplicate key value violates unique constraint "ux_expenses_invoice_number"`)
	}
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	f.expenses[expense.ID] = expense
	f.invoices[expense.InvoiceNumber] = true
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *e
	return &clone, nil
}

func (f *fakeRepo) List(ctx context.Context, params pagination.Params) ([]models.Expense, string, error) {
	out := make([]models.Expense, 0, len(f.expenses))
	for _, e := range f.expenses {
		out = append(out, *e)
	}
	return out, "", nil
}

func (f *fakeRepo) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	e, ok := f.expenses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.updates = updates
	if category, ok := updates["category"].(enums.ExpenseCategory); ok {
		e.Category = category
	}
	if amount, ok := updates["amount"].(decimal.Decimal); ok {
		e.Amount = amount
	}
	if invoice, ok := updates["invoice_number"].(string); ok {
		e.InvoiceNumber = invoice
	}
	return nil
}

func (f *fakeRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	delete(f.expenses, id)
	return nil
}

func newTestService(t *testing.T, repo *fakeRepo) Service {
	t.Helper()
	svc, err := NewService(fakeTxRunner{}, repo, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func expenseInput(invoice string) ExpenseInput {
	return ExpenseInput{
		ExpenseDate:   time.Now(),
		Category:      enums.ExpenseCategoryUtilities,
		Amount:        decimal.NewFromInt(4500),
		Description:   "Generator diesel for the week",
		PaymentMethod: enums.PaymentMethodCash,
		InvoiceNumber: invoice,
	}
}

func TestCreateExpensePersistsEntry(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	actor := types.Actor{ID: uuid.New(), Role: enums.MemberRoleManager}

	expense, err := svc.Create(context.Background(), actor, expenseInput("INV-001"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if expense.CreatedBy != actor.ID {
		t.Fatalf("expected creator %s, got %s", actor.ID, expense.CreatedBy)
	}
	if expense.LastAction.Action != enums.AuditActionCreate {
		t.Fatalf("expected create last action, got %q", expense.LastAction.Action)
	}
	if len(repo.expenses) != 1 {
		t.Fatalf("expected one stored expense, got %d", len(repo.expenses))
	}
}

func TestCreateExpenseRoleGate(t *testing.T) {
	svc := newTestService(t, newFakeRepo())

	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleStaff},
		expenseInput("INV-001"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestCreateExpenseRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(t, newFakeRepo())
	input := expenseInput("INV-001")
	input.Amount = decimal.Zero

	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin}, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateExpenseRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(t, newFakeRepo())
	input := expenseInput("INV-001")
	input.Category = "groceries"

	_, err := svc.Create(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin}, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateExpenseDuplicateInvoice(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	actor := types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin}

	if _, err := svc.Create(context.Background(), actor, expenseInput("INV-001")); err != nil {
		t.Fatalf("first Create error: %v", err)
	}

	_, err := svc.Create(context.Background(), actor, expenseInput("INV-001"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if len(repo.expenses) != 1 {
		t.Fatalf("duplicate must not persist, got %d rows", len(repo.expenses))
	}
}

func TestUpdateExpenseAppliesFields(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	actor := types.Actor{ID: uuid.New(), Role: enums.MemberRoleManager}

	created, err := svc.Create(context.Background(), actor, expenseInput("INV-001"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	replacement := expenseInput("INV-002")
	replacement.Category = enums.ExpenseCategoryRent
	replacement.Amount = decimal.NewFromInt(90000)

	updated, err := svc.Update(context.Background(), actor, created.ID, replacement)
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Category != enums.ExpenseCategoryRent {
		t.Fatalf("expected rent category, got %q", updated.Category)
	}
	if !updated.Amount.Equal(decimal.NewFromInt(90000)) {
		t.Fatalf("expected amount 90000, got %s", updated.Amount)
	}
	if _, ok := repo.updates["last_action"]; !ok {
		t.Fatal("expected last action stamp in the update")
	}
}

func TestUpdateExpenseNotFound(t *testing.T) {
	svc := newTestService(t, newFakeRepo())

	_, err := svc.Update(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin},
		uuid.New(), expenseInput("INV-001"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteExpenseAdminOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	admin := types.Actor{ID: uuid.New(), Role: enums.MemberRoleAdmin}

	created, err := svc.Create(context.Background(), admin, expenseInput("INV-001"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	err = svc.Delete(context.Background(), types.Actor{ID: uuid.New(), Role: enums.MemberRoleManager}, created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for manager, got %v", err)
	}

	if err := svc.Delete(context.Background(), admin, created.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != created.ID {
		t.Fatalf("expected hard delete of %s, got %+v", created.ID, repo.deleted)
	}
}
