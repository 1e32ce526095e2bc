package services

import (
	"context"
	"fmt"

	"cartera/internal/amqp"
	"cartera/internal/core"
	applog "cartera/internal/log"
	"cartera/internal/storage"

	"github.com/google/uuid"
)

const defaultExpenseListLimit = 100

// ExpenseService records manual expenses. Synthetic expenses belong to
// LiabilityService and cannot be created here.
type ExpenseService struct {
	repo   *storage.SQLiteRepository
	pub    EventPublisher
	logger *applog.Logger
}

func NewExpenseService(repo *storage.SQLiteRepository, pub EventPublisher, logger *applog.Logger) *ExpenseService {
	return &ExpenseService{
		repo:   repo,
		pub:    pub,
		logger: logger.WithComponent(applog.ComponentLedger),
	}
}

// Create records a manual expense. A category name, when given, is resolved
// against the seeded category table.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense, categoryName string) (core.Expense, error) {
	e.ID = uuid.NewString()
	e.SourceLiabilityID = ""
	e.SourceMonth = ""

	if categoryName != "" && e.CategoryID == "" {
		cat, err := s.repo.Q().GetCategoryByName(ctx, categoryName)
		if err != nil {
			return core.Expense{}, fmt.Errorf("resolve category %q: %w", categoryName, err)
		}
		e.CategoryID = cat.ID
	}

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.repo.Q().InsertExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		applog.FieldWallet, string(e.Wallet),
		applog.FieldAmountCents, e.Amount.Cents)

	msg := amqp.NewLedgerEventMessage(amqp.EventExpenseCreated, "expense", e.ID)
	msg.Wallet = string(e.Wallet)
	msg.AmountCents = e.Amount.Cents
	msg.Description = e.Description
	publishEvent(ctx, s.logger, s.pub, msg)

	return e, nil
}

// List returns the user's expenses, optionally narrowed to manual or
// liability-generated rows.
func (s *ExpenseService) List(ctx context.Context, userID string, filter storage.ExpenseFilter, limit int) ([]core.Expense, error) {
	if limit <= 0 {
		limit = defaultExpenseListLimit
	}
	expenses, err := s.repo.Q().ListExpenses(ctx, userID, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Categories returns the seeded expense categories.
func (s *ExpenseService) Categories(ctx context.Context) ([]core.ExpenseCategory, error) {
	cats, err := s.repo.Q().ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}
