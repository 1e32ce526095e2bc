package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartera/internal/amqp"
	"cartera/internal/core"
	applog "cartera/internal/log"
	"cartera/internal/storage"

	"github.com/google/uuid"
)

// CatalogEntry is one default monthly obligation seeded into a fresh month.
type CatalogEntry struct {
	Name     string
	Cents    int64
	Category string
}

// DefaultCatalog lists the household's recurring obligations in USD cents.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{Name: "Residence Administration", Cents: 10000, Category: "Utility Bills"},
		{Name: "Gas Utility Bill", Cents: 1500, Category: "Utility Bills"},
		{Name: "Internet", Cents: 2500, Category: "Utility Bills"},
		{Name: "Mobile Internet", Cents: 2000, Category: "Utility Bills"},
		{Name: "Water", Cents: 2600, Category: "Utility Bills"},
		{Name: "Mortgage", Cents: 49000, Category: "Other"},
		{Name: "Second Credit Line", Cents: 30000, Category: "Other"},
		{Name: "Credit 1", Cents: 1500000, Category: "Other"},
		{Name: "Credit 2", Cents: 4500000, Category: "Other"},
		{Name: "Uber", Cents: 10000, Category: "Uber"},
	}
}

// LiabilityService tracks fixed monthly obligations and materializes paid
// ones as expenses.
type LiabilityService struct {
	repo   *storage.SQLiteRepository
	pub    EventPublisher
	logger *applog.Logger
}

func NewLiabilityService(repo *storage.SQLiteRepository, pub EventPublisher, logger *applog.Logger) *LiabilityService {
	return &LiabilityService{
		repo:   repo,
		pub:    pub,
		logger: logger.WithComponent(applog.ComponentLedger),
	}
}

// SeedDefaults inserts the default catalog for one user and month. Rows that
// already exist are skipped, so reseeding is safe. Returns the number of new
// rows.
func (s *LiabilityService) SeedDefaults(ctx context.Context, userID string, month core.MonthKey) (int, error) {
	if err := month.Validate(); err != nil {
		return 0, err
	}

	categories := map[string]string{}
	cats, err := s.repo.Q().ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed defaults: %w", err)
	}
	for _, c := range cats {
		categories[c.Name] = c.ID
	}

	inserted := 0
	err = s.repo.Tx(ctx, func(q *storage.Queries) error {
		for _, entry := range DefaultCatalog() {
			ok, err := q.InsertLiabilityIgnoreDuplicate(ctx, core.FixedLiability{
				ID:         uuid.NewString(),
				UserID:     userID,
				Name:       entry.Name,
				Amount:     core.Money{Cents: entry.Cents},
				CategoryID: categories[entry.Category],
				Month:      month,
			})
			if err != nil {
				return err
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed defaults: %w", err)
	}

	if inserted > 0 {
		s.logger.InfoContext(ctx, "Seeded default liabilities",
			applog.FieldMonth, month.String(),
			"inserted", inserted)
		msg := amqp.NewLedgerEventMessage(amqp.EventLiabilitiesSeeded, "fixed_expense", userID)
		msg.Month = month.String()
		publishEvent(ctx, s.logger, s.pub, msg)
	}
	return inserted, nil
}

// Add creates a custom liability for one month.
func (s *LiabilityService) Add(ctx context.Context, l core.FixedLiability) (core.FixedLiability, error) {
	l.ID = uuid.NewString()
	if err := l.Validate(); err != nil {
		return core.FixedLiability{}, err
	}
	if err := s.repo.Q().InsertLiability(ctx, l); err != nil {
		return core.FixedLiability{}, fmt.Errorf("add liability: %w", err)
	}
	return l, nil
}

// PaymentUpdate describes one paid/unpaid transition. When marking paid,
// Amount, Wallet and Date record what was actually paid, which may differ
// from the liability's nominal terms. Zero values fall back to the nominal
// amount, the caller's wallet and the month's due date.
type PaymentUpdate struct {
	LiabilityID string
	Paid        bool
	Amount      core.Money
	Wallet      core.Wallet
	Date        time.Time
}

// SetPaid flips the paid flag. Marking paid writes the synthetic expense
// with the update's payment details; unmarking removes it. Repeating the
// same state is a no-op.
func (s *LiabilityService) SetPaid(ctx context.Context, userID string, wallet core.Wallet, upd PaymentUpdate) error {
	err := s.repo.Tx(ctx, func(q *storage.Queries) error {
		_, err := s.setPaidTx(ctx, q, userID, wallet, upd)
		return err
	})
	if err != nil {
		return err
	}

	event := amqp.EventLiabilityPaid
	if !upd.Paid {
		event = amqp.EventLiabilityUnpaid
	}
	msg := amqp.NewLedgerEventMessage(event, "fixed_expense", upd.LiabilityID)
	msg.Wallet = string(wallet)
	if upd.Wallet != "" {
		msg.Wallet = string(upd.Wallet)
	}
	msg.AmountCents = upd.Amount.Cents
	publishEvent(ctx, s.logger, s.pub, msg)
	return nil
}

// ApplyPayments applies several transitions in one transaction and reports
// how many actually changed state. A failure anywhere rolls back the whole
// batch.
func (s *LiabilityService) ApplyPayments(ctx context.Context, userID string, wallet core.Wallet, updates []PaymentUpdate) (int, error) {
	paidChanged, unpaidChanged := 0, 0
	err := s.repo.Tx(ctx, func(q *storage.Queries) error {
		for _, upd := range updates {
			didChange, err := s.setPaidTx(ctx, q, userID, wallet, upd)
			if err != nil {
				return err
			}
			if didChange {
				if upd.Paid {
					paidChanged++
				} else {
					unpaidChanged++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if paidChanged > 0 {
		msg := amqp.NewLedgerEventMessage(amqp.EventLiabilityPaid, "fixed_expense", fmt.Sprintf("batch:%d", paidChanged))
		msg.Wallet = string(wallet)
		publishEvent(ctx, s.logger, s.pub, msg)
	}
	if unpaidChanged > 0 {
		msg := amqp.NewLedgerEventMessage(amqp.EventLiabilityUnpaid, "fixed_expense", fmt.Sprintf("batch:%d", unpaidChanged))
		msg.Wallet = string(wallet)
		publishEvent(ctx, s.logger, s.pub, msg)
	}
	return paidChanged + unpaidChanged, nil
}

func (s *LiabilityService) setPaidTx(ctx context.Context, q *storage.Queries, userID string, wallet core.Wallet, upd PaymentUpdate) (bool, error) {
	l, err := q.GetLiability(ctx, upd.LiabilityID)
	if err != nil {
		return false, err
	}
	if l.UserID != userID {
		// Foreign rows look like missing rows.
		return false, core.ErrNotFound
	}

	changed := l.Paid != upd.Paid
	if changed {
		if err := q.SetLiabilityPaid(ctx, upd.LiabilityID, upd.Paid); err != nil {
			return false, err
		}
	}

	if upd.Paid {
		exists, err := q.SyntheticExpenseExists(ctx, l.ID)
		if err != nil {
			return false, err
		}
		if !exists {
			amount := l.Amount
			if upd.Amount.Cents != 0 {
				if upd.Amount.Cents < 0 {
					return false, core.ErrInvalidAmount
				}
				amount = upd.Amount
			}
			payer := wallet
			if upd.Wallet != "" {
				payer = upd.Wallet
			}
			date := l.Month.DueDate()
			if !upd.Date.IsZero() {
				date = upd.Date
			}

			err := q.InsertExpense(ctx, core.Expense{
				ID:                uuid.NewString(),
				UserID:            userID,
				Amount:            amount,
				CategoryID:        l.CategoryID,
				Description:       core.SyntheticDescription(l.Name, l.Month),
				Date:              date,
				Wallet:            payer,
				SourceLiabilityID: l.ID,
				SourceMonth:       l.Month,
			})
			if err != nil && !errors.Is(err, core.ErrDuplicate) {
				return false, err
			}
		}
	} else {
		if err := q.DeleteSyntheticExpense(ctx, l.ID); err != nil {
			return false, err
		}
	}

	return changed, nil
}

// Update rewrites the editable fields and keeps any synthetic expense in
// sync with the new amount and name.
func (s *LiabilityService) Update(ctx context.Context, userID string, wallet core.Wallet, l core.FixedLiability) error {
	return s.repo.Tx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetLiability(ctx, l.ID)
		if err != nil {
			return err
		}
		if existing.UserID != userID {
			return core.ErrNotFound
		}

		l.UserID = existing.UserID
		l.Month = existing.Month
		l.Paid = existing.Paid
		if err := l.Validate(); err != nil {
			return err
		}
		if err := q.UpdateLiability(ctx, l); err != nil {
			return err
		}

		exists, err := q.SyntheticExpenseExists(ctx, l.ID)
		if err != nil {
			return err
		}
		if exists {
			if err := q.DeleteSyntheticExpense(ctx, l.ID); err != nil {
				return err
			}
			return q.InsertExpense(ctx, core.Expense{
				ID:                uuid.NewString(),
				UserID:            userID,
				Amount:            l.Amount,
				CategoryID:        l.CategoryID,
				Description:       core.SyntheticDescription(l.Name, l.Month),
				Date:              l.Month.DueDate(),
				Wallet:            wallet,
				SourceLiabilityID: l.ID,
				SourceMonth:       l.Month,
			})
		}
		return nil
	})
}

// ListByMonth returns the user's liabilities for one month.
func (s *LiabilityService) ListByMonth(ctx context.Context, userID string, month core.MonthKey) ([]core.FixedLiability, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	liabilities, err := s.repo.Q().ListLiabilitiesByMonth(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("list liabilities: %w", err)
	}
	return liabilities, nil
}
