package services

import (
	"context"
	"fmt"
	"time"

	"cartera/internal/amqp"
	"cartera/internal/core"
	applog "cartera/internal/log"
	"cartera/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultIncomeListLimit = 100

// IncomeService records salary and extra income, converting COP amounts to
// USD with the rate floor rule.
type IncomeService struct {
	repo      *storage.SQLiteRepository
	rates     *RateService
	threshold decimal.Decimal
	profiles  map[core.Wallet]core.WalletProfile
	pub       EventPublisher
	logger    *applog.Logger
}

func NewIncomeService(repo *storage.SQLiteRepository, rates *RateService, threshold decimal.Decimal, profiles []core.WalletProfile, pub EventPublisher, logger *applog.Logger) *IncomeService {
	byWallet := make(map[core.Wallet]core.WalletProfile, len(profiles))
	for _, p := range profiles {
		byWallet[p.Wallet] = p
	}
	return &IncomeService{
		repo:      repo,
		rates:     rates,
		threshold: threshold,
		profiles:  byWallet,
		pub:       pub,
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// Profile returns the payment terms for a wallet.
func (s *IncomeService) Profile(w core.Wallet) (core.WalletProfile, bool) {
	p, ok := s.profiles[w]
	return p, ok
}

// Profiles returns all configured wallet profiles.
func (s *IncomeService) Profiles() []core.WalletProfile {
	out := make([]core.WalletProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out
}

// RecordSalary records the fixed monthly salary for one wallet using the
// current exchange rate.
func (s *IncomeService) RecordSalary(ctx context.Context, userID string, wallet core.Wallet, name string, date time.Time) (core.Income, error) {
	profile, ok := s.profiles[wallet]
	if !ok {
		return core.Income{}, core.ErrUnknownWallet
	}
	if name == "" {
		name = "Salary"
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return core.Income{}, err
	}

	calc := core.ComputeIncome(profile.Multiplier, s.threshold, rate.Rate)
	return s.record(ctx, userID, wallet, name, calc, date)
}

// RecordExtra records a one-off COP amount converted with the same rate
// floor as salaries.
func (s *IncomeService) RecordExtra(ctx context.Context, userID string, wallet core.Wallet, name string, amountLocal core.Money, date time.Time) (core.Income, error) {
	if _, ok := s.profiles[wallet]; !ok {
		return core.Income{}, core.ErrUnknownWallet
	}
	if err := amountLocal.Validate(); err != nil {
		return core.Income{}, err
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return core.Income{}, err
	}

	calc := core.ConvertLocal(amountLocal, s.threshold, rate.Rate)
	return s.record(ctx, userID, wallet, name, calc, date)
}

func (s *IncomeService) record(ctx context.Context, userID string, wallet core.Wallet, name string, calc core.IncomeCalculation, date time.Time) (core.Income, error) {
	income := core.Income{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		AmountLocal:  calc.AmountLocal,
		RateUsed:     calc.RateUsed,
		AmountTarget: calc.AmountTarget,
		Date:         date,
		Wallet:       wallet,
	}
	if err := income.Validate(); err != nil {
		return core.Income{}, err
	}

	if err := s.repo.Q().InsertIncome(ctx, income); err != nil {
		return core.Income{}, fmt.Errorf("record income: %w", err)
	}

	s.logger.InfoContext(ctx, "Income recorded",
		applog.FieldWallet, string(wallet),
		applog.FieldAmountCents, income.AmountTarget.Cents,
		applog.FieldRate, income.RateUsed.String())

	msg := amqp.NewLedgerEventMessage(amqp.EventIncomeRecorded, "income", income.ID)
	msg.Wallet = string(wallet)
	msg.AmountCents = income.AmountTarget.Cents
	msg.Description = name
	publishEvent(ctx, s.logger, s.pub, msg)

	return income, nil
}

// List returns recent income entries across both wallets.
func (s *IncomeService) List(ctx context.Context, limit int) ([]core.Income, error) {
	if limit <= 0 {
		limit = defaultIncomeListLimit
	}
	incomes, err := s.repo.Q().ListIncome(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return incomes, nil
}
