package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cartera/internal/core"
	applog "cartera/internal/log"
	"cartera/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// WalletBalance is lifetime income minus lifetime spending for one wallet.
type WalletBalance struct {
	Wallet  core.Wallet `json:"wallet"`
	Income  core.Money  `json:"income"`
	Spent   core.Money  `json:"spent"`
	Balance core.Money  `json:"balance"`
}

// LiabilitySummary aggregates one user's obligations for a month.
type LiabilitySummary struct {
	Total     core.Money `json:"total"`
	Paid      core.Money `json:"paid"`
	Remaining core.Money `json:"remaining"`
}

// MonthFlow pairs income and spending totals for one calendar month.
type MonthFlow struct {
	Month   core.MonthKey `json:"month"`
	Income  core.Money    `json:"income"`
	Expense core.Money    `json:"expense"`
}

// CalendarEvent is one dated entry on the month view.
type CalendarEvent struct {
	Date   time.Time  `json:"date"`
	Kind   string     `json:"kind"`
	Title  string     `json:"title"`
	Amount core.Money `json:"amount"`
}

// Overview is the dashboard snapshot for one user.
type Overview struct {
	Balances       []WalletBalance  `json:"balances"`
	ExpectedIncome core.Money       `json:"expected_income"`
	Liabilities    LiabilitySummary `json:"liabilities"`
	NetAssets      core.Money       `json:"net_assets"`
	Rate           decimal.Decimal  `json:"exchange_rate"`
}

// SummaryService aggregates balances, forecasts and chart data. It shares
// the income rate threshold so forecasts match what recording would write.
type SummaryService struct {
	repo      *storage.SQLiteRepository
	rates     *RateService
	threshold decimal.Decimal
	profiles  map[core.Wallet]core.WalletProfile
	logger    *applog.Logger
}

func NewSummaryService(repo *storage.SQLiteRepository, rates *RateService, threshold decimal.Decimal, profiles []core.WalletProfile, logger *applog.Logger) *SummaryService {
	byWallet := make(map[core.Wallet]core.WalletProfile, len(profiles))
	for _, p := range profiles {
		byWallet[p.Wallet] = p
	}
	return &SummaryService{
		repo:      repo,
		rates:     rates,
		threshold: threshold,
		profiles:  byWallet,
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// WalletBalance computes lifetime income minus spending for one wallet.
func (s *SummaryService) WalletBalance(ctx context.Context, w core.Wallet) (WalletBalance, error) {
	income, err := s.repo.Q().SumIncomeByWallet(ctx, w)
	if err != nil {
		return WalletBalance{}, err
	}
	spent, err := s.repo.Q().SumExpensesByWallet(ctx, w)
	if err != nil {
		return WalletBalance{}, err
	}
	return WalletBalance{
		Wallet:  w,
		Income:  core.Money{Cents: income},
		Spent:   core.Money{Cents: spent},
		Balance: core.Money{Cents: income - spent},
	}, nil
}

// ExpectedIncome projects this month's salary for one wallet. Zero once the
// pay day has passed.
func (s *SummaryService) ExpectedIncome(ctx context.Context, w core.Wallet, today time.Time) (core.Money, error) {
	profile, ok := s.profiles[w]
	if !ok {
		return core.Money{}, core.ErrUnknownWallet
	}
	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return core.ExpectedIncome(profile, s.threshold, rate.Rate, today), nil
}

// LiabilityTotals aggregates one user's obligations for a month.
func (s *SummaryService) LiabilityTotals(ctx context.Context, userID string, month core.MonthKey) (LiabilitySummary, error) {
	total, paid, err := s.repo.Q().LiabilityTotals(ctx, userID, month)
	if err != nil {
		return LiabilitySummary{}, err
	}
	return LiabilitySummary{
		Total:     core.Money{Cents: total},
		Paid:      core.Money{Cents: paid},
		Remaining: core.Money{Cents: total - paid},
	}, nil
}

// Overview gathers the dashboard snapshot concurrently.
func (s *SummaryService) Overview(ctx context.Context, userID string, wallet core.Wallet, month core.MonthKey, today time.Time) (Overview, error) {
	var (
		overview Overview
		expected core.Money
		summary  LiabilitySummary
		netCents int64
	)

	wallets := make([]core.Wallet, 0, len(s.profiles))
	for w := range s.profiles {
		wallets = append(wallets, w)
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i] < wallets[j] })
	balances := make([]WalletBalance, len(wallets))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range wallets {
		g.Go(func() error {
			b, err := s.WalletBalance(gctx, w)
			if err != nil {
				return err
			}
			balances[i] = b
			return nil
		})
	}
	g.Go(func() error {
		var err error
		expected, err = s.ExpectedIncome(gctx, wallet, today)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = s.LiabilityTotals(gctx, userID, month)
		return err
	})
	g.Go(func() error {
		var err error
		netCents, err = s.repo.Q().SumAssetValue(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("build overview: %w", err)
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return Overview{}, err
	}

	overview.Balances = balances
	overview.ExpectedIncome = expected
	overview.Liabilities = summary
	overview.NetAssets = core.Money{Cents: netCents}
	overview.Rate = rate.Rate
	return overview, nil
}

// CategoryBreakdown sums the user's spending per category.
func (s *SummaryService) CategoryBreakdown(ctx context.Context, userID string) ([]storage.CategorySum, error) {
	sums, err := s.repo.Q().CategorySums(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return sums, nil
}

// MonthlyFlow merges per-month income and expense totals, oldest first.
// Income is tracked per household, expenses per user.
func (s *SummaryService) MonthlyFlow(ctx context.Context, userID string) ([]MonthFlow, error) {
	incomes, err := s.repo.Q().MonthlyIncomeTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("monthly flow: %w", err)
	}
	expenses, err := s.repo.Q().MonthlyExpenseTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("monthly flow: %w", err)
	}

	byMonth := map[core.MonthKey]*MonthFlow{}
	for _, mt := range incomes {
		byMonth[mt.Month] = &MonthFlow{Month: mt.Month, Income: core.Money{Cents: mt.Cents}}
	}
	for _, mt := range expenses {
		if f, ok := byMonth[mt.Month]; ok {
			f.Expense = core.Money{Cents: mt.Cents}
		} else {
			byMonth[mt.Month] = &MonthFlow{Month: mt.Month, Expense: core.Money{Cents: mt.Cents}}
		}
	}

	flows := make([]MonthFlow, 0, len(byMonth))
	for _, f := range byMonth {
		flows = append(flows, *f)
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].Month < flows[j].Month })
	return flows, nil
}

// CalendarEvents lists the month's dated entries: recorded income and
// expenses, the liability due date, and the wallet's upcoming pay day.
func (s *SummaryService) CalendarEvents(ctx context.Context, userID string, wallet core.Wallet, month core.MonthKey) ([]CalendarEvent, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}

	first, _ := time.Parse("2006-01", month.String())
	last := first.AddDate(0, 1, -1)
	from, to := first.Format("2006-01-02"), last.Format("2006-01-02")

	var events []CalendarEvent

	incomes, err := s.repo.Q().ListIncomeBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("calendar events: %w", err)
	}
	for _, in := range incomes {
		events = append(events, CalendarEvent{
			Date:   in.Date,
			Kind:   "income",
			Title:  in.Name,
			Amount: in.AmountTarget,
		})
	}

	expenses, err := s.repo.Q().ListExpensesBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("calendar events: %w", err)
	}
	for _, e := range expenses {
		events = append(events, CalendarEvent{
			Date:   e.Date,
			Kind:   "expense",
			Title:  e.Description,
			Amount: e.Amount,
		})
	}

	liabilities, err := s.repo.Q().ListLiabilitiesByMonth(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("calendar events: %w", err)
	}
	due := month.DueDate()
	for _, l := range liabilities {
		if l.Paid {
			continue
		}
		events = append(events, CalendarEvent{
			Date:   due,
			Kind:   "liability_due",
			Title:  l.Name,
			Amount: l.Amount,
		})
	}

	if profile, ok := s.profiles[wallet]; ok {
		payDay := profile.PayDay
		if lastDay := last.Day(); payDay > lastDay {
			payDay = lastDay
		}
		events = append(events, CalendarEvent{
			Date:  time.Date(first.Year(), first.Month(), payDay, 0, 0, 0, 0, time.UTC),
			Kind:  "payday",
			Title: fmt.Sprintf("Pay day (%s)", wallet),
		})
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].Kind < events[j].Kind
		}
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}
