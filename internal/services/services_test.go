package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cartera/internal/core"
	applog "cartera/internal/log"
	"cartera/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// testEnv wires every service against a real SQLite database in a temp dir.
type testEnv struct {
	repo        *storage.SQLiteRepository
	rates       *RateService
	income      *IncomeService
	liabilities *LiabilityService
	expenses    *ExpenseService
	assets      *AssetService
	summary     *SummaryService
	rafael      core.User
	jessica     core.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithThreshold(t, 4400)
}

func newTestEnvWithThreshold(t *testing.T, thresholdRate int64) *testEnv {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "cartera.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := applog.New(applog.DefaultConfig())
	profiles := []core.WalletProfile{
		{Wallet: "rafael", Multiplier: 2300, PayDay: 25},
		{Wallet: "jessica", Multiplier: 3000, PayDay: 20},
	}
	threshold := decimal.NewFromInt(thresholdRate)

	env := &testEnv{repo: repo}
	env.rates = NewRateService(repo, nil, logger)
	env.income = NewIncomeService(repo, env.rates, threshold, profiles, nil, logger)
	env.liabilities = NewLiabilityService(repo, nil, logger)
	env.expenses = NewExpenseService(repo, nil, logger)
	env.assets = NewAssetService(repo, nil, logger)
	env.summary = NewSummaryService(repo, env.rates, threshold, profiles, logger)

	env.rafael = env.createUser(t, "rafael")
	env.jessica = env.createUser(t, "jessica")
	return env
}

func (e *testEnv) createUser(t *testing.T, username string) core.User {
	t.Helper()
	u := core.User{ID: uuid.NewString(), Username: username, PasswordHash: "x"}
	if err := e.repo.Q().CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s) error = %v", username, err)
	}
	return u
}

func (e *testEnv) activateRate(t *testing.T, value string) core.ExchangeRate {
	t.Helper()
	rate, err := e.rates.Activate(context.Background(), mustDecimal(t, value), testDate(1), "")
	if err != nil {
		t.Fatalf("Activate(%s) error = %v", value, err)
	}
	return rate
}

// testDate returns a day inside March 2025, the month used across these
// tests.
func testDate(day int) time.Time {
	return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
}

const testMonth = core.MonthKey("2025-03")

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%s) error = %v", s, err)
	}
	return d
}
