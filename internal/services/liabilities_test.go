package services

import (
	"context"
	"errors"
	"testing"

	"cartera/internal/core"
	"cartera/internal/storage"
)

func TestSeedDefaults_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inserted, err := env.liabilities.SeedDefaults(ctx, env.rafael.ID, testMonth)
	if err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	if want := len(DefaultCatalog()); inserted != want {
		t.Fatalf("first seed inserted %d rows, want %d", inserted, want)
	}

	inserted, err = env.liabilities.SeedDefaults(ctx, env.rafael.ID, testMonth)
	if err != nil {
		t.Fatalf("second SeedDefaults() error = %v", err)
	}
	if inserted != 0 {
		t.Fatalf("second seed inserted %d rows, want 0", inserted)
	}

	liabilities, err := env.liabilities.ListByMonth(ctx, env.rafael.ID, testMonth)
	if err != nil {
		t.Fatalf("ListByMonth() error = %v", err)
	}
	if len(liabilities) != len(DefaultCatalog()) {
		t.Fatalf("got %d liabilities, want %d", len(liabilities), len(DefaultCatalog()))
	}

	byName := map[string]core.FixedLiability{}
	for _, l := range liabilities {
		byName[l.Name] = l
		if l.Paid {
			t.Errorf("liability %s seeded as paid", l.Name)
		}
	}
	if got := byName["Mortgage"].Amount.Cents; got != 49000 {
		t.Errorf("Mortgage amount = %d, want 49000", got)
	}
	if got := byName["Credit 2"].Amount.Cents; got != 4500000 {
		t.Errorf("Credit 2 amount = %d, want 4500000", got)
	}
	if byName["Internet"].CategoryID == "" {
		t.Error("Internet was seeded without a category")
	}

	// Seeding another month starts fresh.
	inserted, err = env.liabilities.SeedDefaults(ctx, env.rafael.ID, "2025-04")
	if err != nil {
		t.Fatalf("SeedDefaults(2025-04) error = %v", err)
	}
	if want := len(DefaultCatalog()); inserted != want {
		t.Errorf("new month seed inserted %d rows, want %d", inserted, want)
	}
}

func TestSetPaid_SyntheticExpenseRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.liabilities.SeedDefaults(ctx, env.rafael.ID, testMonth); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	internet := findLiability(t, env, "Internet")

	if err := env.liabilities.SetPaid(ctx, env.rafael.ID, "rafael", PaymentUpdate{LiabilityID: internet.ID, Paid: true}); err != nil {
		t.Fatalf("SetPaid(true) error = %v", err)
	}

	fixed, err := env.expenses.List(ctx, env.rafael.ID, storage.FilterFixed, 100)
	if err != nil {
		t.Fatalf("List(fixed) error = %v", err)
	}
	if len(fixed) != 1 {
		t.Fatalf("got %d synthetic expenses, want 1", len(fixed))
	}
	e := fixed[0]
	if e.Description != "Fixed Expense: Internet (2025-03)" {
		t.Errorf("description = %q", e.Description)
	}
	if e.Amount.Cents != internet.Amount.Cents {
		t.Errorf("amount = %d, want %d", e.Amount.Cents, internet.Amount.Cents)
	}
	if got := e.Date.Format("2006-01-02"); got != "2025-03-30" {
		t.Errorf("due date = %s, want 2025-03-30", got)
	}
	if e.SourceLiabilityID != internet.ID {
		t.Errorf("source liability = %s, want %s", e.SourceLiabilityID, internet.ID)
	}

	// Paying again changes nothing.
	if err := env.liabilities.SetPaid(ctx, env.rafael.ID, "rafael", PaymentUpdate{LiabilityID: internet.ID, Paid: true}); err != nil {
		t.Fatalf("repeat SetPaid(true) error = %v", err)
	}
	fixed, err = env.expenses.List(ctx, env.rafael.ID, storage.FilterFixed, 100)
	if err != nil {
		t.Fatalf("List(fixed) error = %v", err)
	}
	if len(fixed) != 1 {
		t.Fatalf("after repeat pay got %d synthetic expenses, want 1", len(fixed))
	}

	// Unpaying removes the generated expense.
	if err := env.liabilities.SetPaid(ctx, env.rafael.ID, "rafael", PaymentUpdate{LiabilityID: internet.ID, Paid: false}); err != nil {
		t.Fatalf("SetPaid(false) error = %v", err)
	}
	fixed, err = env.expenses.List(ctx, env.rafael.ID, storage.FilterFixed, 100)
	if err != nil {
		t.Fatalf("List(fixed) error = %v", err)
	}
	if len(fixed) != 0 {
		t.Fatalf("after unpay got %d synthetic expenses, want 0", len(fixed))
	}

	reloaded, err := env.repo.Q().GetLiability(ctx, internet.ID)
	if err != nil {
		t.Fatalf("GetLiability() error = %v", err)
	}
	if reloaded.Paid {
		t.Error("liability still marked paid after unpay")
	}
}

func TestSetPaid_RecordsActualPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.liabilities.SeedDefaults(ctx, env.rafael.ID, testMonth); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	internet := findLiability(t, env, "Internet")

	// The actual payment can differ from the nominal terms: a different
	// amount, a different payer and the real payment date.
	upd := PaymentUpdate{
		LiabilityID: internet.ID,
		Paid:        true,
		Amount:      core.Money{Cents: 2450},
		Wallet:      "jessica",
		Date:        testDate(12),
	}
	if err := env.liabilities.SetPaid(ctx, env.rafael.ID, "rafael", upd); err != nil {
		t.Fatalf("SetPaid() error = %v", err)
	}

	fixed, err := env.expenses.List(ctx, env.rafael.ID, storage.FilterFixed, 100)
	if err != nil {
		t.Fatalf("List(fixed) error = %v", err)
	}
	if len(fixed) != 1 {
		t.Fatalf("got %d synthetic expenses, want 1", len(fixed))
	}
	e := fixed[0]
	if e.Amount.Cents != 2450 {
		t.Errorf("amount = %d, want 2450", e.Amount.Cents)
	}
	if e.Wallet != "jessica" {
		t.Errorf("wallet = %s, want jessica", e.Wallet)
	}
	if got := e.Date.Format("2006-01-02"); got != "2025-03-12" {
		t.Errorf("date = %s, want 2025-03-12", got)
	}

	// A negative paid amount is rejected before anything is written.
	if err := env.liabilities.SetPaid(ctx, env.rafael.ID, "rafael", PaymentUpdate{
		LiabilityID: findLiability(t, env, "Water").ID,
		Paid:        true,
		Amount:      core.Money{Cents: -100},
	}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("SetPaid() with negative amount error = %v, want ErrInvalidAmount", err)
	}
}

func TestSetPaid_ForeignUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.liabilities.SeedDefaults(ctx, env.rafael.ID, testMonth); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	internet := findLiability(t, env, "Internet")

	err := env.liabilities.SetPaid(ctx, env.jessica.ID, "jessica", PaymentUpdate{LiabilityID: internet.ID, Paid: true})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("SetPaid() for foreign row error = %v, want ErrNotFound", err)
	}
}

func TestApplyPayments_Batch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.liabilities.SeedDefaults(ctx, env.rafael.ID, testMonth); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	ids := []string{
		findLiability(t, env, "Internet").ID,
		findLiability(t, env, "Water").ID,
		findLiability(t, env, "Gas Utility Bill").ID,
	}
	pay := make([]PaymentUpdate, 0, len(ids))
	for _, id := range ids {
		pay = append(pay, PaymentUpdate{LiabilityID: id, Paid: true})
	}

	changed, err := env.liabilities.ApplyPayments(ctx, env.rafael.ID, "rafael", pay)
	if err != nil {
		t.Fatalf("ApplyPayments() error = %v", err)
	}
	if changed != 3 {
		t.Fatalf("ApplyPayments() changed %d, want 3", changed)
	}

	// Repeating the batch is a no-op.
	changed, err = env.liabilities.ApplyPayments(ctx, env.rafael.ID, "rafael", pay)
	if err != nil {
		t.Fatalf("repeat ApplyPayments() error = %v", err)
	}
	if changed != 0 {
		t.Fatalf("repeat ApplyPayments() changed %d, want 0", changed)
	}

	fixed, err := env.expenses.List(ctx, env.rafael.ID, storage.FilterFixed, 100)
	if err != nil {
		t.Fatalf("List(fixed) error = %v", err)
	}
	if len(fixed) != 3 {
		t.Fatalf("got %d synthetic expenses, want 3", len(fixed))
	}

	// An unknown id anywhere in the batch rolls the whole thing back.
	_, err = env.liabilities.ApplyPayments(ctx, env.rafael.ID, "rafael", []PaymentUpdate{
		{LiabilityID: ids[0], Paid: false},
		{LiabilityID: "no-such-id", Paid: false},
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("ApplyPayments() with bad id error = %v, want ErrNotFound", err)
	}
	reloaded, err := env.repo.Q().GetLiability(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetLiability() error = %v", err)
	}
	if !reloaded.Paid {
		t.Error("rollback lost the paid state of a valid id")
	}
}

func TestUpdate_SyncsSyntheticExpense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.liabilities.SeedDefaults(ctx, env.rafael.ID, testMonth); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	internet := findLiability(t, env, "Internet")

	if err := env.liabilities.SetPaid(ctx, env.rafael.ID, "rafael", PaymentUpdate{LiabilityID: internet.ID, Paid: true}); err != nil {
		t.Fatalf("SetPaid() error = %v", err)
	}

	internet.Name = "Fiber Internet"
	internet.Amount = core.Money{Cents: 3200}
	if err := env.liabilities.Update(ctx, env.rafael.ID, "rafael", internet); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	fixed, err := env.expenses.List(ctx, env.rafael.ID, storage.FilterFixed, 100)
	if err != nil {
		t.Fatalf("List(fixed) error = %v", err)
	}
	if len(fixed) != 1 {
		t.Fatalf("got %d synthetic expenses, want 1", len(fixed))
	}
	if fixed[0].Amount.Cents != 3200 {
		t.Errorf("synthetic amount = %d, want 3200", fixed[0].Amount.Cents)
	}
	if fixed[0].Description != "Fixed Expense: Fiber Internet (2025-03)" {
		t.Errorf("synthetic description = %q", fixed[0].Description)
	}
}

func findLiability(t *testing.T, env *testEnv, name string) core.FixedLiability {
	t.Helper()
	liabilities, err := env.liabilities.ListByMonth(context.Background(), env.rafael.ID, testMonth)
	if err != nil {
		t.Fatalf("ListByMonth() error = %v", err)
	}
	for _, l := range liabilities {
		if l.Name == name {
			return l
		}
	}
	t.Fatalf("liability %q not found", name)
	return core.FixedLiability{}
}
