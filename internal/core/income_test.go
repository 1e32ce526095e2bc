package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeIncomeBelowThreshold(t *testing.T) {
	// base 4400 * 2300 units = 10,120,000 COP; rate below floor uses floor.
	calc := ComputeIncome(2300, d("4400"), d("4100"))

	if got := calc.AmountLocal.Cents; got != 1_012_000_000 {
		t.Fatalf("amount local = %d cents, want 1012000000", got)
	}
	if !calc.RateUsed.Equal(d("4400")) {
		t.Fatalf("rate used = %s, want 4400", calc.RateUsed)
	}
	if got := calc.AmountTarget.Cents; got != 230_000 {
		t.Fatalf("amount target = %d cents, want 230000", got)
	}
}

func TestComputeIncomeAboveThreshold(t *testing.T) {
	calc := ComputeIncome(2300, d("4400"), d("4500"))

	if !calc.RateUsed.Equal(d("4500")) {
		t.Fatalf("rate used = %s, want 4500", calc.RateUsed)
	}
	// 10,120,000 / 4500 = 2248.888... rounds to 2248.89
	if got := calc.AmountTarget.Cents; got != 224_889 {
		t.Fatalf("amount target = %d cents, want 224889", got)
	}
}

func TestComputeIncomeTieUsesCurrentRate(t *testing.T) {
	calc := ComputeIncome(3000, d("4400"), d("4400"))
	if !calc.RateUsed.Equal(d("4400")) {
		t.Fatalf("rate used = %s, want current rate 4400", calc.RateUsed)
	}
	if got := calc.AmountTarget.Cents; got != 300_000 {
		t.Fatalf("amount target = %d cents, want 300000", got)
	}
}

func TestComputeIncomeFloorYieldsMore(t *testing.T) {
	floored := ComputeIncome(2300, d("4400"), d("4100"))
	unfloored := ComputeIncome(2300, d("4100"), d("4100"))
	if floored.AmountTarget.Cents <= unfloored.AmountTarget.Cents {
		t.Fatalf("floor should yield more target units: %d <= %d",
			floored.AmountTarget.Cents, unfloored.AmountTarget.Cents)
	}
}

func TestExpectedIncome(t *testing.T) {
	profile := WalletProfile{Wallet: "rafael", Multiplier: 2300, PayDay: 25}

	cases := []struct {
		day       int
		threshold string
		rate      string
		wantCents int64
	}{
		{1, "4400", "4500", 224_889},
		{24, "4400", "4500", 224_889},
		{25, "4400", "4500", 0}, // pay day reached, presumed received
		{28, "4400", "4500", 0},
		// A raised threshold floors the projection the same way it
		// floors recording.
		{1, "5000", "4600", 202_400},
	}
	for _, tc := range cases {
		today := time.Date(2025, 1, tc.day, 12, 0, 0, 0, time.UTC)
		got := ExpectedIncome(profile, d(tc.threshold), d(tc.rate), today)
		if got.Cents != tc.wantCents {
			t.Fatalf("day %d threshold %s rate %s: expected income = %d cents, want %d",
				tc.day, tc.threshold, tc.rate, got.Cents, tc.wantCents)
		}
	}
}
