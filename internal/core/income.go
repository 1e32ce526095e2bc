package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// BaseUnitPrice is the COP price of one base unit in the source ledger.
	// Salary income is always quoted as a multiple of this price.
	BaseUnitPrice = 4400

	// DefaultThreshold is the floor applied to the conversion rate when
	// recording salary income: a rate below it is replaced by it, which
	// yields more USD for the payee.
	DefaultThreshold = 4400

	// FallbackRate is used when no exchange rate has ever been activated.
	FallbackRate = 4200

	// FixedDueDay is the day of the month fixed liabilities fall due.
	FixedDueDay = 30
)

// DueDate returns the day fixed liabilities fall due in month m, clamped to
// the last day of short months.
func (m MonthKey) DueDate() time.Time {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return time.Time{}
	}
	day := FixedDueDay
	if last := t.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, time.UTC)
}

// WalletProfile describes the fixed payment terms of one wallet: how many
// base units its monthly salary is worth and the day of month it is paid.
type WalletProfile struct {
	Wallet     Wallet
	Multiplier int64
	PayDay     int
}

// IncomeCalculation is the result of converting a base-unit salary into the
// target currency.
type IncomeCalculation struct {
	AmountLocal  Money // COP
	AmountTarget Money // USD, rounded to cents
	RateUsed     decimal.Decimal
}

// ComputeIncome converts baseUnits of salary into USD using the higher of
// threshold and currentRate. An equal rate uses currentRate; only a rate
// strictly below the threshold triggers the floor.
func ComputeIncome(baseUnits int64, threshold, currentRate decimal.Decimal) IncomeCalculation {
	amountLocal := decimal.NewFromInt(BaseUnitPrice).Mul(decimal.NewFromInt(baseUnits))
	return ConvertLocal(MoneyFromDecimal(amountLocal), threshold, currentRate)
}

// ConvertLocal applies the rate floor to an arbitrary COP amount, as used
// for extra income entered directly in pesos.
func ConvertLocal(amountLocal Money, threshold, currentRate decimal.Decimal) IncomeCalculation {
	rateUsed := currentRate
	if currentRate.LessThan(threshold) {
		rateUsed = threshold
	}
	return IncomeCalculation{
		AmountLocal:  amountLocal,
		AmountTarget: MoneyFromDecimal(amountLocal.Decimal().Div(rateUsed)),
		RateUsed:     rateUsed,
	}
}

// ExpectedIncome projects the wallet's salary for the current month using
// the same rate floor that recording applies. Once the pay day has been
// reached the payment is presumed received and the projection is zero.
func ExpectedIncome(p WalletProfile, threshold, currentRate decimal.Decimal, today time.Time) Money {
	if today.Day() >= p.PayDay {
		return Money{}
	}
	calc := ComputeIncome(p.Multiplier, threshold, currentRate)
	return calc.AmountTarget
}
