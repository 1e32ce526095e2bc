package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Wallet is one of the two fixed payment-source identities tracked by
	// the ledger. Every income and expense record is attributed to one.
	Wallet string

	// MonthKey identifies a calendar month in "YYYY-MM" form.
	MonthKey string

	User struct {
		ID           string
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	ExpenseCategory struct {
		ID          string
		Name        string
		Description string
	}

	// ExchangeRate is a USD/COP conversion rate. At most one rate is active
	// at any time; the active one drives all new income calculations.
	ExchangeRate struct {
		ID        string
		Rate      decimal.Decimal
		Date      time.Time
		Active    bool
		Notes     string
		CreatedAt time.Time
	}

	Income struct {
		ID           string
		UserID       string
		Name         string
		AmountLocal  Money // COP
		RateUsed     decimal.Decimal
		AmountTarget Money // USD, derived at creation time and stored
		Date         time.Time
		Wallet       Wallet
		CreatedAt    time.Time
	}

	Expense struct {
		ID          string
		UserID      string
		Amount      Money
		CategoryID  string
		Description string
		Date        time.Time
		Wallet      Wallet
		// SourceLiabilityID links a synthetic expense to the fixed liability
		// it materializes. Empty for manually entered expenses.
		SourceLiabilityID string
		SourceMonth       MonthKey
		CreatedAt         time.Time
	}

	// FixedLiability is a recurring monthly obligation tracked per calendar
	// month with a paid/unpaid flag. Unique per (user, name, month).
	FixedLiability struct {
		ID         string
		UserID     string
		Name       string
		Amount     Money
		CategoryID string
		Month      MonthKey
		Paid       bool
		CreatedAt  time.Time
	}

	// Asset holds a signed value: positive entries are assets, negative
	// entries are liability/credit balances.
	Asset struct {
		ID          string
		UserID      string
		Name        string
		Type        string
		Value       Money
		Description string
		Date        time.Time
		CreatedAt   time.Time
	}
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate record")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidMonth  = errors.New("invalid month key")
	ErrInvalidRate   = errors.New("invalid exchange rate")
	ErrEmptyName     = errors.New("empty name")
	ErrUnknownWallet = errors.New("unknown wallet")
)

// MonthKeyOf returns the month key for the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

func (m MonthKey) Validate() error {
	if len(m) != 7 {
		return ErrInvalidMonth
	}
	if _, err := time.Parse("2006-01", string(m)); err != nil {
		return ErrInvalidMonth
	}
	return nil
}

// Contains reports whether t falls inside the month.
func (m MonthKey) Contains(t time.Time) bool {
	return MonthKeyOf(t) == m
}

func (m MonthKey) String() string { return string(m) }

// SyntheticDescription is the display description written on the expense
// record that materializes a paid fixed liability.
func SyntheticDescription(name string, month MonthKey) string {
	return fmt.Sprintf("Fixed Expense: %s (%s)", name, month)
}

// Synthetic reports whether the expense was generated from a fixed liability.
func (e Expense) Synthetic() bool { return e.SourceLiabilityID != "" }

func (r ExchangeRate) Validate() error {
	if !r.Rate.IsPositive() {
		return ErrInvalidRate
	}
	if r.Date.IsZero() {
		return errors.New("rate date cannot be zero")
	}
	return nil
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if i.AmountTarget.Cents <= 0 {
		return ErrInvalidAmount
	}
	if i.Date.IsZero() {
		return errors.New("income date cannot be zero")
	}
	if i.Wallet == "" {
		return ErrUnknownWallet
	}
	return nil
}

func (e Expense) Validate() error {
	if e.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if e.Date.IsZero() {
		return errors.New("expense date cannot be zero")
	}
	if e.Wallet == "" {
		return ErrUnknownWallet
	}
	return nil
}

func (l FixedLiability) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if l.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return l.Month.Validate()
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	// Value may be negative (credit balance) but never zero.
	if a.Value.Cents == 0 {
		return ErrInvalidAmount
	}
	if a.Date.IsZero() {
		return errors.New("asset date cannot be zero")
	}
	return nil
}
