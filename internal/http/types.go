package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"cartera/internal/core"
)

const dateLayout = "2006-01-02"

func timeNow() time.Time { return time.Now().UTC() }

// Wire representations of the domain types. Amounts travel as integer cents
// plus a formatted decimal string for display.

type incomeJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AmountLocal  int64  `json:"amount_cop_cents"`
	RateUsed     string `json:"rate_used"`
	AmountTarget int64  `json:"amount_usd_cents"`
	Date         string `json:"date"`
	Wallet       string `json:"wallet"`
}

func toIncomeJSON(in core.Income) incomeJSON {
	return incomeJSON{
		ID:           in.ID,
		Name:         in.Name,
		AmountLocal:  in.AmountLocal.Cents,
		RateUsed:     in.RateUsed.String(),
		AmountTarget: in.AmountTarget.Cents,
		Date:         in.Date.Format(dateLayout),
		Wallet:       string(in.Wallet),
	}
}

type expenseJSON struct {
	ID                string `json:"id"`
	AmountCents       int64  `json:"amount_cents"`
	CategoryID        string `json:"category_id,omitempty"`
	Description       string `json:"description"`
	Date              string `json:"date"`
	Wallet            string `json:"wallet"`
	SourceLiabilityID string `json:"source_liability_id,omitempty"`
	SourceMonth       string `json:"source_month,omitempty"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:                e.ID,
		AmountCents:       e.Amount.Cents,
		CategoryID:        e.CategoryID,
		Description:       e.Description,
		Date:              e.Date.Format(dateLayout),
		Wallet:            string(e.Wallet),
		SourceLiabilityID: e.SourceLiabilityID,
		SourceMonth:       e.SourceMonth.String(),
	}
}

type liabilityJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	CategoryID  string `json:"category_id,omitempty"`
	Month       string `json:"month"`
	Paid        bool   `json:"paid"`
}

func toLiabilityJSON(l core.FixedLiability) liabilityJSON {
	return liabilityJSON{
		ID:          l.ID,
		Name:        l.Name,
		AmountCents: l.Amount.Cents,
		CategoryID:  l.CategoryID,
		Month:       l.Month.String(),
		Paid:        l.Paid,
	}
}

type rateJSON struct {
	ID     string `json:"id"`
	Rate   string `json:"rate"`
	Date   string `json:"date"`
	Active bool   `json:"active"`
	Notes  string `json:"notes,omitempty"`
}

func toRateJSON(r core.ExchangeRate) rateJSON {
	return rateJSON{
		ID:     r.ID,
		Rate:   r.Rate.String(),
		Date:   r.Date.Format(dateLayout),
		Active: r.Active,
		Notes:  r.Notes,
	}
}

type assetJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	ValueCents  int64  `json:"value_cents"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
}

func toAssetJSON(a core.Asset) assetJSON {
	return assetJSON{
		ID:          a.ID,
		Name:        a.Name,
		Type:        a.Type,
		ValueCents:  a.Value.Cents,
		Description: a.Description,
		Date:        a.Date.Format(dateLayout),
	}
}

type categoryJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// parseMonthParam reads ?month=YYYY-MM, defaulting to the current month.
func parseMonthParam(r *http.Request) (core.MonthKey, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.MonthKeyOf(time.Now().UTC()), nil
	}
	month := core.MonthKey(v)
	if err := month.Validate(); err != nil {
		return "", badRequestf("invalid month %q", v)
	}
	return month, nil
}

// parseDateField parses an optional YYYY-MM-DD body field, defaulting to
// today.
func parseDateField(v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, badRequestf("invalid date %q, want YYYY-MM-DD", v)
	}
	return t, nil
}

// parseLimitParam reads ?limit=N; zero means the service default.
func parseLimitParam(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequestf("invalid limit %q", v)
	}
	return n, nil
}
