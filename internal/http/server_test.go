package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"cartera/internal/auth"
	"cartera/internal/config"
	"cartera/internal/core"
	applog "cartera/internal/log"
	"cartera/internal/services"
	"cartera/internal/storage"

	"github.com/shopspring/decimal"
)

type testServer struct {
	*httptest.Server
	repo *storage.SQLiteRepository
}

func newTestServer(t *testing.T) *testServer {
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
	threshold := decimal.NewFromInt(4400)

	authSvc := auth.NewService(repo.Q(), "0123456789abcdef", time.Hour, logger)
	if err := authSvc.EnsureUsers(context.Background(), []config.WalletConfig{
		{Name: "rafael", Multiplier: 2300, PayDay: 25, Password: "rafael-pw"},
		{Name: "jessica", Multiplier: 3000, PayDay: 20, Password: "jessica-pw"},
	}); err != nil {
		t.Fatalf("EnsureUsers() error = %v", err)
	}

	rates := services.NewRateService(repo, nil, logger)
	svc := Services{
		Auth:        authSvc,
		Income:      services.NewIncomeService(repo, rates, threshold, profiles, nil, logger),
		Expenses:    services.NewExpenseService(repo, nil, logger),
		Liabilities: services.NewLiabilityService(repo, nil, logger),
		Rates:       rates,
		Assets:      services.NewAssetService(repo, nil, logger),
		Summary:     services.NewSummaryService(repo, rates, threshold, profiles, logger),
	}

	srv := NewServer(":0", svc, logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(srv.rateLimiter.stop)

	return &testServer{Server: ts, repo: repo}
}

// do sends a JSON request and decodes the JSON response into out (when out
// is non-nil).
func (ts *testServer) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest(%s %s) error = %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("%s %s: unmarshal %q: %v", method, path, data, err)
		}
	}
	return resp.StatusCode
}

func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	var resp loginResponse
	status := ts.do(t, http.MethodPost, "/api/v1/login", "", loginRequest{Username: username, Password: password}, &resp)
	if status != http.StatusOK {
		t.Fatalf("login(%s) status = %d", username, status)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	ts.login(t, "rafael", "rafael-pw")

	var errResp errorResponse
	if status := ts.do(t, http.MethodPost, "/api/v1/login", "", loginRequest{Username: "rafael", Password: "wrong"}, &errResp); status != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", status)
	}
	if status := ts.do(t, http.MethodPost, "/api/v1/login", "", loginRequest{Username: "nobody", Password: "x"}, &errResp); status != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want 401", status)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	paths := []string{
		"/api/v1/overview",
		"/api/v1/income",
		"/api/v1/expenses",
		"/api/v1/liabilities",
		"/api/v1/rates",
		"/api/v1/assets",
	}
	for _, path := range paths {
		if status := ts.do(t, http.MethodGet, path, "", nil, nil); status != http.StatusUnauthorized {
			t.Errorf("GET %s without token status = %d, want 401", path, status)
		}
	}
	if status := ts.do(t, http.MethodGet, "/api/v1/overview", "garbage-token", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", status)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestSalaryFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "rafael", "rafael-pw")

	var rate rateJSON
	status := ts.do(t, http.MethodPost, "/api/v1/rates", token, activateRateRequest{Rate: "4500", Date: "2025-03-01"}, &rate)
	if status != http.StatusCreated {
		t.Fatalf("activate rate status = %d, want 201", status)
	}
	if !rate.Active {
		t.Error("activated rate not reported active")
	}

	var income incomeJSON
	status = ts.do(t, http.MethodPost, "/api/v1/income/salary", token, recordSalaryRequest{Date: "2025-03-25"}, &income)
	if status != http.StatusCreated {
		t.Fatalf("record salary status = %d, want 201", status)
	}
	if income.AmountTarget != 224_889 {
		t.Errorf("amount_usd_cents = %d, want 224889", income.AmountTarget)
	}
	if income.RateUsed != "4500" {
		t.Errorf("rate_used = %s, want 4500", income.RateUsed)
	}
	if income.Wallet != "rafael" {
		t.Errorf("wallet = %s, want rafael", income.Wallet)
	}

	var incomes []incomeJSON
	if status := ts.do(t, http.MethodGet, "/api/v1/income", token, nil, &incomes); status != http.StatusOK {
		t.Fatalf("list income status = %d", status)
	}
	if len(incomes) != 1 {
		t.Fatalf("got %d income entries, want 1", len(incomes))
	}
}

func TestExtraIncomeValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "rafael", "rafael-pw")

	status := ts.do(t, http.MethodPost, "/api/v1/income/extra", token,
		recordExtraRequest{Name: "Freelance", AmountCOP: "not-a-number", Date: "2025-03-10"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("bad amount status = %d, want 400", status)
	}
}

func TestExpenseFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "rafael", "rafael-pw")

	var expense expenseJSON
	status := ts.do(t, http.MethodPost, "/api/v1/expenses", token,
		createExpenseRequest{Amount: "1800.50", Description: "groceries", Category: "Groceries", Date: "2025-03-10"}, &expense)
	if status != http.StatusCreated {
		t.Fatalf("create expense status = %d, want 201", status)
	}
	if expense.AmountCents != 180_050 {
		t.Errorf("amount_cents = %d, want 180050", expense.AmountCents)
	}
	if expense.CategoryID == "" {
		t.Error("category was not resolved")
	}

	// Unknown category names are rejected, not silently dropped.
	status = ts.do(t, http.MethodPost, "/api/v1/expenses", token,
		createExpenseRequest{Amount: "10", Description: "x", Category: "No Such Category", Date: "2025-03-10"}, nil)
	if status != http.StatusNotFound {
		t.Errorf("unknown category status = %d, want 404", status)
	}

	var categories []categoryJSON
	if status := ts.do(t, http.MethodGet, "/api/v1/categories", token, nil, &categories); status != http.StatusOK {
		t.Fatalf("list categories status = %d", status)
	}
	if len(categories) != 8 {
		t.Errorf("got %d categories, want 8", len(categories))
	}
}

func TestLiabilityFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "rafael", "rafael-pw")

	var seeded map[string]any
	status := ts.do(t, http.MethodPost, "/api/v1/liabilities/seed", token, seedLiabilitiesRequest{Month: "2025-03"}, &seeded)
	if status != http.StatusOK {
		t.Fatalf("seed status = %d, want 200", status)
	}
	if got := seeded["inserted"].(float64); int(got) != len(services.DefaultCatalog()) {
		t.Errorf("inserted = %v, want %d", got, len(services.DefaultCatalog()))
	}

	var liabilities []liabilityJSON
	if status := ts.do(t, http.MethodGet, "/api/v1/liabilities?month=2025-03", token, nil, &liabilities); status != http.StatusOK {
		t.Fatalf("list liabilities status = %d", status)
	}
	if len(liabilities) != len(services.DefaultCatalog()) {
		t.Fatalf("got %d liabilities, want %d", len(liabilities), len(services.DefaultCatalog()))
	}

	var internet liabilityJSON
	for _, l := range liabilities {
		if l.Name == "Internet" {
			internet = l
		}
	}
	if internet.ID == "" {
		t.Fatal("Internet liability not seeded")
	}

	// Pay with the real terms of the payment: a discounted amount, the
	// other wallet's money, on the day it actually happened.
	path := fmt.Sprintf("/api/v1/liabilities/%s/paid", internet.ID)
	if status := ts.do(t, http.MethodPatch, path, token, setPaidRequest{Paid: true, Amount: "24.50", Wallet: "jessica", Date: "2025-03-12"}, nil); status != http.StatusOK {
		t.Fatalf("set paid status = %d, want 200", status)
	}

	var fixed []expenseJSON
	if status := ts.do(t, http.MethodGet, "/api/v1/expenses?filter=fixed", token, nil, &fixed); status != http.StatusOK {
		t.Fatalf("list fixed expenses status = %d", status)
	}
	if len(fixed) != 1 {
		t.Fatalf("got %d synthetic expenses, want 1", len(fixed))
	}
	if fixed[0].SourceLiabilityID != internet.ID {
		t.Errorf("source_liability_id = %s, want %s", fixed[0].SourceLiabilityID, internet.ID)
	}
	if fixed[0].AmountCents != 2_450 {
		t.Errorf("paid amount_cents = %d, want 2450", fixed[0].AmountCents)
	}
	if fixed[0].Wallet != "jessica" {
		t.Errorf("paid wallet = %s, want jessica", fixed[0].Wallet)
	}
	if fixed[0].Date != "2025-03-12" {
		t.Errorf("paid date = %s, want 2025-03-12", fixed[0].Date)
	}

	// Another user cannot touch this row.
	jessicaToken := ts.login(t, "jessica", "jessica-pw")
	if status := ts.do(t, http.MethodPatch, path, jessicaToken, setPaidRequest{Paid: false}, nil); status != http.StatusNotFound {
		t.Errorf("foreign set paid status = %d, want 404", status)
	}

	var batch map[string]any
	payments := []paymentJSON{
		{ID: liabilities[0].ID, Paid: true},
		{ID: liabilities[1].ID, Paid: true},
	}
	if status := ts.do(t, http.MethodPost, "/api/v1/liabilities/payments", token, batchPaymentsRequest{Payments: payments}, &batch); status != http.StatusOK {
		t.Fatalf("batch payments status = %d, want 200", status)
	}
	if got := batch["changed"].(float64); int(got) != 2 {
		t.Errorf("changed = %v, want 2", got)
	}

	if status := ts.do(t, http.MethodPost, "/api/v1/liabilities/payments", token, batchPaymentsRequest{}, nil); status != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", status)
	}
}

func TestAssetCRUD(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "rafael", "rafael-pw")

	var savings assetJSON
	status := ts.do(t, http.MethodPost, "/api/v1/assets", token,
		assetRequest{Name: "Savings", Type: "Cash", Value: "5000.00", Date: "2025-03-01"}, &savings)
	if status != http.StatusCreated {
		t.Fatalf("create asset status = %d, want 201", status)
	}
	if savings.ValueCents != 500_000 {
		t.Errorf("value_cents = %d, want 500000", savings.ValueCents)
	}

	var credit assetJSON
	status = ts.do(t, http.MethodPost, "/api/v1/assets", token,
		assetRequest{Name: "Credit 1", Type: "Credit", Value: "-2000.00", Date: "2025-03-01"}, &credit)
	if status != http.StatusCreated {
		t.Fatalf("create credit asset status = %d, want 201", status)
	}

	var totals assetTotalsResponse
	if status := ts.do(t, http.MethodGet, "/api/v1/assets/totals", token, nil, &totals); status != http.StatusOK {
		t.Fatalf("asset totals status = %d", status)
	}
	if totals.NetCents != 300_000 {
		t.Errorf("net_cents = %d, want 300000", totals.NetCents)
	}

	status = ts.do(t, http.MethodPut, "/api/v1/assets/"+savings.ID, token,
		assetRequest{Name: "Savings", Type: "Cash", Value: "6000.00", Date: "2025-03-02"}, nil)
	if status != http.StatusNoContent {
		t.Fatalf("update asset status = %d, want 204", status)
	}

	if status := ts.do(t, http.MethodDelete, "/api/v1/assets/"+credit.ID, token, nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete asset status = %d, want 204", status)
	}
	if status := ts.do(t, http.MethodDelete, "/api/v1/assets/"+credit.ID, token, nil, nil); status != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", status)
	}

	var assets []assetJSON
	if status := ts.do(t, http.MethodGet, "/api/v1/assets", token, nil, &assets); status != http.StatusOK {
		t.Fatalf("list assets status = %d", status)
	}
	if len(assets) != 1 {
		t.Fatalf("got %d assets, want 1", len(assets))
	}
	if assets[0].ValueCents != 600_000 {
		t.Errorf("updated value_cents = %d, want 600000", assets[0].ValueCents)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "rafael", "rafael-pw")

	if status := ts.do(t, http.MethodPost, "/api/v1/rates", token, activateRateRequest{Rate: "4500", Date: "2025-03-01"}, nil); status != http.StatusCreated {
		t.Fatalf("activate rate status = %d", status)
	}
	if status := ts.do(t, http.MethodPost, "/api/v1/income/salary", token, recordSalaryRequest{Date: "2025-03-25"}, nil); status != http.StatusCreated {
		t.Fatalf("record salary status = %d", status)
	}

	var overview struct {
		Balances []struct {
			Wallet  string `json:"wallet"`
			Balance struct {
				Cents int64 `json:"cents"`
			} `json:"balance"`
		} `json:"balances"`
		Rate string `json:"exchange_rate"`
	}
	if status := ts.do(t, http.MethodGet, "/api/v1/overview?month=2025-03", token, nil, &overview); status != http.StatusOK {
		t.Fatalf("overview status = %d", status)
	}
	if len(overview.Balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(overview.Balances))
	}
	if overview.Rate != "4500" {
		t.Errorf("exchange_rate = %s, want 4500", overview.Rate)
	}

	var rafael bool
	for _, b := range overview.Balances {
		if b.Wallet == "rafael" {
			rafael = true
			if b.Balance.Cents != 224_889 {
				t.Errorf("rafael balance = %d, want 224889", b.Balance.Cents)
			}
		}
	}
	if !rafael {
		t.Error("rafael balance missing from overview")
	}

	if status := ts.do(t, http.MethodGet, "/api/v1/overview?month=banana", token, nil, nil); status != http.StatusBadRequest {
		t.Errorf("invalid month status = %d, want 400", status)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "rafael", "rafael-pw")

	if status := ts.do(t, http.MethodPost, "/api/v1/liabilities/seed", token, seedLiabilitiesRequest{Month: "2025-03"}, nil); status != http.StatusOK {
		t.Fatalf("seed status = %d", status)
	}

	var events []struct {
		Kind string `json:"kind"`
	}
	if status := ts.do(t, http.MethodGet, "/api/v1/summary/calendar?month=2025-03", token, nil, &events); status != http.StatusOK {
		t.Fatalf("calendar status = %d", status)
	}

	dues := 0
	paydays := 0
	for _, e := range events {
		switch e.Kind {
		case "liability_due":
			dues++
		case "payday":
			paydays++
		}
	}
	if dues != len(services.DefaultCatalog()) {
		t.Errorf("liability_due events = %d, want %d", dues, len(services.DefaultCatalog()))
	}
	if paydays != 1 {
		t.Errorf("payday events = %d, want 1", paydays)
	}
}
