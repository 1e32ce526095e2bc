package http

import (
	"net/http"
	"strings"

	"cartera/internal/core"
	"cartera/internal/storage"
)

type createExpenseRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, wallet, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	expense, err := s.svc.Expenses.Create(r.Context(), core.Expense{
		UserID:      userID,
		Amount:      core.Money{Cents: cents},
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		Wallet:      wallet,
	}, strings.TrimSpace(req.Category))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseJSON(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filter := storage.FilterAll
	switch v := strings.TrimSpace(r.URL.Query().Get("filter")); v {
	case "", string(storage.FilterAll):
	case string(storage.FilterRegular):
		filter = storage.FilterRegular
	case string(storage.FilterFixed):
		filter = storage.FilterFixed
	default:
		s.writeError(w, r, badRequestf("invalid filter %q, want all, regular or fixed", v))
		return
	}
	limit, err := parseLimitParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	expenses, err := s.svc.Expenses.List(r.Context(), userID, filter, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Expenses.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	writeJSON(w, http.StatusOK, out)
}
