package http

import (
	"net/http"

	"cartera/internal/core"
)

type recordSalaryRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type recordExtraRequest struct {
	Name      string `json:"name"`
	AmountCOP string `json:"amount_cop"`
	Date      string `json:"date"`
}

func (s *Server) handleRecordSalary(w http.ResponseWriter, r *http.Request) {
	userID, wallet, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req recordSalaryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	income, err := s.svc.Income.RecordSalary(r.Context(), userID, wallet, req.Name, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIncomeJSON(income))
}

func (s *Server) handleRecordExtra(w http.ResponseWriter, r *http.Request) {
	userID, wallet, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req recordExtraRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	cents, err := core.ParseDecimalToCents(req.AmountCOP)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	income, err := s.svc.Income.RecordExtra(r.Context(), userID, wallet, req.Name, core.Money{Cents: cents}, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIncomeJSON(income))
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimitParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	incomes, err := s.svc.Income.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]incomeJSON, 0, len(incomes))
	for _, in := range incomes {
		out = append(out, toIncomeJSON(in))
	}
	writeJSON(w, http.StatusOK, out)
}
