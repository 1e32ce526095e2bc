package http

import (
	"net/http"
	"strings"
	"time"

	"cartera/internal/core"
	"cartera/internal/services"
)

type seedLiabilitiesRequest struct {
	Month string `json:"month"`
}

type addLiabilityRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	CategoryID string `json:"category_id"`
	Month      string `json:"month"`
}

type setPaidRequest struct {
	Paid   bool   `json:"paid"`
	Amount string `json:"amount,omitempty"`
	Wallet string `json:"wallet,omitempty"`
	Date   string `json:"date,omitempty"`
}

type paymentJSON struct {
	ID     string `json:"id"`
	Paid   bool   `json:"paid"`
	Amount string `json:"amount,omitempty"`
	Wallet string `json:"wallet,omitempty"`
	Date   string `json:"date,omitempty"`
}

type batchPaymentsRequest struct {
	Payments []paymentJSON `json:"payments"`
}

// paymentUpdate builds the service-level transition. Amount, wallet and date
// are optional overrides; blanks keep the liability's nominal terms.
func paymentUpdate(id string, paid bool, amount, wallet, date string) (services.PaymentUpdate, error) {
	upd := services.PaymentUpdate{
		LiabilityID: id,
		Paid:        paid,
		Wallet:      core.Wallet(strings.TrimSpace(wallet)),
	}
	if v := strings.TrimSpace(amount); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return services.PaymentUpdate{}, err
		}
		upd.Amount = core.Money{Cents: cents}
	}
	if v := strings.TrimSpace(date); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return services.PaymentUpdate{}, badRequestf("invalid date %q, want YYYY-MM-DD", v)
		}
		upd.Date = t
	}
	return upd, nil
}

type updateLiabilityRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	CategoryID string `json:"category_id"`
}

func (s *Server) handleSeedLiabilities(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req seedLiabilitiesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	month := core.MonthKey(req.Month)
	if req.Month == "" {
		month = core.MonthKeyOf(timeNow())
	}

	inserted, err := s.svc.Liabilities.SeedDefaults(r.Context(), userID, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"month": month.String(), "inserted": inserted})
}

func (s *Server) handleListLiabilities(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month, err := parseMonthParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	liabilities, err := s.svc.Liabilities.ListByMonth(r.Context(), userID, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]liabilityJSON, 0, len(liabilities))
	for _, l := range liabilities {
		out = append(out, toLiabilityJSON(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddLiability(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req addLiabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month := core.MonthKey(req.Month)
	if req.Month == "" {
		month = core.MonthKeyOf(timeNow())
	}

	liability, err := s.svc.Liabilities.Add(r.Context(), core.FixedLiability{
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		Amount:     core.Money{Cents: cents},
		CategoryID: req.CategoryID,
		Month:      month,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLiabilityJSON(liability))
}

func (s *Server) handleSetLiabilityPaid(w http.ResponseWriter, r *http.Request) {
	userID, wallet, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req setPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}

	id := r.PathValue("id")
	upd, err := paymentUpdate(id, req.Paid, req.Amount, req.Wallet, req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Liabilities.SetPaid(r.Context(), userID, wallet, upd); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "paid": req.Paid})
}

func (s *Server) handleBatchPayments(w http.ResponseWriter, r *http.Request) {
	userID, wallet, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req batchPaymentsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	if len(req.Payments) == 0 {
		s.writeError(w, r, badRequestf("payments cannot be empty"))
		return
	}

	updates := make([]services.PaymentUpdate, 0, len(req.Payments))
	for _, p := range req.Payments {
		upd, err := paymentUpdate(p.ID, p.Paid, p.Amount, p.Wallet, p.Date)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		updates = append(updates, upd)
	}

	changed, err := s.svc.Liabilities.ApplyPayments(r.Context(), userID, wallet, updates)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

func (s *Server) handleUpdateLiability(w http.ResponseWriter, r *http.Request) {
	userID, wallet, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req updateLiabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	err = s.svc.Liabilities.Update(r.Context(), userID, wallet, core.FixedLiability{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		Amount:     core.Money{Cents: cents},
		CategoryID: req.CategoryID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
