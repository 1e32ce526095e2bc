package http

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type activateRateRequest struct {
	Rate  string `json:"rate"`
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

func (s *Server) handleCurrentRate(w http.ResponseWriter, r *http.Request) {
	rate, err := s.svc.Rates.CurrentRate(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRateJSON(rate))
}

func (s *Server) handleActivateRate(w http.ResponseWriter, r *http.Request) {
	var req activateRateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	value, err := decimal.NewFromString(req.Rate)
	if err != nil {
		s.writeError(w, r, badRequestf("invalid rate %q", req.Rate))
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rate, err := s.svc.Rates.Activate(r.Context(), value, date, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateJSON(rate))
}

func (s *Server) handleActivateExistingRate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Rates.ActivateExisting(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": true})
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimitParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rates, err := s.svc.Rates.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]rateJSON, 0, len(rates))
	for _, rate := range rates {
		out = append(out, toRateJSON(rate))
	}
	writeJSON(w, http.StatusOK, out)
}
