package http

import (
	"net/http"
	"time"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	userID, wallet, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month, err := parseMonthParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	overview, err := s.svc.Summary.Overview(r.Context(), userID, wallet, month, time.Now().UTC())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

type categorySumJSON struct {
	Name  string `json:"name"`
	Cents int64  `json:"cents"`
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sums, err := s.svc.Summary.CategoryBreakdown(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]categorySumJSON, 0, len(sums))
	for _, cs := range sums {
		out = append(out, categorySumJSON{Name: cs.Name, Cents: cs.Cents})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonthlyFlow(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	flows, err := s.svc.Summary.MonthlyFlow(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flows)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	userID, wallet, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month, err := parseMonthParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	events, err := s.svc.Summary.CalendarEvents(r.Context(), userID, wallet, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
