package http

import (
	"net/http"
	"strings"

	"cartera/internal/core"
)

type assetRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (s *Server) assetFromRequest(req assetRequest, userID string) (core.Asset, error) {
	// Negative values are credit balances, so the signed parser applies.
	cents, err := core.ParseSignedCents(req.Value)
	if err != nil {
		return core.Asset{}, err
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		return core.Asset{}, err
	}
	return core.Asset{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Type:        strings.TrimSpace(req.Type),
		Value:       core.Money{Cents: cents},
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	}, nil
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req assetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	asset, err := s.assetFromRequest(req, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.svc.Assets.Create(r.Context(), asset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssetJSON(created))
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req assetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, badRequestf("%v", err))
		return
	}
	asset, err := s.assetFromRequest(req, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asset.ID = r.PathValue("id")

	if err := s.svc.Assets.Update(r.Context(), userID, asset); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Assets.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	assets, err := s.svc.Assets.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]assetJSON, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

type assetTotalsResponse struct {
	NetCents int64         `json:"net_cents"`
	ByType   []typeSumJSON `json:"by_type"`
}

type typeSumJSON struct {
	Type  string `json:"type"`
	Cents int64  `json:"cents"`
}

func (s *Server) handleAssetTotals(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	net, err := s.svc.Assets.NetWorth(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sums, err := s.svc.Assets.TotalsByType(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := assetTotalsResponse{NetCents: net.Cents, ByType: make([]typeSumJSON, 0, len(sums))}
	for _, ts := range sums {
		resp.ByType = append(resp.ByType, typeSumJSON{Type: ts.Type, Cents: ts.Cents})
	}
	writeJSON(w, http.StatusOK, resp)
}
