package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cartera/internal/auth"
	"cartera/internal/core"
	applog "cartera/internal/log"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// decodeJSON reads the request body into dst, rejecting unknown fields and
// trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: unexpected trailing data")
	}
	return nil
}

// writeError maps domain errors to HTTP statuses and emits a JSON body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= 500 {
		s.logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err.Error(),
			applog.FieldPath, r.URL.Path)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidRate),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrUnknownWallet),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errBadRequest wraps handler-level validation failures so errorStatus can
// classify them.
var errBadRequest = errors.New("bad request")

func badRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// identity pulls the authenticated user out of the request context. The
// username doubles as the wallet name.
func identity(r *http.Request) (userID string, wallet core.Wallet, err error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return "", "", auth.ErrInvalidToken
	}
	return claims.Subject, core.Wallet(claims.Username), nil
}
