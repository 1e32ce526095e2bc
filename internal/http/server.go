// Package http exposes the ledger as a JSON API. All routes under /api/v1
// except login require a bearer token; the authenticated username is the
// wallet every operation is attributed to.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cartera/internal/auth"
	applog "cartera/internal/log"
	"cartera/internal/services"
)

// Services bundles everything the handlers need.
type Services struct {
	Auth        *auth.Service
	Income      *services.IncomeService
	Expenses    *services.ExpenseService
	Liabilities *services.LiabilityService
	Rates       *services.RateService
	Assets      *services.AssetService
	Summary     *services.SummaryService
}

type Server struct {
	http.Server

	svc         Services
	logger      *applog.Logger
	httpLog     *applog.StructuredLogger
	rateLimiter *rateLimiter
	metrics     securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	httpLogger := logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:         svc,
		logger:      httpLogger,
		httpLog:     applog.NewStructuredLogger(httpLogger),
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.Handle("POST /api/v1/login", s.wrap(http.HandlerFunc(s.handleLogin)))

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.wrap(svc.Auth.Middleware(h)))
	}

	protected("GET /api/v1/overview", s.handleOverview)

	protected("GET /api/v1/income", s.handleListIncome)
	protected("POST /api/v1/income/salary", s.handleRecordSalary)
	protected("POST /api/v1/income/extra", s.handleRecordExtra)

	protected("GET /api/v1/expenses", s.handleListExpenses)
	protected("POST /api/v1/expenses", s.handleCreateExpense)
	protected("GET /api/v1/categories", s.handleListCategories)

	protected("GET /api/v1/liabilities", s.handleListLiabilities)
	protected("POST /api/v1/liabilities", s.handleAddLiability)
	protected("POST /api/v1/liabilities/seed", s.handleSeedLiabilities)
	protected("POST /api/v1/liabilities/payments", s.handleBatchPayments)
	protected("PATCH /api/v1/liabilities/{id}/paid", s.handleSetLiabilityPaid)
	protected("PUT /api/v1/liabilities/{id}", s.handleUpdateLiability)

	protected("GET /api/v1/rates", s.handleListRates)
	protected("GET /api/v1/rates/current", s.handleCurrentRate)
	protected("POST /api/v1/rates", s.handleActivateRate)
	protected("POST /api/v1/rates/{id}/activate", s.handleActivateExistingRate)

	protected("GET /api/v1/assets", s.handleListAssets)
	protected("POST /api/v1/assets", s.handleCreateAsset)
	protected("PUT /api/v1/assets/{id}", s.handleUpdateAsset)
	protected("DELETE /api/v1/assets/{id}", s.handleDeleteAsset)
	protected("GET /api/v1/assets/totals", s.handleAssetTotals)

	protected("GET /api/v1/summary/categories", s.handleCategoryBreakdown)
	protected("GET /api/v1/summary/monthly", s.handleMonthlyFlow)
	protected("GET /api/v1/summary/calendar", s.handleCalendar)

	return s
}

// wrap applies security headers, rate limiting and request logging.
func (s *Server) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		if detectSuspiciousRequest(r, &s.metrics) {
			logger.WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, &s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		setSecurityHeaders(w)
		s.httpLog.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the cleanup goroutines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
