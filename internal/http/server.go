// Package http is the JSON API surface. Every /api route is owner-scoped
// through an Authenticator; reporting reads go through the report package
// and writes through the services package.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"duit/internal/ledger"
	applog "duit/internal/log"
	"duit/internal/report"
	"duit/internal/services"

	"github.com/google/uuid"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyOwner
)

// RequestID returns the request id attached by the middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// Owner returns the authenticated owner for the request.
func Owner(ctx context.Context) int64 {
	owner, _ := ctx.Value(ctxKeyOwner).(int64)
	return owner
}

type Server struct {
	http.Server

	auth         Authenticator
	transactions *services.TransactionService
	categories   *services.CategoryService
	summaries    *report.SummaryCalculator
	dashboards   *report.DashboardAggregator
	filters      *report.FilterEngine
	exporter     *report.Exporter
	rateLimiter  *rateLimiter

	shutdownOnce sync.Once

	// now is swappable so tests can pin the dashboard month.
	now func() time.Time
}

// NewServer wires the API on top of a store. publisher may be nil to
// disable mirroring.
func NewServer(addr string, store ledger.Store, publisher services.MirrorPublisher, auth Authenticator) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		auth:         auth,
		transactions: services.NewTransactionService(store, publisher),
		categories:   services.NewCategoryService(store),
		summaries:    report.NewSummaryCalculator(store),
		dashboards:   report.NewDashboardAggregator(store, store),
		filters:      report.NewFilterEngine(store),
		exporter:     report.NewExporter(store, store),
		rateLimiter:  newRateLimiter(),
		now:          time.Now,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("GET /api/export", s.withMiddleware(s.handleExport))

	return s
}

// withMiddleware adds request ids, security headers, rate limiting on
// writes, auth, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)

		owner, ok := s.auth.Authenticate(r)
		if !ok {
			slog.WarnContext(ctx, "Unauthorized request",
				applog.FieldRequestID, requestID,
				"method", r.Method,
				"url", r.URL.Path,
				"client_ip", clientIP)
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		ctx = context.WithValue(ctx, ctxKeyOwner, owner)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			"method", r.Method,
			"url", r.URL.Path,
			applog.FieldOwner, owner,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldRequestID, requestID,
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
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

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
