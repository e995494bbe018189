// Package http serves the fintrack JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// LedgerWriter is the write path the handlers depend on.
type LedgerWriter interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	AddCategory(ctx context.Context, c core.Category) (core.Category, error)
	SetBudget(ctx context.Context, b core.Budget) (core.Budget, error)
}

// DashboardReader is the read path the handlers depend on.
type DashboardReader interface {
	Registry(ctx context.Context) (*core.Registry, error)
	Overview(ctx context.Context, userID string, p core.Period) (core.MonthOverview, error)
	Breakdown(ctx context.Context, userID string, p core.Period) ([]core.CategoryShare, error)
	Series(ctx context.Context, userID string, ref core.Period, window int) ([]core.MonthTotals, error)
	Budgets(ctx context.Context, userID string, p core.Period) ([]core.BudgetLine, error)
	Transactions(ctx context.Context, userID string, q services.TransactionQuery) ([]core.Transaction, error)
	Transaction(ctx context.Context, userID, id string) (core.Transaction, error)
	Categories(ctx context.Context, typ core.TransactionType) ([]core.Category, error)
}

type Options struct {
	Addr               string
	DemoUserID         string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	TrustedProxies     []string
	// Ready backs /readyz; nil means always ready.
	Ready  func(context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server

	ledger    LedgerWriter
	dashboard DashboardReader
	logger    *log.Logger

	demoUser string
	timeout  time.Duration
	ready    func(context.Context) error
	now      func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	caches   *cache.Manager
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, ledger LedgerWriter, dashboard DashboardReader) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.DemoUserID == "" {
		opts.DemoUserID = "1"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}

	s := &Server{
		ledger:    ledger,
		dashboard: dashboard,
		logger:    logger,
		demoUser:  opts.DemoUserID,
		timeout:   opts.RequestTimeout,
		ready:     opts.Ready,
		now:       time.Now,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  security.NewDetector(logger),
		caches:    cache.NewManager(logger),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.caches.Register(s.limiter)
	s.caches.StartCleanup(time.Minute)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/dashboard", s.handleOverview)
	mux.HandleFunc("GET /api/dashboard/categories", s.handleBreakdown)
	mux.HandleFunc("GET /api/dashboard/series", s.handleSeries)

	mux.HandleFunc("GET /api/budgets", s.handleBudgets)
	mux.HandleFunc("PUT /api/budgets", s.handleSetBudget)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no route for " + r.Method + " " + r.URL.Path).Write(w)
	})

	h := mutatingOnly(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(mux), mux)
	h = s.withTimeout(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware(h)
	h = s.detector.Middleware(h)
	h = log.Middleware(s.logger)(h)
	return h
}

// mutatingOnly sends safe methods straight to bypass so only writes count
// against the rate limit.
func mutatingOnly(limited, bypass http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			bypass.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request, retry time.Duration) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError(ratelimit.RetryAfterSeconds(retry)).Write(w)
}

// Shutdown stops the cache janitor and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.caches.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) userID(r *http.Request) string {
	return UserIDFromRequest(r, s.demoUser)
}

func (s *Server) today() core.Date {
	now := s.now().UTC()
	return core.NewDate(now.Year(), now.Month(), now.Day())
}

func isSafeMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
