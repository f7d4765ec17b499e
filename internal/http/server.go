package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
	"kakeibo/internal/middleware/ratelimit"
	"kakeibo/internal/middleware/security"
	"kakeibo/internal/middleware/trace"
	"kakeibo/internal/services"
	"kakeibo/internal/viewmodel"
)

// Deps are the collaborators the server needs.
type Deps struct {
	Ledger    *services.LedgerService
	Views     *viewmodel.ViewModel
	WeekStart time.Weekday
	// Ready reports whether storage is usable. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
	// RequestsPerMinute limits mutating requests per client. Zero uses the
	// limiter default.
	RequestsPerMinute int
	// Now returns the current month for requests without ?month=.
	Now func() core.Month
}

type Server struct {
	http.Server
	ledger    *services.LedgerService
	views     *viewmodel.ViewModel
	weekStart time.Weekday
	ready     func(ctx context.Context) error
	now       func() core.Month
	started   time.Time

	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer builds the API server and its middleware chain.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := deps.Now
	if now == nil {
		now = core.CurrentMonth
	}

	ipExtractor := security.NewClientIPExtractor()
	s := &Server{
		ledger:      deps.Ledger,
		views:       deps.Views,
		weekStart:   deps.WeekStart,
		ready:       deps.Ready,
		now:         now,
		started:     time.Now(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RequestsPerMinute}),
		tracer:      trace.NewMiddleware(ipExtractor.ExtractClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/categories/{category}", s.handleCategory)
	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("GET /api/entries/{id}", s.handleGetEntry)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)

	// method-less patterns catch everything the routes above do not allow
	for _, p := range []string{"/healthz", "/readyz", "/api/calendar", "/api/summary", "/api/categories", "/api/categories/{category}", "/api/entries", "/api/entries/{id}"} {
		mux.HandleFunc(p, methodNotAllowed)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	limited := s.rateLimiter.Middleware(ipExtractor.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	}, http.MethodPost, http.MethodPut, http.MethodDelete)

	var handler http.Handler = mux
	handler = limited(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger.WithComponent(log.ComponentHTTP))(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.rateLimiter.Stop)
	return s.Server.Shutdown(ctx)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
