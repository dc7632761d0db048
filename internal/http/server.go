package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/cors"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

// Collaborators the handlers call into. The services package provides the
// production implementations.
type (
	CycleManager interface {
		Upsert(ctx context.Context, userID int64, in core.CycleInput) (core.Cycle, error)
		Get(ctx context.Context, id, userID int64) (core.Cycle, error)
		Update(ctx context.Context, id, userID int64, patch core.CyclePatch) (core.Cycle, error)
		Delete(ctx context.Context, id, userID int64) error
		List(ctx context.Context, userID int64) ([]core.Cycle, error)
		Summary(ctx context.Context, id, userID int64) (core.Summary, error)
	}

	TransactionManager interface {
		Create(ctx context.Context, userID int64, in core.TransactionInput) (services.TransactionResult, error)
		Update(ctx context.Context, id, userID int64, patch core.TransactionPatch) (services.TransactionResult, error)
		Delete(ctx context.Context, id, userID int64) (core.Summary, error)
		List(ctx context.Context, userID, cycleID int64, bucket *core.Bucket) ([]core.Transaction, error)
	}

	UserRegistry interface {
		UserResolver
		Register(ctx context.Context, username string) (core.User, error)
		Login(ctx context.Context, username string) (core.User, error)
	}

	CycleExporter interface {
		Export(ctx context.Context, userID int64, monthKey string) (core.CycleExport, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Deps groups the collaborators of a Server.
type Deps struct {
	Cycles       CycleManager
	Transactions TransactionManager
	Users        UserRegistry
	Export       CycleExporter
	Store        Pinger
	// Identity defaults to a HeaderCookieResolver over Users.
	Identity IdentityResolver
	// Caches are swept periodically while the server runs.
	Caches []cache.Cleaner
}

// ServerConfig holds transport settings.
type ServerConfig struct {
	Addr               string
	CORSAllowedOrigins []string
	// RateLimitPerMinute of 0 disables rate limiting.
	RateLimitPerMinute int
	CookieSecure       bool
	Logger             *log.Logger
}

type appMetrics struct {
	cyclesSaved       int64
	transactionsSaved int64
	exports           int64
	uptime            time.Time
}

type Server struct {
	http.Server

	deps     Deps
	identity IdentityResolver
	config   ServerConfig
	logger   *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Call Shutdown to release its background goroutines.
func NewServer(cfg ServerConfig, deps Deps) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	identity := deps.Identity
	if identity == nil {
		identity = NewHeaderCookieResolver(deps.Users)
	}

	s := &Server{
		Server: http.Server{
			Addr:           cfg.Addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16, // 64KB
		},
		deps:             deps,
		identity:         identity,
		config:           cfg,
		logger:           logger,
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	if cfg.RateLimitPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	}

	if len(deps.Caches) > 0 {
		s.cacheManager = cache.NewManager(logger.Logger)
		for _, c := range deps.Caches {
			s.cacheManager.Register(c)
		}
		s.cacheManager.StartCleanup(10 * time.Minute)
	}

	s.Handler = s.middleware(s.routes())
	return s
}

// routes registers every endpoint. Each group tags its request logger with
// the component that owns it.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	authed := RequireUser(s.identity)
	users := log.ComponentMiddleware(log.ComponentUser)
	cycles := log.ComponentMiddleware(log.ComponentCycle)
	ledger := log.ComponentMiddleware(log.ComponentLedger)
	export := log.ComponentMiddleware(log.ComponentExport)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("POST /auth/login", users(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /auth/logout", users(http.HandlerFunc(s.handleLogout)))
	mux.Handle("POST /users", users(http.HandlerFunc(s.handleRegister)))

	mux.Handle("GET /cycles", cycles(authed(s.handleListCycles)))
	mux.Handle("POST /cycles", cycles(authed(s.handleUpsertCycle)))
	mux.Handle("GET /cycles/{id}", cycles(authed(s.handleGetCycle)))
	mux.Handle("PATCH /cycles/{id}", cycles(authed(s.handleUpdateCycle)))
	mux.Handle("DELETE /cycles/{id}", cycles(authed(s.handleDeleteCycle)))
	mux.Handle("GET /cycles/{id}/summary", cycles(authed(s.handleCycleSummary)))

	mux.Handle("GET /txns", ledger(authed(s.handleListTransactions)))
	mux.Handle("POST /txns", ledger(authed(s.handleCreateTransaction)))
	mux.Handle("PATCH /txns/{id}", ledger(authed(s.handleUpdateTransaction)))
	mux.Handle("DELETE /txns/{id}", ledger(authed(s.handleDeleteTransaction)))

	mux.Handle("GET /reports/export", export(authed(s.handleExport)))
	return mux
}

// middleware wraps h, outermost first: logger context, tracing, request-id
// logger, CORS, security headers, suspicious request detection, rate limiting.
func (s *Server) middleware(h http.Handler) http.Handler {
	if s.rateLimiter != nil {
		h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)(h)
	}
	h = s.securityDetector.Middleware(s.logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = newCORS(s.config.CORSAllowedOrigins).Handler(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = s.traceMiddleware.Middleware(h)
	return log.Middleware(s.logger)(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request, retryAfter int) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError(ratelimit.RetryAfterHeader(retryAfter)).Write(w)
}

// newCORS allows exact origins and "*.domain" suffix patterns, with
// credentials and the identity header.
func newCORS(allowed []string) *cors.Cors {
	match := originMatcher(allowed)
	return cors.New(cors.Options{
		AllowOriginFunc:  match,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", HeaderUsername},
		ExposedHeaders:   []string{"Content-Disposition", trace.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           600,
	})
}

func originMatcher(allowed []string) func(origin string) bool {
	exact := make(map[string]bool)
	var suffixes []string
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if rest, ok := strings.CutPrefix(o, "*."); ok {
			suffixes = append(suffixes, "."+strings.ToLower(rest))
			continue
		}
		if o != "" {
			exact[strings.ToLower(o)] = true
		}
	}

	return func(origin string) bool {
		origin = strings.ToLower(origin)
		if exact[origin] {
			return true
		}
		_, host, ok := strings.Cut(origin, "://")
		if !ok {
			return false
		}
		if i := strings.LastIndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		for _, suffix := range suffixes {
			if strings.HasSuffix(host, suffix) {
				return true
			}
		}
		return false
	}
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (m *appMetrics) recordCycle()       { atomic.AddInt64(&m.cyclesSaved, 1) }
func (m *appMetrics) recordTransaction() { atomic.AddInt64(&m.transactionsSaved, 1) }
func (m *appMetrics) recordExport()      { atomic.AddInt64(&m.exports, 1) }
