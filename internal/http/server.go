package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"billcal/internal/cache"
	applog "billcal/internal/log"
	"billcal/internal/middleware/ratelimit"
	"billcal/internal/middleware/security"
	"billcal/internal/middleware/trace"
	"billcal/internal/services"
)

// Options tunes server-side caching and rate limiting.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		CacheSize: 64,
		CacheTTL:  5 * time.Minute,
	}
}

type appMetrics struct {
	uptime      time.Time
	cacheHits   int64
	cacheMisses int64
}

type Server struct {
	http.Server
	svc *services.LedgerService

	rateLimiter *ratelimit.Limiter
	ipResolver  *security.Resolver
	headers     *security.HeadersMiddleware
	tracer      *trace.Middleware
	logger      *applog.Logger
	logx        *applog.StructuredLogger

	// Calendar responses cached per (view, revision); stale revisions age
	// out via LRU and TTL, so mutations never need explicit invalidation.
	viewCache    *cache.LRUCache[[]services.CalendarDay]
	cacheManager *cache.Manager

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts = DefaultOptions()
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:          svc,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		ipResolver:   security.NewResolver(),
		headers:      security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		viewCache:    cache.NewLRUCache[[]services.CalendarDay](opts.CacheSize, opts.CacheTTL),
		cacheManager: cache.NewManager(),
		appMetrics:   appMetrics{uptime: time.Now()},
	}
	s.tracer = trace.NewMiddleware(s.ipResolver.ExtractClientIP)
	s.logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	s.logx = applog.NewStructuredLogger(s.logger)

	s.cacheManager.Register(s.viewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.Handle("/api/calendar", s.wrap(s.handleCalendar))
	mux.Handle("/api/range", s.wrap(s.handleRange))
	mux.Handle("/api/bills", s.wrap(s.handleBills))
	mux.Handle("/api/meta", s.wrap(s.handleMeta))
	mux.Handle("/api/balance", s.wrap(s.handleBalance))
	mux.Handle("/api/import/csv", s.wrap(s.handleImportCSV))
	mux.Handle("/api/import/confirm", s.wrap(s.handleImportConfirm))
	mux.Handle("/api/export/csv", s.wrap(s.handleExportCSV))
	mux.Handle("/api/snapshot", s.wrap(s.handleSnapshot))
	mux.Handle("/api/reset", s.wrap(s.handleReset))

	return s
}

// wrap applies tracing, context logging, security headers, and rate
// limiting to a handler. Rate limiting only covers mutating methods so
// that read-heavy calendar traffic is never throttled.
func (s *Server) wrap(next http.HandlerFunc) http.Handler {
	var h http.Handler = next
	h = s.limitMutations(h)
	h = s.headers.Middleware(h)
	h = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(h)
	h = applog.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	return h
}

func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.ipResolver.ExtractClientIP, nil)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// cachedView returns a cached calendar view, computing and storing it on miss.
func (s *Server) cachedView(key string, compute func() []services.CalendarDay) []services.CalendarDay {
	if days, ok := s.viewCache.Get(key); ok {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		return days
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
	days := compute()
	s.viewCache.Set(key, days)
	return days
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
