package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"timesheet/internal/analytics"
	"timesheet/internal/cache"
	"timesheet/internal/core"
	applog "timesheet/internal/log"
	"timesheet/internal/middleware/ratelimit"
	"timesheet/internal/middleware/security"
	"timesheet/internal/middleware/trace"
	"timesheet/internal/repo"
	"timesheet/internal/services"
)

// repoTimeout bounds every repository call made while serving a request.
const repoTimeout = 7 * time.Second

// EntryReader is the read side of the store the handlers need.
type EntryReader interface {
	repo.EntryRepository
	repo.TaxonomyReader
}

// UserDirectory resolves callers and lists the roster.
type UserDirectory interface {
	UserResolver
	List() []core.User
}

// Options tune the server; zero values fall back to defaults.
type Options struct {
	Logger *applog.Logger
	// AnalyticsCache replaces the in-process LRU, e.g. with a shared Redis
	// cache. CacheSize and CacheTTL only shape the default LRU.
	AnalyticsCache     cache.Cache[analytics.Analytics]
	CacheSize          int
	CacheTTL           time.Duration
	RateLimitPerMinute int
	Now                func() time.Time
}

type appMetrics struct {
	uptime       time.Time
	entryWrites  int64
	computations int64
}

type Server struct {
	http.Server

	entries *services.EntryService
	store   EntryReader
	users   UserDirectory
	logger  *applog.Logger
	now     func() time.Time

	analyticsCache cache.Cache[analytics.Analytics]
	cacheManager   *cache.Manager
	group          singleflight.Group
	generation     atomic.Uint64

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Any entry write through entries purges the analytics cache.
func NewServer(addr string, entries *services.EntryService, store EntryReader, dir UserDirectory, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AnalyticsCache == nil {
		opts.AnalyticsCache = cache.NewLRUCache[analytics.Analytics](opts.CacheSize, opts.CacheTTL)
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		entries:          entries,
		store:            store,
		users:            dir,
		logger:           logger,
		now:              opts.Now,
		analyticsCache:   opts.AnalyticsCache,
		cacheManager:     cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(opts.Logger, s.securityDetector.ExtractClientIP)

	if c, ok := s.analyticsCache.(cache.Cleaner); ok {
		s.cacheManager.Register(c)
	}
	s.cacheManager.StartCleanup(10 * time.Minute)
	entries.OnChange(s.invalidateAnalytics)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/categories", s.withUser(s.handleCategories))
	api.HandleFunc("GET /api/entries", s.withUser(s.handleListEntries))
	api.HandleFunc("POST /api/entries", s.withUser(s.handleCreateEntry))
	api.HandleFunc("GET /api/entries/{id}", s.withUser(s.handleGetEntry))
	api.HandleFunc("PUT /api/entries/{id}", s.withUser(s.handleUpdateEntry))
	api.HandleFunc("DELETE /api/entries/{id}", s.withUser(s.handleDeleteEntry))
	api.HandleFunc("GET /api/analytics", s.withUser(s.handleAnalytics))
	api.HandleFunc("GET /api/dashboard", s.withUser(s.handleDashboard))
	api.HandleFunc("GET /api/calendar", s.withUser(s.handleCalendarDay))
	api.HandleFunc("GET /api/calendar/days", s.withUser(s.handleCalendarDays))
	api.HandleFunc("GET /api/profile", s.withUser(s.handleProfile))
	api.HandleFunc("GET /api/users", s.requireCapability(core.CapViewRoster, s.handleUsers))
	api.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimit)(api)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("/api/", limited)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// invalidateAnalytics drops every cached result. Bumping the generation
// keeps computations that started before the write in this process from
// repopulating the cache with stale data.
func (s *Server) invalidateAnalytics() {
	s.generation.Add(1)
	s.analyticsCache.Purge()
	atomic.AddInt64(&s.appMetrics.entryWrites, 1)
}

// analyticsFor aggregates the entries of userFilter (empty for everyone) in
// rng. Results are cached and concurrent identical requests share one
// computation.
func (s *Server) analyticsFor(ctx context.Context, userFilter string, rng core.DateRange) (analytics.Analytics, error) {
	// no process state in the key: replicas on a shared cache read each other's fills
	key := fmt.Sprintf("%s|%s|%s", userFilter, rng.Start, rng.End)
	gen := s.generation.Load()
	if a, ok := s.analyticsCache.Get(key); ok {
		s.logger.DebugContext(ctx, "Analytics cache hit", applog.FieldUserID, userFilter,
			applog.FieldStartDate, rng.Start, applog.FieldEndDate, rng.End)
		return a, nil
	}

	v, err, _ := s.group.Do(fmt.Sprintf("%d|%s", gen, key), func() (any, error) {
		// shared by every waiter, so one caller going away must not cancel it
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), repoTimeout)
		defer cancel()

		all, err := s.store.List(cctx)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		tax, err := s.store.Taxonomy(cctx)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		a := analytics.AggregateTaxonomy(all, userFilter, rng, tax)
		atomic.AddInt64(&s.appMetrics.computations, 1)
		if s.generation.Load() == gen {
			s.analyticsCache.Set(key, a)
		}
		return a, nil
	})
	if err != nil {
		return analytics.Analytics{}, err
	}
	return v.(analytics.Analytics), nil
}

// snapshot lists every entry with the request timeout applied.
func (s *Server) snapshot(ctx context.Context) ([]core.TimeEntry, error) {
	cctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()
	all, err := s.store.List(cctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return all, nil
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
