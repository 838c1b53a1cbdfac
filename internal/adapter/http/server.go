// Package http serves the diabetes care API, health probes and metrics.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/diabetes-care-api/internal/analysis"
	"github.com/couchcryptid/diabetes-care-api/internal/cache"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
	"github.com/couchcryptid/diabetes-care-api/internal/report"
)

// Reporter answers the analysis and visualization endpoints.
type Reporter interface {
	TimePeriods(ctx context.Context, id domain.IndicatorID, areaType domain.AreaType) (report.TimePeriodsResponse, error)
	Data(ctx context.Context, q report.Query, opts analysis.ListOptions) (report.DataResponse, error)
	Summary(ctx context.Context, q report.Query) (report.SummaryResponse, error)
	Rankings(ctx context.Context, q report.Query, n int, order analysis.Order) (report.RankingsResponse, error)
	Correlation(ctx context.Context, q report.Query) (report.CorrelationResponse, error)
	Map(ctx context.Context, req report.MapRequest) (report.Image, error)
	Chart(ctx context.Context, req report.ChartRequest) (report.Image, error)
}

// CacheAdmin inspects and clears the dataset cache.
type CacheAdmin interface {
	Clear()
	Len() int
	Entries() []cache.Entry
}

// Options configure the listener and the middleware stack.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitRequests  int // 0 disables rate limiting
	RateLimitWindow    time.Duration
	WriteTimeout       time.Duration // 0 leaves responses without a deadline
}

// Server exposes the API routes together with /healthz, /readyz and /metrics.
type Server struct {
	httpServer *http.Server
	reports    Reporter
	cache      CacheAdmin
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server routing requests to reports.
func NewServer(
	opts Options,
	reports Reporter,
	cacheAdmin CacheAdmin,
	ready sharedobs.ReadinessChecker,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		reports: reports,
		cache:   cacheAdmin,
		logger:  logger,
		metrics: metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(instrument(metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.RateLimitRequests > 0 {
			r.Use(httprate.Limit(opts.RateLimitRequests, opts.RateLimitWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}

		r.Get("/", s.handleRoot)
		r.Get("/indicators", s.handleIndicators)
		r.Get("/time-periods", s.handleTimePeriods)
		r.Get("/data", s.handleData)
		r.Get("/summary", s.handleSummary)
		r.Get("/rankings", s.handleRankings)
		r.Get("/correlation", s.handleCorrelation)
		r.Get("/map", s.handleMap)
		r.Get("/chart", s.handleChart)
		r.Post("/cache/clear", s.handleCacheClear)
		r.Get("/health", s.handleHealth)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Detail: "Method Not Allowed"})
	})

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
