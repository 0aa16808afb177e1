package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/gpsurvey-insight/internal/interfaces/http/handlers"
	"github.com/turtacn/gpsurvey-insight/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree. Nil handlers leave their
// routes unmounted.
type RouterConfig struct {
	// Handlers
	DashboardHandler *handlers.DashboardHandler
	SurveyHandler    *handlers.SurveyHandler
	HealthHandler    *handlers.HealthHandler

	// Middleware
	CORS    *middleware.CORSConfig
	Logging middleware.LoggingConfig

	// Infrastructure
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	Metrics          *prometheus.AppMetrics
	// MetricsPath is where MetricsCollector is served. Defaults to /metrics.
	MetricsPath string
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, cfg.Logging))
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}

	// --- Probes and scrape endpoint ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Method(http.MethodGet, cfg.MetricsPath, cfg.MetricsCollector.Handler())
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		registerDashboardRoutes(api, cfg.DashboardHandler)
		registerSurveyRoutes(api, cfg.SurveyHandler)
	})

	return r
}

// registerDashboardRoutes mounts the dashboard views under /dashboard.
func registerDashboardRoutes(r chi.Router, h *handlers.DashboardHandler) {
	if h == nil {
		return
	}
	r.Route("/dashboard", func(dr chi.Router) {
		dr.Get("/metrics", h.Metrics)
		dr.Get("/distribution", h.Distribution)
		dr.Get("/year-series", h.YearSeries)
		dr.Get("/pyramid", h.Pyramid)
		dr.Get("/completion", h.Completion)
		dr.Get("/filters", h.Filters)
		dr.Get("/coverage", h.Coverage)
		dr.Get("/water-bodies", h.WaterBodies)
		dr.Post("/export", h.Export)
	})
}

// registerSurveyRoutes mounts record endpoints under /surveys.
func registerSurveyRoutes(r chi.Router, h *handlers.SurveyHandler) {
	if h == nil {
		return
	}
	r.Route("/surveys", func(sr chi.Router) {
		sr.Get("/", h.List)
		sr.Post("/", h.Submit)
		sr.Post("/import", h.Import)
		sr.Get("/lookup", h.Get)
	})
}

//Personal.AI order the ending
