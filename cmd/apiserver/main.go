// API server entry point for gpsurvey-insight.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/gpsurvey-insight/internal/application/dashboard"
	"github.com/turtacn/gpsurvey-insight/internal/application/submission"
	"github.com/turtacn/gpsurvey-insight/internal/config"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/storage/minio"
	apihttp "github.com/turtacn/gpsurvey-insight/internal/interfaces/http"
	"github.com/turtacn/gpsurvey-insight/internal/interfaces/http/handlers"
	"github.com/turtacn/gpsurvey-insight/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	migrateUp := flag.Bool("migrate", false, "apply pending schema migrations before serving")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *migrateUp); err != nil {
		logger.Error("apiserver exited with error", logging.Err(err))
		logger.Sync()
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:       cfg.Level,
		Format:      cfg.Format,
		OutputPaths: cfg.OutputPaths,
	})
}

func run(cfg *config.Config, logger logging.Logger, migrateUp bool) error {
	logger.Info("starting gpsurvey-insight API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateUp {
		if err := applyMigrations(cfg, logger); err != nil {
			return err
		}
	}

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		Subsystem:            cfg.Metrics.Subsystem,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	infra, err := initInfrastructure(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer infra.Close(logger)

	dash := dashboard.NewService(infra.repo, logger, dashboard.Config{
		FiscalStartYear: cfg.Engine.FiscalStartYear,
		CacheTTL:        cfg.Engine.CacheTTL,
		ExportPrefix:    cfg.Engine.ExportPrefix,
		PresignExpiry:   cfg.MinIO.PresignExpiry,
	},
		dashboard.WithCache(infra.cache),
		dashboard.WithExportStore(minio.NewExportStore(infra.minio, logger)),
		dashboard.WithMetrics(metrics))

	// The worker drops cached views when it consumes the submission event.
	// The invalidator only runs here when publishing fails.
	subs := submission.NewService(infra.repo, logger, submission.Config{
		Topic:  cfg.Kafka.SubmissionTopic,
		Source: "gpsurvey-apiserver",
	},
		submission.WithPublisher(infra.producer),
		submission.WithInvalidator(dash),
		submission.WithMetrics(metrics))

	var cors *middleware.CORSConfig
	if len(cfg.Server.CORSOrigins) > 0 {
		c := middleware.DefaultCORSConfig()
		c.AllowedOrigins = cfg.Server.CORSOrigins
		cors = &c
	}

	routerCfg := apihttp.RouterConfig{
		DashboardHandler: handlers.NewDashboardHandler(dash, logger),
		SurveyHandler:    handlers.NewSurveyHandler(subs, infra.repo, logger),
		HealthHandler:    handlers.NewHealthHandler(version, logger, metrics, infra.checkers()...),
		CORS:             cors,
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           logger,
		Metrics:          metrics,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsCollector = collector
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	server := apihttp.NewServer(cfg.Server, apihttp.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := server.Stop(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	return nil
}

func applyMigrations(cfg *config.Config, logger logging.Logger) error {
	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	m := postgres.NewMigrator(conn, cfg.Database.MigrationPath, logger)
	if err := m.Up(); err != nil {
		return err
	}
	v, dirty, err := m.Status()
	if err != nil {
		return err
	}
	logger.Info("schema migrated", logging.Int("version", int(v)), logging.Bool("dirty", dirty))
	return nil
}

//Personal.AI order the ending
