// Background worker entry point for gpsurvey-insight.
//
// The worker consumes survey.submitted events from Kafka. Each event drops
// the memoized dashboard views in Redis and, with -warm, recomputes the views
// dashboards open with. Events that keep failing are retried with backoff and
// then moved to the dead letter topic by the consumer.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/gpsurvey-insight/internal/application/dashboard"
	"github.com/turtacn/gpsurvey-insight/internal/config"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/redis"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	apihttp "github.com/turtacn/gpsurvey-insight/internal/interfaces/http"
	"github.com/turtacn/gpsurvey-insight/internal/interfaces/http/handlers"
)

// Build-time variables injected via ldflags.
var version = "dev"

const (
	defaultHealthPort = 8081
	startupTimeout    = 30 * time.Second
)

type workerOptions struct {
	healthPort   int
	warm         bool
	ensureTopics bool
}

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	opts := workerOptions{}
	flag.IntVar(&opts.healthPort, "health-port", defaultHealthPort, "port of the health and metrics endpoints")
	flag.BoolVar(&opts.warm, "warm", true, "recompute common dashboard views after each submission")
	flag.BoolVar(&opts.ensureTopics, "ensure-topics", true, "create the submission and dead letter topics when missing")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger.Named("worker"), opts); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger, opts workerOptions) error {
	logger.Info("starting gpsurvey-insight worker",
		logging.String("version", version),
		logging.String("topic", cfg.Kafka.SubmissionTopic),
		logging.String("group_id", cfg.Kafka.GroupID),
		logging.Bool("warm", opts.warm))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := postgres.NewPool(startCtx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	rc, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer rc.Close()

	if opts.ensureTopics {
		if err := ensureTopics(startCtx, cfg.Kafka, logger); err != nil {
			return err
		}
	}

	dash := dashboard.NewService(repositories.NewSurveyRepository(pool, logger, metrics), logger, dashboard.Config{
		FiscalStartYear: cfg.Engine.FiscalStartYear,
		CacheTTL:        cfg.Engine.CacheTTL,
	},
		dashboard.WithCache(redis.NewRedisCache(rc, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL))),
		dashboard.WithMetrics(metrics))

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka), logger)
	if err != nil {
		return err
	}
	consumer.Subscribe(cfg.Kafka.SubmissionTopic, dashboard.SubmissionEventHandler(dash, logger, metrics, opts.warm))

	health := newHealthServer(cfg, opts.healthPort, logger, collector, metrics, pool, rc)
	go func() {
		if err := health.Start(); err != nil {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	logger.Info("worker consuming", logging.String("topic", cfg.Kafka.SubmissionTopic))

	<-ctx.Done()
	logger.Info("received shutdown signal, draining in-flight events")

	if err := consumer.Close(); err != nil {
		logger.Error("consumer close failed", logging.Err(err))
	}
	if err := health.Stop(context.Background()); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}
	logger.Info("worker stopped", logging.Int64("processed", consumer.Processed()))
	return nil
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.SubmissionTopic))
}

// newHealthServer exposes liveness, readiness and metrics for the probes.
func newHealthServer(
	cfg *config.Config,
	port int,
	logger logging.Logger,
	collector prometheus.MetricsCollector,
	metrics *prometheus.AppMetrics,
	pool *pgxpool.Pool,
	rc *redis.Client,
) *apihttp.Server {
	health := handlers.NewHealthHandler(version, logger, metrics,
		handlers.CheckerFunc{Component: "postgres", Fn: pool.Ping},
		handlers.CheckerFunc{Component: "redis", Fn: rc.Ping},
	)

	r := chi.NewRouter()
	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness)
	r.Get("/healthz/detail", health.Detailed)
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, collector.Handler())
	}

	serverCfg := cfg.Server
	serverCfg.Port = port
	return apihttp.NewServer(serverCfg, r, logger)
}

//Personal.AI order the ending
