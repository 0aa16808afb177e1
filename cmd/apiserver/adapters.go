package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/gpsurvey-insight/internal/config"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/redis"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/storage/minio"
	"github.com/turtacn/gpsurvey-insight/internal/interfaces/http/handlers"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

const startupTimeout = 30 * time.Second

// infrastructure holds the backing services of the API server.
type infrastructure struct {
	pool     *pgxpool.Pool
	repo     *repositories.SurveyRepository
	redis    *redis.Client
	cache    redis.Cache
	minio    *minio.Client
	producer *kafka.Producer
}

func initInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger, metrics *prometheus.AppMetrics) (*infrastructure, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	infra := &infrastructure{}

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	infra.pool = pool
	infra.repo = repositories.NewSurveyRepository(pool, logger, metrics)

	rc, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		infra.Close(logger)
		return nil, err
	}
	infra.redis = rc
	infra.cache = redis.NewRedisCache(rc, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL))

	mc, err := minio.NewClient(ctx, &cfg.MinIO, logger)
	if err != nil {
		infra.Close(logger)
		return nil, err
	}
	infra.minio = mc

	producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger)
	if err != nil {
		infra.Close(logger)
		return nil, err
	}
	infra.producer = producer

	logger.Info("API server infrastructure initialized")
	return infra, nil
}

// Close releases everything that was opened, newest first.
func (i *infrastructure) Close(logger logging.Logger) {
	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", logging.Err(err))
		}
	}
	if i.minio != nil {
		_ = i.minio.Close()
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if i.pool != nil {
		i.pool.Close()
	}
}

// checkers adapts each backing service to the readiness probe.
func (i *infrastructure) checkers() []handlers.HealthChecker {
	return []handlers.HealthChecker{
		handlers.CheckerFunc{Component: "postgres", Fn: i.pool.Ping},
		handlers.CheckerFunc{Component: "redis", Fn: i.redis.Ping},
		handlers.CheckerFunc{Component: "minio", Fn: func(ctx context.Context) error {
			status, err := i.minio.HealthCheck(ctx)
			if err != nil {
				return err
			}
			if !status.Healthy {
				return errors.New(errors.ErrCodeServiceUnavailable, status.Error)
			}
			return nil
		}},
	}
}

//Personal.AI order the ending
