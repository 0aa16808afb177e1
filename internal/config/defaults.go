package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second
	DefaultServerMaxBodySize     = 8 << 20

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBUser     = "gpsurvey"
	DefaultDBName     = "gpsurvey"
	DefaultDBMaxConns = 20
	DefaultDBSSLMode  = "disable"
	DefaultMigrations = "file://migrations"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 20
	DefaultRedisTTL       = 10 * time.Minute
	DefaultRedisKeyPrefix = "gpsurvey:"

	DefaultKafkaBroker          = "localhost:9092"
	DefaultKafkaGroupID         = "gpsurvey-worker"
	DefaultKafkaSubmissionTopic = "gpsurvey.survey.submitted"
	DefaultKafkaTimeoutMS       = 10000

	DefaultMinIOEndpoint      = "localhost:9000"
	DefaultMinIOBucket        = "gpsurvey-exports"
	DefaultMinIOPresignExpiry = 15 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "gpsurvey"
	DefaultMetricsPath      = "/metrics"

	DefaultFiscalStartYear = 2020
	DefaultEngineCacheTTL  = 10 * time.Minute
	DefaultExportPrefix    = "exports/"
)

// ApplyDefaults fills zero-value fields in cfg. Explicit settings always win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDBUser
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = DefaultMigrations
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.SubmissionTopic == "" {
		cfg.Kafka.SubmissionTopic = DefaultKafkaSubmissionTopic
	}
	if cfg.Kafka.TimeoutMS == 0 {
		cfg.Kafka.TimeoutMS = DefaultKafkaTimeoutMS
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultMinIOPresignExpiry
	}

	// ── Log / Metrics ─────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if cfg.Engine.FiscalStartYear == 0 {
		cfg.Engine.FiscalStartYear = DefaultFiscalStartYear
	}
	if cfg.Engine.CacheTTL == 0 {
		cfg.Engine.CacheTTL = DefaultEngineCacheTTL
	}
	if cfg.Engine.ExportPrefix == "" {
		cfg.Engine.ExportPrefix = DefaultExportPrefix
	}
}

// registerDefaults seeds viper with every known key. Viper only resolves
// environment overrides for keys it already knows about, so without this
// LoadFromEnv would ignore GPSURVEY_* variables for unset sections.
func registerDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"server.port":             DefaultServerPort,
		"server.mode":             DefaultServerMode,
		"server.read_timeout":     DefaultServerReadTimeout,
		"server.write_timeout":    DefaultServerWriteTimeout,
		"server.shutdown_timeout": DefaultServerShutdownTimeout,
		"server.max_body_size":    DefaultServerMaxBodySize,

		"database.host":               DefaultDBHost,
		"database.port":               DefaultDBPort,
		"database.user":               DefaultDBUser,
		"database.password":           "",
		"database.db_name":            DefaultDBName,
		"database.ssl_mode":           DefaultDBSSLMode,
		"database.max_conns":          DefaultDBMaxConns,
		"database.min_conns":          0,
		"database.conn_max_lifetime":  time.Hour,
		"database.conn_max_idle_time": 30 * time.Minute,
		"database.migration_path":     DefaultMigrations,

		"redis.addr":           DefaultRedisAddr,
		"redis.password":       "",
		"redis.db":             0,
		"redis.pool_size":      DefaultRedisPoolSize,
		"redis.min_idle_conns": 0,
		"redis.dial_timeout":   5 * time.Second,
		"redis.read_timeout":   3 * time.Second,
		"redis.write_timeout":  3 * time.Second,
		"redis.default_ttl":    DefaultRedisTTL,
		"redis.key_prefix":     DefaultRedisKeyPrefix,

		"kafka.brokers":          []string{DefaultKafkaBroker},
		"kafka.group_id":         DefaultKafkaGroupID,
		"kafka.submission_topic": DefaultKafkaSubmissionTopic,
		"kafka.timeout_ms":       DefaultKafkaTimeoutMS,
		"kafka.producer_retries": 3,
		"kafka.batch_size":       100,

		"minio.endpoint":       DefaultMinIOEndpoint,
		"minio.access_key":     "",
		"minio.secret_key":     "",
		"minio.bucket":         DefaultMinIOBucket,
		"minio.region":         "",
		"minio.use_ssl":        false,
		"minio.presign_expiry": DefaultMinIOPresignExpiry,

		"log.level":        DefaultLogLevel,
		"log.format":       DefaultLogFormat,
		"log.output_paths": []string{"stdout"},

		"metrics.enabled":   true,
		"metrics.namespace": DefaultMetricsNamespace,
		"metrics.subsystem": "",
		"metrics.path":      DefaultMetricsPath,

		"engine.fiscal_start_year": DefaultFiscalStartYear,
		"engine.cache_ttl":         DefaultEngineCacheTTL,
		"engine.export_prefix":     DefaultExportPrefix,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

//Personal.AI order the ending
