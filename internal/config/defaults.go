package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBUser     = "fieldscout"
	DefaultDBName     = "fieldscout"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "fieldscout-ingest"

	DefaultNATSURL = "nats://localhost:4222"

	DefaultEventsDriver = "kafka"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "fieldscout-raw"

	DefaultMetricsNamespace = "fieldscout"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 4
	DefaultWorkerHealthPort  = 8081

	DefaultPestWarning    = 5.0
	DefaultPestCritical   = 10.0
	DefaultCanopyWarning  = 60.0
	DefaultCanopyCritical = 50.0

	DefaultCellSize          = 1.0
	DefaultTopCriticalZones  = 10
	DefaultCropOutbreakShare = 0.4
	DefaultLockTTL           = 30 * time.Second
	DefaultCacheTTL          = 5 * time.Minute
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Explicitly configured values are left unchanged. Booleans are not touched;
// their defaults are registered on the viper instance in setViperDefaults.
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
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 32 << 20
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
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
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.StatementTimeout == 0 {
		cfg.Database.StatementTimeout = 30 * time.Second
	}
	if cfg.Database.LockTimeout == 0 {
		cfg.Database.LockTimeout = 10 * time.Second
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 20
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "fieldscout:"
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.NumPartitions == 0 {
		cfg.Kafka.NumPartitions = 3
	}
	if cfg.Kafka.ReplicationFactor == 0 {
		cfg.Kafka.ReplicationFactor = 1
	}

	// ── NATS / events ─────────────────────────────────────────────────────────
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = DefaultNATSURL
	}
	if cfg.NATS.Name == "" {
		cfg.NATS.Name = "fieldscout"
	}
	if cfg.NATS.ReconnectWait == 0 {
		cfg.NATS.ReconnectWait = 2 * time.Second
	}
	if cfg.Events.Driver == "" {
		cfg.Events.Driver = DefaultEventsDriver
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = time.Second
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	th := &cfg.Pipeline.Thresholds
	if th.PestWarning == 0 {
		th.PestWarning = DefaultPestWarning
	}
	if th.PestCritical == 0 {
		th.PestCritical = DefaultPestCritical
	}
	if th.CanopyWarning == 0 {
		th.CanopyWarning = DefaultCanopyWarning
	}
	if th.CanopyCritical == 0 {
		th.CanopyCritical = DefaultCanopyCritical
	}
	if cfg.Pipeline.DefaultCellSize == 0 {
		cfg.Pipeline.DefaultCellSize = DefaultCellSize
	}
	if cfg.Pipeline.TopCriticalZones == 0 {
		cfg.Pipeline.TopCriticalZones = DefaultTopCriticalZones
	}
	if cfg.Pipeline.CropOutbreakShare == 0 {
		cfg.Pipeline.CropOutbreakShare = DefaultCropOutbreakShare
	}
	if cfg.Pipeline.LockTTL == 0 {
		cfg.Pipeline.LockTTL = DefaultLockTTL
	}
	if cfg.Pipeline.CacheTTL == 0 {
		cfg.Pipeline.CacheTTL = DefaultCacheTTL
	}
}

// setViperDefaults registers every key on v so that FIELDSCOUT_* environment
// variables are honoured by Unmarshal even when the key is absent from the
// YAML file.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("database.host", DefaultDBHost)
	v.SetDefault("database.port", DefaultDBPort)
	v.SetDefault("database.user", DefaultDBUser)
	v.SetDefault("database.password", "")
	v.SetDefault("database.db_name", DefaultDBName)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", DefaultDBMaxConns)
	v.SetDefault("database.statement_timeout", 30*time.Second)
	v.SetDefault("database.lock_timeout", 10*time.Second)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{DefaultKafkaBroker})
	v.SetDefault("kafka.group_id", DefaultKafkaGroupID)
	v.SetDefault("kafka.auto_create_topics", false)

	v.SetDefault("nats.url", DefaultNATSURL)

	v.SetDefault("events.driver", DefaultEventsDriver)
	v.SetDefault("events.enabled", true)

	v.SetDefault("minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", DefaultMinIOBucket)
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.retention_days", 0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)

	v.SetDefault("worker.concurrency", DefaultWorkerConcurrency)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("pipeline.thresholds.pest_warning", DefaultPestWarning)
	v.SetDefault("pipeline.thresholds.pest_critical", DefaultPestCritical)
	v.SetDefault("pipeline.thresholds.canopy_warning", DefaultCanopyWarning)
	v.SetDefault("pipeline.thresholds.canopy_critical", DefaultCanopyCritical)
	v.SetDefault("pipeline.default_cell_size", DefaultCellSize)
	v.SetDefault("pipeline.top_critical_zones", DefaultTopCriticalZones)
	v.SetDefault("pipeline.crop_outbreak_share", DefaultCropOutbreakShare)
	v.SetDefault("pipeline.lock_ttl", DefaultLockTTL)
	v.SetDefault("pipeline.cache_ttl", DefaultCacheTTL)
	v.SetDefault("pipeline.archive_raw", true)
	v.SetDefault("pipeline.alert_icons", false)
}

//Personal.AI order the ending
