// Package config defines all configuration structures for the
// FieldScout-Intelligence service.  Plain data types and validation only;
// loading lives in loader.go and defaults in defaults.go.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// StatementTimeout and LockTimeout are sent as session runtime parameters.
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	GroupID           string   `mapstructure:"group_id"`
	AutoOffsetReset   string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries   int      `mapstructure:"producer_retries"`
	BatchSize         int      `mapstructure:"batch_size"`
	AutoCreateTopics  bool     `mapstructure:"auto_create_topics"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
	NumPartitions     int      `mapstructure:"num_partitions"`
}

// NATSConfig holds the alternate event-bus connection parameters.
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Name          string        `mapstructure:"name"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// EventsConfig selects the event publisher for post-commit notifications.
type EventsConfig struct {
	Driver  string `mapstructure:"driver"` // "kafka" | "nats" | "none"
	Enabled bool   `mapstructure:"enabled"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Enabled   bool   `mapstructure:"enabled"`

	// RetentionDays expires archived payloads; 0 keeps them forever.
	RetentionDays int `mapstructure:"retention_days"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// WorkerConfig holds ingestion-consumer execution parameters.
type WorkerConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	HealthPort   int           `mapstructure:"health_port"`
}

// ThresholdsConfig mirrors field.Thresholds for the system-wide defaults.
type ThresholdsConfig struct {
	PestWarning    float64 `mapstructure:"pest_warning"`
	PestCritical   float64 `mapstructure:"pest_critical"`
	CanopyWarning  float64 `mapstructure:"canopy_warning"`
	CanopyCritical float64 `mapstructure:"canopy_critical"`
}

// PipelineConfig holds ingestion pipeline tunables.
type PipelineConfig struct {
	Thresholds        ThresholdsConfig `mapstructure:"thresholds"`
	DefaultCellSize   float64          `mapstructure:"default_cell_size"`
	TopCriticalZones  int              `mapstructure:"top_critical_zones"`
	CropOutbreakShare float64          `mapstructure:"crop_outbreak_share"`
	LockTTL           time.Duration    `mapstructure:"lock_ttl"`
	CacheTTL          time.Duration    `mapstructure:"cache_ttl"`
	ArchiveRaw        bool             `mapstructure:"archive_raw"`
	AlertIcons        bool             `mapstructure:"alert_icons"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire service.
type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Database DatabaseConfig    `mapstructure:"database"`
	Redis    RedisConfig       `mapstructure:"redis"`
	Kafka    KafkaConfig       `mapstructure:"kafka"`
	NATS     NATSConfig        `mapstructure:"nats"`
	Events   EventsConfig      `mapstructure:"events"`
	MinIO    MinIOConfig       `mapstructure:"minio"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`
	Worker   WorkerConfig      `mapstructure:"worker"`
	Log      logging.LogConfig `mapstructure:"log"`
	Pipeline PipelineConfig    `mapstructure:"pipeline"`
}

// DSN returns the PostgreSQL connection string for the pgx stdlib driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// Any error is fatal at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	switch c.Events.Driver {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
	case "nats":
		if c.NATS.URL == "" {
			return fmt.Errorf("config: nats.url is required when events.driver is nats")
		}
	case "none":
	default:
		return fmt.Errorf("config: events.driver %q is invalid; expected kafka|nats|none", c.Events.Driver)
	}

	if c.MinIO.Enabled && c.MinIO.Bucket == "" {
		return fmt.Errorf("config: minio.bucket is required when minio is enabled")
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return c.Pipeline.validate()
}

func (p PipelineConfig) validate() error {
	t := p.Thresholds
	if t.PestWarning <= 0 || t.PestCritical <= 0 || t.CanopyWarning <= 0 || t.CanopyCritical <= 0 {
		return fmt.Errorf("config: pipeline.thresholds must all be positive")
	}
	if t.PestCritical <= t.PestWarning {
		return fmt.Errorf("config: pipeline.thresholds.pest_critical (%.2f) must exceed pest_warning (%.2f)", t.PestCritical, t.PestWarning)
	}
	if t.CanopyWarning <= t.CanopyCritical {
		return fmt.Errorf("config: pipeline.thresholds.canopy_warning (%.2f) must exceed canopy_critical (%.2f)", t.CanopyWarning, t.CanopyCritical)
	}
	if p.DefaultCellSize <= 0 {
		return fmt.Errorf("config: pipeline.default_cell_size must be positive")
	}
	if p.TopCriticalZones < 1 {
		return fmt.Errorf("config: pipeline.top_critical_zones must be ≥ 1, got %d", p.TopCriticalZones)
	}
	if p.CropOutbreakShare <= 0 || p.CropOutbreakShare >= 1 {
		return fmt.Errorf("config: pipeline.crop_outbreak_share must be in (0, 1), got %.2f", p.CropOutbreakShare)
	}
	return nil
}

//Personal.AI order the ending
