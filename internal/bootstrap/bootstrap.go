// Package bootstrap assembles infrastructure clients and application services
// from configuration. The API server, the ingestion worker and the operator CLI
// share it so that every process wires the pipeline the same way.
package bootstrap

import (
	"context"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/render"
	"github.com/turtacn/FieldScout-Intelligence/internal/application/alerting"
	"github.com/turtacn/FieldScout-Intelligence/internal/application/fieldconfig"
	"github.com/turtacn/FieldScout-Intelligence/internal/application/ingestion"
	"github.com/turtacn/FieldScout-Intelligence/internal/application/reporting"
	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/messaging/nats"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// Infrastructure holds the connected clients of one process. Archive,
// Publisher and Producer are nil when the matching feature is disabled.
type Infrastructure struct {
	Config    *config.Config
	Logger    logging.Logger
	DB        *postgres.Connection
	Redis     *redis.Client
	Cache     redis.Cache
	Locks     redis.LockFactory
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics
	Archive   *minio.RawArchive
	Publisher ingestion.Publisher
	Producer  *kafka.Producer

	minio   *minio.MinIOClient
	closers []func() error
}

// NewInfrastructure connects to every backing service named in cfg. On error
// the clients opened so far are closed.
func NewInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger) (_ *Infrastructure, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	infra := &Infrastructure{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			infra.Close()
		}
	}()

	infra.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, err
	}
	infra.Metrics = prometheus.NewAppMetrics(infra.Collector)

	if infra.DB, err = postgres.NewConnection(cfg.Database, logger); err != nil {
		return nil, err
	}
	infra.closers = append(infra.closers, infra.DB.Close)
	if cfg.Database.AutoMigrate {
		if err = infra.DB.RunMigrations(); err != nil {
			return nil, err
		}
	}

	if infra.Redis, err = redis.NewClient(cfg.Redis, logger); err != nil {
		return nil, err
	}
	infra.closers = append(infra.closers, infra.Redis.Close)
	var cacheOpts []redis.CacheOption
	if cfg.Redis.KeyPrefix != "" {
		cacheOpts = append(cacheOpts, redis.WithPrefix(cfg.Redis.KeyPrefix))
	}
	infra.Cache = redis.NewRedisCache(infra.Redis, logger, cacheOpts...)
	infra.Locks = redis.NewLockFactory(infra.Redis, logger)

	if cfg.MinIO.Enabled {
		if infra.minio, err = minio.NewMinIOClient(cfg.MinIO, logger); err != nil {
			return nil, err
		}
		infra.closers = append(infra.closers, infra.minio.Close)
		infra.Archive = minio.NewRawArchive(infra.minio, logger)
	}

	if err = infra.connectEvents(ctx); err != nil {
		return nil, err
	}
	return infra, nil
}

// connectEvents opens the event publisher. A Kafka producer is opened even
// with events disabled since the worker dead-letters through it.
func (i *Infrastructure) connectEvents(ctx context.Context) error {
	cfg := i.Config
	switch cfg.Events.Driver {
	case "kafka":
		p, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), i.Logger)
		if err != nil {
			return err
		}
		i.Producer = p
		i.closers = append(i.closers, p.Close)
		if cfg.Kafka.AutoCreateTopics {
			if err := ensureTopics(ctx, cfg.Kafka, i.Logger); err != nil {
				return err
			}
		}
		if cfg.Events.Enabled {
			i.Publisher = p
		}
	case "nats":
		if !cfg.Events.Enabled {
			return nil
		}
		p, err := nats.Connect(cfg.NATS, i.Logger)
		if err != nil {
			return err
		}
		i.closers = append(i.closers, p.Close)
		i.Publisher = p
	}
	return nil
}

func ensureTopics(ctx context.Context, kc config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(kc.Brokers, logger)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(kc.NumPartitions, kc.ReplicationFactor))
}

// Close releases every client in reverse order of opening.
func (i *Infrastructure) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](); err != nil {
			i.Logger.Warn("Failed to close client", logging.Err(err))
		}
	}
	i.closers = nil
}

// HealthCheckers returns the readiness checks of the connected clients.
func (i *Infrastructure) HealthCheckers() []handlers.HealthChecker {
	var out []handlers.HealthChecker
	if i.DB != nil {
		out = append(out, handlers.NewCheck("postgres", i.DB.HealthCheck))
	}
	if i.Redis != nil {
		out = append(out, handlers.NewCheck("redis", i.Redis.HealthCheck))
	}
	if i.minio != nil {
		out = append(out, handlers.NewCheck("minio", i.minio.HealthCheck))
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Services
// ─────────────────────────────────────────────────────────────────────────────

// Services are the application use cases over one Infrastructure.
type Services struct {
	Ingestion ingestion.Service
	Reports   *reporting.Service
	Alerts    alerting.Service
	Fields    *fieldconfig.Service
}

// Thresholds converts the configured system defaults.
func Thresholds(t config.ThresholdsConfig) field.Thresholds {
	return field.Thresholds{
		PestWarning:    t.PestWarning,
		PestCritical:   t.PestCritical,
		CanopyWarning:  t.CanopyWarning,
		CanopyCritical: t.CanopyCritical,
	}
}

// BuildServices wires the application services to the Postgres repositories
// and the Redis cache.
func (i *Infrastructure) BuildServices() (*Services, error) {
	if i.DB == nil || i.Cache == nil || i.Locks == nil {
		return nil, errors.NewInternal("services require a database, a cache and a lock factory")
	}
	p := i.Config.Pipeline
	defaults := Thresholds(p.Thresholds)

	records := repositories.NewPostgresDailyRecordRepo(i.DB, i.Logger)
	alerts := repositories.NewPostgresAlertRepo(i.DB, i.Logger)
	fields := repositories.NewPostgresFieldRepo(i.DB, i.Logger)

	alertSvc, err := alerting.NewService(alerts, i.Cache, i.Metrics, i.Logger, alerting.Config{StatsTTL: p.CacheTTL})
	if err != nil {
		return nil, err
	}
	reports, err := reporting.NewService(reporting.Dependencies{
		Records:    records,
		Alerts:     alertSvc,
		Thresholds: fields,
		Cache:      i.Cache,
		Metrics:    i.Metrics,
		Logger:     i.Logger,
	}, reporting.Config{
		CacheTTL:        p.CacheTTL,
		Defaults:        defaults,
		DefaultCellSize: p.DefaultCellSize,
	})
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(render.WithIcons(p.AlertIcons))
	if err != nil {
		return nil, err
	}
	deps := ingestion.Dependencies{
		Store:      repositories.NewRecordStore(i.DB, i.Logger),
		Thresholds: fields,
		Locks:      i.Locks,
		Cache:      reports,
		Metrics:    i.Metrics,
		Renderer:   renderer,
		Logger:     i.Logger,
	}
	if i.Archive != nil {
		deps.Archive = i.Archive
	}
	if i.Publisher != nil {
		deps.Publisher = i.Publisher
	}
	ingest, err := ingestion.NewService(deps, ingestion.Config{
		Defaults:        defaults,
		DefaultCellSize: p.DefaultCellSize,
		TopCritical:     p.TopCriticalZones,
		OutbreakShare:   p.CropOutbreakShare,
		LockTTL:         p.LockTTL,
		ArchiveRaw:      p.ArchiveRaw && i.Archive != nil,
	})
	if err != nil {
		return nil, err
	}

	fieldSvc, err := fieldconfig.NewService(fields, i.Cache, i.Logger)
	if err != nil {
		return nil, err
	}

	return &Services{Ingestion: ingest, Reports: reports, Alerts: alertSvc, Fields: fieldSvc}, nil
}

//Personal.AI order the ending
