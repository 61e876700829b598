package cli

import (
	"context"

	"github.com/turtacn/FieldScout-Intelligence/internal/application/ingestion"
	"github.com/turtacn/FieldScout-Intelligence/internal/bootstrap"
	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// Ingester runs one flight through the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResult, error)
}

// HeatmapSource renders stored density surfaces.
type HeatmapSource interface {
	HeatmapPNG(ctx context.Context, fieldID, date, crop string) ([]byte, error)
}

// EventPublisher enqueues messages for the ingestion worker.
type EventPublisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// MigrationRunner applies the embedded schema migrations.
type MigrationRunner interface {
	Up() error
	Down(steps int) error
	Status() (version uint, dirty bool, err error)
	Force(version int) error
}

// Opener builds the backends each command needs. Nil members fall back to
// implementations that connect to the configured services; tests replace
// them with fakes. Every returned release func is non-nil.
type Opener struct {
	LoadConfig func(path string) (*config.Config, error)
	NewLogger  func(cfg logging.LogConfig) (logging.Logger, error)
	Ingester   func(ctx context.Context, cc *CLIContext) (Ingester, func(), error)
	Heatmaps   func(ctx context.Context, cc *CLIContext) (HeatmapSource, func(), error)
	Publisher  func(ctx context.Context, cc *CLIContext) (EventPublisher, func(), error)
	Migrator   func(cc *CLIContext) (MigrationRunner, error)
	Checks     func(cc *CLIContext) []handlers.HealthChecker
}

func (op Opener) withDefaults() Opener {
	if op.LoadConfig == nil {
		op.LoadConfig = config.Load
	}
	if op.NewLogger == nil {
		op.NewLogger = logging.NewLogger
	}
	if op.Ingester == nil {
		op.Ingester = func(ctx context.Context, cc *CLIContext) (Ingester, func(), error) {
			svcs, release, err := openServices(ctx, cc)
			if err != nil {
				return nil, nil, err
			}
			return svcs.Ingestion, release, nil
		}
	}
	if op.Heatmaps == nil {
		op.Heatmaps = func(ctx context.Context, cc *CLIContext) (HeatmapSource, func(), error) {
			svcs, release, err := openServices(ctx, cc)
			if err != nil {
				return nil, nil, err
			}
			return svcs.Reports, release, nil
		}
	}
	if op.Publisher == nil {
		op.Publisher = openPublisher
	}
	if op.Migrator == nil {
		op.Migrator = func(cc *CLIContext) (MigrationRunner, error) {
			return postgres.NewMigrator(postgres.MigrationURL(cc.Config.Database), cc.Logger), nil
		}
	}
	if op.Checks == nil {
		op.Checks = defaultChecks
	}
	return op
}

func openServices(ctx context.Context, cc *CLIContext) (*bootstrap.Services, func(), error) {
	infra, err := bootstrap.NewInfrastructure(ctx, cc.Config, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	svcs, err := infra.BuildServices()
	if err != nil {
		infra.Close()
		return nil, nil, err
	}
	return svcs, infra.Close, nil
}

func openPublisher(_ context.Context, cc *CLIContext) (EventPublisher, func(), error) {
	if len(cc.Config.Kafka.Brokers) == 0 {
		return nil, nil, errors.NewValidation("kafka.brokers is required to enqueue ingestions")
	}
	p, err := kafka.NewProducer(kafka.ProducerConfigFrom(cc.Config.Kafka), cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = p.Close() }, nil
}

// defaultChecks connect on every check so that an unreachable service is
// reported rather than aborting the command.
func defaultChecks(cc *CLIContext) []handlers.HealthChecker {
	cfg := cc.Config
	log := logging.NewNopLogger()
	checks := []handlers.HealthChecker{
		handlers.NewCheck("postgres", func(ctx context.Context) error {
			conn, err := postgres.NewConnection(cfg.Database, log)
			if err != nil {
				return err
			}
			defer conn.Close()
			return conn.HealthCheck(ctx)
		}),
		handlers.NewCheck("redis", func(ctx context.Context) error {
			client, err := redis.NewClient(cfg.Redis, log)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.HealthCheck(ctx)
		}),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		checks = append(checks, handlers.NewCheck("kafka", func(ctx context.Context) error {
			tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, log)
			if err != nil {
				return err
			}
			defer tm.Close()
			ok, err := tm.TopicExists(ctx, kafka.TopicIngestRequested)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Newf(errors.ErrCodeMessageQueueError, "topic %s does not exist", kafka.TopicIngestRequested)
			}
			return nil
		}))
	}
	return checks
}

//Personal.AI order the ending
