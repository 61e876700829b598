package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/FieldScout-Intelligence/internal/bootstrap"
	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/consumer"
	httpserver "github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http"
	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http/middleware"
)

var version = "dev"

const statsInterval = time.Minute

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: FIELDSCOUT_* environment only)")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the configuration")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logging.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("worker requires kafka.brokers")
	}
	logger.Info("Starting FieldScout ingestion worker",
		logging.String("version", version),
		logging.Strings("brokers", cfg.Kafka.Brokers),
		logging.String("topic", kafka.TopicIngestRequested))

	infra, err := bootstrap.NewInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svcs, err := infra.BuildServices()
	if err != nil {
		return err
	}

	var deadLetter kafka.Publisher
	if infra.Producer != nil {
		deadLetter = infra.Producer
	}
	c, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka, cfg.Worker, kafka.TopicIngestRequested), deadLetter, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	consumer.NewIngestHandler(svcs.Ingestion, infra.Metrics, logger).Register(c)

	gin.SetMode(gin.ReleaseMode)
	healthSrv := httpserver.NewServer(config.ServerConfig{Port: cfg.Worker.HealthPort}, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(version, infra.Metrics, infra.HealthCheckers()...),
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           logger,
		Metrics:          infra.Metrics,
		MetricsCollector: infra.Collector,
	}), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Start(gctx) })
	g.Go(healthSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		return healthSrv.Stop(context.Background())
	})
	g.Go(func() error {
		t := time.NewTicker(statsInterval)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				st := c.Stats()
				logger.Info("Consumer stats",
					logging.Int64("consumed", st.Consumed),
					logging.Int64("processed", st.Processed),
					logging.Int64("failed", st.Failed),
					logging.Int64("dead_lettered", st.DeadLettered))
			}
		}
	})

	err = g.Wait()
	logger.Info("Worker stopped")
	if ctx.Err() != nil {
		return nil
	}
	return err
}

//Personal.AI order the ending
