package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FieldScout-Intelligence/internal/bootstrap"
	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http"
	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http/middleware"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: FIELDSCOUT_* environment only)")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the configuration")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
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
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logging.SetDefault(logger)

	if *configPath != "" {
		watchConfig(*configPath, logger)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("API server exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting FieldScout API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
		logging.String("events", cfg.Events.Driver))

	infra, err := bootstrap.NewInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svcs, err := infra.BuildServices()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	rc := httpserver.RouterConfig{
		IngestionHandler: handlers.NewIngestionHandler(svcs.Ingestion, svcs.Reports),
		ReportHandler:    handlers.NewReportHandler(svcs.Reports, nil),
		AlertHandler:     handlers.NewAlertHandler(svcs.Alerts),
		FieldHandler:     handlers.NewFieldHandler(svcs.Fields),
		HealthHandler:    handlers.NewHealthHandler(version, infra.Metrics, infra.HealthCheckers()...),
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           logger,
		Metrics:          infra.Metrics,
		MaxBodySize:      cfg.Server.MaxBodySize,
	}
	if cfg.Metrics.Enabled {
		rc.MetricsCollector = infra.Collector
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSOrigins
		rc.CORS = &cors
	}
	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(rc), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return srv.Stop(context.Background())
}

// watchConfig reports edits of the configuration file. Connections and
// thresholds are bound at startup, so changes apply on the next restart.
func watchConfig(path string, logger logging.Logger) {
	err := config.Watch(path, func(c *config.Config) {
		logger.Warn("Configuration file changed; restart to apply",
			logging.String("path", path),
			logging.String("log_level", c.Log.Level))
	}, func(err error) {
		logger.Error("Ignoring invalid configuration revision", logging.String("path", path), logging.Err(err))
	})
	if err != nil {
		logger.Warn("Configuration watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
