package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FieldScout-Intelligence/internal/config"
)

// validConfig returns a Config that passes Validate().
func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestConfig_Validate_Defaults(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"server port", func(c *config.Config) { c.Server.Port = 70000 }, "server.port"},
		{"server mode", func(c *config.Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"db host", func(c *config.Config) { c.Database.Host = "" }, "database.host"},
		{"db name", func(c *config.Config) { c.Database.DBName = "" }, "database.db_name"},
		{"redis addr", func(c *config.Config) { c.Redis.Addr = "" }, "redis.addr"},
		{"events driver", func(c *config.Config) { c.Events.Driver = "sqs" }, "events.driver"},
		{"kafka brokers", func(c *config.Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"nats url", func(c *config.Config) { c.Events.Driver = "nats"; c.NATS.URL = "" }, "nats.url"},
		{"minio bucket", func(c *config.Config) { c.MinIO.Enabled = true; c.MinIO.Bucket = "" }, "minio.bucket"},
		{"log format", func(c *config.Config) { c.Log.Format = "text" }, "log.format"},
		{"pest ordering", func(c *config.Config) { c.Pipeline.Thresholds.PestCritical = 4 }, "pest_critical"},
		{"canopy ordering", func(c *config.Config) { c.Pipeline.Thresholds.CanopyCritical = 65 }, "canopy_warning"},
		{"outbreak share", func(c *config.Config) { c.Pipeline.CropOutbreakShare = 1.5 }, "crop_outbreak_share"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestApplyDefaults_PipelineAndPreserve(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Server.Port = 9999
	cfg.Pipeline.Thresholds.PestCritical = 15
	config.ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 15.0, cfg.Pipeline.Thresholds.PestCritical)
	assert.Equal(t, config.DefaultPestWarning, cfg.Pipeline.Thresholds.PestWarning)
	assert.Equal(t, config.DefaultCanopyWarning, cfg.Pipeline.Thresholds.CanopyWarning)
	assert.Equal(t, config.DefaultCanopyCritical, cfg.Pipeline.Thresholds.CanopyCritical)
	assert.Equal(t, 10, cfg.Pipeline.TopCriticalZones)
	assert.Equal(t, 0.4, cfg.Pipeline.CropOutbreakShare)

	config.ApplyDefaults(nil)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()
	d := config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "fs", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/fs?sslmode=require", d.DSN())
}

//Personal.AI order the ending
