//go:build integration

// Integration tests for the PostgreSQL repositories. They need Docker and are
// gated behind the "integration" build tag.
package repositories_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test helpers
// ─────────────────────────────────────────────────────────────────────────────

// startPostgres launches a PostgreSQL 16 container, applies the embedded
// migrations and returns the connection.
func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "fieldscout_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	conn, err := postgres.NewConnection(config.DatabaseConfig{
		Host:     host,
		Port:     portNum,
		User:     "test",
		Password: "test",
		DBName:   "fieldscout_test",
		SSLMode:  "disable",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.RunMigrations())
	return conn
}

func newRecord(fieldID, date string, pests int) *scouting.DailyRecord {
	ts, _ := time.Parse("2006-01-02", date)
	return &scouting.DailyRecord{
		FieldID:   fieldID,
		Date:      date,
		Timestamp: ts.Add(10 * time.Hour),
		PestGrid: scouting.DetectionGrid{
			{{Count: pests, CropType: "corn"}, {Count: 0, CropType: "corn"}},
		},
		CanopyCover:     scouting.CanopyGrid{{40, 60}},
		FieldDimensions: scouting.FieldDimensions{WidthM: 20, HeightM: 10, GridResolution: 10},
		Aggregates: scouting.Aggregates{
			PestCount:        pests,
			PestCountsByCrop: map[string]int{"corn": pests},
			AvgCanopy:        50,
			CriticalZones:    []scouting.CriticalZone{},
		},
		Heatmaps: scouting.Heatmaps{
			PestDensityByCrop: map[string][][]float64{"corn": {{float64(pests) / 100, 0}}},
			CanopyGrid:        [][]float64{{40, 60}},
		},
	}
}

func newAlert(fieldID, date string, typ alert.Type) *alert.Alert {
	ts, _ := time.Parse("2006-01-02", date)
	return alert.New(fieldID, date, ts, alert.Draft{
		Type:     typ,
		Severity: alert.SeverityCritical,
		ZoneID:   "grid_0_0",
		Metrics:  map[string]interface{}{alert.MetricPestCount: 12.0},
	}, "High pest activity", "Inspect the zone")
}

// ─────────────────────────────────────────────────────────────────────────────
// Daily records
// ─────────────────────────────────────────────────────────────────────────────

func TestRecordStore_ReplaceDailyIsIdempotent(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	store := repositories.NewRecordStore(conn, nil)
	records := repositories.NewPostgresDailyRecordRepo(conn, nil)
	alerts := repositories.NewPostgresAlertRepo(conn, nil)

	for i := 0; i < 2; i++ {
		err := store.ReplaceDaily(ctx, newRecord("field-1", "2024-06-01", 12),
			[]*alert.Alert{newAlert("field-1", "2024-06-01", alert.TypePestOutbreak)})
		require.NoError(t, err)
	}

	rec, err := records.GetByDate(ctx, "field-1", "2024-06-01")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 12, rec.Aggregates.PestCount)
	assert.Equal(t, "corn", rec.PestGrid[0][0].CropType)
	assert.InDelta(t, 0.12, rec.Heatmaps.PestDensityByCrop["corn"][0][0], 1e-9)

	list, err := alerts.ListByField(ctx, "field-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDailyRecordRepo_RangeAndLatest(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	store := repositories.NewRecordStore(conn, nil)
	records := repositories.NewPostgresDailyRecordRepo(conn, nil)

	for i, date := range []string{"2024-06-03", "2024-06-01", "2024-06-02"} {
		require.NoError(t, store.ReplaceDaily(ctx, newRecord("field-1", date, i+1), nil))
	}

	list, err := records.ListRange(ctx, "field-1", "2024-06-01", "2024-06-02")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-06-01", list[0].Date)
	assert.Equal(t, "2024-06-02", list[1].Date)

	latest, err := records.Latest(ctx, "field-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", latest.Date)

	_, err = records.GetByDate(ctx, "field-1", "2024-05-01")
	assert.True(t, errors.IsNotFound(err))
	_, err = records.Latest(ctx, "field-9")
	assert.True(t, errors.IsNotFound(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// Alerts
// ─────────────────────────────────────────────────────────────────────────────

func TestAlertRepo_StatusLifecycleAndStats(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	store := repositories.NewRecordStore(conn, nil)
	repo := repositories.NewPostgresAlertRepo(conn, nil)

	require.NoError(t, store.ReplaceDaily(ctx, newRecord("field-1", "2024-06-01", 12), []*alert.Alert{
		newAlert("field-1", "2024-06-01", alert.TypePestOutbreak),
		newAlert("field-1", "2024-06-01", alert.TypeCanopyStress),
	}))

	active, err := repo.ListByField(ctx, "field-1", alert.WithStatuses(alert.StatusActive))
	require.NoError(t, err)
	require.Len(t, active, 2)

	a, err := repo.GetByID(ctx, active[0].ID)
	require.NoError(t, err)
	require.NoError(t, a.Acknowledge(time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, repo.UpdateStatus(ctx, a))

	reloaded, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.StatusAcknowledged, reloaded.Status)
	assert.True(t, reloaded.Acknowledged)
	require.NotNil(t, reloaded.AcknowledgedAt)

	active, err = repo.ListByField(ctx, "field-1", alert.WithStatuses(alert.StatusActive))
	require.NoError(t, err)
	assert.Len(t, active, 1)

	stats, err := repo.Stats(ctx, "field-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus["active"])
	assert.Equal(t, 1, stats.ByStatus["acknowledged"])
	assert.Equal(t, 2, stats.BySeverity["critical"])

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.IsNotFound(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// Field configuration
// ─────────────────────────────────────────────────────────────────────────────

func TestFieldRepo_SaveReplacesConfig(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	repo := repositories.NewPostgresFieldRepo(conn, nil)

	th, err := repo.GetThresholds(ctx, "field-1")
	require.NoError(t, err)
	assert.Nil(t, th)

	cfg := &field.Config{
		FieldID:   "field-1",
		Name:      "North block",
		Grid:      field.GridConfig{CellSizeM: 10, GridWidth: 2, GridHeight: 1},
		CropTypes: []string{"corn"},
		Thresholds: field.Thresholds{
			PestWarning: 5, PestCritical: 10, CanopyWarning: 50, CanopyCritical: 30,
		},
	}
	require.NoError(t, repo.Save(ctx, cfg))

	cfg.Name = "North block (irrigated)"
	cfg.Thresholds.PestCritical = 15
	require.NoError(t, repo.Save(ctx, cfg))

	got, err := repo.Get(ctx, "field-1")
	require.NoError(t, err)
	assert.Equal(t, "North block (irrigated)", got.Name)
	assert.Equal(t, []string{"corn"}, got.CropTypes)

	th, err = repo.GetThresholds(ctx, "field-1")
	require.NoError(t, err)
	require.NotNil(t, th)
	assert.Equal(t, 15.0, th.PestCritical)

	_, err = repo.Get(ctx, "field-2")
	assert.True(t, errors.IsNotFound(err))
}

//Personal.AI order the ending
