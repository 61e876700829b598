// Package ingestion runs the per-flight pipeline: it validates the sensor
// grids, resolves the field's thresholds, derives density surfaces, canopy
// statistics, critical zones and alerts, and replaces the stored daily record
// for the (field, date) key atomically.
package ingestion

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/canopy"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/heatmap"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/render"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/risk"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/rules"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/redis"
	kafkainfra "github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// EventSource is the source recorded on every event this service publishes.
const EventSource = "fieldscout-ingestion"

// Service ingests one flight.
type Service interface {
	Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error)
}

// ThresholdSource supplies per-field threshold overrides. A nil result means
// the field has none.
type ThresholdSource interface {
	GetThresholds(ctx context.Context, fieldID string) (*field.Thresholds, error)
}

// RecordStore replaces the record and alerts for one (field, date) key in a
// single transaction, assigning their IDs.
type RecordStore interface {
	ReplaceDaily(ctx context.Context, record *scouting.DailyRecord, alerts []*alert.Alert) error
}

// Archiver keeps the raw request payload.
type Archiver interface {
	Archive(ctx context.Context, fieldID, date string, ts time.Time, payload []byte) (string, error)
}

// Publisher delivers events to the configured bus.
type Publisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// Invalidator drops cached read models for a field.
type Invalidator interface {
	InvalidateField(ctx context.Context, fieldID string) error
}

// Config tunes the pipeline.
type Config struct {
	Defaults        field.Thresholds
	DefaultCellSize float64
	TopCritical     int
	OutbreakShare   float64
	LockTTL         time.Duration
	ArchiveRaw      bool
}

// Dependencies are the collaborators of the service. Store, Thresholds and
// Locks are required; the rest are optional post-commit sinks.
type Dependencies struct {
	Store      RecordStore
	Thresholds ThresholdSource
	Locks      redis.LockFactory
	Archive    Archiver
	Publisher  Publisher
	Cache      Invalidator
	Metrics    *prometheus.AppMetrics
	Renderer   *render.Renderer
	Logger     logging.Logger
}

type service struct {
	deps   Dependencies
	cfg    Config
	engine *rules.Engine
	log    logging.Logger
	now    func() time.Time
}

// NewService builds the ingestion service. Zero config values fall back to
// pest 5/10, canopy 60/50, a 1 m cell, the top 10 critical zones and a 40%
// crop outbreak share.
func NewService(deps Dependencies, cfg Config) (Service, error) {
	if deps.Store == nil || deps.Thresholds == nil || deps.Locks == nil {
		return nil, errors.NewInternal("ingestion requires a record store, threshold source and lock factory")
	}
	cfg.Defaults = cfg.Defaults.Over(DefaultThresholds())
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, err
	}
	if cfg.DefaultCellSize <= 0 {
		cfg.DefaultCellSize = 1
	}
	if cfg.TopCritical <= 0 {
		cfg.TopCritical = 10
	}
	if cfg.OutbreakShare <= 0 {
		cfg.OutbreakShare = rules.DefaultOutbreakShare
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if deps.Renderer == nil {
		r, err := render.New()
		if err != nil {
			return nil, err
		}
		deps.Renderer = r
	}
	log := deps.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &service{
		deps:   deps,
		cfg:    cfg,
		engine: rules.NewEngine(rules.WithOutbreakShare(cfg.OutbreakShare)),
		log:    log.Named("ingestion"),
		now:    time.Now,
	}, nil
}

// DefaultThresholds are the system-wide thresholds used when neither the
// configuration nor the field overrides a value.
func DefaultThresholds() field.Thresholds {
	return field.Thresholds{PestWarning: 5, PestCritical: 10, CanopyWarning: 60, CanopyCritical: 50}
}

// Ingest validates req, runs the analytics pipeline and replaces the daily
// record under the (field, date) lock. Side effects after the commit never
// fail the call.
func (s *service) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	start := s.now()
	source := "api"
	if req != nil && req.Source != "" {
		source = req.Source
	}

	res, err := s.ingest(ctx, req)
	status := "success"
	if err != nil {
		status = "failed"
		if errors.IsValidation(err) {
			status = "rejected"
		}
		prometheus.RecordError(s.deps.Metrics, "ingestion", string(errors.GetCode(err)))
	}
	prometheus.RecordIngestion(s.deps.Metrics, source, status, s.now().Sub(start))
	return res, err
}

func (s *service) ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	if _, _, err := req.Validate(); err != nil {
		return nil, err
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()
	date := common.DateKey(ts)

	th, err := s.thresholds(ctx, req.FieldID)
	if err != nil {
		return nil, err
	}

	out, err := s.analyse(req, th, date, ts)
	if err != nil {
		return nil, err
	}

	if err := s.replace(ctx, out.record, out.alerts); err != nil {
		return nil, err
	}

	s.log.Info("Ingested flight",
		logging.String("field_id", req.FieldID),
		logging.String("date", date),
		logging.String("record_id", out.record.ID),
		logging.Int("pest_count", out.record.Aggregates.PestCount),
		logging.Int("alerts", len(out.alerts)),
		logging.Int("critical_zones", out.record.Aggregates.CriticalZoneCount),
	)

	s.afterCommit(ctx, req, out)

	return &IngestResult{
		Status:   StatusSuccess,
		RecordID: out.record.ID,
		Date:     date,
		Summary: Summary{
			PestCount:       out.record.Aggregates.PestCount,
			AvgCanopy:       out.record.Aggregates.AvgCanopy,
			AlertsGenerated: len(out.alerts),
			CriticalZones:   out.record.Aggregates.CriticalZoneCount,
		},
	}, nil
}

// thresholds merges the field's overrides over the configured defaults.
func (s *service) thresholds(ctx context.Context, fieldID string) (field.Thresholds, error) {
	override, err := s.deps.Thresholds.GetThresholds(ctx, fieldID)
	if err != nil {
		return field.Thresholds{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load field thresholds").
			WithDetail("field_id=" + fieldID)
	}
	if override == nil {
		return s.cfg.Defaults, nil
	}
	th := override.Over(s.cfg.Defaults)
	if err := th.Validate(); err != nil {
		s.log.Warn("Stored field thresholds are invalid, using defaults",
			logging.String("field_id", fieldID), logging.Err(err))
		return s.cfg.Defaults, nil
	}
	return th, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline
// ─────────────────────────────────────────────────────────────────────────────

type outcome struct {
	record   *scouting.DailyRecord
	alerts   []*alert.Alert
	critical []scouting.CriticalZone
}

func (s *service) analyse(req *IngestRequest, th field.Thresholds, date string, ts time.Time) (*outcome, error) {
	cellSize := req.FieldDimensions.CellSize(s.cfg.DefaultCellSize)

	hm := heatmap.FromDetectionGrid(req.PestGrid)
	if hm.Skipped > 0 {
		s.log.Warn("Skipped malformed detection cells",
			logging.String("field_id", req.FieldID), logging.Int("skipped", hm.Skipped))
	}

	stats, err := canopy.Statistics(req.CanopyCover)
	if err != nil {
		return nil, err
	}
	low := canopy.LowCoverageZones(req.CanopyCover, th.CanopyWarning, th.CanopyCritical)

	hotspots := heatmap.CropHotspots(hm.Counts, th.PestWarning, cellSize)
	critical := risk.CriticalZones(hotspots, req.CanopyCover, th)
	zones := risk.Fuse(hm.Density, req.CanopyCover, critical, th)

	drafts := s.engine.Evaluate(rules.Input{
		CriticalZones:    critical,
		Hotspots:         hotspots,
		LowZones:         low,
		PestCountsByCrop: hm.Totals,
		CropOrder:        hm.Order,
		Thresholds:       th,
	})
	alerts, err := s.deps.Renderer.Alerts(req.FieldID, date, ts, drafts)
	if err != nil {
		return nil, err
	}

	densities := make(map[string][][]float64, len(hm.Density))
	for crop, g := range hm.Density {
		densities[crop] = g
	}

	metadata := make(map[string]interface{}, len(req.Metadata)+3)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["zone_summary"] = zones.Summary
	metadata["thresholds"] = th
	if hm.Skipped > 0 {
		metadata["skipped_cells"] = hm.Skipped
	}

	record := &scouting.DailyRecord{
		FieldID:         req.FieldID,
		Date:            date,
		Timestamp:       ts,
		PestGrid:        req.PestGrid,
		CanopyCover:     req.CanopyCover,
		FieldDimensions: req.FieldDimensions,
		Aggregates: scouting.Aggregates{
			PestCount:         hm.Total(),
			PestCountsByCrop:  hm.Totals,
			AvgCanopy:         stats.Avg,
			MinCanopy:         stats.Min,
			MaxCanopy:         stats.Max,
			StdDevCanopy:      stats.StdDev,
			MedianCanopy:      stats.Median,
			CriticalZones:     risk.TopCritical(critical, s.cfg.TopCritical),
			CriticalZoneCount: len(critical),
		},
		Heatmaps: scouting.Heatmaps{
			PestDensityByCrop: densities,
			CanopyGrid:        req.CanopyCover,
		},
		Metadata:  metadata,
		CreatedAt: s.now().UTC(),
	}
	return &outcome{record: record, alerts: alerts, critical: critical}, nil
}

// replace stores the outcome while holding the (field, date) lock.
func (s *service) replace(ctx context.Context, record *scouting.DailyRecord, alerts []*alert.Alert) error {
	name := LockName(record.FieldID, record.Date)
	mu := s.deps.Locks.NewMutex(name, redis.WithLockTTL(s.cfg.LockTTL), redis.WithWatchdog(true))
	if err := mu.Lock(ctx); err != nil {
		if errors.IsCode(err, errors.ErrCodeIngestInProgress) {
			prometheus.RecordLockContention(s.deps.Metrics)
		}
		return err
	}
	defer func() {
		if err := mu.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("Failed to release ingestion lock", logging.String("lock", name), logging.Err(err))
		}
	}()

	if err := s.deps.Store.ReplaceDaily(ctx, record, alerts); err != nil {
		if errors.GetCode(err) != errors.ErrCodeDatabaseError {
			err = errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to store daily record")
		}
		return err
	}
	return nil
}

// LockName is the distributed lock guarding one (field, date) key.
func LockName(fieldID, date string) string {
	return "ingest:" + fieldID + ":" + date
}

// ─────────────────────────────────────────────────────────────────────────────
// Post-commit side effects
// ─────────────────────────────────────────────────────────────────────────────

func (s *service) afterCommit(ctx context.Context, req *IngestRequest, out *outcome) {
	rec := out.record

	for _, a := range out.alerts {
		prometheus.RecordAlert(s.deps.Metrics, string(a.Type), string(a.Severity))
	}
	prometheus.SetCriticalZones(s.deps.Metrics, rec.FieldID, rec.Aggregates.CriticalZoneCount)

	if s.deps.Cache != nil {
		if err := s.deps.Cache.InvalidateField(ctx, rec.FieldID); err != nil {
			s.log.Warn("Failed to invalidate cached reports",
				logging.String("field_id", rec.FieldID), logging.Err(err))
		}
	}

	if s.deps.Archive != nil && s.cfg.ArchiveRaw {
		s.archive(ctx, req, rec)
	}

	if s.deps.Publisher != nil {
		s.publish(ctx, rec, out.alerts)
	}
}

func (s *service) archive(ctx context.Context, req *IngestRequest, rec *scouting.DailyRecord) {
	payload, err := json.Marshal(req)
	if err != nil {
		s.log.Warn("Failed to encode raw payload", logging.String("field_id", rec.FieldID), logging.Err(err))
		return
	}
	key, err := s.deps.Archive.Archive(ctx, rec.FieldID, rec.Date, rec.Timestamp, payload)
	if err != nil {
		s.log.Warn("Failed to archive raw payload",
			logging.String("field_id", rec.FieldID), logging.String("date", rec.Date), logging.Err(err))
		return
	}
	prometheus.RecordArchive(s.deps.Metrics, len(payload))
	s.log.Debug("Archived raw payload", logging.String("key", key))
}

func (s *service) publish(ctx context.Context, rec *scouting.DailyRecord, alerts []*alert.Alert) {
	s.emit(ctx, kafkainfra.TopicFieldIngested, kafkainfra.EventFieldIngested, rec.FieldID, kafkainfra.FieldIngestedPayload{
		FieldID:         rec.FieldID,
		Date:            rec.Date,
		RecordID:        rec.ID,
		PestCount:       rec.Aggregates.PestCount,
		AvgCanopy:       rec.Aggregates.AvgCanopy,
		AlertsGenerated: len(alerts),
		CriticalZones:   rec.Aggregates.CriticalZoneCount,
		IngestedAt:      rec.CreatedAt,
	})
	for _, a := range alerts {
		s.emit(ctx, kafkainfra.TopicAlertCreated, kafkainfra.EventAlertCreated, rec.FieldID, kafkainfra.AlertCreatedPayload{
			AlertID:   a.ID,
			FieldID:   a.FieldID,
			Date:      a.Date,
			AlertType: string(a.Type),
			Severity:  string(a.Severity),
			ZoneID:    a.ZoneID,
			Message:   a.Message,
			Metrics:   a.Metrics,
			CreatedAt: a.Timestamp,
		})
	}
}

func (s *service) emit(ctx context.Context, topic, eventType, key string, payload interface{}) {
	env, err := kafkainfra.NewEventEnvelope(eventType, EventSource, payload)
	if err == nil {
		var msg *common.ProducerMessage
		if msg, err = env.ToMessage(topic, key); err == nil {
			err = s.deps.Publisher.Publish(ctx, msg)
		}
	}
	prometheus.RecordEvent(s.deps.Metrics, topic, err)
	if err != nil {
		s.log.Warn("Failed to publish event",
			logging.String("topic", topic), logging.String("field_id", key), logging.Err(err))
	}
}

//Personal.AI order the ending
