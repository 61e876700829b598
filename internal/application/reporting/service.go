// Package reporting serves the read side of the stored daily records: KPIs,
// pest and canopy views, trends, monthly analytics, zone insights, field
// health and rendered heat maps. Views are cached per field and dropped
// whenever the field is re-ingested or its alerts change.
package reporting

import (
	"context"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// MaxTrendDays bounds the window of the trend views.
const MaxTrendDays = 30

// AlertStats counts a field's alerts.
type AlertStats interface {
	Stats(ctx context.Context, fieldID string) (*alert.Stats, error)
}

// ThresholdSource supplies per-field threshold overrides.
type ThresholdSource interface {
	GetThresholds(ctx context.Context, fieldID string) (*field.Thresholds, error)
}

// Config tunes the read side.
type Config struct {
	CacheTTL        time.Duration
	Defaults        field.Thresholds
	DefaultCellSize float64
}

// Dependencies are the collaborators of the Service. Cache and Metrics are
// optional.
type Dependencies struct {
	Records    scouting.RecordRepository
	Alerts     AlertStats
	Thresholds ThresholdSource
	Cache      redis.Cache
	Metrics    *prometheus.AppMetrics
	Logger     logging.Logger
}

// Service answers read-side queries.
type Service struct {
	records    scouting.RecordRepository
	alerts     AlertStats
	thresholds ThresholdSource
	cache      redis.Cache
	metrics    *prometheus.AppMetrics
	log        logging.Logger
	cfg        Config
}

// NewService creates a Service. A zero CacheTTL means five minutes.
func NewService(deps Dependencies, cfg Config) (*Service, error) {
	if deps.Records == nil || deps.Alerts == nil || deps.Thresholds == nil {
		return nil, errors.NewInternal("reporting requires record, alert and threshold repositories")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.DefaultCellSize <= 0 {
		cfg.DefaultCellSize = 1
	}
	cfg.Defaults = cfg.Defaults.Over(field.Thresholds{PestWarning: 5, PestCritical: 10, CanopyWarning: 60, CanopyCritical: 50})
	log := deps.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{
		records:    deps.Records,
		alerts:     deps.Alerts,
		thresholds: deps.Thresholds,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		log:        log.Named("reporting"),
		cfg:        cfg,
	}, nil
}

// thresholdsFor resolves the field's thresholds, falling back to the defaults
// when none are stored or the stored ones are invalid.
func (s *Service) thresholdsFor(ctx context.Context, fieldID string) (field.Thresholds, error) {
	override, err := s.thresholds.GetThresholds(ctx, fieldID)
	if err != nil {
		return field.Thresholds{}, err
	}
	if override == nil {
		return s.cfg.Defaults, nil
	}
	th := override.Over(s.cfg.Defaults)
	if th.Validate() != nil {
		return s.cfg.Defaults, nil
	}
	return th, nil
}

// record loads one day, mapping absence to ErrCodeRecordNotFound.
func (s *Service) record(ctx context.Context, fieldID, date string) (*scouting.DailyRecord, error) {
	rec, err := s.records.GetByDate(ctx, fieldID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, noData(fieldID, date)
	}
	return rec, nil
}

func noData(fieldID, key string) error {
	return errors.New(errors.ErrCodeRecordNotFound, "no data").WithDetail("field_id=" + fieldID + " key=" + key)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cache
// ─────────────────────────────────────────────────────────────────────────────

// FieldPrefix is the cache key prefix shared by every view of a field.
func FieldPrefix(fieldID string) string {
	return "report:" + fieldID + ":"
}

// CacheKey returns the cache key of one view.
func CacheKey(kind, fieldID, key string) string {
	return FieldPrefix(fieldID) + kind + ":" + key
}

// InvalidateField drops every cached view of fieldID.
func (s *Service) InvalidateField(ctx context.Context, fieldID string) error {
	if s.cache == nil {
		return nil
	}
	n, err := s.cache.DeleteByPrefix(ctx, FieldPrefix(fieldID))
	if err != nil {
		return err
	}
	s.log.Debug("Invalidated cached reports", logging.String("field_id", fieldID), logging.Int64("keys", n))
	return nil
}

// cached serves a view from the cache, computing and storing it on a miss.
// Loader errors are returned and never cached.
func cached[T any](ctx context.Context, s *Service, kind, fieldID, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}
	var (
		out    T
		missed bool
	)
	err := s.cache.GetOrSet(ctx, CacheKey(kind, fieldID, key), &out, s.cfg.CacheTTL, func(ctx context.Context) (interface{}, error) {
		missed = true
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	prometheus.RecordCacheAccess(s.metrics, "report", !missed)
	return out, nil
}

//Personal.AI order the ending
