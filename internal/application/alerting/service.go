// Package alerting manages the acknowledgement lifecycle of persisted field
// alerts and serves their per-field statistics.
package alerting

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/internal/application/reporting"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// DefaultStatsTTL is how long alert statistics stay cached.
const DefaultStatsTTL = 5 * time.Minute

// statsKind names the statistics entry among a field's cached reports, so
// report invalidation drops it together with the KPIs that embed it.
const statsKind = "alert_stats"

// Service is the alert management use case.
type Service interface {
	ListActive(ctx context.Context, fieldID string) ([]*alert.Alert, error)
	Acknowledge(ctx context.Context, alertID string) (*alert.Alert, error)
	Resolve(ctx context.Context, alertID string) (*alert.Alert, error)
	Stats(ctx context.Context, fieldID string) (*alert.Stats, error)
}

// Config tunes the service.
type Config struct {
	StatsTTL time.Duration
}

type serviceImpl struct {
	repo     alert.Repository
	cache    redis.Cache
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
	statsTTL time.Duration
	now      func() time.Time
}

// NewService constructs the alert service. cache and metrics may be nil.
func NewService(repo alert.Repository, cache redis.Cache, metrics *prometheus.AppMetrics, logger logging.Logger, cfg Config) (Service, error) {
	if repo == nil {
		return nil, errors.NewInternal("alerting requires an alert repository")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ttl := cfg.StatsTTL
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &serviceImpl{
		repo:     repo,
		cache:    cache,
		metrics:  metrics,
		logger:   logger.Named("alerting"),
		statsTTL: ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// ListActive returns the field's active alerts, newest first.
func (s *serviceImpl) ListActive(ctx context.Context, fieldID string) ([]*alert.Alert, error) {
	if strings.TrimSpace(fieldID) == "" {
		return nil, errors.NewValidation("field_id is required")
	}
	alerts, err := s.repo.ListByField(ctx, fieldID, alert.WithStatuses(alert.StatusActive))
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []*alert.Alert{}
	}
	return alerts, nil
}

// Acknowledge marks the alert acknowledged now.
func (s *serviceImpl) Acknowledge(ctx context.Context, alertID string) (*alert.Alert, error) {
	return s.transition(ctx, alertID, "acknowledged", func(a *alert.Alert) error {
		return a.Acknowledge(s.now())
	})
}

// Resolve closes the alert, acknowledging it first when needed.
func (s *serviceImpl) Resolve(ctx context.Context, alertID string) (*alert.Alert, error) {
	return s.transition(ctx, alertID, "resolved", func(a *alert.Alert) error {
		a.Resolve(s.now())
		return nil
	})
}

func (s *serviceImpl) transition(ctx context.Context, alertID, action string, apply func(*alert.Alert) error) (*alert.Alert, error) {
	if strings.TrimSpace(alertID) == "" {
		return nil, errors.NewValidation("alert_id is required")
	}

	a, err := s.repo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errors.New(errors.ErrCodeAlertNotFound, "alert not found").WithDetail("id=" + alertID)
	}
	if err := apply(a); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		prometheus.RecordError(s.metrics, "alerting", string(errors.GetCode(err)))
		return nil, err
	}

	s.invalidate(ctx, a.FieldID)
	s.logger.Info("Alert "+action,
		logging.String("alert_id", a.ID),
		logging.String("field_id", a.FieldID),
		logging.String("alert_type", string(a.Type)))
	return a, nil
}

// Stats counts the field's alerts by type, severity and status.
func (s *serviceImpl) Stats(ctx context.Context, fieldID string) (*alert.Stats, error) {
	if strings.TrimSpace(fieldID) == "" {
		return nil, errors.NewValidation("field_id is required")
	}
	if s.cache == nil {
		return s.repo.Stats(ctx, fieldID)
	}

	var (
		stats  alert.Stats
		missed bool
	)
	key := reporting.CacheKey(statsKind, fieldID, "all")
	err := s.cache.GetOrSet(ctx, key, &stats, s.statsTTL, func(ctx context.Context) (interface{}, error) {
		missed = true
		return s.repo.Stats(ctx, fieldID)
	})
	if err != nil {
		return nil, err
	}
	prometheus.RecordCacheAccess(s.metrics, statsKind, !missed)
	return &stats, nil
}

// invalidate drops every cached report of the field: statistics and the
// dashboard views derived from them.
func (s *serviceImpl) invalidate(ctx context.Context, fieldID string) {
	if s.cache == nil || fieldID == "" {
		return
	}
	if _, err := s.cache.DeleteByPrefix(ctx, reporting.FieldPrefix(fieldID)); err != nil {
		s.logger.Warn("Failed to invalidate cached reports", logging.String("field_id", fieldID), logging.Err(err))
	}
}

//Personal.AI order the ending
