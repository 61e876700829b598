// Package fieldconfig reads and replaces the per-field configuration whose
// thresholds drive ingestion and the read side.
package fieldconfig

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/internal/application/reporting"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// Service manages field configuration.
type Service struct {
	repo   field.Repository
	cache  redis.Cache
	logger logging.Logger
	now    func() time.Time
}

// NewService creates a Service. cache may be nil.
func NewService(repo field.Repository, cache redis.Cache, logger logging.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.NewInternal("fieldconfig requires a field repository")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger.Named("fieldconfig"),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Get returns the stored configuration, ErrCodeFieldNotFound when absent.
func (s *Service) Get(ctx context.Context, fieldID string) (*field.Config, error) {
	if strings.TrimSpace(fieldID) == "" {
		return nil, errors.NewValidation("field_id is required")
	}
	cfg, err := s.repo.Get(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeFieldNotFound, "field not found").WithDetail("field_id=" + fieldID)
	}
	return cfg, nil
}

// Save validates and replaces the configuration. Cached reports of the field
// are dropped since they were computed with the previous thresholds.
func (s *Service) Save(ctx context.Context, cfg *field.Config) (*field.Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if _, err := s.cache.DeleteByPrefix(ctx, reporting.FieldPrefix(cfg.FieldID)); err != nil {
			s.logger.Warn("Failed to invalidate cached reports",
				logging.String("field_id", cfg.FieldID), logging.Err(err))
		}
	}
	s.logger.Info("Field configuration saved",
		logging.String("field_id", cfg.FieldID),
		logging.Float64("pest_critical", cfg.Thresholds.PestCritical),
		logging.Float64("canopy_critical", cfg.Thresholds.CanopyCritical))
	return cfg, nil
}

//Personal.AI order the ending
