package fieldconfig

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/FieldScout-Intelligence/internal/application/reporting"
	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/testutil"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

type fakeRepo struct {
	configs map[string]*field.Config
	saveErr error
}

func (f *fakeRepo) Get(_ context.Context, fieldID string) (*field.Config, error) {
	c, ok := f.configs[fieldID]
	if !ok {
		return nil, errors.New(errors.ErrCodeFieldNotFound, "field not found")
	}
	return c, nil
}

func (f *fakeRepo) GetThresholds(_ context.Context, fieldID string) (*field.Thresholds, error) {
	if c, ok := f.configs[fieldID]; ok {
		return &c.Thresholds, nil
	}
	return nil, nil
}

func (f *fakeRepo) Save(_ context.Context, cfg *field.Config) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.configs[cfg.FieldID] = cfg
	return nil
}

type ServiceSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	cache redis.Cache
	repo  *fakeRepo
	log   *testutil.MockLogger
	svc   *Service
	now   time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client, err := redis.NewClient(config.RedisConfig{Addr: s.mr.Addr()}, logging.NewNopLogger())
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = client.Close() })
	s.cache = redis.NewRedisCache(client, logging.NewNopLogger())

	s.repo = &fakeRepo{configs: map[string]*field.Config{}}
	s.log = testutil.NewMockLogger()
	s.svc, err = NewService(s.repo, s.cache, s.log)
	s.Require().NoError(err)
	s.now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	s.svc.now = func() time.Time { return s.now }
}

func validConfig() *field.Config {
	return &field.Config{
		FieldID:    "field-1",
		Name:       "North block",
		Thresholds: field.Thresholds{PestWarning: 5, PestCritical: 15, CanopyWarning: 65, CanopyCritical: 45},
		CropTypes:  []string{" Corn", "WHEAT"},
	}
}

func (s *ServiceSuite) TestSaveThenGet() {
	saved, err := s.svc.Save(context.Background(), validConfig())
	s.Require().NoError(err)
	s.Equal(s.now, saved.UpdatedAt)
	s.Equal([]string{"corn", "wheat"}, saved.CropTypes)
	s.True(s.log.HasMessage("info", "Field configuration saved"))

	got, err := s.svc.Get(context.Background(), "field-1")
	s.Require().NoError(err)
	s.Equal(15.0, got.Thresholds.PestCritical)
}

func (s *ServiceSuite) TestSaveInvalidatesCachedReports() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, reporting.CacheKey("today", "field-1", "2024-06-01"), "x", time.Minute))
	s.Require().NoError(s.cache.Set(ctx, reporting.CacheKey("today", "field-2", "2024-06-01"), "y", time.Minute))

	_, err := s.svc.Save(ctx, validConfig())
	s.Require().NoError(err)

	keys := s.mr.Keys()
	s.Len(keys, 1)
	s.Contains(keys[0], "field-2")
}

func (s *ServiceSuite) TestSaveRejectsInvalidThresholds() {
	cases := map[string]field.Thresholds{
		"canopy order": {PestWarning: 5, PestCritical: 10, CanopyWarning: 50, CanopyCritical: 60},
		"pest order":   {PestWarning: 10, PestCritical: 10, CanopyWarning: 60, CanopyCritical: 50},
		"non-positive": {PestWarning: 0, PestCritical: 10, CanopyWarning: 60, CanopyCritical: 50},
	}
	for name, th := range cases {
		cfg := validConfig()
		cfg.Thresholds = th
		_, err := s.svc.Save(context.Background(), cfg)
		s.True(errors.IsCode(err, errors.ErrCodeThresholdsInvalid), name)
	}
	s.Empty(s.repo.configs)
}

func (s *ServiceSuite) TestSaveRequiresIdentity() {
	cfg := validConfig()
	cfg.FieldID = ""
	_, err := s.svc.Save(context.Background(), cfg)
	s.True(errors.IsValidation(err))

	_, err = s.svc.Save(context.Background(), nil)
	s.True(errors.IsValidation(err))
}

func (s *ServiceSuite) TestSaveStorageFailure() {
	s.repo.saveErr = errors.New(errors.ErrCodeDatabaseError, "down")
	_, err := s.svc.Save(context.Background(), validConfig())
	s.True(errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func (s *ServiceSuite) TestGetMissing() {
	_, err := s.svc.Get(context.Background(), "field-9")
	s.True(errors.IsNotFound(err))

	_, err = s.svc.Get(context.Background(), "")
	s.True(errors.IsValidation(err))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

//Personal.AI order the ending
