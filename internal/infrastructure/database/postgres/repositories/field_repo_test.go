package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

type FieldRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo field.Repository
}

func (s *FieldRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)

	log := logging.NewNopLogger()
	s.repo = NewPostgresFieldRepo(postgres.NewConnectionWithDB(s.db, log), log)
}

func (s *FieldRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *FieldRepoTestSuite) TestGet_Found() {
	updated := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery(`SELECT field_id, name, .* FROM field_configs WHERE field_id = \$1`).
		WithArgs("field_001").
		WillReturnRows(sqlmock.NewRows([]string{
			"field_id", "name", "location", "dimensions", "grid_config", "thresholds", "crop_types",
			"planting_date", "expected_harvest", "updated_at",
		}).AddRow(
			"field_001", "North Field",
			[]byte(`{"latitude":41.5,"longitude":-93.6}`),
			[]byte(`{"width_m":100,"height_m":50}`),
			[]byte(`{"cell_size_m":10,"grid_width":10,"grid_height":5}`),
			[]byte(`{"pest_density_warning":4,"pest_density_critical":9,"canopy_warning":65,"canopy_critical":45}`),
			"{corn,wheat}", "2025-04-15", "2025-10-20", updated,
		))

	cfg, err := s.repo.Get(context.Background(), "field_001")
	s.Require().NoError(err)
	s.Equal("North Field", cfg.Name)
	s.Equal(41.5, cfg.Location.Latitude)
	s.Equal(10, cfg.Grid.GridWidth)
	s.Equal(field.Thresholds{PestWarning: 4, PestCritical: 9, CanopyWarning: 65, CanopyCritical: 45}, cfg.Thresholds)
	s.Equal([]string{"corn", "wheat"}, cfg.CropTypes)
	s.Equal("2025-04-15", cfg.PlantingDate)
	s.True(updated.Equal(cfg.UpdatedAt))
}

func (s *FieldRepoTestSuite) TestGet_NotFound() {
	s.mock.ExpectQuery("FROM field_configs").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := s.repo.Get(context.Background(), "nope")
	s.Equal(errors.ErrCodeFieldNotFound, errors.GetCode(err))
}

func (s *FieldRepoTestSuite) TestGetThresholds() {
	s.mock.ExpectQuery(`SELECT thresholds FROM field_configs WHERE field_id = \$1`).
		WithArgs("field_001").
		WillReturnRows(sqlmock.NewRows([]string{"thresholds"}).AddRow([]byte(`{"pest_density_critical":20}`)))

	th, err := s.repo.GetThresholds(context.Background(), "field_001")
	s.Require().NoError(err)
	s.Equal(field.Thresholds{PestCritical: 20}, *th)
}

func (s *FieldRepoTestSuite) TestGetThresholds_Unconfigured() {
	s.mock.ExpectQuery("SELECT thresholds").WithArgs("field_002").WillReturnError(sql.ErrNoRows)

	th, err := s.repo.GetThresholds(context.Background(), "field_002")
	s.NoError(err)
	s.Nil(th)
}

func (s *FieldRepoTestSuite) TestSave_Upsert() {
	updated := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	cfg := &field.Config{
		FieldID:    "field_001",
		Name:       "North Field",
		Thresholds: field.Thresholds{PestWarning: 5, PestCritical: 10, CanopyWarning: 60, CanopyCritical: 50},
	}

	s.mock.ExpectQuery(`INSERT INTO field_configs .* ON CONFLICT \(field_id\) DO UPDATE SET`).
		WithArgs("field_001", "North Field", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), "", "").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))

	s.Require().NoError(s.repo.Save(context.Background(), cfg))
	s.True(updated.Equal(cfg.UpdatedAt))
}

func (s *FieldRepoTestSuite) TestSave_DatabaseError() {
	s.mock.ExpectQuery("INSERT INTO field_configs").WillReturnError(sql.ErrConnDone)

	err := s.repo.Save(context.Background(), &field.Config{FieldID: "f", Name: "n"})
	s.Equal(errors.ErrCodeDatabaseError, errors.GetCode(err))
}

func TestFieldRepoTestSuite(t *testing.T) {
	suite.Run(t, new(FieldRepoTestSuite))
}

//Personal.AI order the ending
