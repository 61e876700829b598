package repositories

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

var recordCols = []string{
	"id", "field_id", "date", "timestamp", "pest_grid", "canopy_cover", "field_dimensions",
	"aggregates", "heatmaps", "metadata", "created_at",
}

type DailyRecordRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo scouting.RecordRepository
}

func (s *DailyRecordRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)

	log := logging.NewNopLogger()
	s.repo = NewPostgresDailyRecordRepo(postgres.NewConnectionWithDB(s.db, log), log)
}

func (s *DailyRecordRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func recordRow(rows *sqlmock.Rows, id, date string, pests int) *sqlmock.Rows {
	day, _ := time.Parse("2006-01-02", date)
	ts := day.Add(7 * time.Hour)
	return rows.AddRow(
		id, "field_001", day, ts,
		[]byte(`[[{"count":0,"crop_type":""},{"count":12,"crop_type":"corn"}]]`),
		[]byte(`[[80,45]]`),
		[]byte(`{"width_m":20,"height_m":10,"grid_resolution":10}`),
		[]byte(`{"pest_count":`+strconv.Itoa(pests)+`,"pest_counts_by_crop":{"corn":`+strconv.Itoa(pests)+`},"avg_canopy":62.5,"critical_zones":[],"critical_zone_count":0}`),
		[]byte(`{"pest_density_by_crop":{},"canopy_grid":[[80,45]]}`),
		[]byte(`{"drone_id":"dr-7"}`),
		ts,
	)
}

func (s *DailyRecordRepoTestSuite) TestGetByDate_Found() {
	s.mock.ExpectQuery(`SELECT id, field_id, date, .* FROM daily_records WHERE field_id = \$1 AND date = \$2`).
		WithArgs("field_001", "2025-10-03").
		WillReturnRows(recordRow(sqlmock.NewRows(recordCols), "rec-1", "2025-10-03", 12))

	rec, err := s.repo.GetByDate(context.Background(), "field_001", "2025-10-03")
	s.Require().NoError(err)
	s.Equal("rec-1", rec.ID)
	s.Equal("2025-10-03", rec.Date)
	s.Equal(12, rec.PestGrid[0][1].Count)
	s.Equal("corn", rec.PestGrid[0][1].CropType)
	s.Equal(scouting.CanopyGrid{{80, 45}}, rec.CanopyCover)
	s.Equal(12, rec.Aggregates.PestCount)
	s.Equal(62.5, rec.Aggregates.AvgCanopy)
	s.Equal(10.0, rec.FieldDimensions.GridResolution)
	s.Equal("dr-7", rec.Metadata["drone_id"])
}

func (s *DailyRecordRepoTestSuite) TestGetByDate_NotFound() {
	s.mock.ExpectQuery("FROM daily_records").WillReturnError(sql.ErrNoRows)

	rec, err := s.repo.GetByDate(context.Background(), "field_001", "2025-10-04")
	s.Nil(rec)
	s.Equal(errors.ErrCodeRecordNotFound, errors.GetCode(err))
	s.True(errors.IsNotFound(err))
}

func (s *DailyRecordRepoTestSuite) TestGetByDate_DatabaseError() {
	s.mock.ExpectQuery("FROM daily_records").WillReturnError(sql.ErrConnDone)

	_, err := s.repo.GetByDate(context.Background(), "field_001", "2025-10-04")
	s.Equal(errors.ErrCodeDatabaseError, errors.GetCode(err))
}

func (s *DailyRecordRepoTestSuite) TestLatest() {
	s.mock.ExpectQuery(`FROM daily_records WHERE field_id = \$1\s+ORDER BY date DESC, timestamp DESC LIMIT 1`).
		WithArgs("field_001").
		WillReturnRows(recordRow(sqlmock.NewRows(recordCols), "rec-9", "2025-10-09", 3))

	rec, err := s.repo.Latest(context.Background(), "field_001")
	s.Require().NoError(err)
	s.Equal("2025-10-09", rec.Date)

	s.mock.ExpectQuery("FROM daily_records").WithArgs("empty").WillReturnError(sql.ErrNoRows)
	_, err = s.repo.Latest(context.Background(), "empty")
	s.True(errors.IsNotFound(err))
}

func (s *DailyRecordRepoTestSuite) TestListRange_Ordered() {
	rows := sqlmock.NewRows(recordCols)
	recordRow(rows, "a", "2025-10-01", 1)
	recordRow(rows, "b", "2025-10-02", 2)
	s.mock.ExpectQuery(`date >= \$2 AND date <= \$3 ORDER BY date ASC`).
		WithArgs("field_001", "2025-10-01", "2025-10-07").
		WillReturnRows(rows)

	recs, err := s.repo.ListRange(context.Background(), "field_001", "2025-10-01", "2025-10-07")
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal("2025-10-01", recs[0].Date)
	s.Equal(2, recs[1].Aggregates.PestCount)
}

func (s *DailyRecordRepoTestSuite) TestListRange_Empty() {
	s.mock.ExpectQuery("FROM daily_records").WillReturnRows(sqlmock.NewRows(recordCols))

	recs, err := s.repo.ListRange(context.Background(), "field_001", "2025-10-01", "2025-10-07")
	s.NoError(err)
	s.Empty(recs)
}

func TestDailyRecordRepoTestSuite(t *testing.T) {
	suite.Run(t, new(DailyRecordRepoTestSuite))
}

//Personal.AI order the ending
