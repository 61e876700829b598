package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/testutil"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

type RecordStoreTestSuite struct {
	suite.Suite
	mock  sqlmock.Sqlmock
	db    *sql.DB
	store *RecordStore
}

func (s *RecordStoreTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)

	log := logging.NewNopLogger()
	s.store = NewRecordStore(postgres.NewConnectionWithDB(s.db, log), log)
}

func (s *RecordStoreTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func sampleRecord() (*scouting.DailyRecord, []*alert.Alert) {
	ts := time.Date(2025, 10, 3, 7, 0, 0, 0, time.UTC)
	rec := &scouting.DailyRecord{
		FieldID:     "field_001",
		Date:        "2025-10-03",
		Timestamp:   ts,
		PestGrid:    scouting.DetectionGrid{{{Count: 12, CropType: "corn"}}},
		CanopyCover: scouting.CanopyGrid{{45}},
		Aggregates:  scouting.Aggregates{PestCount: 12, AvgCanopy: 45},
	}
	alerts := []*alert.Alert{
		alert.New("field_001", "2025-10-03", ts, alert.Draft{Type: alert.TypeCombinedRisk, Severity: alert.SeverityCritical, ZoneID: "grid_0_0"}, "m", "r"),
		alert.New("field_001", "2025-10-03", ts, alert.Draft{Type: alert.TypeCropOutbreak, Severity: alert.SeverityWarning, ZoneID: "field_wide"}, "m", "r"),
	}
	return rec, alerts
}

func (s *RecordStoreTestSuite) TestReplaceDaily_Success() {
	rec, alerts := sampleRecord()
	created := time.Date(2025, 10, 3, 7, 0, 1, 0, time.UTC)

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`DELETE FROM alerts WHERE field_id = \$1 AND date = \$2`).
		WithArgs("field_001", "2025-10-03").WillReturnResult(sqlmock.NewResult(0, 4))
	s.mock.ExpectExec(`DELETE FROM daily_records WHERE field_id = \$1 AND date = \$2`).
		WithArgs("field_001", "2025-10-03").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectQuery("INSERT INTO daily_records").
		WithArgs(sqlmock.AnyArg(), "field_001", "2025-10-03", rec.Timestamp,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			12, 45.0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	s.mock.ExpectExec("INSERT INTO alerts").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec("INSERT INTO alerts").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	s.Require().NoError(s.store.ReplaceDaily(context.Background(), rec, alerts))

	_, err := uuid.Parse(rec.ID)
	s.NoError(err)
	s.True(created.Equal(rec.CreatedAt))
	s.NotEqual(alerts[0].ID, alerts[1].ID)
	for _, a := range alerts {
		_, err := uuid.Parse(a.ID)
		s.NoError(err)
	}
}

func (s *RecordStoreTestSuite) TestReplaceDaily_NoAlerts() {
	rec, _ := sampleRecord()

	s.mock.ExpectBegin()
	s.mock.ExpectExec("DELETE FROM alerts").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec("DELETE FROM daily_records").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery("INSERT INTO daily_records").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	s.mock.ExpectCommit()

	s.NoError(s.store.ReplaceDaily(context.Background(), rec, nil))
}

func (s *RecordStoreTestSuite) TestReplaceDaily_LogsUncountedAlertDeletion() {
	rec, _ := sampleRecord()
	log := testutil.NewMockLogger()
	store := NewRecordStore(postgres.NewConnectionWithDB(s.db, log), log)

	s.mock.ExpectBegin()
	s.mock.ExpectExec("DELETE FROM alerts").WillReturnResult(sqlmock.NewErrorResult(sql.ErrConnDone))
	s.mock.ExpectExec("DELETE FROM daily_records").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery("INSERT INTO daily_records").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	s.mock.ExpectCommit()

	s.Require().NoError(store.ReplaceDaily(context.Background(), rec, nil))
	s.True(log.HasMessage("warn", "Failed to count removed alerts"))
}

func (s *RecordStoreTestSuite) TestReplaceDaily_RollsBackOnInsertFailure() {
	rec, alerts := sampleRecord()

	s.mock.ExpectBegin()
	s.mock.ExpectExec("DELETE FROM alerts").WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectExec("DELETE FROM daily_records").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectQuery("INSERT INTO daily_records").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	s.mock.ExpectExec("INSERT INTO alerts").WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	err := s.store.ReplaceDaily(context.Background(), rec, alerts)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeDatabaseError, errors.GetCode(err))
}

func (s *RecordStoreTestSuite) TestReplaceDaily_BeginFailure() {
	rec, alerts := sampleRecord()
	s.mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	err := s.store.ReplaceDaily(context.Background(), rec, alerts)
	s.Equal(errors.ErrCodeDatabaseError, errors.GetCode(err))
}

func TestRecordStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RecordStoreTestSuite))
}

//Personal.AI order the ending
