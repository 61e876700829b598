package repositories

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// RecordStore writes the output of one ingestion.
type RecordStore struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewRecordStore creates a RecordStore.
func NewRecordStore(conn *postgres.Connection, log logging.Logger) *RecordStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &RecordStore{conn: conn, log: log}
}

// ReplaceDaily deletes the stored record and alerts for (record.FieldID,
// record.Date) and inserts the new ones in a single transaction. IDs are
// assigned to record and every alert before insertion.
func (s *RecordStore) ReplaceDaily(ctx context.Context, record *scouting.DailyRecord, alerts []*alert.Alert) error {
	err := s.conn.WithTransaction(ctx, func(tx *sql.Tx) error {
		var removedAlerts int64
		res, err := tx.ExecContext(ctx, `DELETE FROM alerts WHERE field_id = $1 AND date = $2`, record.FieldID, record.Date)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete previous alerts")
		}
		if removedAlerts, err = res.RowsAffected(); err != nil {
			s.log.Warn("Failed to count removed alerts",
				logging.String("field_id", record.FieldID),
				logging.String("date", record.Date),
				logging.Err(err),
			)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_records WHERE field_id = $1 AND date = $2`, record.FieldID, record.Date); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete previous daily record")
		}

		if err := insertDailyRecord(ctx, tx, record); err != nil {
			return err
		}
		for _, a := range alerts {
			if err := insertAlert(ctx, tx, a); err != nil {
				return err
			}
		}

		s.log.Debug("Replaced daily record",
			logging.String("field_id", record.FieldID),
			logging.String("date", record.Date),
			logging.Int64("removed_alerts", removedAlerts),
			logging.Int("inserted_alerts", len(alerts)),
		)
		return nil
	})
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeDatabaseError {
			return err
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to store daily record")
	}
	return nil
}

func insertDailyRecord(ctx context.Context, exec queryExecutor, rec *scouting.DailyRecord) error {
	query := `
		INSERT INTO daily_records (
			id, field_id, date, timestamp, pest_grid, canopy_cover, field_dimensions,
			aggregates, heatmaps, metadata, pest_count, avg_canopy
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	cols := make([][]byte, 0, 6)
	for _, v := range []interface{}{rec.PestGrid, rec.CanopyCover, rec.FieldDimensions, rec.Aggregates, rec.Heatmaps, rec.Metadata} {
		b, err := jsonb(v)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode daily record")
		}
		cols = append(cols, b)
	}

	rec.ID = uuid.NewString()
	err := exec.QueryRowContext(ctx, query,
		rec.ID, rec.FieldID, rec.Date, rec.Timestamp,
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5],
		rec.Aggregates.PestCount, rec.Aggregates.AvgCanopy,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert daily record")
	}
	return nil
}

func insertAlert(ctx context.Context, exec queryExecutor, a *alert.Alert) error {
	query := `
		INSERT INTO alerts (
			id, field_id, date, timestamp, alert_type, severity, zone_id, metrics,
			message, recommendation, status, acknowledged, acknowledged_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	metrics, err := jsonb(a.Metrics)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode alert metrics")
	}
	a.ID = uuid.NewString()
	_, err = exec.ExecContext(ctx, query,
		a.ID, a.FieldID, a.Date, a.Timestamp, string(a.Type), string(a.Severity), a.ZoneID, metrics,
		a.Message, a.Recommendation, string(a.Status), a.Acknowledged, a.AcknowledgedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert alert")
	}
	return nil
}

//Personal.AI order the ending
