package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

const recordColumns = `id, field_id, date, timestamp, pest_grid, canopy_cover, field_dimensions,
	aggregates, heatmaps, metadata, created_at`

type postgresDailyRecordRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresDailyRecordRepo returns the read side of daily records.
func NewPostgresDailyRecordRepo(conn *postgres.Connection, log logging.Logger) scouting.RecordRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresDailyRecordRepo{conn: conn, log: log}
}

func (r *postgresDailyRecordRepo) executor() queryExecutor {
	return r.conn.DB()
}

func (r *postgresDailyRecordRepo) GetByDate(ctx context.Context, fieldID, date string) (*scouting.DailyRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM daily_records WHERE field_id = $1 AND date = $2`
	rec, err := scanDailyRecord(r.executor().QueryRowContext(ctx, query, fieldID, date))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeRecordNotFound, "no data").
				WithDetail("field_id=" + fieldID + " date=" + date)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get daily record")
	}
	return rec, nil
}

func (r *postgresDailyRecordRepo) Latest(ctx context.Context, fieldID string) (*scouting.DailyRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM daily_records WHERE field_id = $1
		ORDER BY date DESC, timestamp DESC LIMIT 1`
	rec, err := scanDailyRecord(r.executor().QueryRowContext(ctx, query, fieldID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeRecordNotFound, "no data").WithDetail("field_id=" + fieldID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get latest daily record")
	}
	return rec, nil
}

func (r *postgresDailyRecordRepo) ListRange(ctx context.Context, fieldID, from, to string) ([]*scouting.DailyRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM daily_records
		WHERE field_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`
	rows, err := r.executor().QueryContext(ctx, query, fieldID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list daily records")
	}
	defer rows.Close()

	var out []*scouting.DailyRecord
	for rows.Next() {
		rec, err := scanDailyRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan daily record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate daily records")
	}
	r.log.Debug("Listed daily records",
		logging.String("field_id", fieldID),
		logging.String("from", from),
		logging.String("to", to),
		logging.Int("count", len(out)),
	)
	return out, nil
}

func scanDailyRecord(row scanner) (*scouting.DailyRecord, error) {
	var (
		rec                                                   scouting.DailyRecord
		pestGrid, canopy, dims, aggregates, heatmaps, metaRaw []byte
	)
	var date sql.NullTime
	err := row.Scan(&rec.ID, &rec.FieldID, &date, &rec.Timestamp,
		&pestGrid, &canopy, &dims, &aggregates, &heatmaps, &metaRaw, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if date.Valid {
		rec.Date = dateKey(date.Time)
	}
	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{
		{pestGrid, &rec.PestGrid},
		{canopy, &rec.CanopyCover},
		{dims, &rec.FieldDimensions},
		{aggregates, &rec.Aggregates},
		{heatmaps, &rec.Heatmaps},
		{metaRaw, &rec.Metadata},
	} {
		if err := unjsonb(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

//Personal.AI order the ending
