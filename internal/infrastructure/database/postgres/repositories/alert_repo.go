package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

const alertColumns = `id, field_id, date, timestamp, alert_type, severity, zone_id, metrics,
	message, recommendation, status, acknowledged, acknowledged_at`

type postgresAlertRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresAlertRepo returns the alert repository.
func NewPostgresAlertRepo(conn *postgres.Connection, log logging.Logger) alert.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresAlertRepo{conn: conn, log: log}
}

func (r *postgresAlertRepo) executor() queryExecutor {
	return r.conn.DB()
}

func alertNotFound(id string) error {
	return errors.New(errors.ErrCodeAlertNotFound, "alert not found").WithDetail("id=" + id)
}

func (r *postgresAlertRepo) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, alertNotFound(id)
	}
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	a, err := scanAlert(r.executor().QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, alertNotFound(id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get alert")
	}
	return a, nil
}

func (r *postgresAlertRepo) ListByField(ctx context.Context, fieldID string, opts ...alert.QueryOption) ([]*alert.Alert, error) {
	o := alert.ApplyOptions(opts...)

	conds := []string{"field_id = $1"}
	args := []interface{}{fieldID}
	if len(o.Statuses) > 0 {
		statuses := make([]string, len(o.Statuses))
		for i, s := range o.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if o.Date != "" {
		args = append(args, o.Date)
		conds = append(conds, fmt.Sprintf("date = $%d", len(args)))
	}
	args = append(args, o.Limit)
	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE %s ORDER BY timestamp DESC, created_at DESC LIMIT $%d`,
		alertColumns, strings.Join(conds, " AND "), len(args))

	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list alerts")
	}
	defer rows.Close()

	out := make([]*alert.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan alert")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate alerts")
	}
	return out, nil
}

func (r *postgresAlertRepo) UpdateStatus(ctx context.Context, a *alert.Alert) error {
	query := `UPDATE alerts SET status = $1, acknowledged = $2, acknowledged_at = $3 WHERE id = $4`
	res, err := r.executor().ExecContext(ctx, query, string(a.Status), a.Acknowledged, a.AcknowledgedAt, a.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update alert status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read affected rows")
	}
	if n == 0 {
		return alertNotFound(a.ID)
	}
	r.log.Info("Alert status updated", logging.String("alert_id", a.ID), logging.String("status", string(a.Status)))
	return nil
}

func (r *postgresAlertRepo) Stats(ctx context.Context, fieldID string) (*alert.Stats, error) {
	query := `SELECT alert_type, severity, status, COUNT(*) FROM alerts WHERE field_id = $1
		GROUP BY alert_type, severity, status`
	rows, err := r.executor().QueryContext(ctx, query, fieldID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query alert stats")
	}
	defer rows.Close()

	stats := &alert.Stats{
		ByType:     map[string]int{},
		BySeverity: map[string]int{},
		ByStatus:   map[string]int{},
	}
	for rows.Next() {
		var typ, severity, status string
		var n int
		if err := rows.Scan(&typ, &severity, &status, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan alert stats")
		}
		stats.Total += n
		stats.ByType[typ] += n
		stats.BySeverity[severity] += n
		stats.ByStatus[status] += n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate alert stats")
	}
	return stats, nil
}

func scanAlert(row scanner) (*alert.Alert, error) {
	var (
		a                     alert.Alert
		date                  sql.NullTime
		typ, severity, status string
		metrics               []byte
		acknowledgedAt        sql.NullTime
	)
	err := row.Scan(&a.ID, &a.FieldID, &date, &a.Timestamp, &typ, &severity, &a.ZoneID, &metrics,
		&a.Message, &a.Recommendation, &status, &a.Acknowledged, &acknowledgedAt)
	if err != nil {
		return nil, err
	}
	if date.Valid {
		a.Date = dateKey(date.Time)
	}
	a.Type = alert.Type(typ)
	a.Severity = alert.Severity(severity)
	a.Status = alert.Status(status)
	if acknowledgedAt.Valid {
		t := acknowledgedAt.Time.UTC()
		a.AcknowledgedAt = &t
	}
	if err := unjsonb(metrics, &a.Metrics); err != nil {
		return nil, err
	}
	return &a, nil
}

//Personal.AI order the ending
