// Package repositories implements the domain persistence contracts on top of
// the PostgreSQL connection.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// queryExecutor abstracts sql.DB and sql.Tx
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// jsonb marshals v for a JSONB column, writing "{}" for nil maps.
func jsonb(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte("{}"), nil
	}
	return b, nil
}

// unjsonb decodes a JSONB column, ignoring empty values.
func unjsonb(b []byte, v interface{}) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

// dateKey formats a DATE column value as YYYY-MM-DD.
func dateKey(t time.Time) string {
	return t.Format(common.DateLayout)
}

//Personal.AI order the ending
