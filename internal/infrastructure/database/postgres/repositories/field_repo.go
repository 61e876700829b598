package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

type postgresFieldRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresFieldRepo returns the field configuration repository.
func NewPostgresFieldRepo(conn *postgres.Connection, log logging.Logger) field.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresFieldRepo{conn: conn, log: log}
}

func (r *postgresFieldRepo) executor() queryExecutor {
	return r.conn.DB()
}

func (r *postgresFieldRepo) Get(ctx context.Context, fieldID string) (*field.Config, error) {
	query := `SELECT field_id, name, location, dimensions, grid_config, thresholds, crop_types,
		planting_date, expected_harvest, updated_at FROM field_configs WHERE field_id = $1`

	var (
		cfg                                 field.Config
		location, dims, grid, thresholdsRaw []byte
	)
	err := r.executor().QueryRowContext(ctx, query, fieldID).Scan(
		&cfg.FieldID, &cfg.Name, &location, &dims, &grid, &thresholdsRaw,
		pq.Array(&cfg.CropTypes), &cfg.PlantingDate, &cfg.ExpectedHarvest, &cfg.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeFieldNotFound, "field not found").WithDetail("field_id=" + fieldID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get field config")
	}

	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{
		{location, &cfg.Location},
		{dims, &cfg.Dimensions},
		{grid, &cfg.Grid},
		{thresholdsRaw, &cfg.Thresholds},
	} {
		if err := unjsonb(col.raw, col.dst); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode field config")
		}
	}
	return &cfg, nil
}

func (r *postgresFieldRepo) GetThresholds(ctx context.Context, fieldID string) (*field.Thresholds, error) {
	var raw []byte
	err := r.executor().QueryRowContext(ctx, `SELECT thresholds FROM field_configs WHERE field_id = $1`, fieldID).Scan(&raw)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get field thresholds")
	}
	var th field.Thresholds
	if err := unjsonb(raw, &th); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode field thresholds")
	}
	return &th, nil
}

func (r *postgresFieldRepo) Save(ctx context.Context, cfg *field.Config) error {
	query := `
		INSERT INTO field_configs (
			field_id, name, location, dimensions, grid_config, thresholds, crop_types,
			planting_date, expected_harvest, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (field_id) DO UPDATE SET
			name = EXCLUDED.name,
			location = EXCLUDED.location,
			dimensions = EXCLUDED.dimensions,
			grid_config = EXCLUDED.grid_config,
			thresholds = EXCLUDED.thresholds,
			crop_types = EXCLUDED.crop_types,
			planting_date = EXCLUDED.planting_date,
			expected_harvest = EXCLUDED.expected_harvest,
			updated_at = NOW()
		RETURNING updated_at
	`
	location, err := jsonb(cfg.Location)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode location")
	}
	dims, err := jsonb(cfg.Dimensions)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode dimensions")
	}
	grid, err := jsonb(cfg.Grid)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode grid config")
	}
	th, err := jsonb(cfg.Thresholds)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode thresholds")
	}
	crops := cfg.CropTypes
	if crops == nil {
		crops = []string{}
	}

	err = r.executor().QueryRowContext(ctx, query,
		cfg.FieldID, cfg.Name, location, dims, grid, th, pq.Array(crops),
		cfg.PlantingDate, cfg.ExpectedHarvest,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save field config")
	}
	r.log.Info("Field config saved", logging.String("field_id", cfg.FieldID))
	return nil
}

//Personal.AI order the ending
