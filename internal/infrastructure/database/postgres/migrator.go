package postgres

import (
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// migrateLogger adapts logging.Logger to migrate.Logger.
type migrateLogger struct {
	log logging.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return false }

// ─────────────────────────────────────────────────────────────────────────────
// Startup migrations on an open connection
// ─────────────────────────────────────────────────────────────────────────────

// RunMigrations applies all pending embedded migrations through the open
// pool. The migrate instance is not closed since that would close the pool.
func (c *Connection) RunMigrations() error {
	driver, err := migratepg.WithInstance(c.db, &migratepg.Config{})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	src, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to open embedded migrations")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	m.Log = migrateLogger{log: c.logger}

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		version, _, _ := m.Version()
		return errors.Wrap(err, errors.ErrCodeDatabaseError,
			fmt.Sprintf("failed to run migrations (current version: %d)", version))
	}

	version, dirty, err := m.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		c.logger.Warn("Failed to get migration version", logging.Err(err))
	}
	c.logger.Info("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Migrator for operator commands
// ─────────────────────────────────────────────────────────────────────────────

// Migrator runs the embedded migrations against a database URL. Each call
// opens and closes its own connection.
type Migrator struct {
	url string
	log logging.Logger
}

// NewMigrator creates a Migrator for dbURL.
func NewMigrator(dbURL string, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Migrator{url: dbURL, log: log}
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	mg, err := migrate.NewWithSourceInstance("iofs", src, m.url)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	mg.Log = migrateLogger{log: m.log}
	return mg, nil
}

// Up applies all pending migrations. No pending migrations is not an error.
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
	}
	return nil
}

// Status returns the applied version and dirty flag, 0 when none applied.
func (m *Migrator) Status() (version uint, dirty bool, err error) {
	mg, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer mg.Close()

	version, dirty, err = mg.Version()
	if err != nil {
		if stderrors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the recorded version without running migrations, clearing a
// dirty state after manual repair.
func (m *Migrator) Force(version int) error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Reset drops every migration and re-applies them. Development only.
func (m *Migrator) Reset() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Down(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back all migrations: %w", err)
	}
	if err := mg.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to re-apply migrations: %w", err)
	}
	return nil
}

// LatestVersion returns the highest version among the embedded migrations.
func LatestVersion() (uint, error) {
	return latestVersion(migrationsFS, migrationsDir)
}

func latestVersion(fsys fs.FS, dir string) (uint, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("read migrations: %w", err)
	}
	var versions []uint
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, uint(v))
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("no migration files found")
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions[len(versions)-1], nil
}

//Personal.AI order the ending
