package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

func newMigrateCmd(op Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(fn func(cmd *cobra.Command, m MigrationRunner) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			m, err := op.Migrator(cc)
			if err != nil {
				return err
			}
			return fn(cmd, m)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, m MigrationRunner) error {
			if err := m.Up(); err != nil {
				return err
			}
			return printStatus(cmd, m)
		}),
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, m MigrationRunner) error {
			if steps < 1 {
				return errors.NewValidation("--steps must be at least 1, got %d", steps)
			}
			if err := m.Down(steps); err != nil {
				return err
			}
			return printStatus(cmd, m)
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, m MigrationRunner) error {
			return printStatus(cmd, m)
		}),
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations, clearing the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return errors.NewValidation("version must be a non-negative integer, got %q", args[0])
			}
			return run(func(cmd *cobra.Command, m MigrationRunner) error {
				if err := m.Force(v); err != nil {
					return err
				}
				return printStatus(cmd, m)
			})(cmd, nil)
		},
	}

	cmd.AddCommand(up, down, status, force)
	return cmd
}

// migrationStatus reports the applied and embedded schema versions.
type migrationStatus struct {
	Version uint `json:"version"`
	Latest  uint `json:"latest"`
	Dirty   bool `json:"dirty"`
	Pending bool `json:"pending"`
}

func (s migrationStatus) Text() string {
	out := fmt.Sprintf("Schema version %d of %d", s.Version, s.Latest)
	switch {
	case s.Dirty:
		out += " (dirty: fix the failed migration, then run migrate force)"
	case s.Pending:
		out += " (pending migrations)"
	}
	return out + "\n"
}

func printStatus(cmd *cobra.Command, m MigrationRunner) error {
	version, dirty, err := m.Status()
	if err != nil {
		return err
	}
	latest, err := postgres.LatestVersion()
	if err != nil {
		return err
	}
	return PrintResult(cmd, migrationStatus{
		Version: version,
		Latest:  latest,
		Dirty:   dirty,
		Pending: version < latest,
	})
}

//Personal.AI order the ending
