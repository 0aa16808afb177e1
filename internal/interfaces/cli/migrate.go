package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// migrationRunner is the part of postgres.Migrator the migrate commands use.
type migrationRunner interface {
	Up() error
	Down(steps int) error
	Status() (uint, bool, error)
	Force(version int) error
}

// openMigrator connects to the configured database. Tests replace it.
var openMigrator = func(cliCtx *CLIContext, source string) (migrationRunner, func() error, error) {
	conn, err := postgres.NewConnection(cliCtx.Config.Database, cliCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	if source == "" {
		source = cliCtx.Config.Database.MigrationPath
	}
	return postgres.NewMigrator(conn, source, cliCtx.Logger), conn.Close, nil
}

func newMigrateCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema of the survey store",
	}
	cmd.PersistentFlags().StringVar(&source, "source", "", "migration source (default: database.migration_path)")

	withMigrator := func(fn func(cmd *cobra.Command, m migrationRunner, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			m, closeFn, err := openMigrator(cliCtx, source)
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(cmd, m, args)
		}
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrationRunner, _ []string) error {
			if err := m.Up(); err != nil {
				return err
			}
			return printMigrationStatus(cmd, m)
		}),
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrationRunner, _ []string) error {
			if err := m.Down(steps); err != nil {
				return err
			}
			return printMigrationStatus(cmd, m)
		}),
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrationRunner, _ []string) error {
			return printMigrationStatus(cmd, m)
		}),
	}

	forceCmd := &cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied without running it, clearing a dirty state",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m migrationRunner, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New(errors.ErrCodeValidation, "version must be an integer").WithDetail(args[0])
			}
			if err := m.Force(version); err != nil {
				return err
			}
			return printMigrationStatus(cmd, m)
		}),
	}

	cmd.AddCommand(upCmd, downCmd, statusCmd, forceCmd)
	return cmd
}

type migrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (migrationStatus) TableHeaders() []string { return []string{"VERSION", "DIRTY"} }

func (s migrationStatus) TableRows() [][]string {
	return [][]string{{fmt.Sprint(s.Version), strconv.FormatBool(s.Dirty)}}
}

func printMigrationStatus(cmd *cobra.Command, m migrationRunner) error {
	version, dirty, err := m.Status()
	if err != nil {
		return err
	}
	return PrintResult(cmd, migrationStatus{Version: version, Dirty: dirty})
}

//Personal.AI order the ending
