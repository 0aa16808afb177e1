package postgres

import (
	stderrors "errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Migrator
// ─────────────────────────────────────────────────────────────────────────────

// Migrator applies the DDL under migrations/ over an open Connection.
type Migrator struct {
	conn   *Connection
	source string
	logger logging.Logger
}

// NewMigrator returns a Migrator reading from source, e.g. "file://migrations".
// A bare directory path is accepted and prefixed with file://.
func NewMigrator(conn *Connection, source string, log logging.Logger) *Migrator {
	if !strings.Contains(source, "://") {
		source = "file://" + source
	}
	return &Migrator{conn: conn, source: source, logger: log}
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(m.conn.DB(), &postgres.Config{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to create migration driver")
	}
	mg, err := migrate.NewWithDatabaseInstance(m.source, "postgres", driver)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to create migrate instance")
	}
	return mg, nil
}

// Up applies all pending migrations. No pending migrations is not an error.
func (m *Migrator) Up() error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to run migrations")
	}
	version, dirty, _ := m.status(mg)
	m.logger.Info("database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return errors.Newf(errors.ErrCodeBadRequest, "steps must be greater than 0, got %d", steps)
	}
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return errors.New(errors.ErrCodeMigrationFailed, "no migrations to roll back")
		}
		return errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to roll back migrations")
	}
	return nil
}

// Status reports the applied version and whether the last migration left the
// schema dirty. Version 0 means nothing has been applied.
func (m *Migrator) Status() (uint, bool, error) {
	mg, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	return m.status(mg)
}

func (m *Migrator) status(mg *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := mg.Version()
	if err != nil {
		if stderrors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to read migration version")
	}
	return version, dirty, nil
}

// Force sets the recorded version without running migrations. Used to clear a
// dirty state after a manual fix.
func (m *Migrator) Force(version int) error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Force(version); err != nil {
		return errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to force migration version")
	}
	m.logger.Warn("migration version forced", logging.Int("version", version))
	return nil
}

//Personal.AI order the ending
