package postgres

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/gpsurvey-insight/internal/config"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/gpsurvey-insight/pkg/errors"
)

func testDBConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "gpsurvey",
		Password: "pass!word",
		DBName:   "gpsurvey",
	}
}

func stubOpen(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	original := sqlOpen
	t.Cleanup(func() { sqlOpen = original })
	sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
		assert.Equal(t, "postgres", driverName)
		return db, err
	}
}

func TestBuildDSN_AddsTimeoutsAndSSLMode(t *testing.T) {
	dsn := buildDSN(testDBConfig())

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "/gpsurvey", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "pass!word", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "30000", u.Query().Get("statement_timeout"))
	assert.Equal(t, "10000", u.Query().Get("lock_timeout"))
}

func TestBuildDSN_KeepsConfiguredSSLMode(t *testing.T) {
	cfg := testDBConfig()
	cfg.SSLMode = "verify-full"
	assert.Contains(t, buildDSN(cfg), "sslmode=verify-full")
}

func TestNewConnection_Success(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	stubOpen(t, db, nil)
	mock.ExpectPing()

	conn, err := NewConnection(testDBConfig(), logging.NewNopLogger())

	require.NoError(t, err)
	assert.Equal(t, db, conn.DB())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnection_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	stubOpen(t, db, nil)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	conn, err := NewConnection(testDBConfig(), logging.NewNopLogger())

	assert.Nil(t, conn)
	var appErr *pkgerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, pkgerrors.ErrCodeDatabaseError, appErr.Code)
	assert.Contains(t, appErr.Cause.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnection_OpenFailure(t *testing.T) {
	stubOpen(t, nil, errors.New("open failed"))

	conn, err := NewConnection(testDBConfig(), logging.NewNopLogger())

	assert.Nil(t, conn)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestConnection_HealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	conn := NewConnectionWithDB(db, logging.NewNopLogger())

	mock.ExpectPing()
	assert.NoError(t, conn.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("timeout"))
	assert.True(t, pkgerrors.IsCode(conn.HealthCheck(context.Background()), pkgerrors.ErrCodeDatabaseError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnection_Close_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := NewConnectionWithDB(db, logging.NewNopLogger())
	mock.ExpectClose()

	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewMigrator_NormalizesSource(t *testing.T) {
	m := NewMigrator(nil, "migrations", logging.NewNopLogger())
	assert.Equal(t, "file://migrations", m.source)

	m = NewMigrator(nil, "file:///srv/migrations", logging.NewNopLogger())
	assert.Equal(t, "file:///srv/migrations", m.source)
}

func TestMigrator_DownRejectsNonPositiveSteps(t *testing.T) {
	m := NewMigrator(nil, "migrations", logging.NewNopLogger())
	err := m.Down(0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))
	assert.Contains(t, err.Error(), "steps must be greater than 0")
}

//Personal.AI order the ending
