//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/testutil"
)

func TestMigrator_UpDownStatus(t *testing.T) {
	env := testutil.StartPostgres(t)
	m := postgres.NewMigrator(env.Conn, testutil.MigrationsDir(), logging.NewNopLogger())

	version, dirty, err := m.Status()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Already applied.
	require.NoError(t, m.Up())

	require.NoError(t, m.Down(1))
	version, _, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	assert.Error(t, m.Down(1))
	require.NoError(t, m.Up())
}

func TestWithTransaction_CommitAndRollback(t *testing.T) {
	env := testutil.StartPostgres(t)
	ctx := context.Background()

	err := postgres.WithTransaction(ctx, env.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO survey_records (identity_key, financial_year) VALUES ('a|2024-2025', '2024-2025')`)
		return err
	})
	require.NoError(t, err)

	err = postgres.WithTransaction(ctx, env.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO survey_records (identity_key, financial_year) VALUES ('b|2024-2025', '2024-2025')`); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO survey_records (identity_key, financial_year) VALUES ('a|2024-2025', '2024-2025')`)
		return err
	})
	require.Error(t, err)

	var count int
	require.NoError(t, env.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM survey_records`).Scan(&count))
	assert.Equal(t, 1, count)
}

//Personal.AI order the ending
