//go:build cgo

package migration

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableNames(t *testing.T, db *sqlx.DB) []string {
	t.Helper()
	var names []string
	require.NoError(t, db.Select(&names, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`))
	return names
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	runner := NewRunner()
	require.NoError(t, runner.Run(ctx, db))
	require.NoError(t, runner.Run(ctx, db))

	names := tableNames(t, db)
	for _, table := range Tables() {
		assert.Contains(t, names, table)
	}
	assert.Equal(t, "1.0.0", runner.Version())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	runner := NewRunner()
	require.NoError(t, runner.Run(ctx, db))
	require.NoError(t, runner.Reset(ctx, db))
	assert.Empty(t, tableNames(t, db))
}

func TestTablesOrder(t *testing.T) {
	names := Tables()
	require.NotEmpty(t, names)
	assert.Equal(t, "users", names[0])
	assert.Equal(t, "push_subscriptions", names[len(names)-1])
}
