// Package testutil provides migrated in-memory stores for tests.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"popstack"
	"popstack/internal/database"
	"popstack/internal/remote"
)

// NewDB opens a private, migrated in-memory sqlite database.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.Connect(database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrations, err := popstack.GetMigrationsFS(database.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db, database.DriverSQLite, migrations, zerolog.Nop()))

	return db
}

// NewGateway returns a SQL gateway over NewDB.
func NewGateway(t testing.TB) *remote.SQLGateway {
	t.Helper()
	return remote.NewSQLGateway(NewDB(t), remote.DialectSQLite)
}
