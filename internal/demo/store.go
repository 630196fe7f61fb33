package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"popstack"
	"popstack/internal/database"
	"popstack/internal/remote"
)

// NewStore opens a private in-memory sqlite store, migrates it and seeds
// the fixtures. It is discarded when the gateway is closed.
func NewStore(ctx context.Context, logger zerolog.Logger) (*remote.SQLGateway, error) {
	dsn := "file:demo-" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.Connect(database.DriverSQLite, dsn)
	if err != nil {
		return nil, err
	}

	migrations, err := popstack.GetMigrationsFS(database.DriverSQLite)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := database.RunMigrations(db, database.DriverSQLite, migrations, logger); err != nil {
		db.Close()
		return nil, err
	}

	gw := remote.NewSQLGateway(db, remote.DialectSQLite)
	if err := Seed(ctx, gw, time.Now()); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Str("user_id", UserID).Msg("demo store seeded")
	return gw, nil
}
