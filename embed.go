package popstack

import (
	"embed"
	"io/fs"
)

//go:embed all:db/migrations
var migrationFiles embed.FS

// GetMigrationsFS returns the embedded migrations for the given SQL dialect
// ("sqlite" or "postgres").
func GetMigrationsFS(dialect string) (fs.FS, error) {
	return fs.Sub(migrationFiles, "db/migrations/"+dialect)
}
