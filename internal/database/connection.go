package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlitePragmas are passed through the DSN so that every pooled connection
// gets them, not only the first one.
var sqlitePragmas = []string{
	"_foreign_keys=on",
	"_journal_mode=WAL",
	"_synchronous=NORMAL",
	"_busy_timeout=5000",
	"_cache_size=1000",
}

// Connect opens a pool for the given driver ("sqlite" or "postgres").
func Connect(driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case DriverSQLite, "":
		db, err = sql.Open("sqlite3", sqliteDSN(dsn))
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverPostgres {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		return db, nil
	}

	// A shared in-memory database lives only as long as one of its
	// connections, and concurrent writers on it hit table locks.
	if IsMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return db, nil
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return db, nil
}

// IsMemoryDSN reports whether a sqlite DSN points at an in-memory database.
func IsMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "popstack.db"
	}
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		key := p[:strings.Index(p, "=")+1]
		if strings.Contains(dsn, key) {
			continue
		}
		params = append(params, p)
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dsn = "file:" + dsn
	}
	return dsn + sep + strings.Join(params, "&")
}
