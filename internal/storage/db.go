package storage

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to a SQLite database at dsn (a file path, or ":memory:"
// for test stores) and runs every pending migration through goose's
// ledger, repointed at the `schema_migrations` table name.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open %s: %w", dsn, err)
	}
	// SQLite allows only one writer at a time; the stores themselves
	// serialize writes, but capping the pool avoids "database is locked"
	// errors under concurrent readers.
	db.SetMaxOpenConns(1)

	goose.SetTableName("schema_migrations")
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: failed to apply migrations: %w", err)
	}
	return db, nil
}
