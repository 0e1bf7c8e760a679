package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed client/*.sql
var clientMigrations embed.FS

//go:embed server/*.sql
var serverMigrations embed.FS

// MigrateLocal applies the embedded SQLite migrations for the daemon's local
// store.
func MigrateLocal(db *sql.DB) error {
	goose.SetBaseFS(clientMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("migration error setting dialect for local db: %w", err)
	}

	if err := goose.Up(db, "client"); err != nil {
		return fmt.Errorf("local migration error: %w", err)
	}

	return nil
}

// MigrateServer applies the embedded Postgres migrations for the remote
// store of record.
func MigrateServer(db *sql.DB) error {
	goose.SetBaseFS(serverMigrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("migration error setting dialect for server db: %w", err)
	}

	if err := goose.Up(db, "server"); err != nil {
		return fmt.Errorf("server migration error: %w", err)
	}

	return nil
}
