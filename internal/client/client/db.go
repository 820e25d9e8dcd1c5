package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mediaqr/internal/client/migrations"
	"github.com/dmitrijs2005/mediaqr/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite file at path, creating its directory when
// needed, and applies the embedded migrations.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer keeps SQLite from returning SQLITE_BUSY inside Update.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}
