package repository

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"doc-converter/internal/repository/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type dialect struct {
	driverName   string
	gooseDialect string
	fs           fs.FS
	dir          string
}

var dialects = map[string]dialect{
	"postgres": {driverName: "pgx", gooseDialect: "pgx", fs: migrations.Postgres, dir: "postgres"},
	"sqlite":   {driverName: "sqlite3", gooseDialect: "sqlite3", fs: migrations.SQLite, dir: "sqlite"},
}

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// OpenDatabase opens and pings the credential store.
func OpenDatabase(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// RunMigrations applies the embedded schema for driver.
func RunMigrations(ctx context.Context, db *sql.DB, driver string) error {
	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	goose.SetBaseFS(d.fs)
	if err := goose.SetDialect(d.gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db, d.dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
