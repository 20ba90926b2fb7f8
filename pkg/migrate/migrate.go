package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/angelmondragon/teahouse-backend/pkg/config"
	"github.com/pressly/goose/v3"
)

// DefaultDir is where the records-table migrations live.
const DefaultDir = "pkg/migrate/migrations"

// Run executes a goose command against the configured SQL backend.
func Run(ctx context.Context, db *sql.DB, cfg config.DBConfig, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	if err := goose.SetDialect(dialectFor(cfg)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func dialectFor(cfg config.DBConfig) string {
	if cfg.IsPostgres() {
		return "postgres"
	}
	return "sqlite3"
}
