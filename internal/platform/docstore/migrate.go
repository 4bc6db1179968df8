package docstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// newProvider creates a goose provider over the embedded migrations.
func newProvider(db *sql.DB, dialect Dialect) (*goose.Provider, error) {
	fsys, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	gooseDialect := goose.DialectPostgres
	if dialect == DialectSQLite {
		gooseDialect = goose.DialectSQLite3
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// Migrate applies all pending migrations.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) error {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("applied migration",
			"version", r.Source.Version,
			"duration_ms", r.Duration.Milliseconds())
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) error {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}

	result, err := provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	if result != nil {
		logger.Info("rolled back migration", "version", result.Source.Version)
	}
	return nil
}

// MigrationStatus describes one known migration.
type MigrationStatus struct {
	Version int64
	Path    string
	Applied bool
}

// Status lists the embedded migrations and whether each has been applied.
func Status(ctx context.Context, db *sql.DB, dialect Dialect) ([]MigrationStatus, error) {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
