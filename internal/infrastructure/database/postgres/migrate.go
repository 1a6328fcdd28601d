package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"loan-ledger/internal/pkg/apperrors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	createMigrationsTableSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`
	migrationAppliedSQL      = `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`
	recordMigrationSQL       = `INSERT INTO schema_migrations (version) VALUES ($1)`
)

type migration struct {
	version string
	sql     string
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{version: name[len("migrations/"):], sql: string(body)})
	}
	return out, nil
}

// Migrate applies every embedded migration that has not been recorded yet. Each
// migration runs in its own transaction together with its bookkeeping row.
func Migrate(ctx context.Context, db DBPool, logger *slog.Logger) error {
	logger = logger.With("component", "Migrator")

	migrations, err := loadMigrations(migrationFiles)
	if err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if _, err := db.Exec(ctx, createMigrationsTableSQL); err != nil {
		logger.ErrorContext(ctx, "Failed to create schema_migrations table", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	for _, m := range migrations {
		var applied bool
		if err := db.QueryRow(ctx, migrationAppliedSQL, m.version).Scan(&applied); err != nil {
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if applied {
			logger.DebugContext(ctx, "Migration already applied", "version", m.version)
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			logger.ErrorContext(ctx, "Migration failed", "version", m.version, "error", err)
			return err
		}
		logger.InfoContext(ctx, "Migration applied", "version", m.version)
	}
	return nil
}

func applyMigration(ctx context.Context, db DBPool, m migration) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return fmt.Errorf("%w: migration %s: %w", apperrors.ErrDatabase, m.version, err)
	}
	if _, err := tx.Exec(ctx, recordMigrationSQL, m.version); err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}
