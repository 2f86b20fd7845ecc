// Copyright (c) 2026 Collabry, Inc. All rights reserved.

// Package migration provides a thin wrapper around golang-migrate for
// running database schema migrations.
//
// # Architecture
//
// This package belongs to the Infrastructure layer. The API process runs
// all pending migrations before the server binds its port, so a deployed
// schema is always at the version the binary was built against. The group
// and request tables carry partial unique indexes that the storage layer
// relies on for its conflict semantics, which makes a half-migrated
// database worse than a down one: a dirty state aborts startup.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunUp applies all pending UP migrations from the given directory.
//
// # Parameters
//   - dsn: A libpq-compatible DSN or postgres:// URL.
//   - migrationsPath: Filesystem path to the migrations directory.
//   - logger: Structured logger for migration events.
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {
	migrator, err := migrate.New("file://"+migrationsPath, pgx5URL(dsn))
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer closeMigrator(migrator, logger)

	migrator.Log = &migrateLogger{logger: logger}

	from, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", from)
	}

	logger.Info("migration_started", slog.Int("current_version", int(from)))

	switch err := migrator.Up(); {
	case err == nil:
		to, _, _ := migrator.Version()
		logger.Info("migration_successful",
			slog.Int("from_version", int(from)),
			slog.Int("to_version", int(to)),
		)
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("migration_already_up_to_date")
		return nil
	default:
		return fmt.Errorf("migration: up failed: %w", err)
	}
}

// closeMigrator releases both migrator handles, logging rather than
// returning close failures: by this point the schema outcome is decided.
func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceErr, dbErr := migrator.Close()
	if sourceErr != nil {
		logger.Error("migration_source_close_failed", slog.Any("error", sourceErr))
	}
	if dbErr != nil {
		logger.Error("migration_db_close_failed", slog.Any("error", dbErr))
	}
}

// pgx5URL rewrites a postgres:// or postgresql:// DSN to the pgx5://
// scheme golang-migrate/v4 expects for its pgx/v5 driver.
func pgx5URL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
