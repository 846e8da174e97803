package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager applies pending migrations in version order.
type Manager struct {
	executor   Executor
	migrations []Migration
	logger     *slog.Logger
}

// NewManager creates a Manager over the given executor and migration set.
func NewManager(executor Executor, migrations []Migration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		executor:   executor,
		migrations: migrations,
		logger:     logger.With(slog.String("component", "migration")),
	}
}

// Run applies every pending migration and returns how many were applied.
func (m *Manager) Run(ctx context.Context) (int, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}
	if len(status.Pending) == 0 {
		m.logger.DebugContext(ctx, "schema up to date", slog.Int("version", status.CurrentVersion))
		return 0, nil
	}

	for _, migration := range status.Pending {
		started := time.Now()
		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				slog.Int("version", migration.Version),
				slog.String("file", migration.FilePath),
				slog.Any("error", err))
			return 0, NewMigrationError(migration.Version, migration.FilePath, "execute",
				fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}
		elapsed := time.Since(started)
		if err := m.executor.RecordMigration(ctx, migration, elapsed); err != nil {
			return 0, NewMigrationError(migration.Version, migration.FilePath, "record", err)
		}
		m.logger.InfoContext(ctx, "migration applied",
			slog.Int("version", migration.Version),
			slog.String("description", migration.Description),
			slog.Duration("elapsed", elapsed))
	}
	return len(status.Pending), nil
}

// Status reports applied and pending migrations. Applied migrations whose
// checksum no longer matches the known script are rejected.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}
	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return Status{}, err
	}

	known := make(map[int]Migration, len(m.migrations))
	for _, migration := range m.migrations {
		known[migration.Version] = migration
	}

	status := Status{Applied: applied}
	done := make(map[int]bool, len(applied))
	for _, record := range applied {
		done[record.Version] = true
		if record.Version > status.CurrentVersion {
			status.CurrentVersion = record.Version
		}
		if migration, ok := known[record.Version]; ok && migration.Checksum != record.Checksum {
			return Status{}, NewMigrationError(record.Version, migration.FilePath, "verify", ErrChecksumMismatch)
		}
	}
	for _, migration := range m.migrations {
		if !done[migration.Version] {
			status.Pending = append(status.Pending, migration)
		}
	}
	return status, nil
}
