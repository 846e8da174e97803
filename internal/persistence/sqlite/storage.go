// Package sqlite implements persistence.Store on a SQLite database using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/care-alarms/internal/persistence"
	"github.com/example/care-alarms/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage is a persistence.Store backed by the kv_entries table.
type Storage struct {
	db     *sql.DB
	retry  *RetryHelper
	now    func() time.Time
	logger *slog.Logger
}

// Open connects using config. Call Migrate before first use.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	db, err := migration.Open(config)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{
		db:     db,
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
		logger: logger.With(slog.String("component", "sqlite")),
	}, nil
}

// OpenDSN connects to dsn with the default production settings.
func OpenDSN(dsn string, logger *slog.Logger) (*Storage, error) {
	return Open(migration.DefaultSQLiteConfig(dsn), logger)
}

// Migrations returns the embedded schema migrations.
func Migrations() ([]migration.Migration, error) {
	return migration.Load(migrationFiles, "migrations")
}

// Migrate applies pending schema migrations and reports how many ran.
func (s *Storage) Migrate(ctx context.Context) (int, error) {
	migrations, err := Migrations()
	if err != nil {
		return 0, err
	}
	return migration.NewManager(migration.NewSQLiteExecutor(s.db), migrations, s.logger).Run(ctx)
}

// MigrationStatus reports applied and pending schema migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (migration.Status, error) {
	migrations, err := Migrations()
	if err != nil {
		return migration.Status{}, err
	}
	return migration.NewManager(migration.NewSQLiteExecutor(s.db), migrations, s.logger).Status(ctx)
}

// Get implements persistence.Store.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %s: %w", key, MapError(err))
	}
	return value, nil
}

// Set implements persistence.Store.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	err := s.retry.WithRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, s.now().UTC().Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

// Remove implements persistence.Store.
func (s *Storage) Remove(ctx context.Context, key string) error {
	err := s.retry.WithRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key)
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlite: remove %s: %w", key, err)
	}
	return nil
}

// Keys implements persistence.Store.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv_entries WHERE ? = '' OR instr(key, ?) = 1 ORDER BY key`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("sqlite: keys %s: %w", prefix, MapError(err))
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlite: scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Ping verifies the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.db.Close()
}
