package migration

import (
	"context"
	"time"
)

// Migration is one versioned SQL script.
type Migration struct {
	Version     int
	Description string
	SQL         string
	FilePath    string
	Checksum    string
}

// AppliedMigration describes a row of schema_migrations.
type AppliedMigration struct {
	Version       int
	Checksum      string
	AppliedAt     time.Time
	ExecutionTime time.Duration
}

// Status summarises the migration state of a database.
type Status struct {
	CurrentVersion int
	Applied        []AppliedMigration
	Pending        []Migration
}

// Executor runs migrations against a database.
type Executor interface {
	InitializeVersionTable(ctx context.Context) error
	AppliedMigrations(ctx context.Context) ([]AppliedMigration, error)
	ExecuteMigration(ctx context.Context, migration Migration) error
	RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error
}
