// Package migration applies versioned SQL migrations to the SQLite store.
//
// Migrations are plain SQL files named NNN_description.sql, usually embedded
// with go:embed. Applied versions and checksums are tracked in the
// schema_migrations table; a checksum change for an applied version aborts
// the run instead of silently diverging.
package migration
