// Package debuglog keeps a bounded, persisted trail of scheduling decisions
// that can be inspected from the diagnostics API.
package debuglog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/care-alarms/internal/persistence"
)

// StorageKey is where the buffer is persisted.
const StorageKey = "alarm_debug_logs"

// DefaultCapacity is the number of entries retained.
const DefaultCapacity = 100

const timestampLayout = "02/01/2006 15:04:05"

// Severity classifies an entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

func (s Severity) level() slog.Level {
	switch s {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Entry is one persisted log line. ID is a strictly increasing epoch-millis
// value; Timestamp is the local wall-clock rendering.
type Entry struct {
	ID        int64    `json:"id"`
	Timestamp string   `json:"timestamp"`
	Message   string   `json:"message"`
	Type      Severity `json:"type"`
}

// Sink is a most-recent-first ring buffer persisted under StorageKey. The
// in-memory copy is loaded lazily and is authoritative afterwards.
type Sink struct {
	store    persistence.Store
	capacity int
	now      func() time.Time
	location *time.Location
	logger   *slog.Logger

	mu      sync.Mutex
	entries []Entry
	loaded  bool
}

// Option configures a Sink.
type Option func(*Sink)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(capacity int) Option {
	return func(s *Sink) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the location used to render timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Sink) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets the slog logger every entry is mirrored to.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Sink over store.
func New(store persistence.Store, opts ...Option) *Sink {
	sink := &Sink{
		store:    store,
		capacity: DefaultCapacity,
		now:      time.Now,
		location: time.Local,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(sink)
	}
	sink.logger = sink.logger.With(slog.String("component", "debuglog"))
	return sink
}

// Append records message at the head of the buffer, evicts the oldest
// entries beyond capacity and persists the result. Persistence failures are
// logged and otherwise ignored.
func (s *Sink) Append(ctx context.Context, message string, severity Severity) {
	if !severity.Valid() {
		severity = SeverityInfo
	}
	s.logger.Log(ctx, severity.level(), message, slog.String("severity", string(severity)))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	now := s.now()
	id := now.UnixMilli()
	if len(s.entries) > 0 && id <= s.entries[0].ID {
		id = s.entries[0].ID + 1
	}
	entry := Entry{
		ID:        id,
		Timestamp: now.In(s.location).Format(timestampLayout),
		Message:   message,
		Type:      severity,
	}

	size := len(s.entries) + 1
	if size > s.capacity {
		size = s.capacity
	}
	next := make([]Entry, 0, size)
	next = append(next, entry)
	next = append(next, s.entries[:size-1]...)
	s.entries = next

	if err := persistence.SetJSON(ctx, s.store, StorageKey, s.entries); err != nil {
		s.logger.ErrorContext(ctx, "persist debug log", slog.Any("error", err))
	}
}

// Info appends a formatted info entry.
func (s *Sink) Info(ctx context.Context, format string, args ...any) {
	s.Append(ctx, fmt.Sprintf(format, args...), SeverityInfo)
}

// Success appends a formatted success entry.
func (s *Sink) Success(ctx context.Context, format string, args ...any) {
	s.Append(ctx, fmt.Sprintf(format, args...), SeveritySuccess)
}

// Warning appends a formatted warning entry.
func (s *Sink) Warning(ctx context.Context, format string, args ...any) {
	s.Append(ctx, fmt.Sprintf(format, args...), SeverityWarning)
}

// Error appends a formatted error entry.
func (s *Sink) Error(ctx context.Context, format string, args ...any) {
	s.Append(ctx, fmt.Sprintf(format, args...), SeverityError)
}

// ReadAll returns every retained entry, most recent first.
func (s *Sink) ReadAll(ctx context.Context) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return append([]Entry(nil), s.entries...)
}

// ReadByType returns retained entries of one severity, most recent first.
func (s *Sink) ReadByType(ctx context.Context, severity Severity) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.Type == severity {
			out = append(out, entry)
		}
	}
	return out
}

// Clear drops every entry from memory and storage.
func (s *Sink) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.loaded = true
	if err := s.store.Remove(ctx, StorageKey); err != nil {
		s.logger.ErrorContext(ctx, "clear debug log", slog.Any("error", err))
		return fmt.Errorf("debuglog: clear: %w", err)
	}
	return nil
}

func (s *Sink) loadLocked(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	var stored []Entry
	if _, err := persistence.GetJSON(ctx, s.store, StorageKey, &stored); err != nil {
		s.logger.ErrorContext(ctx, "load debug log", slog.Any("error", err))
		return
	}
	if len(stored) > s.capacity {
		stored = stored[:s.capacity]
	}
	s.entries = stored
}
