// Package registry records which scheduled notifications belong to which
// medication, visit or vaccine, so they can be cancelled when the entity
// changes.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/persistence"
)

const keyPrefix = "notifications:"

// Registry maps entity keys to the references of their scheduled
// notifications. An entry is always replaced as a whole.
type Registry struct {
	store  persistence.Store
	logger *slog.Logger
}

// New creates a Registry over store.
func New(store persistence.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:  store,
		logger: logger.With(slog.String("component", "registry")),
	}
}

// Save overwrites the references stored for entityKey. Saving an empty list
// removes the entry.
func (r *Registry) Save(ctx context.Context, entityKey string, refs []notifier.Reference) error {
	if strings.TrimSpace(entityKey) == "" {
		return fmt.Errorf("registry: entity key is required")
	}
	if len(refs) == 0 {
		return r.Remove(ctx, entityKey)
	}
	if err := persistence.SetJSON(ctx, r.store, keyPrefix+entityKey, refs); err != nil {
		return fmt.Errorf("registry: save %s: %w", entityKey, err)
	}
	return nil
}

// Get returns the references stored for entityKey. Missing or unreadable
// entries yield an empty list.
func (r *Registry) Get(ctx context.Context, entityKey string) []notifier.Reference {
	var refs []notifier.Reference
	if _, err := persistence.GetJSON(ctx, r.store, keyPrefix+entityKey, &refs); err != nil {
		r.logger.WarnContext(ctx, "read registry entry",
			slog.String("entity_key", entityKey),
			slog.Any("error", err))
		return nil
	}
	return refs
}

// Remove deletes the entry for entityKey.
func (r *Registry) Remove(ctx context.Context, entityKey string) error {
	if err := r.store.Remove(ctx, keyPrefix+entityKey); err != nil {
		return fmt.Errorf("registry: remove %s: %w", entityKey, err)
	}
	return nil
}
