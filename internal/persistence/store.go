// Package persistence defines the durable key-value contract shared by the
// registry, the debug log, the dose log and the domain collections.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Store persists opaque values under string keys. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys lists every key beginning with prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// GetJSON decodes the JSON value stored under key into dest. It reports
// false without error when the key is absent.
func GetJSON(ctx context.Context, store Store, key string, dest any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("persistence: decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value as JSON and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("persistence: encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw)
}
