package kv

import "context"

// Store is a minimal durable key-value slot store.
type Store interface {
	// Get returns the value stored under key.
	// The bool is false when the key is absent (not an error).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any prior value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
