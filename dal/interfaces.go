package dal

import (
	"context"
)

// KeyValueStore is durable client storage scoped to a single namespace.
// Every key read or written by an implementation lives under the namespace
// it was constructed with, and Clear only touches that namespace.
type KeyValueStore interface {
	// Get returns the stored value and whether it exists
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key in the namespace
	Clear(ctx context.Context) error
	Close() error
}
