// Package store provides the durable key-value backends the actor host runs
// on. Two implementations are available: Redis for the usual deployment and
// Badger for a single-binary embedded setup. Both own key expiry themselves;
// actor code must treat the disappearance of a TTL key as "never happened".
package store

import (
	"context"
	"time"
)

// StateStore is the flat key-value contract consumed by the actor host.
// Absence of a key is not an error: Get reports it through its bool return.
type StateStore interface {
	// Get returns the value for key, with false if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key without expiry.
	Put(ctx context.Context, key string, value []byte) error
	// PutTTL stores value under key with the given expiry. The backend owns
	// the expiry; the key silently disappears once the TTL elapses.
	PutTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns all keys starting with prefix, in unspecified order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// DeletePrefix removes every key starting with prefix and returns the
	// number of keys removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}
