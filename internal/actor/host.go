// Package actor implements the partitioned actor host. Each partition key
// selects one logical actor instance that processes operations one at a time
// and owns an exclusive namespace in the durable store. Different partitions
// run fully in parallel; there is no ordering or consistency guarantee
// between them.
package actor

import (
	"context"
	"sync"

	"github.com/nyuchitech/harare-metro-sub001/internal/store"
)

// Host serializes operations per partition key over a shared StateStore.
type Host struct {
	store store.StateStore

	mu    sync.Mutex
	locks map[string]*partitionLock
}

// partitionLock guards one partition. The refcount lets the host free the
// entry once no operation is queued on it, so the lock table stays bounded
// by the number of concurrently active partitions.
type partitionLock struct {
	mu   sync.Mutex
	refs int
}

// NewHost creates an actor host over the given store.
func NewHost(s store.StateStore) *Host {
	return &Host{
		store: s,
		locks: make(map[string]*partitionLock),
	}
}

// Store exposes the underlying StateStore, for health checks.
func (h *Host) Store() store.StateStore {
	return h.store
}

// Invoke runs fn with exclusive access to the partition identified by
// (kind, id). Operations on the same partition execute one at a time in
// arrival order; operations on different partitions do not contend.
func (h *Host) Invoke(ctx context.Context, kind, id string, fn func(ctx context.Context, p *Partition) error) error {
	key := kind + "/" + id

	h.mu.Lock()
	lock, ok := h.locks[key]
	if !ok {
		lock = &partitionLock{}
		h.locks[key] = lock
	}
	lock.refs++
	h.mu.Unlock()

	lock.mu.Lock()
	err := fn(ctx, &Partition{store: h.store, prefix: "em:" + kind + ":" + id + ":"})
	lock.mu.Unlock()

	h.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(h.locks, key)
	}
	h.mu.Unlock()

	return err
}
