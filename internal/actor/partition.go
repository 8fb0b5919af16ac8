package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nyuchitech/harare-metro-sub001/internal/store"
)

// Partition is the key-scoped view of the durable store handed to an actor
// operation. All keys are local names; the partition prefixes them so no
// actor instance can read or write outside its own namespace.
type Partition struct {
	store  store.StateStore
	prefix string
}

// Get returns the raw value for a local key.
func (p *Partition) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.store.Get(ctx, p.prefix+key)
}

// GetJSON unmarshals the value for a local key into out. Returns false
// without touching out when the key does not exist.
func (p *Partition) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := p.store.Get(ctx, p.prefix+key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Put stores a raw value under a local key.
func (p *Partition) Put(ctx context.Context, key string, value []byte) error {
	return p.store.Put(ctx, p.prefix+key, value)
}

// PutJSON marshals v and stores it under a local key.
func (p *Partition) PutJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return p.store.Put(ctx, p.prefix+key, raw)
}

// PutJSONTTL marshals v and stores it under a local key with an expiry owned
// by the store.
func (p *Partition) PutJSONTTL(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return p.store.PutTTL(ctx, p.prefix+key, raw, ttl)
}

// Delete removes a local key.
func (p *Partition) Delete(ctx context.Context, key string) error {
	return p.store.Delete(ctx, p.prefix+key)
}

// Keys returns the local names of all keys under a local prefix.
func (p *Partition) Keys(ctx context.Context, localPrefix string) ([]string, error) {
	full, err := p.store.Keys(ctx, p.prefix+localPrefix)
	if err != nil {
		return nil, err
	}
	local := make([]string, 0, len(full))
	for _, k := range full {
		local = append(local, strings.TrimPrefix(k, p.prefix))
	}
	return local, nil
}

// DeletePrefix removes all keys under a local prefix.
func (p *Partition) DeletePrefix(ctx context.Context, localPrefix string) (int, error) {
	return p.store.DeletePrefix(ctx, p.prefix+localPrefix)
}

// Clear removes the partition's entire namespace.
func (p *Partition) Clear(ctx context.Context) (int, error) {
	return p.store.DeletePrefix(ctx, p.prefix)
}
