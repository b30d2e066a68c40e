package redisstore

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// memKV is an in-memory kvStore with the same per-key atomicity
// contract as the Redis implementation: Update holds the lock across
// the whole read-modify-write.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, found := m.data[key]
	if !found {
		return nil, false, nil
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp, true, nil
}

func (m *memKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *memKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) Update(ctx context.Context, key string, fn func(raw []byte, found bool) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, found := m.data[key]
	next, err := fn(raw, found)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	m.data[key] = next
	return nil
}

func (m *memKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, found := m.data[key]
	return found
}

func newTestStore() (*MessageStore, *memKV) {
	kv := newMemKV()
	return newStoreWithKV(kv, zap.NewNop()), kv
}
