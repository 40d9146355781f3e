package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Namespaces created from the same Memory share
// the backing map, so a session that is evicted and recreated sees its data.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	prefix string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Namespace returns a view of the same map with keys prefixed by ns.
func (m *Memory) Namespace(ns string) Store {
	return &memoryView{parent: m, prefix: m.prefix + ns + ":"}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return m.get(m.prefix + key)
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.set(m.prefix+key, value)
	return nil
}

func (m *Memory) Remove(ctx context.Context, keys ...string) error {
	m.remove(m.prefix, keys)
	return nil
}

func (m *Memory) get(k string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[k]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) set(k string, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	m.mu.Lock()
	m.data[k] = v
	m.mu.Unlock()
}

func (m *Memory) remove(prefix string, keys []string) {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, prefix+k)
	}
	m.mu.Unlock()
}

type memoryView struct {
	parent *Memory
	prefix string
}

func (v *memoryView) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return v.parent.get(v.prefix + key)
}

func (v *memoryView) Set(ctx context.Context, key string, value []byte) error {
	v.parent.set(v.prefix+key, value)
	return nil
}

func (v *memoryView) Remove(ctx context.Context, keys ...string) error {
	v.parent.remove(v.prefix, keys)
	return nil
}
