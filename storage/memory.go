package storage

import (
	"strings"
	"sync"
)

// Memory is a thread-safe in-memory store bounded by total bytes of keys
// and values. Keys enumerate in first-insertion order.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]string
	order  []string
	size   int
	quota  int
	closed bool
}

// NewMemory creates a store holding at most quotaBytes of keys and values.
// A quota of 0 or less means unbounded.
func NewMemory(quotaBytes int) *Memory {
	return &Memory{
		data:  make(map[string]string),
		quota: quotaBytes,
	}
}

// Get retrieves a value from the store.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores a value, failing with ErrQuotaExceeded if it does not fit.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	old, exists := m.data[key]
	newSize := m.size + len(value)
	if exists {
		newSize -= len(old)
	} else {
		newSize += len(key)
	}
	if m.quota > 0 && newSize > m.quota {
		return ErrQuotaExceeded
	}

	if !exists {
		m.order = append(m.order, key)
	}
	m.data[key] = value
	m.size = newSize
	return nil
}

// Remove deletes a key.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	old, ok := m.data[key]
	if !ok {
		return nil
	}
	delete(m.data, key)
	m.size -= len(key) + len(old)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Keys lists keys with the given prefix in insertion order.
func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	var keys []string
	for _, k := range m.order {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len returns the number of keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Size returns the bytes used by keys and values.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// Close releases the store. Further calls return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	m.order = nil
	return nil
}

// Verify Memory implements KV
var _ KV = (*Memory)(nil)
