// Package storage provides the persistent key-value backends the
// translation cache is built on.
//
// Backends are synchronous and size-bounded: a write that would exceed the
// configured quota fails with ErrQuotaExceeded and leaves the store
// unchanged, so the caller can evict entries and retry.
package storage

import "errors"

var (
	// ErrQuotaExceeded is returned by Set when the store is full.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("storage closed")
)

// KV is a string key-value store.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error

	// Keys lists keys starting with prefix in the backend's enumeration
	// order. The order is stable for a given backend state but is not a
	// recency order.
	Keys(prefix string) ([]string, error)
}
