// Package cache stores translations on top of a persistent key-value
// backend, with lazy expiry and best-effort quota eviction.
package cache

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ZaguanLabs/gotlui"
	"github.com/ZaguanLabs/gotlui/storage"
)

const (
	// DefaultTTL is how long an entry stays fresh.
	DefaultTTL = 30 * 24 * time.Hour

	// DefaultKeyPrefix namespaces translation entries inside the backend.
	DefaultKeyPrefix = "tr_"

	// DefaultMaxKeyLength is the number of runes of source text kept in a key.
	DefaultMaxKeyLength = 100

	// DefaultEvictCount is how many keys a quota failure releases.
	DefaultEvictCount = 100
)

// Entry is the stored form of one translation.
type Entry struct {
	Text       string `json:"text" yaml:"text"`
	Translated string `json:"translated" yaml:"translated"`
	Timestamp  int64  `json:"timestamp" yaml:"timestamp"` // Unix milliseconds
}

// Store is a translation cache keyed by source text. The key does not
// include the target language, so one store serves one target language.
type Store struct {
	kv         storage.KV
	ttl        time.Duration
	prefix     string
	maxKeyLen  int
	evictCount int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the entry lifetime. Zero or negative disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithKeyPrefix sets the namespace for keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithMaxKeyLength sets how many runes of source text a key keeps.
func WithMaxKeyLength(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxKeyLen = n
		}
	}
}

// WithEvictCount sets how many keys are released on a quota failure.
func WithEvictCount(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.evictCount = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store over kv.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:         kv,
		ttl:        DefaultTTL,
		prefix:     DefaultKeyPrefix,
		maxKeyLen:  DefaultMaxKeyLength,
		evictCount: DefaultEvictCount,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Key derives the storage key for text: the prefix followed by the
// lower-cased text truncated to the maximum key length.
func (s *Store) Key(text string) string {
	lower := strings.ToLower(text)
	if utf8.RuneCountInString(lower) > s.maxKeyLen {
		runes := []rune(lower)
		lower = string(runes[:s.maxKeyLen])
	}
	return s.prefix + lower
}

// Get returns the cached translation of text. Expired and corrupt entries
// are deleted and reported as misses, as are entries whose stored source
// text differs from text beyond case (a truncated-key collision).
func (s *Store) Get(text string) (string, bool) {
	key := s.Key(text)
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		s.logger.Debug("cache read failed", "key", key, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		s.logger.Debug("dropping corrupt cache entry", "key", key, "error", err)
		_ = s.kv.Remove(key)
		return "", false
	}
	if s.expired(entry) {
		_ = s.kv.Remove(key)
		return "", false
	}
	if !strings.EqualFold(entry.Text, text) {
		return "", false
	}
	return entry.Translated, true
}

// Set records translated as the translation of text, stamped with the
// current time.
func (s *Store) Set(text, translated string) error {
	return s.put(Entry{
		Text:       text,
		Translated: translated,
		Timestamp:  s.now().UnixMilli(),
	})
}

// SetEntry stores entry as is, keeping its timestamp. Used by imports.
func (s *Store) SetEntry(entry Entry) error {
	return s.put(entry)
}

// put writes entry. A quota failure releases a bounded number of keys and
// retries once; if the retry also fails the write is abandoned.
func (s *Store) put(entry Entry) error {
	key := s.Key(entry.Text)
	blob, err := json.Marshal(entry)
	if err != nil {
		return &gotlui.CacheError{Message: "encoding entry", Key: key, Cause: err}
	}

	err = s.kv.Set(key, string(blob))
	if errors.Is(err, storage.ErrQuotaExceeded) {
		evicted, evictErr := s.Evict(s.evictCount)
		if evictErr != nil {
			s.logger.Debug("eviction failed", "error", evictErr)
		}
		s.logger.Info("cache quota exceeded, evicted entries", "evicted", evicted)
		err = s.kv.Set(key, string(blob))
	}
	if err != nil {
		return &gotlui.CacheError{Message: "write dropped", Key: key, Cause: err}
	}
	return nil
}

// Clear removes every translation entry. Keys outside the prefix are
// left alone.
func (s *Store) Clear() error {
	keys, err := s.kv.Keys(s.prefix)
	if err != nil {
		return &gotlui.CacheError{Message: "listing keys", Cause: err}
	}
	for _, key := range keys {
		if err := s.kv.Remove(key); err != nil {
			return &gotlui.CacheError{Message: "clearing", Key: key, Cause: err}
		}
	}
	return nil
}

// Evict removes up to n entries in the backend's enumeration order. That
// order is not a recency order, so this is quota relief rather than LRU.
func (s *Store) Evict(n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	keys, err := s.kv.Keys(s.prefix)
	if err != nil {
		return 0, &gotlui.CacheError{Message: "listing keys", Cause: err}
	}
	if len(keys) > n {
		keys = keys[:n]
	}

	removed := 0
	for _, key := range keys {
		if err := s.kv.Remove(key); err != nil {
			return removed, &gotlui.CacheError{Message: "evicting", Key: key, Cause: err}
		}
		removed++
	}
	return removed, nil
}

// Entries returns every fresh entry in enumeration order. Expired and
// corrupt entries are skipped but not deleted.
func (s *Store) Entries() ([]Entry, error) {
	keys, err := s.kv.Keys(s.prefix)
	if err != nil {
		return nil, &gotlui.CacheError{Message: "listing keys", Cause: err}
	}

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := s.kv.Get(key)
		if err != nil {
			return nil, &gotlui.CacheError{Message: "reading", Key: key, Cause: err}
		}
		if !ok {
			continue
		}
		var entry Entry
		if json.Unmarshal([]byte(raw), &entry) != nil || s.expired(entry) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// TTL returns the configured entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) expired(entry Entry) bool {
	if s.ttl <= 0 {
		return false
	}
	age := s.now().UnixMilli() - entry.Timestamp
	return age > s.ttl.Milliseconds()
}

// Verify Store implements gotlui.TranslationCache
var _ gotlui.TranslationCache = (*Store)(nil)
