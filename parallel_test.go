package gotlui

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// slowCache simulates a slow cache for testing parallel lookups
type slowCache struct {
	data    map[string]string
	mu      sync.RWMutex
	delay   time.Duration
	lookups int64
}

func newSlowCache(delay time.Duration) *slowCache {
	return &slowCache{
		data:  make(map[string]string),
		delay: delay,
	}
}

func (c *slowCache) Get(text string) (string, bool) {
	atomic.AddInt64(&c.lookups, 1)
	time.Sleep(c.delay)
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[text]
	return val, ok
}

func (c *slowCache) Set(text, translated string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[text] = translated
	return nil
}

func (c *slowCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]string)
	return nil
}

func TestParallelCacheLookup_Basic(t *testing.T) {
	cache := newSlowCache(0)
	cache.Set("Hello", "Hola")
	cache.Set("World", "Mundo")

	hits, misses := ParallelCacheLookup(context.Background(), cache, []string{"Hello", "World", "Missing"})

	if len(hits) != 2 {
		t.Errorf("Expected 2 hits, got %d", len(hits))
	}
	if hits["Hello"] != "Hola" {
		t.Errorf("Expected 'Hola', got %q", hits["Hello"])
	}
	if len(misses) != 1 || misses[0] != "Missing" {
		t.Errorf("Expected miss 'Missing', got %v", misses)
	}
}

func TestParallelCacheLookup_PreservesMissOrder(t *testing.T) {
	cache := newSlowCache(time.Millisecond)
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %02d", i)
		if i%3 == 0 {
			cache.Set(texts[i], "cached")
		}
	}

	hits, misses := ParallelCacheLookup(context.Background(), cache, texts)

	var want []string
	for i, text := range texts {
		if i%3 != 0 {
			want = append(want, text)
		}
	}
	if len(misses) != len(want) {
		t.Fatalf("Expected %d misses, got %d", len(want), len(misses))
	}
	for i := range want {
		if misses[i] != want[i] {
			t.Errorf("miss %d: got %q, want %q", i, misses[i], want[i])
		}
	}
	if len(hits) != len(texts)-len(want) {
		t.Errorf("Expected %d hits, got %d", len(texts)-len(want), len(hits))
	}
	if got := atomic.LoadInt64(&cache.lookups); got != int64(len(texts)) {
		t.Errorf("Expected %d lookups, got %d", len(texts), got)
	}
}

func TestParallelCacheLookup_FasterThanSequential(t *testing.T) {
	cache := newSlowCache(10 * time.Millisecond)
	texts := make([]string, 16)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}

	start := time.Now()
	ParallelCacheLookup(context.Background(), cache, texts)
	elapsed := time.Since(start)

	// Sequential would take about 160ms.
	if elapsed > 120*time.Millisecond {
		t.Errorf("Parallel lookup took %v, expected concurrency", elapsed)
	}
}

func TestParallelCacheLookup_NilCache(t *testing.T) {
	texts := []string{"a b", "c d"}
	hits, misses := ParallelCacheLookup(context.Background(), nil, texts)
	if len(hits) != 0 || len(misses) != 2 {
		t.Errorf("Expected all misses, got %v / %v", hits, misses)
	}
}

func TestParallelCacheLookup_CancelledContext(t *testing.T) {
	cache := newSlowCache(0)
	cache.Set("Hello", "Hola")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hits, misses := ParallelCacheLookup(ctx, cache, []string{"Hello", "World"})
	if len(hits)+len(misses) != 2 {
		t.Errorf("Every input must be accounted for, got %v / %v", hits, misses)
	}
}

func TestSequentialCacheLookup(t *testing.T) {
	cache := newSlowCache(0)
	cache.Set("Hello", "Hola")

	hits, misses := sequentialCacheLookup(cache, []string{"Hello", "World"})
	if hits["Hello"] != "Hola" || len(misses) != 1 || misses[0] != "World" {
		t.Errorf("unexpected result %v / %v", hits, misses)
	}
}
