package gotlui

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maxParallelLookups caps concurrent cache reads; backends like SQLite
// serialize writers and gain nothing from more.
const maxParallelLookups = 16

// ParallelCacheLookup reads texts from the cache concurrently. It returns
// the hits keyed by source text and the misses in their original order.
// Lookups not started before ctx ends count as misses.
func ParallelCacheLookup(ctx context.Context, cache TranslationCache, texts []string) (map[string]string, []string) {
	if cache == nil || len(texts) == 0 {
		return make(map[string]string), texts
	}

	found := make([]bool, len(texts))
	values := make([]string, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)
	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			values[i], found[i] = cache.Get(text)
			return nil
		})
	}
	_ = g.Wait() // lookups never fail

	return collectLookups(texts, values, found)
}

func sequentialCacheLookup(cache TranslationCache, texts []string) (map[string]string, []string) {
	found := make([]bool, len(texts))
	values := make([]string, len(texts))
	for i, text := range texts {
		values[i], found[i] = cache.Get(text)
	}
	return collectLookups(texts, values, found)
}

func collectLookups(texts, values []string, found []bool) (map[string]string, []string) {
	hits := make(map[string]string)
	var misses []string
	for i, text := range texts {
		if found[i] {
			hits[text] = values[i]
		} else {
			misses = append(misses, text)
		}
	}
	return hits, misses
}
