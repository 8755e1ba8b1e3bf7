package gotlui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// TranslationService is the remote backend that translates batches of
// fragments. Fragments absent from the returned map are treated as
// untranslated.
type TranslationService interface {
	TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error)
}

// TextTranslator is implemented by services that also expose a
// single-fragment endpoint.
type TextTranslator interface {
	TranslateText(ctx context.Context, req TextRequest) (string, error)
}

// TranslationCache is the interface for translation caching, keyed by
// source text.
type TranslationCache interface {
	Get(text string) (string, bool)
	Set(text, translated string) error
	Clear() error
}

// Translator is the consumer-facing entry point. It never returns an
// error from a translation call: when anything goes wrong the source text
// comes back unchanged.
type Translator struct {
	sourceLang        string
	service           TranslationService
	cache             TranslationCache
	logger            *slog.Logger
	batchSize         int
	debounce          time.Duration
	requestTimeout    time.Duration
	waitTimeout       time.Duration
	parallelThreshold int
	onError           func(error)

	mu         sync.RWMutex
	targetLang string
	session    *Dispatcher
	closed     bool
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithSourceLang sets the source language.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// WithBatchSize sets the queue length that forces an immediate flush.
func WithBatchSize(n int) TranslatorOption {
	return func(t *Translator) {
		t.batchSize = n
	}
}

// WithDebounce sets the quiet period before a partial batch is flushed.
func WithDebounce(d time.Duration) TranslatorOption {
	return func(t *Translator) {
		t.debounce = d
	}
}

// WithRequestTimeout bounds each call to the translation service.
func WithRequestTimeout(d time.Duration) TranslatorOption {
	return func(t *Translator) {
		t.requestTimeout = d
	}
}

// WithWaitTimeout bounds how long TranslateOne waits for a pending fragment.
func WithWaitTimeout(d time.Duration) TranslatorOption {
	return func(t *Translator) {
		t.waitTimeout = d
	}
}

// WithParallelThreshold sets the input size from which TranslateMany looks
// up the cache concurrently.
func WithParallelThreshold(n int) TranslatorOption {
	return func(t *Translator) {
		t.parallelThreshold = n
	}
}

// WithErrorHandler registers fn to receive a *TranslationError whenever a
// service call fails and source text is served instead. fn may be called
// from dispatcher goroutines.
func WithErrorHandler(fn func(error)) TranslatorOption {
	return func(t *Translator) {
		t.onError = fn
	}
}

// NewTranslator creates a Translator for targetLang and starts its
// dispatcher session. Call Close to release it.
func NewTranslator(targetLang string, service TranslationService, opts ...TranslatorOption) *Translator {
	t := &Translator{
		targetLang:        targetLang,
		sourceLang:        DefaultSourceLang,
		service:           service,
		batchSize:         DefaultBatchSize,
		debounce:          DefaultDebounce,
		requestTimeout:    DefaultRequestTimeout,
		waitTimeout:       DefaultWaitTimeout,
		parallelThreshold: 8,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if floor := t.debounce + t.requestTimeout; t.waitTimeout < floor {
		t.logger.Warn("wait timeout shorter than debounce + request timeout",
			"wait_timeout", t.waitTimeout, "floor", floor)
	}

	t.session = t.newSession(targetLang)
	return t
}

func (t *Translator) newSession(targetLang string) *Dispatcher {
	d := NewDispatcher(t.service, t.cache, NewRegistry(), DispatcherConfig{
		TargetLang:     targetLang,
		SourceLang:     t.sourceLang,
		BatchSize:      t.batchSize,
		Debounce:       t.debounce,
		RequestTimeout: t.requestTimeout,
		Logger:         t.logger,
		OnError:        t.onError,
	})
	d.Start(context.Background())
	return d
}

func (t *Translator) current() (string, *Dispatcher) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.targetLang, t.session
}

// TranslateOne returns the translation of text in the active target
// language. Skippable fragments and source-language targets return
// immediately; cached fragments are served without a network call; anything
// else joins the next batch and waits for it. The source text is returned
// if the wait exceeds the configured ceiling or ctx ends.
func (t *Translator) TranslateOne(ctx context.Context, text string) string {
	targetLang, session := t.current()
	if t.skip(text, targetLang) {
		return text
	}

	if t.cache != nil {
		if cached, ok := t.cache.Get(text); ok {
			return cached
		}
	}

	registry := session.Registry()
	handle, created := registry.EnqueueOrJoin(text)
	if created {
		// A batch may have written the cache between our miss and the
		// registry insert.
		if t.cache != nil {
			if cached, ok := t.cache.Get(text); ok {
				registry.Resolve(text, cached)
				return cached
			}
		}
		if !session.Enqueue(text) {
			registry.Resolve(text, text)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, t.waitTimeout)
	defer cancel()

	value, ok := handle.Wait(waitCtx)
	if !ok {
		t.logger.Debug("wait ceiling reached, returning source text", "text", text)
	}
	return value
}

// TranslateMany translates texts with one direct batch call, bypassing the
// dispatcher. Skippable texts map to themselves, cache hits are served
// from the cache, and every fragment the service handled is cached. The
// result has an entry for every input.
func (t *Translator) TranslateMany(ctx context.Context, texts []string) map[string]string {
	targetLang, _ := t.current()
	result := make(map[string]string, len(texts))

	var candidates []string
	seen := make(map[string]bool)
	for _, text := range texts {
		if t.skip(text, targetLang) {
			result[text] = text
			continue
		}
		if !seen[text] {
			seen[text] = true
			candidates = append(candidates, text)
		}
	}

	misses := candidates
	if t.cache != nil && len(candidates) > 0 {
		var hits map[string]string
		if len(candidates) >= t.parallelThreshold {
			hits, misses = ParallelCacheLookup(ctx, t.cache, candidates)
		} else {
			hits, misses = sequentialCacheLookup(t.cache, candidates)
		}
		for text, cached := range hits {
			result[text] = cached
		}
	}

	if len(misses) == 0 {
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, t.requestTimeout)
	defer cancel()

	translations, err := t.service.TranslateBatch(callCtx, BatchRequest{
		Texts:      misses,
		TargetLang: targetLang,
		SourceLang: t.sourceLang,
	})
	if err != nil {
		if ctx.Err() != nil {
			// The caller went away; do not record a failure it caused.
			for _, text := range misses {
				result[text] = text
			}
			return result
		}
		t.reportError(fmt.Sprintf("translating %d fragments to %s", len(misses), targetLang), err)
	}

	for _, text := range misses {
		value := text
		if err == nil {
			if translated, ok := translations[text]; ok && translated != "" {
				value = translated
			}
		}
		result[text] = value
		if t.cache != nil {
			_ = t.cache.Set(text, value) // Ignore cache set errors
		}
	}

	return result
}

// TranslateDirect translates a single fragment right away through the
// service's single-text endpoint, falling back to a one-element batch when
// the service has none. The dispatcher is bypassed; the result is cached.
func (t *Translator) TranslateDirect(ctx context.Context, text string) string {
	targetLang, _ := t.current()
	if t.skip(text, targetLang) {
		return text
	}
	if t.cache != nil {
		if cached, ok := t.cache.Get(text); ok {
			return cached
		}
	}

	single, ok := t.service.(TextTranslator)
	if !ok {
		return t.TranslateMany(ctx, []string{text})[text]
	}

	callCtx, cancel := context.WithTimeout(ctx, t.requestTimeout)
	defer cancel()

	value := text
	translated, err := single.TranslateText(callCtx, TextRequest{
		Text:       text,
		TargetLang: targetLang,
		SourceLang: t.sourceLang,
	})
	switch {
	case errors.Is(err, ErrNoTextEndpoint):
		return t.TranslateMany(ctx, []string{text})[text]
	case err != nil && ctx.Err() != nil:
		return text
	case err != nil:
		t.reportError("translating one fragment to "+targetLang, err)
	case translated != "":
		value = translated
	}

	if t.cache != nil {
		_ = t.cache.Set(text, value) // Ignore cache set errors
	}
	return value
}

// SetTargetLang switches the active target language. The current dispatcher
// session is stopped, aborting its in-flight batch without caching the
// results, and a new one is started. The cache is left untouched.
func (t *Translator) SetTargetLang(lang string) {
	t.mu.Lock()
	if t.closed || lang == t.targetLang {
		t.mu.Unlock()
		return
	}
	old := t.session
	t.targetLang = lang
	t.session = t.newSession(lang)
	t.mu.Unlock()

	old.Stop()
	t.logger.Info("target language changed", "target_lang", lang)
}

// ClearCache removes every cached translation.
func (t *Translator) ClearCache() error {
	if t.cache == nil {
		return nil
	}
	return t.cache.Clear()
}

// Flush sends any queued fragments immediately and waits for in-flight
// batches of the current session.
func (t *Translator) Flush() {
	_, session := t.current()
	session.Flush()
}

// Stats returns the counters of the current dispatcher session.
func (t *Translator) Stats() DispatchStats {
	_, session := t.current()
	return session.Stats()
}

// Close stops the dispatcher session. Pending callers receive their source
// text. Close is idempotent.
func (t *Translator) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	session := t.session
	t.mu.Unlock()

	session.Stop()
	return nil
}

// reportError logs a failed service call and hands it to the error handler.
func (t *Translator) reportError(msg string, cause error) {
	err := &TranslationError{Message: msg, Cause: cause}
	t.logger.Warn("translation failed, using source text", "error", err)
	if t.onError != nil {
		t.onError(err)
	}
}

// skip reports whether text can be returned unchanged without consulting
// the cache or the service.
func (t *Translator) skip(text, targetLang string) bool {
	return SameLanguage(targetLang, t.sourceLang) || ShouldSkip(text, targetLang)
}

// TargetLang returns the target language.
func (t *Translator) TargetLang() string {
	lang, _ := t.current()
	return lang
}

// SourceLang returns the source language.
func (t *Translator) SourceLang() string {
	return t.sourceLang
}

// IsSourceLang reports whether the target language matches the source
// language, in which case translation is bypassed.
func (t *Translator) IsSourceLang() bool {
	return SameLanguage(t.TargetLang(), t.sourceLang)
}

// IsRTL returns true if the target language uses right-to-left text direction.
func (t *Translator) IsRTL() bool {
	return IsRTL(t.TargetLang())
}

// Dir returns the text direction for the target language ("ltr" or "rtl").
func (t *Translator) Dir() string {
	return GetDirection(t.TargetLang())
}
