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

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	TargetLang     string
	SourceLang     string
	BatchSize      int           // Queue length that forces a flush (default 20)
	Debounce       time.Duration // Quiet period before a partial flush (default 500ms)
	RequestTimeout time.Duration // Bound on each service call (default 5s)
	Logger         *slog.Logger
	// OnError receives a *TranslationError for every failed batch. Aborted
	// batches are not reported.
	OnError func(error)
}

func (c *DispatcherConfig) withDefaults() DispatcherConfig {
	out := *c
	if out.BatchSize <= 0 {
		out.BatchSize = DefaultBatchSize
	}
	if out.Debounce <= 0 {
		out.Debounce = DefaultDebounce
	}
	if out.RequestTimeout <= 0 {
		out.RequestTimeout = DefaultRequestTimeout
	}
	if out.SourceLang == "" {
		out.SourceLang = DefaultSourceLang
	}
	if out.Logger == nil {
		out.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return out
}

// Dispatcher accumulates fragments and sends them to the translation
// service in batches, flushing when the queue reaches the batch size or the
// debounce timer fires, whichever comes first. Results (or the original
// text on failure) are written to the cache before pending handles are
// resolved. A Dispatcher serves one target language for its lifetime.
type Dispatcher struct {
	cfg      DispatcherConfig
	service  TranslationService
	cache    TranslationCache
	registry *Registry
	logger   *slog.Logger

	mu      sync.Mutex
	queue   []string
	queued  map[string]struct{}
	timer   *time.Timer
	timerID uint64
	// flights holds one channel per in-flight batch, closed once the batch
	// has resolved all its handles.
	flights map[chan struct{}]struct{}
	started bool
	stopped bool
	stats   DispatchStats

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher. Call Start before enqueueing.
func NewDispatcher(service TranslationService, cache TranslationCache, registry *Registry, cfg DispatcherConfig) *Dispatcher {
	cfg = cfg.withDefaults()
	if registry == nil {
		registry = NewRegistry()
	}
	return &Dispatcher{
		cfg:      cfg,
		service:  service,
		cache:    cache,
		registry: registry,
		logger:   cfg.Logger.With("component", "dispatcher", "target_lang", cfg.TargetLang),
		queued:   make(map[string]struct{}),
		flights:  make(map[chan struct{}]struct{}),
	}
}

// Start begins the session. In-flight calls are cancelled when ctx ends or
// Stop is called. Start is a no-op on a started or stopped dispatcher.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.stopped {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.started = true
}

// Stop aborts in-flight calls without writing their results, drops the
// queue, and resolves every outstanding handle with its source text. It
// blocks until in-flight goroutines have returned.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.cancel != nil {
		d.cancel()
	}
	d.stopTimerLocked()
	dropped := len(d.queue)
	d.queue = nil
	d.queued = make(map[string]struct{})
	flights := d.flightsLocked()
	d.mu.Unlock()

	waitAll(flights)
	resolved := d.registry.ResolveAll()
	d.logger.Debug("dispatcher stopped", "dropped", dropped, "resolved", resolved)
}

// Registry returns the single-flight registry fed by this dispatcher.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// TargetLang returns the language this dispatcher translates into.
func (d *Dispatcher) TargetLang() string {
	return d.cfg.TargetLang
}

// State reports the current phase. A new accumulation cycle may overlap an
// in-flight batch; Accumulating wins in that case.
func (d *Dispatcher) State() DispatchState {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.stopped:
		return StateStopped
	case len(d.queue) > 0:
		return StateAccumulating
	case len(d.flights) > 0:
		return StateFlushing
	default:
		return StateIdle
	}
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() DispatchStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// QueueLen returns the number of fragments waiting for the next flush.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Enqueue adds text to the next batch. It returns false when the dispatcher
// is not running; the caller must then resolve the fragment itself.
// Enqueueing a fragment that is already queued is a no-op.
func (d *Dispatcher) Enqueue(text string) bool {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return false
	}
	if _, ok := d.queued[text]; ok {
		d.mu.Unlock()
		return true
	}

	d.queue = append(d.queue, text)
	d.queued[text] = struct{}{}

	if len(d.queue) >= d.cfg.BatchSize {
		batch, done := d.takeLocked()
		d.mu.Unlock()
		d.logger.Debug("batch size reached", "size", len(batch))
		go d.flush(batch, done)
		return true
	}

	if len(d.queue) == 1 {
		d.startTimerLocked()
	}
	d.mu.Unlock()
	return true
}

// Flush sends whatever is queued right away and waits for the batches in
// flight at the time of the call. Batches started afterwards are not
// waited for, so Flush returns under sustained load.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	if !d.stopped && len(d.queue) > 0 {
		batch, done := d.takeLocked()
		go d.flush(batch, done)
	}
	flights := d.flightsLocked()
	d.mu.Unlock()

	waitAll(flights)
}

func (d *Dispatcher) flightsLocked() []chan struct{} {
	out := make([]chan struct{}, 0, len(d.flights))
	for done := range d.flights {
		out = append(out, done)
	}
	return out
}

func waitAll(flights []chan struct{}) {
	for _, done := range flights {
		<-done
	}
}

func (d *Dispatcher) startTimerLocked() {
	d.timerID++
	id := d.timerID
	d.timer = time.AfterFunc(d.cfg.Debounce, func() { d.onTimer(id) })
}

func (d *Dispatcher) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// Bumping the id turns a timer that already fired but is waiting on the
	// lock into a no-op.
	d.timerID++
}

func (d *Dispatcher) onTimer(id uint64) {
	d.mu.Lock()
	if id != d.timerID || d.stopped || len(d.queue) == 0 {
		d.mu.Unlock()
		return
	}
	batch, done := d.takeLocked()
	d.mu.Unlock()

	d.logger.Debug("debounce elapsed", "size", len(batch))
	d.flush(batch, done)
}

// takeLocked snapshots and clears the queue in one step and registers the
// flight. Must be called with d.mu held.
func (d *Dispatcher) takeLocked() ([]string, chan struct{}) {
	d.stopTimerLocked()
	batch := d.queue
	d.queue = nil
	d.queued = make(map[string]struct{})
	done := make(chan struct{})
	d.flights[done] = struct{}{}
	d.registry.MarkInFlight(batch)
	return batch, done
}

func (d *Dispatcher) land(done chan struct{}) {
	d.mu.Lock()
	delete(d.flights, done)
	d.mu.Unlock()
	close(done)
}

func (d *Dispatcher) flush(batch []string, done chan struct{}) {
	defer d.land(done)

	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	translations, err := d.service.TranslateBatch(ctx, BatchRequest{
		Texts:      batch,
		TargetLang: d.cfg.TargetLang,
		SourceLang: d.cfg.SourceLang,
	})

	aborted := d.ctx.Err() != nil
	d.mu.Lock()
	d.stats.Batches++
	d.stats.Fragments += len(batch)
	switch {
	case aborted:
		d.stats.Aborted++
	case err != nil:
		d.stats.Failures++
	}
	d.mu.Unlock()

	switch {
	case aborted:
		// Results of a cancelled session must not reach the cache.
		d.logger.Debug("batch aborted", "size", len(batch))
		for _, text := range batch {
			d.registry.Resolve(text, text)
		}
		return
	case err != nil:
		terr := &TranslationError{
			Message: fmt.Sprintf("translating %d fragments to %s", len(batch), d.cfg.TargetLang),
			Cause:   err,
		}
		d.logger.Warn("batch failed, caching originals",
			"size", len(batch),
			"timeout", errors.Is(err, context.DeadlineExceeded),
			"error", terr)
		if d.cfg.OnError != nil {
			d.cfg.OnError(terr)
		}
	default:
		d.logger.Debug("batch translated",
			"size", len(batch),
			"returned", len(translations),
			"duration", time.Since(start))
	}

	for _, text := range batch {
		value := text
		if err == nil {
			if translated, ok := translations[text]; ok && translated != "" {
				value = translated
			}
		}
		if d.cache != nil {
			if cerr := d.cache.Set(text, value); cerr != nil {
				d.logger.Debug("cache write dropped", "error", cerr)
			}
		}
		d.registry.Resolve(text, value)
	}
}
