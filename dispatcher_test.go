package gotlui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

func newTestDispatcher(t *testing.T, svc TranslationService, c TranslationCache, cfg DispatcherConfig) *Dispatcher {
	t.Helper()
	if cfg.TargetLang == "" {
		cfg.TargetLang = "ar"
	}
	d := NewDispatcher(svc, c, nil, cfg)
	d.Start(context.Background())
	t.Cleanup(d.Stop)
	return d
}

// enqueue registers text and queues it the way Translator does.
func enqueue(t *testing.T, d *Dispatcher, text string) *Handle {
	t.Helper()
	h, created := d.Registry().EnqueueOrJoin(text)
	if created && !d.Enqueue(text) {
		t.Fatalf("Enqueue(%q) refused", text)
	}
	return h
}

func waitHandle(t *testing.T, h *Handle) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	v, ok := h.Wait(ctx)
	if !ok {
		t.Fatalf("handle for %q never resolved", h.Text())
	}
	return v
}

func TestDispatcher_EnqueueBeforeStart(t *testing.T) {
	d := NewDispatcher(newStubService(), nil, nil, DispatcherConfig{TargetLang: "ar"})
	if d.Enqueue("Dashboard") {
		t.Error("Enqueue should refuse before Start")
	}
	if d.State() != StateIdle {
		t.Errorf("expected idle, got %v", d.State())
	}
}

func TestDispatcher_Defaults(t *testing.T) {
	d := NewDispatcher(newStubService(), nil, nil, DispatcherConfig{TargetLang: "ar"})
	if d.cfg.BatchSize != DefaultBatchSize ||
		d.cfg.Debounce != DefaultDebounce ||
		d.cfg.RequestTimeout != DefaultRequestTimeout ||
		d.cfg.SourceLang != DefaultSourceLang {
		t.Errorf("unexpected defaults %+v", d.cfg)
	}
	if d.TargetLang() != "ar" {
		t.Errorf("got %q", d.TargetLang())
	}
}

func TestDispatcher_DeduplicatesQueue(t *testing.T) {
	d := newTestDispatcher(t, newStubService(), nil, DispatcherConfig{Debounce: time.Hour})

	d.Enqueue("Dashboard")
	d.Enqueue("Dashboard")
	d.Enqueue("Settings")

	if n := d.QueueLen(); n != 2 {
		t.Errorf("expected 2 queued, got %d", n)
	}
	if d.State() != StateAccumulating {
		t.Errorf("expected accumulating, got %v", d.State())
	}
}

func TestDispatcher_WritesCacheBeforeResolving(t *testing.T) {
	c := newMemCache()
	d := newTestDispatcher(t, newStubService(), c, DispatcherConfig{Debounce: 10 * time.Millisecond})

	h := enqueue(t, d, "Dashboard")
	if got := waitHandle(t, h); got != "لوحة التحكم" {
		t.Errorf("got %q", got)
	}
	if v, ok := c.Get("Dashboard"); !ok || v != "لوحة التحكم" {
		t.Errorf("cache not written before resolve: %q, %v", v, ok)
	}
	if d.Registry().Len() != 0 {
		t.Errorf("resolved entries should leave the registry, %d left", d.Registry().Len())
	}
}

func TestDispatcher_StateTransitions(t *testing.T) {
	svc := newStubService()
	svc.gate = make(chan struct{})
	d := newTestDispatcher(t, svc, newMemCache(), DispatcherConfig{Debounce: time.Hour})

	if d.State() != StateIdle {
		t.Fatalf("expected idle, got %v", d.State())
	}

	h := enqueue(t, d, "Dashboard")
	if d.State() != StateAccumulating {
		t.Errorf("expected accumulating, got %v", d.State())
	}
	if s := d.Registry().State("Dashboard"); s != Queued {
		t.Errorf("expected queued, got %v", s)
	}

	go d.Flush()
	<-svc.started
	if d.State() != StateFlushing {
		t.Errorf("expected flushing, got %v", d.State())
	}
	if s := d.Registry().State("Dashboard"); s != InFlight {
		t.Errorf("expected in flight, got %v", s)
	}

	// A fragment arriving during a flush starts the next cycle.
	next := enqueue(t, d, "Settings")
	if d.State() != StateAccumulating {
		t.Errorf("expected accumulating during flight, got %v", d.State())
	}
	if d.QueueLen() != 1 {
		t.Errorf("expected only the new fragment queued, got %d", d.QueueLen())
	}

	close(svc.gate)
	waitHandle(t, h)
	d.Flush()
	waitHandle(t, next)

	if d.State() != StateIdle {
		t.Errorf("expected idle after flush, got %v", d.State())
	}
	calls := svc.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(calls))
	}
	if len(calls[1].Texts) != 1 || calls[1].Texts[0] != "Settings" {
		t.Errorf("second batch should hold only the late fragment, got %v", calls[1].Texts)
	}
}

func TestDispatcher_BatchSizeTrigger(t *testing.T) {
	svc := newStubService()
	svc.translations = map[string]string{}
	d := newTestDispatcher(t, svc, nil, DispatcherConfig{BatchSize: 3, Debounce: time.Hour})

	handles := []*Handle{
		enqueue(t, d, "One item"),
		enqueue(t, d, "Two items"),
		enqueue(t, d, "Three items"),
	}
	for _, h := range handles {
		if got := waitHandle(t, h); got != "[ar] "+h.Text() {
			t.Errorf("got %q", got)
		}
	}

	calls := svc.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(calls))
	}
	texts := append([]string(nil), calls[0].Texts...)
	sort.Strings(texts)
	if len(texts) != 3 {
		t.Errorf("unexpected batch %v", texts)
	}
}

func TestDispatcher_DebounceTimerResetsPerCycle(t *testing.T) {
	svc := newStubService()
	d := newTestDispatcher(t, svc, nil, DispatcherConfig{Debounce: 30 * time.Millisecond})

	waitHandle(t, enqueue(t, d, "Dashboard"))
	waitHandle(t, enqueue(t, d, "Settings"))

	if n := len(svc.calls()); n != 2 {
		t.Errorf("expected one batch per cycle, got %d", n)
	}
	s := d.Stats()
	if s.Batches != 2 || s.Fragments != 2 || s.Failures != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestDispatcher_RequestTimeoutCountsAsFailure(t *testing.T) {
	svc := newStubService()
	svc.delay = time.Second
	c := newMemCache()
	d := newTestDispatcher(t, svc, c, DispatcherConfig{
		Debounce:       5 * time.Millisecond,
		RequestTimeout: 30 * time.Millisecond,
	})

	h := enqueue(t, d, "Dashboard")
	if got := waitHandle(t, h); got != "Dashboard" {
		t.Errorf("expected original after timeout, got %q", got)
	}
	if v, ok := c.Get("Dashboard"); !ok || v != "Dashboard" {
		t.Errorf("timed out fragment should be cached as itself, got %q, %v", v, ok)
	}
	if s := d.Stats(); s.Failures != 1 || s.Aborted != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestDispatcher_StopAbortsWithoutCaching(t *testing.T) {
	svc := newStubService()
	svc.gate = make(chan struct{})
	c := newMemCache()
	d := NewDispatcher(svc, c, nil, DispatcherConfig{TargetLang: "ar", Debounce: time.Hour})
	d.Start(context.Background())

	inFlight := enqueue(t, d, "Dashboard")
	go d.Flush()
	<-svc.started
	queued := enqueue(t, d, "Settings")

	d.Stop()

	if got := waitHandle(t, inFlight); got != "Dashboard" {
		t.Errorf("in-flight fragment: got %q", got)
	}
	if got := waitHandle(t, queued); got != "Settings" {
		t.Errorf("queued fragment: got %q", got)
	}
	if c.len() != 0 {
		t.Errorf("stopped session wrote %d cache entries", c.len())
	}
	if d.State() != StateStopped {
		t.Errorf("expected stopped, got %v", d.State())
	}
	if d.Enqueue("Save") {
		t.Error("Enqueue should refuse after Stop")
	}
	if s := d.Stats(); s.Aborted != 1 {
		t.Errorf("expected 1 aborted batch, got %+v", s)
	}

	// Idempotent.
	d.Stop()
}

func TestDispatcher_ParentContextCancel(t *testing.T) {
	svc := newStubService()
	svc.gate = make(chan struct{})
	c := newMemCache()
	d := NewDispatcher(svc, c, nil, DispatcherConfig{TargetLang: "ar", Debounce: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	defer d.Stop()

	h := enqueue(t, d, "Dashboard")
	<-svc.started
	cancel()

	if got := waitHandle(t, h); got != "Dashboard" {
		t.Errorf("got %q", got)
	}
	if c.len() != 0 {
		t.Error("cancelled session must not write the cache")
	}
}

func TestDispatchState_String(t *testing.T) {
	for state, want := range map[DispatchState]string{
		StateIdle:         "idle",
		StateAccumulating: "accumulating",
		StateFlushing:     "flushing",
		StateStopped:      "stopped",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d: got %q, want %q", state, got, want)
		}
	}
}

func TestDispatcher_ConcurrentFlushes(t *testing.T) {
	svc := newStubService()
	svc.translations = map[string]string{}
	svc.delay = time.Millisecond
	d := newTestDispatcher(t, svc, nil, DispatcherConfig{BatchSize: 2, Debounce: time.Hour})

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				text := fmt.Sprintf("Worker %d item %d", w, i)
				h, _ := d.Registry().EnqueueOrJoin(text)
				if !d.Enqueue(text) {
					t.Errorf("Enqueue(%q) refused", text)
					return
				}
				d.Flush()
				select {
				case <-h.Done():
				default:
					t.Errorf("Flush returned before %q resolved", h.Text())
				}
			}
		}(w)
	}
	wg.Wait()

	if d.State() != StateIdle {
		t.Errorf("expected idle, got %v", d.State())
	}
	if s := d.Stats(); s.Fragments != 100 {
		t.Errorf("expected 100 fragments sent, got %+v", s)
	}
}

func TestDispatcher_OnError(t *testing.T) {
	svc := newStubService()
	svc.setError(errors.New("connection reset"))
	reported := make(chan error, 1)
	d := newTestDispatcher(t, svc, nil, DispatcherConfig{
		Debounce: 5 * time.Millisecond,
		OnError:  func(err error) { reported <- err },
	})

	waitHandle(t, enqueue(t, d, "Dashboard"))

	select {
	case err := <-reported:
		var terr *TranslationError
		if !errors.As(err, &terr) || terr.Message != "translating 1 fragments to ar" {
			t.Errorf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failure not reported")
	}
}
