package gotlui

import (
	"context"
	"sync"
)

// PendingState is the lifecycle phase of a fragment awaiting translation.
type PendingState int

const (
	// Queued means the fragment sits in the dispatcher queue.
	Queued PendingState = iota + 1
	// InFlight means the fragment is part of a batch being sent.
	InFlight
	// Resolved means the outcome is known and the handle is complete.
	Resolved
)

func (s PendingState) String() string {
	switch s {
	case Queued:
		return "queued"
	case InFlight:
		return "in_flight"
	case Resolved:
		return "resolved"
	default:
		return "untracked"
	}
}

// pending is the single representation of an in-flight fragment for its
// whole lifetime. Fields other than text and done are guarded by the
// registry mutex.
type pending struct {
	text    string
	state   PendingState
	waiters int
	value   string
	done    chan struct{}
}

// Handle is a completion object shared by every caller that asked for the
// same fragment while it was pending.
type Handle struct {
	p *pending
}

// Text returns the source fragment the handle belongs to.
func (h *Handle) Text() string {
	return h.p.text
}

// Done is closed once the fragment is resolved.
func (h *Handle) Done() <-chan struct{} {
	return h.p.done
}

// Value returns the resolved text. It is only meaningful after Done is
// closed; before that it returns the source text.
func (h *Handle) Value() string {
	select {
	case <-h.p.done:
		return h.p.value
	default:
		return h.p.text
	}
}

// Wait blocks until the handle resolves or ctx ends. The boolean is false
// when ctx ended first, in which case the source text is returned.
func (h *Handle) Wait(ctx context.Context) (string, bool) {
	select {
	case <-h.p.done:
		return h.p.value, true
	case <-ctx.Done():
		return h.p.text, false
	}
}

// Registry tracks fragments between "queued" and "resolved" so concurrent
// callers share one outcome instead of issuing duplicate requests.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*pending
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*pending)}
}

// EnqueueOrJoin returns the handle for text, creating a Queued entry if none
// exists. The boolean is true when the caller created the entry and is
// therefore responsible for getting it dispatched.
func (r *Registry) EnqueueOrJoin(text string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.entries[text]; ok {
		p.waiters++
		return &Handle{p: p}, false
	}

	p := &pending{
		text:    text,
		state:   Queued,
		waiters: 1,
		done:    make(chan struct{}),
	}
	r.entries[text] = p
	return &Handle{p: p}, true
}

// MarkInFlight moves queued fragments to InFlight. Unknown fragments are
// ignored.
func (r *Registry) MarkInFlight(texts []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, text := range texts {
		if p, ok := r.entries[text]; ok && p.state == Queued {
			p.state = InFlight
		}
	}
}

// Resolve completes the entry for text with value and removes it from the
// registry. It returns the number of callers that shared the outcome, or 0
// if text was not pending.
func (r *Registry) Resolve(text, value string) int {
	r.mu.Lock()
	p, ok := r.entries[text]
	if ok {
		delete(r.entries, text)
		p.state = Resolved
		p.value = value
	}
	r.mu.Unlock()

	if !ok {
		return 0
	}
	close(p.done)
	return p.waiters
}

// ResolveAll completes every pending entry with its own source text. Used
// when a dispatcher session ends with work still queued.
func (r *Registry) ResolveAll() int {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*pending)
	for _, p := range entries {
		p.state = Resolved
		p.value = p.text
	}
	r.mu.Unlock()

	for _, p := range entries {
		close(p.done)
	}
	return len(entries)
}

// State reports the phase of text, or 0 when it is not tracked.
func (r *Registry) State(text string) PendingState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.entries[text]; ok {
		return p.state
	}
	return 0
}

// Len returns the number of pending fragments.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
