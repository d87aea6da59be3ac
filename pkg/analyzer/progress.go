package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
)

// ProgressFunc is called to report analysis progress.
// current is the number of items processed, total is the total count,
// and path is the current item being processed.
type ProgressFunc func(current, total int, path string)

// Tracker tracks progress for analysis operations.
// It is safe for concurrent use from multiple goroutines.
//
// By default Tick invokes the callback synchronously. After Start, Tick only
// enqueues the event and a single goroutine delivers callbacks in order, so
// slow callbacks never hold up the caller of Tick.
type Tracker struct {
	total    atomic.Int32
	current  atomic.Int32
	callback ProgressFunc

	mu     sync.Mutex
	events chan string
	done   chan struct{}
}

// NewTracker creates a new progress tracker with the given callback.
// The callback is invoked on each Tick with (current, total, path).
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add increments the total count by n. Call this when you discover
// how many items will be processed.
func (t *Tracker) Add(n int) {
	t.total.Add(int32(n))
}

// SetTotal sets the total count. This replaces any previous total.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int32(n))
}

// Start switches to asynchronous delivery with room for buffer pending
// events. Size the buffer to the number of expected ticks.
func (t *Tracker) Start(buffer int) {
	if t.callback == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.events != nil {
		return
	}
	if buffer < 1 {
		buffer = 1
	}
	t.events = make(chan string, buffer)
	t.done = make(chan struct{})
	go t.dispatch(t.events, t.done)
}

func (t *Tracker) dispatch(events <-chan string, done chan<- struct{}) {
	defer close(done)
	delivered := 0
	for path := range events {
		delivered++
		t.callback(delivered, int(t.total.Load()), path)
	}
}

// Stop delivers every queued event and returns to synchronous delivery.
func (t *Tracker) Stop() {
	t.mu.Lock()
	events, done := t.events, t.done
	t.events, t.done = nil, nil
	t.mu.Unlock()

	if events == nil {
		return
	}
	close(events)
	<-done
}

// Tick marks one item as completed. The path identifies the completed item.
// This increments the current count and invokes the callback if set.
func (t *Tracker) Tick(path string) {
	current := int(t.current.Add(1))
	if t.callback == nil {
		return
	}

	t.mu.Lock()
	if t.events != nil {
		select {
		case t.events <- path:
		default:
			// Buffer full: the event is dropped rather than blocking.
		}
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.callback(current, int(t.total.Load()), path)
}

// Current returns the current progress count.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the total count.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries a progress tracker.
// Use TrackerFromContext to extract it in the processing layer.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the progress tracker from the context.
// Returns nil if no tracker was set.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
