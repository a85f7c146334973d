// Package refresh keeps a view's fetched state converged with the backend
// without a push channel. Each view owns one controller: parameter changes
// are debounced through a quiescence window, a cadence timer refetches on a
// fixed interval, the cross-view event bus triggers immediate refetches after
// sibling mutations, and out-of-order responses are dropped so the view only
// ever reflects the most recently issued fetch that completed.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/admitq/queue-kiosk/internal/events"
	"github.com/admitq/queue-kiosk/internal/observability"
)

// FetchFunc loads a view's data for the given parameters.
type FetchFunc[P, T any] func(ctx context.Context, params P) (T, error)

// ApplyFunc receives each non-stale fetch result. Calls are serialized.
type ApplyFunc[T any] func(value T, err error)

// Options configures a controller.
type Options struct {
	View     string        // name used in metrics and logs
	Interval time.Duration // cadence; 0 disables the timer
	Debounce time.Duration // quiescence window for parameter changes
	Bus      *events.Bus   // optional cross-view bus
	Event    string        // bus event that triggers an immediate refresh
}

// Controller drives one view's polling refresh loop.
type Controller[P, T any] struct {
	fetch FetchFunc[P, T]
	apply ApplyFunc[T]
	opts  Options

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	params   P
	seq      uint64 // fetches issued
	applied  uint64 // highest seq whose response was applied
	debounce *time.Timer
	unsub    func()
	started  bool
	stopped  bool

	// applyMu serializes staleness check + apply so a slow older response
	// cannot land after a faster newer one.
	applyMu sync.Mutex
}

// New builds a controller. Call Start to begin fetching.
func New[P, T any](fetch FetchFunc[P, T], apply ApplyFunc[T], opts Options) *Controller[P, T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller[P, T]{
		fetch:  fetch,
		apply:  apply,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the refresh loop with the initial parameters: an initial
// (debounced) fetch, the cadence timer, and the bus subscription.
func (c *Controller[P, T]) Start(initial P) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.params = initial
	c.mu.Unlock()

	if c.opts.Bus != nil && c.opts.Event != "" {
		c.mu.Lock()
		c.unsub = c.opts.Bus.Subscribe(c.opts.Event, func() {
			c.launch("event")
		})
		c.mu.Unlock()
	}

	if c.opts.Interval > 0 {
		go c.cadenceLoop()
	}

	c.scheduleDebounced()
}

// SetParams replaces the view's filter/sort/search parameters. Rapid calls
// within the quiescence window coalesce: only the last value is fetched, and
// a pending not-yet-fired fetch is canceled rather than delayed.
func (c *Controller[P, T]) SetParams(params P) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.params = params
	c.mu.Unlock()

	c.scheduleDebounced()
}

// Refresh fetches immediately, bypassing both the debounce and the cadence
// timer. Concurrent in-flight fetches are allowed; staleness rejection keeps
// the applied state consistent.
func (c *Controller[P, T]) Refresh() {
	c.launch("manual")
}

// Stop cancels the cadence timer, any pending debounced fetch and the bus
// subscription. Results of fetches still in flight are dropped; nothing is
// fetched or applied after Stop returns.
func (c *Controller[P, T]) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()

	c.cancel()
	if unsub != nil {
		unsub()
	}
}

func (c *Controller[P, T]) scheduleDebounced() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if c.debounce != nil {
		// Newer parameter change wins; the earlier pending fetch is discarded.
		c.debounce.Stop()
	}
	if c.opts.Debounce <= 0 {
		go c.launch("params")
		return
	}
	c.debounce = time.AfterFunc(c.opts.Debounce, func() {
		c.launch("params")
	})
}

func (c *Controller[P, T]) cadenceLoop() {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.launch("cadence")
		}
	}
}

// launch issues one fetch carrying the next sequence number.
func (c *Controller[P, T]) launch(trigger string) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	params := c.params
	c.mu.Unlock()

	observability.RecordRefresh(c.opts.View, trigger)

	go func() {
		value, err := c.fetch(c.ctx, params)
		c.deliver(seq, value, err)
	}()
}

// deliver applies a response unless a later-issued response already landed.
func (c *Controller[P, T]) deliver(seq uint64, value T, err error) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if seq <= c.applied {
		c.mu.Unlock()
		observability.RecordStaleResponse()
		return
	}
	c.applied = seq
	c.mu.Unlock()

	c.apply(value, err)
}
