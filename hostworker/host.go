package hostworker

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"
	eventloop "github.com/joeycumines/go-eventloop"
	gojaeventloop "github.com/joeycumines/goja-eventloop"

	"github.com/joeycumines/go-workerloop/completion"
	"github.com/joeycumines/go-workerloop/worker"
)

// Binding is the per-worker-thread state a Host installs: a Goja runtime
// bound to that thread's own underlying loop, plus the *eventloop.JS
// adapter needed to mint promises for completion.CompletionEvent.
type Binding struct {
	runtime *goja.Runtime
	adapter *gojaeventloop.Adapter
}

// Runtime returns the Goja runtime installed on this worker thread.
func (b *Binding) Runtime() *goja.Runtime { return b.runtime }

// NewPromise implements completion.Scheduler over the binding's
// *eventloop.JS, via its Promise.withResolvers()-equivalent API.
func (b *Binding) NewPromise() (completion.Promise, completion.Resolve, completion.Reject) {
	wr := b.adapter.JS().WithResolvers()
	resolve := completion.Resolve(wr.Resolve)
	reject := completion.Reject(func(err error) { wr.Reject(err) })
	return wr.Promise, resolve, reject
}

var _ completion.Scheduler = (*Binding)(nil)

// Host installs a Binding on every worker thread it is attached to via
// Options, and tears it down again on thread stop. A single Host may
// back any number of distinct Workers, each with its own independent
// Binding, keyed by *worker.Worker since only the thread that owns a
// Worker ever touches its entry.
type Host struct {
	mu       sync.Mutex
	bindings map[*worker.Worker]*Binding
	lastErr  map[*worker.Worker]error
}

// NewHost constructs an empty Host.
func NewHost() *Host {
	return &Host{
		bindings: make(map[*worker.Worker]*Binding),
		lastErr:  make(map[*worker.Worker]error),
	}
}

// Options returns the worker.Option that wires this Host's OnThreadStart
// and OnThreadStop as w's thread hooks.
func (h *Host) Options() worker.Option {
	return worker.WithThreadHooks(h.onThreadStart, h.onThreadStop)
}

// Binding returns the Goja/eventloop binding installed for w, or false if
// w's thread hooks have not run yet (or failed to install).
func (h *Host) Binding(w *worker.Worker) (*Binding, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.bindings[w]
	return b, ok
}

// Err returns the error (if any) that installing w's binding failed with.
func (h *Host) Err(w *worker.Worker) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr[w]
}

func (h *Host) onThreadStart(w *worker.Worker) {
	b, err := newBinding(w.Loop())

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.lastErr[w] = fmt.Errorf("hostworker: installing binding for %q: %w", w.Name(), err)
		return
	}
	h.bindings[w] = b
}

func (h *Host) onThreadStop(w *worker.Worker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.bindings, w)
	delete(h.lastErr, w)
}

func newBinding(loop *eventloop.Loop) (*Binding, error) {
	rt := goja.New()
	adapter, err := gojaeventloop.New(loop, rt)
	if err != nil {
		return nil, fmt.Errorf("constructing goja adapter: %w", err)
	}
	if err := adapter.Bind(); err != nil {
		return nil, fmt.Errorf("binding JS globals: %w", err)
	}
	return &Binding{runtime: rt, adapter: adapter}, nil
}
