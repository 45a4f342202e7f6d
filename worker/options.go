package worker

import (
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
)

// defaultQuantum is the maximum wall time the loop may block in a single
// outer trip before returning control for external maintenance.
const defaultQuantum = 500 * time.Millisecond

// workerOptions holds the resolved configuration for New.
type workerOptions struct {
	name          string
	quantum       time.Duration
	ownedThread   bool
	logger        eventloop.Logger
	clock         Clock
	allocator     any
	metrics       Metrics
	onThreadStart OnThreadFunc
	onThreadStop  OnThreadFunc
}

// Option configures a Worker at construction. Mirrors the functional
// option pattern used by the underlying loop's own LoopOption.
type Option interface {
	apply(*workerOptions)
}

type optionFunc func(*workerOptions)

func (f optionFunc) apply(o *workerOptions) { f(o) }

// WithName sets the Worker's human-readable label, used only in logging
// and diagnostics.
func WithName(name string) Option {
	return optionFunc(func(o *workerOptions) { o.name = name })
}

// WithQuantum overrides the default 500ms trip quantum.
func WithQuantum(d time.Duration) Option {
	return optionFunc(func(o *workerOptions) {
		if d > 0 {
			o.quantum = d
		}
	})
}

// WithOwnedThread selects whether the Worker manages its own OS thread
// (Start) or is bound to the caller's (RunOnCurrentThread). Defaults to
// true (owned).
func WithOwnedThread(owned bool) Option {
	return optionFunc(func(o *workerOptions) { o.ownedThread = owned })
}

// WithLogger attaches a structured logger. Defaults to a no-op logger;
// logging is purely diagnostic and is never a substitute for a returned
// error.
func WithLogger(logger eventloop.Logger) Option {
	return optionFunc(func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	})
}

// WithClock overrides the Worker's monotonic time source. Intended for
// deterministic timer-precision tests.
func WithClock(c Clock) Option {
	return optionFunc(func(o *workerOptions) {
		if c != nil {
			o.clock = c
		}
	})
}

// WithAllocator attaches an opaque allocator handle, passed through
// unexamined to callers that need it (e.g. array storage built atop this
// runtime). The worker never dereferences it.
func WithAllocator(allocator any) Option {
	return optionFunc(func(o *workerOptions) { o.allocator = allocator })
}

// WithMetrics attaches an observer for trip/thunk counters and trip
// blocking time. Defaults
// to a no-op implementation.
func WithMetrics(m Metrics) Option {
	return optionFunc(func(o *workerOptions) {
		if m != nil {
			o.metrics = m
		}
	})
}

func resolveOptions(opts []Option) *workerOptions {
	o := &workerOptions{
		quantum:     defaultQuantum,
		ownedThread: true,
		logger:      eventloop.NewNoOpLogger(),
		clock:       realClock{},
		metrics:     noopMetrics{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(o)
	}
	return o
}
