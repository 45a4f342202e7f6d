package completion

import (
	"errors"
	"time"

	"github.com/joeycumines/go-workerloop/worker"
)

// ErrCancelled is the reason a Promise is rejected with when the worker
// shuts down before the wrapped wait source ever signals.
var ErrCancelled = errors.New("completion: wait source cancelled at worker shutdown")

// Promise is an opaque handle to a pending result in a Scheduler.
// CompletionEvent never inspects it beyond handing it back to the caller.
type Promise = any

// Resolve fulfils a Promise created by a Scheduler.
type Resolve func(value any)

// Reject fails a Promise created by a Scheduler with reason err.
type Reject func(err error)

// Scheduler mints a pending Promise together with the functions that
// settle it: the shape every hosted coroutine runtime (a per-thread
// *eventloop.JS, a Goja adapter built on top of one, ...) exposes for
// bridging a Go-side callback into its own await machinery. It mirrors
// the underlying loop's own Promise.withResolvers API.
type Scheduler interface {
	NewPromise() (Promise, Resolve, Reject)
}

// CompletionEvent wraps a worker.WaitSource, keeping it reachable for as
// long as a callback registered against it might still fire.
type CompletionEvent struct {
	ws worker.WaitSource
}

// New wraps ws as a CompletionEvent.
func New(ws worker.WaitSource) *CompletionEvent {
	return &CompletionEvent{ws: ws}
}

// Await posts a WaitOneLowLevel against the wrapped wait source and
// returns a Promise, minted by sched, that settles when it fires: resolved
// on ordinary success, rejected with ErrCancelled if w shuts down first,
// or rejected with the status's error otherwise. Must be called from w's
// own thread, the same rule WaitOneLowLevel itself follows. May be called
// more than once for the same CompletionEvent; every Promise returned
// observes the same single underlying signal.
func (c *CompletionEvent) Await(w *worker.Worker, sched Scheduler, timeout time.Duration) (Promise, error) {
	promise, resolve, reject := sched.NewPromise()

	// c is captured by this closure, keeping the wrapped wait source
	// reachable until the callback fires, even if the caller drops its
	// own CompletionEvent reference in the meantime.
	err := w.WaitOneLowLevel(c.ws, timeout, func(status worker.Status) {
		switch {
		case status.Cancelled:
			reject(ErrCancelled)
		case status.Err != nil:
			reject(status.Err)
		default:
			resolve(c)
		}
	})
	if err != nil {
		return nil, err
	}
	return promise, nil
}
