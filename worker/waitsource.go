package worker

import (
	"sync"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
)

// WaitSource is an opaque, signallable primitive bound to a loop: a
// device fence, a future, a manually-signalled test event. It is
// modeled here as "a channel that closes exactly once", which covers
// both in-process signals and, via RegisterIOWaitSource, real OS file
// descriptors.
type WaitSource interface {
	// Done returns a channel that is closed exactly once, when the wait
	// source becomes signalled. Done must return the same channel on every
	// call.
	Done() <-chan struct{}
}

// ManualWaitSource is a WaitSource any goroutine can signal directly,
// useful for tests and for bridging ad-hoc completion events.
type ManualWaitSource struct {
	once sync.Once
	done chan struct{}
}

// NewManualWaitSource returns a WaitSource that becomes signalled the
// first time Signal is called.
func NewManualWaitSource() *ManualWaitSource {
	return &ManualWaitSource{done: make(chan struct{})}
}

// Signal marks the wait source as signalled. Idempotent: only the first
// call has any effect.
func (m *ManualWaitSource) Signal() {
	m.once.Do(func() { close(m.done) })
}

// Done implements WaitSource.
func (m *ManualWaitSource) Done() <-chan struct{} {
	return m.done
}

// IsSignalled reports whether Signal has already been called.
func (m *ManualWaitSource) IsSignalled() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// WaitOneLowLevel registers fn to fire when ws is signalled or timeout
// elapses, whichever comes first. fn is invoked exactly once: on the
// worker thread, or, when the loop no longer accepts submissions, directly
// on the bridge goroutine (see below).
//
// The bridge is a single goroutine that selects on ws.Done(), a timeout
// timer, and the worker's own shutdown, then hands the result back onto
// the loop via the underlying loop's SubmitInternal — the same
// goroutine-plus-SubmitInternal shape the underlying loop's own Promisify
// uses to get a background result back onto the loop thread, including
// falling back to a direct, un-queued call to fn if SubmitInternal itself
// fails because the loop is already tearing down (mirroring Promisify's
// "Fallback: Direct resolution if SubmitInternal fails" behavior).
func (w *Worker) WaitOneLowLevel(ws WaitSource, timeout time.Duration, fn func(status Status)) error {
	if w.mbox.isKilled() {
		return ErrKilled
	}

	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		timeoutCh = timer.C
	}

	w.waitGroup.Add(1)
	go func() {
		defer w.waitGroup.Done()
		if timer != nil {
			defer timer.Stop()
		}

		var status Status
		select {
		case <-ws.Done():
			status = StatusOK
		case <-timeoutCh:
			status = Status{Ok: true, Err: ErrWaitTimeout}
		case <-w.shutdownCh:
			status = StatusCancelled
		}

		deliver := func() {
			w.safeInvokeStatus(fn, status)
		}
		if err := w.loop.SubmitInternal(eventloop.Task{Runnable: deliver}); err != nil {
			if w.logger.IsEnabled(eventloop.LevelWarn) {
				w.logger.Log(eventloop.LogEntry{
					Level:    eventloop.LevelWarn,
					Category: "wait",
					Message:  "submission cancelled: delivering wait result directly",
					Err:      err,
				})
			}
			deliver()
		}
	}()
	return nil
}
