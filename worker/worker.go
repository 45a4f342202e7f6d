package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
)

// shutdownContext returns the background context used for the underlying
// loop's Run/Shutdown calls. The worker's own quantum and Kill semantics
// govern timing; there is no outer deadline to thread through here.
func shutdownContext() context.Context {
	return context.Background()
}

// State is the lifecycle state of a Worker's loop.
type State int32

const (
	// StateIdle is the state before Start/RunOnCurrentThread is called.
	StateIdle State = iota
	// StateRunning is the state while the loop is driving trips.
	StateRunning
	// StateEnded is the terminal state, reached once and never left.
	StateEnded
)

// OnThreadFunc is an extension-point hook, invoked on the worker thread.
// See WithThreadHooks.
type OnThreadFunc func(w *Worker)

// Worker owns one cooperative loop and, when OwnedThread is true, one OS
// thread. It is the single point of async progress for whatever is bound
// to it: cross-thread callbacks (CallThreadsafe), on-loop low-level
// submissions (CallLowLevel, WaitUntilLowLevel, WaitOneLowLevel), and the
// extension hooks a language binding uses to install a per-thread
// coroutine scheduler (OnThreadStart/OnThreadStop).
//
// A Worker is single-use: has_run only ever transitions false -> true, and
// a Worker whose loop has ended cannot be restarted.
type Worker struct {
	name        string
	quantum     time.Duration
	ownedThread bool
	allocator   any
	clock       Clock
	logger      eventloop.Logger
	metrics     Metrics

	onThreadStart OnThreadFunc
	onThreadStop  OnThreadFunc

	loop *eventloop.Loop

	mbox     mailbox
	lastTrip time.Time // touched only on the worker thread, inside drainTrip.

	hasRun atomic.Bool
	state  atomic.Int32

	killMu  sync.Mutex
	killed  bool
	killErr error

	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	waitGroup sync.WaitGroup
}

// New constructs a Worker. It does not start it: call Start (for
// OwnedThread workers) or RunOnCurrentThread (for donated-thread workers).
func New(opts ...Option) (*Worker, error) {
	o := resolveOptions(opts)

	loop, err := eventloop.New()
	if err != nil {
		return nil, fmt.Errorf("worker: creating underlying loop: %w", err)
	}

	w := &Worker{
		name:          o.name,
		quantum:       o.quantum,
		ownedThread:   o.ownedThread,
		allocator:     o.allocator,
		clock:         o.clock,
		logger:        o.logger,
		metrics:       o.metrics,
		onThreadStart: o.onThreadStart,
		onThreadStop:  o.onThreadStop,
		loop:          loop,
		shutdownCh:    make(chan struct{}),
	}
	return w, nil
}

// WithThreadHooks installs OnThreadStart/OnThreadStop extension hooks, the
// only integration point a language-binding subclass needs: the base
// Worker never knows what, if anything, is installed there.
func WithThreadHooks(onStart, onStop OnThreadFunc) Option {
	return optionFunc(func(o *workerOptions) {
		o.onThreadStart = onStart
		o.onThreadStop = onStop
	})
}

// Name returns the Worker's human-readable label.
func (w *Worker) Name() string { return w.name }

// Allocator returns the opaque allocator handle passed to New, unexamined.
func (w *Worker) Allocator() any { return w.allocator }

// Loop returns the underlying cooperative loop bound to w. It exists for
// OnThreadStart/OnThreadStop hooks that install a per-thread host
// scheduler onto the same loop instance; it must only be touched from
// the worker thread.
func (w *Worker) Loop() *eventloop.Loop { return w.loop }

// State returns the Worker's current lifecycle state.
func (w *Worker) State() State { return State(w.state.Load()) }

// Start spawns one OS thread that runs the loop entrypoint, returning
// immediately. Valid only when OwnedThread is true and the Worker has
// never been run.
func (w *Worker) Start() error {
	if !w.ownedThread {
		return ErrDonatedThread
	}
	if !w.hasRun.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		w.runLoop()
	}()
	return nil
}

// RunOnCurrentThread runs the loop entrypoint inline, returning only after
// shutdown. Valid only when OwnedThread is false and the Worker has never
// been run.
func (w *Worker) RunOnCurrentThread() error {
	if w.ownedThread {
		return ErrOwnedThread
	}
	if !w.hasRun.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	return w.runLoop()
}

// Kill requests termination. May be called from any thread; idempotent;
// does not block or join.
func (w *Worker) Kill() {
	w.killMu.Lock()
	already := w.killed
	w.killed = true
	w.killMu.Unlock()
	if already {
		return
	}
	w.mbox.kill()
	// Wake the loop so the next trip observes the kill even with no other
	// pending work; SubmitInternal is a no-op error once the loop is
	// already terminated, which is fine -- it is already on its way out.
	_ = w.loop.SubmitInternal(eventloop.Task{Runnable: w.checkTermination})
}

// WaitForShutdown blocks the calling goroutine until the loop has fully
// exited, then returns the error (if any) that ended it -- a
// CallbackFailed propagated from the trip that aborted, or nil for a
// clean Kill-initiated shutdown.
func (w *Worker) WaitForShutdown() error {
	<-w.shutdownCh
	w.killMu.Lock()
	defer w.killMu.Unlock()
	return w.killErr
}

// CallThreadsafe submits cb for execution on the worker thread. Callbacks
// submitted by the same calling goroutine run in that same order on the
// worker; no ordering is guaranteed relative to other goroutines'
// submissions. Returns ErrKilled if the worker has already been killed.
func (w *Worker) CallThreadsafe(cb func()) error {
	if !w.mbox.push(cb) {
		return ErrKilled
	}
	if err := w.loop.SubmitInternal(eventloop.Task{Runnable: w.drainTrip}); err != nil {
		// The underlying loop is tearing down; the mailbox kill path (via
		// Kill or the final drain) will discard cb rather than run it --
		// pending mailbox work is simply dropped once the final drain has
		// happened.
		if w.logger.IsEnabled(eventloop.LevelWarn) {
			w.logger.Log(eventloop.LogEntry{
				Level:    eventloop.LevelWarn,
				Category: "submission",
				Message:  "submission cancelled: loop shutting down",
				Err:      err,
			})
		}
		return nil
	}
	return nil
}

// CallLowLevel registers fn with the underlying loop at the given
// priority, on-loop. fn is invoked once, always with StatusOK: this method
// never delivers a cancelled status. If CallLowLevel returns an error
// (ErrKilled once the worker has been killed, or a refused submission),
// fn is not invoked. Must be called from the worker thread.
func (w *Worker) CallLowLevel(priority Priority, fn func(status Status)) error {
	if w.mbox.isKilled() {
		return ErrKilled
	}
	deliver := func() { w.safeInvokeStatus(fn, StatusOK) }
	switch priority {
	case PriorityLow:
		// Defer by one trip: a zero-delay timer is pushed into the heap
		// during this trip's internal-queue pass and so cannot fire until
		// the following trip's runTimers pass, which is exactly
		// "lower priority than anything submitted via SubmitInternal this
		// trip" without requiring a second priority class from the
		// underlying loop.
		if err := w.loop.ScheduleTimer(0, deliver); err != nil {
			return fmt.Errorf("worker: low-priority submission failed: %w", err)
		}
		return nil
	default:
		if err := w.loop.SubmitInternal(eventloop.Task{Runnable: deliver}); err != nil {
			return fmt.Errorf("worker: submission failed: %w", err)
		}
		return nil
	}
}

// WaitUntilLowLevel fires fn at or after deadline (on the Worker's clock
// base), on-loop.
func (w *Worker) WaitUntilLowLevel(deadline time.Time, fn func(status Status)) error {
	if w.mbox.isKilled() {
		return ErrKilled
	}
	delay := deadline.Sub(w.now())
	if delay < 0 {
		delay = 0
	}
	if err := w.loop.ScheduleTimer(delay, func() { w.safeInvokeStatus(fn, StatusOK) }); err != nil {
		return fmt.Errorf("worker: timer submission failed: %w", err)
	}
	return nil
}

// safeInvokeStatus invokes fn with status, converting any panic into a
// ForeignException and routing it into the current trip's failure path --
// no host-language panic may unwind across the loop boundary.
func (w *Worker) safeInvokeStatus(fn func(Status), status Status) {
	defer func() {
		if r := recover(); r != nil {
			w.abortTrip(&ForeignException{Value: r})
		}
	}()
	fn(status)
}

// safeInvoke is the zero-argument equivalent of safeInvokeStatus, used for
// mailbox thunks.
func (w *Worker) safeInvoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.abortTrip(&ForeignException{Value: r})
		}
	}()
	fn()
}

// drainTrip is the "drain external" step of the trip algorithm: swap
// pending into next and run each thunk in order. Runs on the worker
// thread only, invoked via SubmitInternal.
func (w *Worker) drainTrip() {
	now := w.now()
	if !w.lastTrip.IsZero() {
		w.metrics.TripBlocked(now.Sub(w.lastTrip))
	}

	w.metrics.TripStarted()
	thunks := w.mbox.drain()
	ran := 0
	for _, cb := range thunks {
		w.safeInvoke(cb)
		ran++
		// A failed callback aborts the trip: the rest of this drain is not
		// executed.
		w.killMu.Lock()
		aborted := w.killErr != nil
		w.killMu.Unlock()
		if aborted {
			break
		}
	}
	w.metrics.ThunksDrained(ran)

	if w.logger.IsEnabled(eventloop.LevelDebug) {
		w.logger.Log(eventloop.LogEntry{
			Level:    eventloop.LevelDebug,
			Category: "trip",
			Message:  "trip drained",
			Context:  map[string]any{"thunks": ran},
		})
	}

	w.lastTrip = w.now()
	w.checkTermination()
}

// checkTermination is the "check termination" step: if Kill was observed
// and the mailbox has nothing left pending, stop the underlying loop so
// Run returns and the shutdown sequence runs.
func (w *Worker) checkTermination() {
	w.killMu.Lock()
	killed := w.killed
	w.killMu.Unlock()
	if !killed {
		return
	}
	go func() {
		// Shutdown blocks until the loop has drained in-flight work; run
		// it off the loop goroutine so the loop goroutine itself is free
		// to finish processing the task that called checkTermination.
		_ = w.loop.Shutdown(shutdownContext())
	}()
}

// runLoop is the loop entrypoint shared by Start and RunOnCurrentThread.
func (w *Worker) runLoop() error {
	setCurrent(w)
	w.state.Store(int32(StateRunning))

	if w.onThreadStart != nil {
		w.onThreadStart(w)
	}

	// Prime the watchdog: re-checks termination at least once per quantum
	// even with no CallThreadsafe/CallLowLevel traffic.
	w.scheduleWatchdog()

	err := w.loop.Run(shutdownContext())
	if err != nil {
		w.recordFailure(fmt.Errorf("worker: loop run: %w", err))
	}

	// Close shutdownCh before waiting on in-flight WaitOneLowLevel bridges:
	// a bridge waiting on an unsignalled, untimed-out WaitSource can only
	// leave its select via shutdownCh, so waiting on waitGroup first would
	// deadlock against a channel this same goroutine would otherwise close
	// only after the wait returned.
	w.shutdownOnce.Do(func() { close(w.shutdownCh) })
	w.waitGroup.Wait() // let in-flight WaitOneLowLevel bridges settle.

	if w.onThreadStop != nil {
		w.onThreadStop(w)
	}
	clearCurrent()

	w.state.Store(int32(StateEnded))
	return w.killErr
}

// scheduleWatchdog arranges a self-resubmitting timer at the worker's
// quantum, implementing the trip-chain that keeps termination checks
// running even during idle periods.
func (w *Worker) scheduleWatchdog() {
	var tick func()
	tick = func() {
		w.checkTermination()
		w.killMu.Lock()
		killed := w.killed
		w.killMu.Unlock()
		if killed {
			return
		}
		if err := w.loop.ScheduleTimer(w.quantum, tick); err != nil {
			return
		}
	}
	_ = w.loop.ScheduleTimer(w.quantum, tick)
}

func (w *Worker) abortTrip(err error) {
	w.metrics.CallbackFailed(err)
	if w.logger.IsEnabled(eventloop.LevelError) {
		w.logger.Log(eventloop.LogEntry{
			Level:    eventloop.LevelError,
			Category: "trip",
			Message:  "callback failed, killing worker",
			Err:      err,
		})
	}
	w.recordFailure(fmt.Errorf("%w: %w", ErrCallbackFailed, err))
	w.Kill()
}

func (w *Worker) recordFailure(err error) {
	w.killMu.Lock()
	if w.killErr == nil {
		w.killErr = err
	}
	w.killMu.Unlock()
}
