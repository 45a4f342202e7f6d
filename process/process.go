package process

import (
	"errors"
	"sync/atomic"

	"github.com/joeycumines/go-workerloop/worker"
)

// Standard errors returned by this package.
var (
	// ErrAlreadyLaunched is returned by Launch on a second call; a
	// Process, like a Worker, is single-use with respect to launching.
	ErrAlreadyLaunched = errors.New("process: already launched")
)

// State is the lifecycle state of a Process.
type State int32

const (
	// Initialized is the state before Launch is called.
	Initialized State = iota
	// Running is the state from Launch until the run method, and any
	// continuation it returns, has finished.
	Running
	// Terminated is the terminal state, reached exactly once.
	Terminated
)

// String returns a human-readable name for s.
func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Scope supplies the worker a Process runs on, standing in for a
// device/worker scope; callers that do not need a richer scope
// abstraction can use WorkerScope.
type Scope interface {
	Worker() *worker.Worker
}

// WorkerScope is the trivial Scope: a Process bound directly to a single
// Worker, with no further device/array-storage grouping.
type WorkerScope struct{ W *worker.Worker }

// Worker implements Scope.
func (s WorkerScope) Worker() *worker.Worker { return s.W }

// Continuation is returned by a Runnable whose run method is
// asynchronous: the Process attaches a completion callback to it instead
// of transitioning straight to Terminated. Any worker.WaitSource value
// satisfies the Done half of this interface, so a continuation can
// itself be driven by WaitOneLowLevel.
type Continuation interface {
	// Done returns a channel closed exactly once, when the continuation
	// finishes.
	Done() <-chan struct{}
	// Err returns the continuation's outcome; valid only after Done has
	// fired. nil means the continuation succeeded.
	Err() error
}

// Runnable is the user-provided async routine a Process runs on-loop.
// Run executes on the worker thread. A synchronous routine returns a nil
// Continuation, in which case the Process transitions to Terminated as
// soon as Run returns; an asynchronous routine returns a non-nil
// Continuation and the Process terminates when that continuation fires.
type Runnable interface {
	Run() (Continuation, error)
}

// RunnableFunc adapts a plain synchronous function to Runnable.
type RunnableFunc func() error

// Run implements Runnable, always returning a nil Continuation.
func (f RunnableFunc) Run() (Continuation, error) { return nil, f() }

var pidSeq atomic.Int64

// Process wraps Runnable with a pid, a monotonic state machine, and a
// termination wait source any number of observers may await.
type Process struct {
	scope    Scope
	runnable Runnable

	pid     int64
	state   atomic.Int32
	started atomic.Bool

	termination *worker.ManualWaitSource
	errMu       onceError
}

// onceError exists only to give the termination error its own tiny,
// documented critical section distinct from state's atomic.
type onceError struct {
	v atomic.Pointer[error]
}

func (m *onceError) set(err error) {
	if err == nil {
		return
	}
	m.v.CompareAndSwap(nil, &err)
}

func (m *onceError) get() error {
	if p := m.v.Load(); p != nil {
		return *p
	}
	return nil
}

// New constructs a Process bound to scope, not yet launched.
func New(scope Scope, runnable Runnable) *Process {
	return &Process{
		scope:       scope,
		runnable:    runnable,
		termination: worker.NewManualWaitSource(),
	}
}

// PID returns the pid assigned at Launch, or 0 before Launch is called.
func (p *Process) PID() int64 { return p.pid }

// State returns the Process's current lifecycle state.
func (p *Process) State() State { return State(p.state.Load()) }

// OnTermination returns a worker.WaitSource signalled exactly once, when
// the Process reaches Terminated. Any number of observers may await it.
func (p *Process) OnTermination() worker.WaitSource { return p.termination }

// Err returns the error the Process terminated with, or nil for a clean
// termination. Only meaningful once OnTermination has fired.
func (p *Process) Err() error { return p.errMu.get() }

// Launch assigns a pid and posts a one-shot thunk via CallThreadsafe that
// invokes the Runnable on-loop. Idempotent against repeated calls: a
// second call returns ErrAlreadyLaunched without side effects.
func (p *Process) Launch() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyLaunched
	}
	p.pid = pidSeq.Add(1)
	return p.scope.Worker().CallThreadsafe(p.runOnLoop)
}

// runOnLoop executes on the worker thread, invoked via CallThreadsafe.
func (p *Process) runOnLoop() {
	p.state.Store(int32(Running))

	cont, err := p.runnable.Run()
	if err != nil {
		p.Terminate(err)
		return
	}
	if cont == nil {
		p.Terminate(nil)
		return
	}

	w := p.scope.Worker()
	_ = w.WaitOneLowLevel(continuationWaitSource{cont}, 0, func(status worker.Status) {
		if status.Cancelled {
			p.Terminate(errCancelled)
			return
		}
		if status.Err != nil {
			p.Terminate(status.Err)
			return
		}
		p.Terminate(cont.Err())
	})
}

var errCancelled = errors.New("process: continuation cancelled at worker shutdown")

// continuationWaitSource adapts a Continuation to worker.WaitSource,
// since Continuation's Done half is already exactly that shape.
type continuationWaitSource struct{ c Continuation }

func (c continuationWaitSource) Done() <-chan struct{} { return c.c.Done() }

// Terminate moves the Process to Terminated and signals OnTermination.
// Safe to call more than once; only the first call has any effect. Must
// be called on-loop.
func (p *Process) Terminate(err error) {
	if !p.state.CompareAndSwap(int32(Running), int32(Terminated)) {
		// Already Terminated; Terminate only ever runs on-loop after
		// runOnLoop has moved the state to Running, so there is no other
		// transition to race here.
		return
	}
	p.errMu.set(err)
	p.termination.Signal()
}
