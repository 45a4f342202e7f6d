package worker

import "errors"

// Standard errors returned by this package.
var (
	// ErrOwnedThread is returned by RunOnCurrentThread when the Worker was
	// constructed with OwnedThread=true; use Start instead.
	ErrOwnedThread = errors.New("worker: RunOnCurrentThread called on an owned-thread worker, use Start")

	// ErrDonatedThread is returned by Start when the Worker was
	// constructed with OwnedThread=false; use RunOnCurrentThread instead.
	ErrDonatedThread = errors.New("worker: Start called on a donated-thread worker, use RunOnCurrentThread")

	// ErrAlreadyRun is returned by Start and RunOnCurrentThread when the
	// Worker has already been started once. A Worker is single-use.
	ErrAlreadyRun = errors.New("worker: already run, a worker cannot be restarted")

	// ErrKilled is returned by CallThreadsafe and the CallLowLevel family
	// when the worker has already been killed and will not drain further
	// submissions.
	ErrKilled = errors.New("worker: worker has been killed")

	// ErrNoCurrentWorker is returned by GetCurrent when called from a
	// goroutine that is not running a Worker's loop.
	ErrNoCurrentWorker = errors.New("worker: GetCurrent called off any worker thread")

	// ErrCallbackFailed wraps the ForeignException recovered from a
	// callback that panicked; it aborts the trip it ran in, kills the
	// worker, and is reported by WaitForShutdown. Callbacks have no status
	// return value, so a panic is the only failure they can report.
	ErrCallbackFailed = errors.New("worker: callback returned a non-ok status")

	// ErrWaitTimeout is carried on the Status passed to a WaitOneLowLevel
	// callback when the timeout elapsed before the wait source signalled.
	// It is reported via Status.Err with Status.Ok still true, since a
	// timeout is an expected, non-cancelled outcome the caller asked for.
	ErrWaitTimeout = errors.New("worker: wait source timed out")
)

// ForeignException wraps a panic recovered at the loop boundary, converting
// it to a status-carrying error per the exception<->status bridging rule:
// no host-language panic may unwind across the loop/callback boundary.
type ForeignException struct {
	Value any
}

// Error implements the error interface.
func (e *ForeignException) Error() string {
	return "worker: callback panicked: " + errString(e.Value)
}

func errString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "non-error panic value"
}

// Unwrap supports errors.Is/As against the recovered panic value, when it
// was itself an error.
func (e *ForeignException) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
