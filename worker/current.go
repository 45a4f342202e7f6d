package worker

import (
	"sync"

	"github.com/joeycumines/go-workerloop/internal/gid"
)

// currentRegistry maps a running goroutine's ID to the Worker whose loop
// it is driving: a process-wide thread-local variable mapping the
// running thread to its Worker.
var currentRegistry sync.Map // map[int64]*Worker

// setCurrent records w as the Worker driven by the calling goroutine. Must
// be called at the top of the goroutine that will run w's loop, before
// OnThreadStart.
func setCurrent(w *Worker) {
	currentRegistry.Store(gid.Current(), w)
}

// clearCurrent removes the calling goroutine's Worker association, so that
// a later GetCurrent on this goroutine never observes a stale Worker.
// runLoop calls it right after OnThreadStop, once the underlying loop has
// already stopped; the association is therefore still present during
// OnThreadStop and is not removed before loop teardown.
func clearCurrent() {
	currentRegistry.Delete(gid.Current())
}

// GetCurrent returns the Worker whose loop is driving the calling
// goroutine, or ErrNoCurrentWorker if the caller is not running any
// Worker's loop.
func GetCurrent() (*Worker, error) {
	v, ok := currentRegistry.Load(gid.Current())
	if !ok {
		return nil, ErrNoCurrentWorker
	}
	return v.(*Worker), nil
}
