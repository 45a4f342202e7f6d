package foreground

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joeycumines/go-workerloop/worker"
)

// Coroutine is the user routine Run schedules onto the init worker via
// CallThreadsafe. w is the worker it is running on, useful for further
// CallLowLevel/WaitOneLowLevel submissions from within the coroutine.
type Coroutine func(w *worker.Worker) error

// Run obtains a donated-thread ("init") Worker built from opts, schedules
// coroutine on it, and drives its loop to completion:
//
//  1. Construct the init Worker (owned_thread=false is forced regardless
//     of what WithOwnedThread says in opts).
//  2. Post coroutine via CallThreadsafe; when it returns, Kill the
//     worker.
//  3. Run the loop on a sidecar goroutine, keeping this goroutine's
//     select loop watching for OS-interrupt signals, so a SIGINT/SIGTERM
//     cannot land in the middle of a cooperative trip: it is translated
//     into a Kill request instead of the Go runtime's default
//     process-terminating behaviour.
//  4. If the loop itself ends with an error (as opposed to coroutine's
//     own returned error), Kill is issued once more defensively before
//     returning, to guarantee shutdown was actually requested.
//
// coroutine's own returned error takes precedence over the loop's; both
// are nil on a clean run.
func Run(coroutine Coroutine, opts ...worker.Option) error {
	opts = append(append([]worker.Option{}, opts...), worker.WithOwnedThread(false))
	w, err := worker.New(opts...)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var coroErr error

	if err := w.CallThreadsafe(func() {
		if err := coroutine(w); err != nil {
			mu.Lock()
			coroErr = err
			mu.Unlock()
		}
		w.Kill()
	}); err != nil {
		return err
	}

	runErr := runShielded(w)
	if runErr != nil {
		// Best effort: ensure a kill was actually requested before
		// re-raising -- RunOnCurrentThread has already returned here, so
		// there is nothing left to join, only to make sure teardown was
		// not skipped.
		w.Kill()
	}

	mu.Lock()
	defer mu.Unlock()
	if coroErr != nil {
		return coroErr
	}
	return runErr
}

// runShielded spawns a sidecar goroutine to run w's loop inline, and
// watches for OS-interrupt signals on the calling goroutine for as long
// as the loop runs, translating each into a Kill request rather than
// letting the Go runtime's default signal disposition tear the process
// down mid-trip.
func runShielded(w *worker.Worker) error {
	joinDone := make(chan error, 1)
	go func() { joinDone <- w.RunOnCurrentThread() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case err := <-joinDone:
			return err
		case <-sigCh:
			w.Kill()
		}
	}
}
