package foreground

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/go-workerloop/worker"
)

func TestRun_CleanCoroutineReturnsNil(t *testing.T) {
	ran := make(chan struct{})
	err := Run(func(w *worker.Worker) error {
		close(ran)
		return nil
	})
	assert.NoError(t, err)
	select {
	case <-ran:
	default:
		t.Fatal("coroutine never ran")
	}
}

func TestRun_PropagatesCoroutineError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(func(w *worker.Worker) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRun_ForcesDonatedThread(t *testing.T) {
	// Passing WithOwnedThread(true) must not override Run's own forced
	// donated-thread construction, since Run drives the loop through
	// RunOnCurrentThread on its own sidecar goroutine.
	err := Run(func(w *worker.Worker) error {
		return nil
	}, worker.WithOwnedThread(true))
	assert.NoError(t, err)
}

func TestRun_CoroutinePanicIsReportedAsCallbackFailed(t *testing.T) {
	err := Run(func(w *worker.Worker) error {
		panic("kaboom")
	})
	assert.Error(t, err)
	assert.ErrorIs(t, err, worker.ErrCallbackFailed)
}
