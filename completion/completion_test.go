package completion

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-workerloop/worker"
)

// fakePromise is the minimal promise a fakeScheduler mints: settle state
// plus a channel so a test can block until it fires.
type fakePromise struct {
	mu       sync.Mutex
	settled  bool
	value    any
	err      error
	settleCh chan struct{}
}

// fakeScheduler is a test-only Scheduler standing in for a real hosted
// coroutine runtime (e.g. hostworker's *eventloop.JS binding).
type fakeScheduler struct{}

func (fakeScheduler) NewPromise() (Promise, Resolve, Reject) {
	p := &fakePromise{settleCh: make(chan struct{})}
	resolve := func(v any) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.settled {
			return
		}
		p.settled = true
		p.value = v
		close(p.settleCh)
	}
	reject := func(err error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.settled {
			return
		}
		p.settled = true
		p.err = err
		close(p.settleCh)
	}
	return p, resolve, reject
}

func newDonatedWorker(t *testing.T) (*worker.Worker, chan error) {
	t.Helper()
	w, err := worker.New(worker.WithOwnedThread(false))
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- w.RunOnCurrentThread() }()
	return w, done
}

func TestCompletionEvent_ResolvesOnSignal(t *testing.T) {
	w, done := newDonatedWorker(t)
	defer func() {
		w.Kill()
		<-done
	}()

	ws := worker.NewManualWaitSource()
	ce := New(ws)

	var promiseVal Promise
	require.NoError(t, w.CallThreadsafe(func() {
		p, err := ce.Await(w, fakeScheduler{}, 0)
		require.NoError(t, err)
		promiseVal = p
	}))

	time.Sleep(20 * time.Millisecond)
	ws.Signal()

	require.Eventually(t, func() bool {
		fp, ok := promiseVal.(*fakePromise)
		return ok && fp.settled
	}, 2*time.Second, 5*time.Millisecond)

	fp := promiseVal.(*fakePromise)
	assert.NoError(t, fp.err)
	assert.Same(t, ce, fp.value)
}

func TestCompletionEvent_TwoAwaitersSeeSingleResolution(t *testing.T) {
	w, done := newDonatedWorker(t)
	defer func() {
		w.Kill()
		<-done
	}()

	ws := worker.NewManualWaitSource()
	ce := New(ws)

	var p1, p2 Promise
	require.NoError(t, w.CallThreadsafe(func() {
		var err error
		p1, err = ce.Await(w, fakeScheduler{}, 0)
		require.NoError(t, err)
		p2, err = ce.Await(w, fakeScheduler{}, 0)
		require.NoError(t, err)
	}))

	time.Sleep(20 * time.Millisecond)
	ws.Signal()

	for _, p := range []Promise{p1, p2} {
		p := p
		require.Eventually(t, func() bool {
			fp, ok := p.(*fakePromise)
			return ok && fp.settled
		}, 2*time.Second, 5*time.Millisecond)
		fp := p.(*fakePromise)
		assert.NoError(t, fp.err)
	}
}

func TestCompletionEvent_RejectsOnTimeout(t *testing.T) {
	w, done := newDonatedWorker(t)
	defer func() {
		w.Kill()
		<-done
	}()

	ws := worker.NewManualWaitSource()
	ce := New(ws)

	var promiseVal Promise
	require.NoError(t, w.CallThreadsafe(func() {
		p, err := ce.Await(w, fakeScheduler{}, 10*time.Millisecond)
		require.NoError(t, err)
		promiseVal = p
	}))

	require.Eventually(t, func() bool {
		fp, ok := promiseVal.(*fakePromise)
		return ok && fp.settled
	}, 2*time.Second, 5*time.Millisecond)

	fp := promiseVal.(*fakePromise)
	assert.ErrorIs(t, fp.err, worker.ErrWaitTimeout)
}

func TestCompletionEvent_RejectsOnWorkerShutdown(t *testing.T) {
	w, err := worker.New(worker.WithOwnedThread(false))
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- w.RunOnCurrentThread() }()

	ws := worker.NewManualWaitSource()
	ce := New(ws)

	var promiseVal Promise
	require.NoError(t, w.CallThreadsafe(func() {
		p, perr := ce.Await(w, fakeScheduler{}, 0)
		require.NoError(t, perr)
		promiseVal = p
		w.Kill()
	}))

	<-done

	require.Eventually(t, func() bool {
		fp, ok := promiseVal.(*fakePromise)
		return ok && fp.settled
	}, 2*time.Second, 5*time.Millisecond)

	fp := promiseVal.(*fakePromise)
	assert.ErrorIs(t, fp.err, ErrCancelled)
}
