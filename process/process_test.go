package process

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-workerloop/worker"
)

func newDonatedScope(t *testing.T) (WorkerScope, chan error) {
	t.Helper()
	w, err := worker.New(worker.WithOwnedThread(false))
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- w.RunOnCurrentThread() }()
	return WorkerScope{W: w}, done
}

func TestProcess_SynchronousRunTerminatesImmediately(t *testing.T) {
	scope, done := newDonatedScope(t)
	defer func() {
		scope.W.Kill()
		<-done
	}()

	ran := make(chan struct{})
	p := New(scope, RunnableFunc(func() error {
		close(ran)
		return nil
	}))

	require.NoError(t, p.Launch())

	select {
	case <-p.OnTermination().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process never terminated")
	}

	select {
	case <-ran:
	default:
		t.Fatal("runnable never ran")
	}
	assert.Equal(t, Terminated, p.State())
	assert.NoError(t, p.Err())
	assert.Positive(t, p.PID())
}

func TestProcess_SynchronousRunPropagatesError(t *testing.T) {
	scope, done := newDonatedScope(t)
	defer func() {
		scope.W.Kill()
		<-done
	}()

	boom := errors.New("boom")
	p := New(scope, RunnableFunc(func() error { return boom }))
	require.NoError(t, p.Launch())

	<-p.OnTermination().Done()
	assert.ErrorIs(t, p.Err(), boom)
}

func TestProcess_Launch_Idempotent(t *testing.T) {
	scope, done := newDonatedScope(t)
	defer func() {
		scope.W.Kill()
		<-done
	}()

	p := New(scope, RunnableFunc(func() error { return nil }))
	require.NoError(t, p.Launch())
	assert.ErrorIs(t, p.Launch(), ErrAlreadyLaunched)
}

// fakeContinuation is a Continuation a test can signal manually, letting
// it exercise the asynchronous Run() path.
type fakeContinuation struct {
	done chan struct{}
	err  error
}

func newFakeContinuation() *fakeContinuation {
	return &fakeContinuation{done: make(chan struct{})}
}

func (c *fakeContinuation) Done() <-chan struct{} { return c.done }
func (c *fakeContinuation) Err() error             { return c.err }
func (c *fakeContinuation) finish(err error) {
	c.err = err
	close(c.done)
}

func TestProcess_AsynchronousRunTerminatesOnContinuation(t *testing.T) {
	scope, done := newDonatedScope(t)
	defer func() {
		scope.W.Kill()
		<-done
	}()

	cont := newFakeContinuation()
	p := New(scope, RunnableFunc2(func() (Continuation, error) {
		return cont, nil
	}))
	require.NoError(t, p.Launch())

	// Give the worker a moment to reach Running via the asynchronous path
	// before signalling the continuation.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, Running, p.State())

	cont.finish(errors.New("continuation failed"))

	select {
	case <-p.OnTermination().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process never observed continuation completion")
	}
	assert.Equal(t, Terminated, p.State())
	assert.EqualError(t, p.Err(), "continuation failed")
}

// RunnableFunc2 adapts a plain function returning (Continuation, error)
// to Runnable, for tests exercising the asynchronous path directly.
type RunnableFunc2 func() (Continuation, error)

func (f RunnableFunc2) Run() (Continuation, error) { return f() }

func TestProcess_MultipleObserversAllSeeTermination(t *testing.T) {
	scope, done := newDonatedScope(t)
	defer func() {
		scope.W.Kill()
		<-done
	}()

	p := New(scope, RunnableFunc(func() error { return nil }))
	require.NoError(t, p.Launch())

	const n = 5
	results := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			<-p.OnTermination().Done()
			results <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		select {
		case <-results:
		case <-time.After(2 * time.Second):
			t.Fatal("an observer never saw termination")
		}
	}
}
