package hostworker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventloop "github.com/joeycumines/go-eventloop"

	"github.com/joeycumines/go-workerloop/completion"
	"github.com/joeycumines/go-workerloop/worker"
)

func TestHost_InstallsBindingOnThreadStart(t *testing.T) {
	h := NewHost()
	w, err := worker.New(worker.WithOwnedThread(false), h.Options())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.RunOnCurrentThread() }()

	require.Eventually(t, func() bool {
		_, ok := h.Binding(w)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Err(w))

	b, ok := h.Binding(w)
	require.True(t, ok)

	v, rerr := b.Runtime().RunString("1 + 1")
	require.NoError(t, rerr)
	assert.Equal(t, int64(2), v.ToInteger())

	w.Kill()
	<-done

	_, ok = h.Binding(w)
	assert.False(t, ok, "binding must be removed on thread stop")
}

func TestHost_BindingSatisfiesCompletionScheduler(t *testing.T) {
	h := NewHost()
	w, err := worker.New(worker.WithOwnedThread(false), h.Options())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.RunOnCurrentThread() }()
	defer func() {
		w.Kill()
		<-done
	}()

	ws := worker.NewManualWaitSource()
	ce := completion.New(ws)

	var promiseVal completion.Promise
	require.NoError(t, w.CallThreadsafe(func() {
		b, ok := h.Binding(w)
		require.True(t, ok)

		var sched completion.Scheduler = b
		p, perr := ce.Await(w, sched, 0)
		require.NoError(t, perr)
		promiseVal = p
	}))

	require.Eventually(t, func() bool {
		return promiseVal != nil
	}, 2*time.Second, 5*time.Millisecond)

	cp, ok := promiseVal.(*eventloop.ChainedPromise)
	require.True(t, ok)
	assert.Equal(t, eventloop.Pending, cp.State())

	ws.Signal()

	require.Eventually(t, func() bool {
		return cp.State() != eventloop.Pending
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, eventloop.Resolved, cp.State())
}
