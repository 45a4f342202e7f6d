package worker

import "sync"

// mailbox is the cross-thread FIFO: a mutex-protected queue of deferred,
// zero-argument callbacks submitted
// from off-loop (i.e. from any goroutine other than the one currently
// driving this Worker's loop).
//
// Submission (push) is O(1) amortized and never blocks on loop work: it
// only ever holds mu for an append. Draining swaps the whole pending
// slice into next under the mutex, then the caller executes next without
// holding it, so callback execution never contends with a concurrent
// submitter.
type mailbox struct {
	mu      sync.Mutex
	pending []func()
	next    []func()
	killed  bool
}

// push appends cb to the pending queue. Returns false if the mailbox has
// already observed a Kill; the caller is never run.
func (m *mailbox) push(cb func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.killed {
		return false
	}
	m.pending = append(m.pending, cb)
	return true
}

// kill marks the mailbox as killed, discarding any work not yet drained
// into next. In-flight execution of a prior drain's next slice is
// unaffected: callbacks already dispatched for the current trip
// complete, and it is only pending mailbox content that is discarded
// after the final drain.
func (m *mailbox) kill() {
	m.mu.Lock()
	m.killed = true
	m.pending = nil
	m.mu.Unlock()
}

// drain swaps pending into next (clearing pending), and returns next for
// the caller to execute without holding the mutex. Must only be called
// from the worker's own thread.
func (m *mailbox) drain() []func() {
	m.mu.Lock()
	m.next, m.pending = m.pending, m.next[:0]
	m.mu.Unlock()
	return m.next
}

func (m *mailbox) isKilled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.killed
}
