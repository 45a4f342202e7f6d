package worker

import "time"

// Metrics is an optional observer for the worker's trip cadence. It
// mirrors, at a much smaller scale, the counters the underlying loop keeps
// for itself (see go-eventloop's metrics.go): trip counts, thunk counts,
// and how long a trip actually blocked versus its quantum budget. None of
// it is required for correctness; a nil Metrics is always replaced with a
// no-op implementation.
type Metrics interface {
	// TripStarted is called once per outer trip, before draining the
	// mailbox.
	TripStarted()
	// ThunksDrained reports how many CallThreadsafe callbacks were
	// executed in the trip just completed.
	ThunksDrained(n int)
	// TripBlocked reports how long the trip actually spent yielded to the
	// underlying loop, for comparison against the configured quantum.
	TripBlocked(d time.Duration)
	// CallbackFailed is called when a callback panics and so aborts its
	// trip.
	CallbackFailed(err error)
}

type noopMetrics struct{}

func (noopMetrics) TripStarted()              {}
func (noopMetrics) ThunksDrained(int)         {}
func (noopMetrics) TripBlocked(time.Duration) {}
func (noopMetrics) CallbackFailed(error)      {}
