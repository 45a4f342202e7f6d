package worker

// Priority selects the queue a CallLowLevel submission enters within a
// single trip. Ordering within a class is FIFO; DEFAULT runs ahead of LOW
// within the same trip. This package makes no fairness guarantee across
// trips beyond "LOW work submitted this trip is deferred to the next".
type Priority int

const (
	// PriorityDefault submits directly onto the underlying loop's internal
	// priority queue, run in the current trip.
	PriorityDefault Priority = iota
	// PriorityLow defers the submission by one trip relative to
	// PriorityDefault submissions made at the same time.
	PriorityLow
)

// String returns a human-readable name for p.
func (p Priority) String() string {
	switch p {
	case PriorityDefault:
		return "DEFAULT"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}
