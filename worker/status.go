package worker

// Status is the outcome reported to a CallLowLevel-family callback. It
// distinguishes ordinary success from cancellation (the submission was
// torn down by Kill before it could run) from failure (Err set without
// Ok, as built by StatusError).
type Status struct {
	// Ok is true when the callback should treat this as ordinary success.
	Ok bool
	// Cancelled is true when the submission never ran because the loop
	// was killed first; mutually exclusive with Ok.
	Cancelled bool
	// Err carries the failure reason when neither Ok nor Cancelled. It is
	// also set, together with Ok, to ErrWaitTimeout when a WaitOneLowLevel
	// timeout elapsed before the wait source signalled.
	Err error
}

// StatusOK is the zero-allocation success status.
var StatusOK = Status{Ok: true}

// StatusCancelled reports a submission that was torn down at shutdown
// rather than run.
var StatusCancelled = Status{Cancelled: true}

// StatusError wraps err as a failure status.
func StatusError(err error) Status {
	return Status{Err: err}
}

// String implements fmt.Stringer for diagnostic logging.
func (s Status) String() string {
	switch {
	case s.Ok:
		return "ok"
	case s.Cancelled:
		return "cancelled"
	case s.Err != nil:
		return "error: " + s.Err.Error()
	default:
		return "unknown"
	}
}
