package acquire

import "uedaq/frame"

// Result is the outcome of one acquisition cycle. Exactly one Result is
// produced per cycle invocation: either a corrected frame or the failure
// reason, never both. Ownership of the frame transfers to the receiver.
type Result struct {
	Frame *frame.Frame
	Err   error
}

// Failed reports whether the cycle ended without a frame.
func (r Result) Failed() bool { return r.Err != nil }

// ResultListener consumes cycle results delivered by the scheduler.
type ResultListener func(Result)
