package acquire

import "errors"

var (
	// ErrCycleInFlight indicates that an acquisition cycle is already running
	// against the detector. The single-flight invariant allows at most one.
	ErrCycleInFlight = errors.New("acquisition cycle already in flight")

	// ErrLiveViewRunning indicates that the scheduler's live-view timer is
	// already active.
	ErrLiveViewRunning = errors.New("live view already running")

	// ErrCycleCanceled indicates that an acquisition cycle was canceled
	// before a frame arrived.
	ErrCycleCanceled = errors.New("acquisition cycle canceled")

	// ErrRunnerStopped indicates that a task was submitted to a task runner
	// that has been stopped.
	ErrRunnerStopped = errors.New("task runner already stopped")
)
