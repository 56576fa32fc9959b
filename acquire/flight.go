package acquire

import "sync/atomic"

const (
	flightIdle uint32 = iota
	flightActive
)

// flightGuard enforces the single-flight invariant: at most one acquisition
// cycle may run against a detector handle at any time. Acquisition is a
// compare-and-swap so concurrent timer ticks and manual requests race safely;
// losers observe false and drop their attempt.
type flightGuard struct {
	state atomic.Uint32
}

// TryAcquire attempts to claim the in-flight slot. It returns false if a
// cycle is already running.
func (g *flightGuard) TryAcquire() bool {
	return g.state.CompareAndSwap(flightIdle, flightActive)
}

// Release returns the slot to idle. It must be called exactly once per
// successful TryAcquire, after the cycle has observably terminated.
func (g *flightGuard) Release() {
	g.state.Store(flightIdle)
}

// InFlight reports whether a cycle currently holds the slot.
func (g *flightGuard) InFlight() bool {
	return g.state.Load() == flightActive
}
