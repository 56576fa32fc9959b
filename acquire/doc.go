// Package acquire implements the interactive acquisition engine: the
// non-blocking, cancellable acquisition cycle, the single-flight poll
// scheduler that drives it on a live-view cadence or on demand, and the
// progress estimator that approximates in-flight exposure progress.
//
// Two concurrency regimes share these types. The interactive regime runs
// cycles on supervised worker goroutines owned by the Scheduler so the
// controlling thread never blocks; the scripted regime (package sequence)
// calls Cycle.Run synchronously and owns the detector handle for the whole
// run. The two regimes never access one detector handle at the same time.
package acquire
