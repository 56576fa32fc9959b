package sequence

import "sync/atomic"

// RunState represents the sequencer's position in the experiment state
// machine: Initializing → per-scan {DarkRef, LaserBg, PumpOff, DelaySweep} →
// Completing | Aborted.
type RunState uint32

const (
	// RunIdle is the state before Run has been called.
	RunIdle RunState = iota
	// RunInitializing covers detector readiness, exposure setup, shutter
	// mode and output directory creation.
	RunInitializing
	// RunDarkRef is the dark/reference acquisition with both shutters closed.
	RunDarkRef
	// RunLaserBg is the laser-background acquisition, pump open, probe
	// closed.
	RunLaserBg
	// RunPumpOff is the pump-off acquisition, pump closed, probe open.
	RunPumpOff
	// RunDelaySweep is the per-delay stage-move-and-acquire loop.
	RunDelaySweep
	// RunCompleting covers shutter shutdown and the completion record.
	RunCompleting
	// RunAborted indicates the run ended with a fatal error.
	RunAborted
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	switch s {
	case RunIdle:
		return "idle"
	case RunInitializing:
		return "initializing"
	case RunDarkRef:
		return "dark-ref"
	case RunLaserBg:
		return "laser-bg"
	case RunPumpOff:
		return "pump-off"
	case RunDelaySweep:
		return "delay-sweep"
	case RunCompleting:
		return "completing"
	case RunAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// atomicRunState holds the observable run state. Only the sequencer
// goroutine writes it; any goroutine may read it.
type atomicRunState struct {
	state atomic.Uint32
}

func (st *atomicRunState) Get() RunState {
	return RunState(st.state.Load())
}

func (st *atomicRunState) Set(state RunState) {
	st.state.Store(uint32(state))
}
