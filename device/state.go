package device

// State represents the operational state reported by a remote instrument.
//
// The source of truth lives on the device; the engine only observes a State
// through Detector.State and never caches it beyond a single read.
type State uint32

const (
	// StateUnknown indicates the device has not reported a state yet or the
	// last report could not be interpreted.
	StateUnknown State = iota
	// StateFault indicates the device reported a hardware or firmware fault.
	StateFault
	// StateOn indicates the device is idle and ready to accept a command.
	StateOn
	// StateRunning indicates an acquisition or motion is in progress.
	StateRunning
	// StateOpen indicates the device link is open but not yet ready.
	StateOpen
)

// IsReady returns true when the device is idle and ready for the next command.
func (s State) IsReady() bool { return s == StateOn }

// IsFaulted returns true for states that require re-initialization before use.
func (s State) IsFaulted() bool { return s == StateUnknown || s == StateFault }

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateFault:
		return "fault"
	case StateOn:
		return "on"
	case StateRunning:
		return "running"
	case StateOpen:
		return "open"
	default:
		return "invalid"
	}
}
