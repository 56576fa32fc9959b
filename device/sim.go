package device

import (
	"errors"
	"sync"
	"time"

	"uedaq/frame"
)

// SimDetector is an in-process Detector used by tests and for running the
// engine without hardware. A connected SimDetector emulates the exposure
// timing of a real camera: AcquireAndDisplay leaves the ready state for the
// configured exposure time and CapturedFrame returns the produced frame.
//
// Scripted faults let tests exercise the engine's retry behavior.
type SimDetector struct {
	mu        sync.Mutex
	connected bool
	exposure  time.Duration
	busyUntil time.Time
	captured  *frame.Frame
	seq       uint16
	failnext  int
	inited    bool
}

var _ Detector = (*SimDetector)(nil)

// NewSimDetector creates a connected simulated detector with a short default
// exposure.
func NewSimDetector() *SimDetector {
	return &SimDetector{connected: true, exposure: 100 * time.Millisecond}
}

// Disconnect marks the detector as unreachable. The engine reacts by
// synthesizing placeholder frames instead of calling the handle.
func (d *SimDetector) Disconnect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
}

// FailNextAcquisitions scripts the next n AcquireAndDisplay calls to fail
// with a communication fault.
func (d *SimDetector) FailNextAcquisitions(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failnext = n
}

// Inited reports whether InitDevice has been called.
func (d *SimDetector) Inited() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inited
}

func (d *SimDetector) State() (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return StateUnknown, NewCommError("state", ErrDisconnected)
	}
	if time.Now().Before(d.busyUntil) {
		return StateRunning, nil
	}
	return StateOn, nil
}

func (d *SimDetector) InitDevice() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return NewCommError("init_device", ErrDisconnected)
	}
	d.inited = true
	return nil
}

func (d *SimDetector) AcquireAndDisplay() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return NewCommError("acquire_and_display", ErrDisconnected)
	}
	if d.failnext > 0 {
		d.failnext--
		return NewCommError("acquire_and_display", errors.New("simulated link fault"))
	}
	d.busyUntil = time.Now().Add(d.exposure)
	d.seq++
	d.captured = d.testPattern()
	return nil
}

func (d *SimDetector) LiveFrame() (*frame.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil, NewCommError("live_frame", ErrDisconnected)
	}
	d.seq++
	return d.testPattern(), nil
}

func (d *SimDetector) CapturedFrame() (*frame.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil, NewCommError("captured_frame", ErrDisconnected)
	}
	if d.captured == nil {
		return nil, NewCommError("captured_frame", ErrNoFrame)
	}
	return d.captured.Clone(), nil
}

func (d *SimDetector) SetExposure(exp time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return NewCommError("set_exposure", ErrDisconnected)
	}
	d.exposure = exp
	return nil
}

func (d *SimDetector) Exposure() (time.Duration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return 0, NewCommError("exposure", ErrDisconnected)
	}
	return d.exposure, nil
}

func (d *SimDetector) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// testPattern builds a small gradient frame tagged with the acquisition
// sequence number so tests can tell frames apart.
func (d *SimDetector) testPattern() *frame.Frame {
	f := frame.New(16, 16)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			f.Set(x, y, d.seq+uint16(y*f.Width+x))
		}
	}
	f.CapturedAt = time.Now()
	return f
}

// SimShutter is an in-process Shutter that records every command it receives.
type SimShutter struct {
	mu   sync.Mutex
	mode ShutterMode
	open bool
}

var _ Shutter = (*SimShutter)(nil)

func NewSimShutter() *SimShutter {
	return &SimShutter{mode: ShutterModeAuto}
}

func (s *SimShutter) SetOperatingMode(mode ShutterMode) error {
	if mode != ShutterModeManual && mode != ShutterModeAuto {
		return ErrInvalidShutterMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}

func (s *SimShutter) Enable(open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
	return nil
}

// Mode returns the current operating mode.
func (s *SimShutter) Mode() ShutterMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// IsOpen reports whether the shutter is currently open.
func (s *SimShutter) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// SimStage is an in-process DelayStage that records the sequence of
// commanded delay positions.
type SimStage struct {
	mu     sync.Mutex
	moving bool
	moves  []float64
}

var _ DelayStage = (*SimStage)(nil)

func NewSimStage() *SimStage {
	return &SimStage{}
}

func (s *SimStage) MoveAbsolute(delayPS, zeroOffset float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moving = true
	s.moves = append(s.moves, delayPS)
	return nil
}

func (s *SimStage) WaitUntilStopped() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moving = false
	return nil
}

// Moves returns the commanded delay values in order.
func (s *SimStage) Moves() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.moves))
	copy(out, s.moves)
	return out
}
