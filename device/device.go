// Package device defines the collaborator contracts for the remote
// instruments the acquisition engine drives: the area detector, the optical
// shutters and the motorized delay stage. It also provides simulated
// implementations that let the engine run without hardware.
//
// Every method on these interfaces may fail with a *CommError; the engine
// treats such faults as per-cycle failures and lets the caller decide whether
// to retry.
package device

import (
	"time"

	"uedaq/frame"
)

// Detector is the handle to a remote area detector.
type Detector interface {
	// State reads the current device state. The result must not be cached.
	State() (State, error)

	// InitDevice re-initializes a device that reports an unknown or faulted
	// state.
	InitDevice() error

	// AcquireAndDisplay commands the detector to start one exposure. The
	// detector leaves the ready state while the exposure runs and returns to
	// it when the frame is available via CapturedFrame.
	AcquireAndDisplay() error

	// LiveFrame reads the most recent preview frame without triggering an
	// exposure.
	LiveFrame() (*frame.Frame, error)

	// CapturedFrame reads the frame produced by the last AcquireAndDisplay.
	CapturedFrame() (*frame.Frame, error)

	// SetExposure configures the exposure time for subsequent acquisitions.
	SetExposure(d time.Duration) error

	// Exposure reads the currently configured exposure time.
	Exposure() (time.Duration, error)

	// Connected reports whether a connection to the detector is established.
	// A disconnected detector makes the engine synthesize placeholder frames
	// instead of performing hardware I/O.
	Connected() bool
}

// ShutterMode is the operating mode of an optical shutter controller.
type ShutterMode string

const (
	// ShutterModeManual drives the shutter through explicit Enable calls.
	ShutterModeManual ShutterMode = "manual"
	// ShutterModeAuto lets the shutter controller follow its external gate.
	ShutterModeAuto ShutterMode = "auto"
)

// Shutter is the handle to an optical shutter controller.
type Shutter interface {
	// SetOperatingMode switches the controller between manual and automatic
	// operation.
	SetOperatingMode(mode ShutterMode) error

	// Enable opens (true) or closes (false) the shutter.
	Enable(open bool) error
}

// DelayStage is the handle to the motorized pump-probe delay stage.
type DelayStage interface {
	// MoveAbsolute starts a move to the absolute position derived from the
	// delay in picoseconds plus the stage's time-zero offset.
	MoveAbsolute(delayPS, zeroOffset float64) error

	// WaitUntilStopped blocks until the stage has come to rest.
	WaitUntilStopped() error
}
