package sequence

import "errors"

var (
	// ErrDetectorNotReady indicates that the detector did not reach its ready
	// state within the configured attempt budget during initialization. This
	// failure is fatal and aborts the run before any hardware motion.
	ErrDetectorNotReady = errors.New("detector did not reach ready state")

	// ErrNoDelays indicates that the delay specification was empty or
	// unparseable.
	ErrNoDelays = errors.New("delay list is empty or unparseable")

	// ErrInvalidScanCount indicates a scan count below 1.
	ErrInvalidScanCount = errors.New("scan count must be at least 1")

	// ErrInvalidExposure indicates a non-positive exposure time.
	ErrInvalidExposure = errors.New("exposure time must be positive")

	// ErrInvalidAttempts indicates an attempt budget below 1.
	ErrInvalidAttempts = errors.New("attempt budget must be at least 1")

	// ErrInvalidInterval indicates a non-positive polling interval.
	ErrInvalidInterval = errors.New("polling interval must be positive")

	// ErrSaveDirEmpty indicates that no save directory was specified.
	ErrSaveDirEmpty = errors.New("save directory not specified")

	// ErrLogClosed indicates an append to an already closed experiment log.
	ErrLogClosed = errors.New("experiment log already closed")
)
