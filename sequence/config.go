package sequence

import (
	"math/rand"
	"sync"
	"time"

	"uedaq/logger"
)

// Default run parameters, matching the instrument's standing configuration.
const (
	// DefaultExposure is the per-frame exposure time.
	DefaultExposure = 15 * time.Second
	// DefaultZeroOffset is the delay stage position corresponding to
	// time-zero, in the stage's picosecond-equivalent units.
	DefaultZeroOffset = 27.1083
	// DefaultReadyAttempts bounds the detector readiness poll during
	// initialization.
	DefaultReadyAttempts = 40
	// DefaultReadyInterval is the pause between readiness polls.
	DefaultReadyInterval = 250 * time.Millisecond
	// DefaultPollInterval is the acquisition cycle's state polling interval.
	DefaultPollInterval = 250 * time.Millisecond
)

// RunConfig carries the validated parameters of one experiment run. Build it
// with NewRunConfig; invalid parameters are rejected there and never reach
// the sequencing engine.
type RunConfig struct {
	mu sync.RWMutex

	// saveDir is the run directory that receives the experiment log and all
	// frame subdirectories.
	saveDir string

	// nScans is the number of times the full dark/background/sweep sequence
	// repeats.
	nScans int

	// delays is the sorted delay set in picoseconds; it is re-shuffled
	// independently for every scan.
	delays []float64

	// exposure is the per-frame exposure time applied to the detector during
	// initialization.
	exposure time.Duration

	// zeroOffset is added to each delay to derive the absolute stage
	// position.
	zeroOffset float64

	readyAttempts int
	readyInterval time.Duration
	pollInterval  time.Duration

	// simExposure paces synthesized frames when the detector is
	// disconnected.
	simExposure time.Duration

	// rng drives the per-scan delay shuffles; seedable for reproducible
	// tests.
	rng *rand.Rand

	logger logger.Logger
	sink   Sink
}

// NewRunConfig creates a run configuration for the given save directory,
// applying defaults and then the provided options. Every option validates
// its input; the first failure aborts construction.
func NewRunConfig(saveDir string, opts ...RunOption) (*RunConfig, error) {
	cfg := &RunConfig{
		saveDir:       saveDir,
		nScans:        1,
		exposure:      DefaultExposure,
		zeroOffset:    DefaultZeroOffset,
		readyAttempts: DefaultReadyAttempts,
		readyInterval: DefaultReadyInterval,
		pollInterval:  DefaultPollInterval,
		simExposure:   time.Second,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:        logger.GetLogger(),
	}

	if saveDir == "" {
		return nil, ErrSaveDirEmpty
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.sink == nil {
		cfg.sink = NewDirSink(cfg.saveDir)
	}

	return cfg, nil
}

func (cfg *RunConfig) SaveDir() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.saveDir
}

func (cfg *RunConfig) ScanCount() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.nScans
}

// Delays returns a copy of the sorted delay set.
func (cfg *RunConfig) Delays() []float64 {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	out := make([]float64, len(cfg.delays))
	copy(out, cfg.delays)

	return out
}

func (cfg *RunConfig) Exposure() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.exposure
}

func (cfg *RunConfig) ZeroOffset() float64 {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.zeroOffset
}

func (cfg *RunConfig) ReadyAttempts() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.readyAttempts
}

func (cfg *RunConfig) ReadyInterval() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.readyInterval
}

func (cfg *RunConfig) PollInterval() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.pollInterval
}

func (cfg *RunConfig) SimExposure() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.simExposure
}

func (cfg *RunConfig) Rand() *rand.Rand {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.rng
}

func (cfg *RunConfig) Logger() logger.Logger {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.logger
}

func (cfg *RunConfig) Sink() Sink {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.sink
}

// RunOption represents a functional option for configuring a RunConfig.
type RunOption interface {
	apply(*RunConfig) error
}

type runOptFunc struct {
	name      string
	applyFunc func(*RunConfig) error
}

func (o *runOptFunc) apply(cfg *RunConfig) error { return o.applyFunc(cfg) }

func newRunOptFunc(name string, f func(*RunConfig) error) *runOptFunc {
	return &runOptFunc{name: name, applyFunc: f}
}

// WithScanCount sets the number of scans; it must be at least 1.
func WithScanCount(n int) RunOption {
	return newRunOptFunc("WithScanCount", func(cfg *RunConfig) error {
		if n < 1 {
			return ErrInvalidScanCount
		}
		cfg.nScans = n

		return nil
	})
}

// WithDelays parses and sets the delay specification (see ParseDelays). A
// specification that yields no delays is rejected.
func WithDelays(spec string) RunOption {
	return newRunOptFunc("WithDelays", func(cfg *RunConfig) error {
		delays := ParseDelays(spec)
		if len(delays) == 0 {
			return ErrNoDelays
		}
		cfg.delays = delays

		return nil
	})
}

// WithDelayValues sets an already parsed, sorted delay set.
func WithDelayValues(delays []float64) RunOption {
	return newRunOptFunc("WithDelayValues", func(cfg *RunConfig) error {
		if len(delays) == 0 {
			return ErrNoDelays
		}
		cfg.delays = make([]float64, len(delays))
		copy(cfg.delays, delays)

		return nil
	})
}

// WithExposure sets the per-frame exposure time; it must be positive.
func WithExposure(d time.Duration) RunOption {
	return newRunOptFunc("WithExposure", func(cfg *RunConfig) error {
		if d <= 0 {
			return ErrInvalidExposure
		}
		cfg.exposure = d

		return nil
	})
}

// WithZeroOffset sets the delay stage's time-zero offset.
func WithZeroOffset(offset float64) RunOption {
	return newRunOptFunc("WithZeroOffset", func(cfg *RunConfig) error {
		cfg.zeroOffset = offset

		return nil
	})
}

// WithReadyAttempts bounds the detector readiness poll; it must be at
// least 1.
func WithReadyAttempts(n int) RunOption {
	return newRunOptFunc("WithReadyAttempts", func(cfg *RunConfig) error {
		if n < 1 {
			return ErrInvalidAttempts
		}
		cfg.readyAttempts = n

		return nil
	})
}

// WithReadyInterval sets the pause between readiness polls.
func WithReadyInterval(d time.Duration) RunOption {
	return newRunOptFunc("WithReadyInterval", func(cfg *RunConfig) error {
		if d <= 0 {
			return ErrInvalidInterval
		}
		cfg.readyInterval = d

		return nil
	})
}

// WithRunPollInterval sets the acquisition cycle's state polling interval.
func WithRunPollInterval(d time.Duration) RunOption {
	return newRunOptFunc("WithRunPollInterval", func(cfg *RunConfig) error {
		if d <= 0 {
			return ErrInvalidInterval
		}
		cfg.pollInterval = d

		return nil
	})
}

// WithSimExposure sets the simulated exposure used when the detector is
// disconnected.
func WithSimExposure(d time.Duration) RunOption {
	return newRunOptFunc("WithSimExposure", func(cfg *RunConfig) error {
		if d < 0 {
			return ErrInvalidExposure
		}
		cfg.simExposure = d

		return nil
	})
}

// WithRand sets the randomness source for per-scan delay shuffles. Seed it
// deterministically in tests.
func WithRand(rng *rand.Rand) RunOption {
	return newRunOptFunc("WithRand", func(cfg *RunConfig) error {
		if rng != nil {
			cfg.rng = rng
		}

		return nil
	})
}

// WithRunLogger sets the operational logger for the run.
func WithRunLogger(l logger.Logger) RunOption {
	return newRunOptFunc("WithRunLogger", func(cfg *RunConfig) error {
		if l != nil {
			cfg.logger = l
		}

		return nil
	})
}

// WithSink sets the frame sink; the default stores frames under the save
// directory.
func WithSink(sink Sink) RunOption {
	return newRunOptFunc("WithSink", func(cfg *RunConfig) error {
		if sink != nil {
			cfg.sink = sink
		}

		return nil
	})
}
