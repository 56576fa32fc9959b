package acquire

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"uedaq/device"
	"uedaq/frame"
	"uedaq/logger"
)

// Cycle drives one non-blocking frame grab against a detector handle.
//
// A capture run triggers an exposure, polls the device until it returns to
// its ready state, reads the captured frame back and applies the read-out
// correction. A live run reads the detector's preview frame without
// triggering. Cancellation is cooperative: the context is checked before
// every wait.
//
// Against a disconnected detector both run kinds skip hardware I/O and
// synthesize a placeholder frame after a simulated exposure, so the engine
// stays usable without hardware.
type Cycle struct {
	det          device.Detector
	log          logger.Logger
	pollInterval time.Duration
	settleDelay  time.Duration
	simExposure  time.Duration
	rng          *rand.Rand
	onTrigger    []func()
}

// CycleOption customizes a Cycle.
type CycleOption func(*Cycle)

// WithPollInterval sets the device state polling interval (default 250ms).
func WithPollInterval(d time.Duration) CycleOption {
	return func(c *Cycle) { c.pollInterval = d }
}

// WithSettleDelay sets the wait between triggering an exposure and the first
// state poll (default 100ms).
func WithSettleDelay(d time.Duration) CycleOption {
	return func(c *Cycle) { c.settleDelay = d }
}

// WithSimExposure sets the simulated exposure duration used when the
// detector is disconnected (default 1s).
func WithSimExposure(d time.Duration) CycleOption {
	return func(c *Cycle) { c.simExposure = d }
}

// WithCycleLogger sets the operational logger.
func WithCycleLogger(l logger.Logger) CycleOption {
	return func(c *Cycle) { c.log = l }
}

// WithTriggerFunc registers a function invoked when an exposure has been
// triggered, before the cycle starts waiting for the frame. The progress
// estimator hooks in here.
func WithTriggerFunc(fn func()) CycleOption {
	return func(c *Cycle) { c.onTrigger = append(c.onTrigger, fn) }
}

// WithRand sets the noise source for synthesized placeholder frames. A nil
// source produces fully deterministic placeholders.
func WithRand(rng *rand.Rand) CycleOption {
	return func(c *Cycle) { c.rng = rng }
}

// NewCycle creates a Cycle for the given detector handle. The cycle never
// owns the handle; callers must uphold the single-flight invariant (the
// Scheduler does this for the interactive regime).
func NewCycle(det device.Detector, opts ...CycleOption) *Cycle {
	c := &Cycle{
		det:          det,
		log:          logger.GetLogger(),
		pollInterval: 250 * time.Millisecond,
		settleDelay:  100 * time.Millisecond,
		simExposure:  time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run performs one capture cycle and returns exactly one Result. It blocks
// the calling goroutine; the Scheduler runs it on a worker. Communication
// faults are returned as failed Results, never propagated.
func (c *Cycle) Run(ctx context.Context) Result {
	// Checked before the exposure is triggered, so a canceled cycle never
	// commands the hardware.
	select {
	case <-ctx.Done():
		return Result{Err: canceled(ctx)}
	default:
	}

	if !c.det.Connected() {
		return c.runSimulated(ctx)
	}

	if err := c.det.AcquireAndDisplay(); err != nil {
		return Result{Err: err}
	}

	c.notifyTrigger()

	if err := c.sleep(ctx, c.settleDelay); err != nil {
		return Result{Err: err}
	}

	for {
		st, err := c.det.State()
		if err != nil {
			return Result{Err: err}
		}
		if st.IsReady() {
			break
		}

		c.log.Debug("waiting for detector", "state", st)
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return Result{Err: err}
		}
	}

	f, err := c.det.CapturedFrame()
	if err != nil {
		return Result{Err: err}
	}

	return Result{Frame: frame.Correct(f)}
}

// RunLive performs one live-preview cycle: a single read of the detector's
// preview frame with the read-out correction applied, no state polling.
func (c *Cycle) RunLive(ctx context.Context) Result {
	if !c.det.Connected() {
		return c.runSimulated(ctx)
	}

	select {
	case <-ctx.Done():
		return Result{Err: canceled(ctx)}
	default:
	}

	f, err := c.det.LiveFrame()
	if err != nil {
		return Result{Err: err}
	}

	return Result{Frame: frame.Correct(f)}
}

// runSimulated synthesizes a placeholder frame after a simulated exposure.
func (c *Cycle) runSimulated(ctx context.Context) Result {
	c.notifyTrigger()

	if err := c.sleep(ctx, c.simExposure); err != nil {
		return Result{Err: err}
	}

	f := frame.Synthetic(c.rng)
	f.CapturedAt = time.Now()

	return Result{Frame: f}
}

func (c *Cycle) notifyTrigger() {
	for _, fn := range c.onTrigger {
		fn()
	}
}

// sleep waits for d or until ctx is canceled, whichever comes first.
func (c *Cycle) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return canceled(ctx)
	case <-t.C:
		return nil
	}
}

func canceled(ctx context.Context) error {
	return fmt.Errorf("%w: %v", ErrCycleCanceled, ctx.Err())
}
