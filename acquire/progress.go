package acquire

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"uedaq/device"
	"uedaq/logger"
)

// defaultProgressScale converts exposure seconds to progress ticks; one tick
// per 10ms of configured exposure.
const defaultProgressScale = 100

// ProgressEstimator approximates in-flight exposure progress for the UI
// without coupling to the true completion time.
//
// HandleTrigger starts a ticking loop that advances a bounded counter at a
// fixed rate toward a maximum derived from the configured exposure time; the
// counter saturates and holds if the real exposure overruns the estimate.
// HandleFrame cancels the loop, joins it, and only then resets the counter
// and recomputes the maximum, so a stale tick can never overwrite the reset.
type ProgressEstimator struct {
	det          device.Detector
	log          logger.Logger
	tickInterval time.Duration
	scale        int64

	mu     sync.Mutex // serializes HandleTrigger and HandleFrame
	cancel context.CancelFunc
	done   chan struct{}

	value atomic.Int64
	max   atomic.Int64

	listeners *xsync.MapOf[uint64, func(value, max int64)]
	nextID    atomic.Uint64
}

// ProgressOption customizes a ProgressEstimator.
type ProgressOption func(*ProgressEstimator)

// WithTickInterval sets the counter advance rate (default 10ms).
func WithTickInterval(d time.Duration) ProgressOption {
	return func(p *ProgressEstimator) { p.tickInterval = d }
}

// WithProgressScale sets the exposure-seconds-to-ticks factor (default 100).
func WithProgressScale(scale int64) ProgressOption {
	return func(p *ProgressEstimator) { p.scale = scale }
}

// WithProgressLogger sets the operational logger.
func WithProgressLogger(l logger.Logger) ProgressOption {
	return func(p *ProgressEstimator) { p.log = l }
}

// NewProgressEstimator creates an estimator for the given detector handle.
func NewProgressEstimator(det device.Detector, opts ...ProgressOption) *ProgressEstimator {
	p := &ProgressEstimator{
		det:          det,
		log:          logger.GetLogger(),
		tickInterval: 10 * time.Millisecond,
		scale:        defaultProgressScale,
		listeners:    xsync.NewMapOf[uint64, func(value, max int64)](),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.max.Store(p.computeMax())

	return p
}

// HandleTrigger starts the ticking loop. Wire it to the cycle via
// WithTriggerFunc. A trigger while a loop is already ticking is ignored.
func (p *ProgressEstimator) HandleTrigger() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.tickLoop(ctx, done)
}

// HandleFrame stops the ticking loop, blocks until it has exited, then
// resets the counter and recomputes the maximum from the current exposure
// configuration. Wire it to the scheduler's result delivery.
func (p *ProgressEstimator) HandleFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	p.value.Store(0)
	p.max.Store(p.computeMax())
}

// Stop terminates any ticking loop and joins it. After Stop returns, no
// estimator tick is still running.
func (p *ProgressEstimator) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
}

func (p *ProgressEstimator) stopLocked() {
	if p.cancel == nil {
		return
	}

	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
}

// Value returns the current progress counter.
func (p *ProgressEstimator) Value() int64 {
	return p.value.Load()
}

// Max returns the current progress maximum.
func (p *ProgressEstimator) Max() int64 {
	return p.max.Load()
}

// AddAdvanceListener registers a listener invoked on every counter advance.
func (p *ProgressEstimator) AddAdvanceListener(fn func(value, max int64)) uint64 {
	id := p.nextID.Add(1)
	p.listeners.Store(id, fn)

	return id
}

// RemoveAdvanceListener unregisters a listener by its registration id.
func (p *ProgressEstimator) RemoveAdvanceListener(id uint64) {
	p.listeners.Delete(id)
}

func (p *ProgressEstimator) tickLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			max := p.max.Load()
			v := p.value.Load()
			if v < max {
				v = p.value.Add(1)
			}

			p.listeners.Range(func(_ uint64, fn func(value, max int64)) bool {
				fn(v, max)
				return true
			})
		}
	}
}

// computeMax derives the tick ceiling from the detector's configured
// exposure; disconnected detectors get a fixed default span.
func (p *ProgressEstimator) computeMax() int64 {
	if p.det == nil || !p.det.Connected() {
		return defaultProgressScale
	}

	exp, err := p.det.Exposure()
	if err != nil {
		p.log.Warn("cannot read exposure for progress estimate", "error", err)
		return defaultProgressScale
	}

	max := int64(exp.Seconds() * float64(p.scale))
	if max < 1 {
		max = 1
	}

	return max
}
