package acquire

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"uedaq/logger"
)

// Scheduler owns the single-flight invariant and the live-view timer cadence
// for one detector handle.
//
// Start issues live cycles on a fixed interval; a tick that finds a cycle in
// flight is dropped, never queued. SingleShot bypasses the timer for one
// on-demand capture under the same guard. Stop cancels the timer and any
// in-flight cycle and blocks until every worker has observably terminated.
//
// The scheduler never retries a failed cycle; results, including failures,
// are delivered to the registered listeners and retry policy is the
// caller's.
type Scheduler struct {
	cycle     *Cycle
	log       logger.Logger
	tasks     *TaskRunner
	flight    flightGuard
	mu        sync.Mutex // serializes Start, Stop, SingleShot, WithAcquisitionPaused
	live      bool
	interval  time.Duration
	listeners *xsync.MapOf[uint64, ResultListener]
	nextID    atomic.Uint64
}

// NewScheduler creates a Scheduler issuing the given cycle.
func NewScheduler(cycle *Cycle, l logger.Logger) *Scheduler {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Scheduler{
		cycle:     cycle,
		log:       l,
		tasks:     NewTaskRunner(context.Background(), l),
		listeners: xsync.NewMapOf[uint64, ResultListener](),
	}
}

// AddResultListener registers a listener for cycle results and returns its
// registration id.
func (s *Scheduler) AddResultListener(fn ResultListener) uint64 {
	id := s.nextID.Add(1)
	s.listeners.Store(id, fn)

	return id
}

// RemoveResultListener unregisters a listener by its registration id.
func (s *Scheduler) RemoveResultListener(id uint64) {
	s.listeners.Delete(id)
}

// Start begins issuing live cycles every interval. It returns
// ErrLiveViewRunning if the live view is already active.
func (s *Scheduler) Start(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.startLocked(interval)
}

func (s *Scheduler) startLocked(interval time.Duration) error {
	if s.live {
		return ErrLiveViewRunning
	}

	if _, err := s.tasks.StartInterval("liveview", s.tick, interval); err != nil {
		return err
	}

	s.live = true
	s.interval = interval
	s.log.Info("live view started", "interval", interval)

	return nil
}

// tick issues one live cycle per timer tick, dropping the tick when a cycle
// is still in flight.
func (s *Scheduler) tick() bool {
	if !s.flight.TryAcquire() {
		s.log.Debug("live tick dropped, cycle in flight")
		return true
	}

	// The guard is released by the worker's exit hook, not the task body: a
	// worker canceled before its first iteration must still release it.
	ctx := s.tasks.Context()
	err := s.tasks.StartWithExit("live-cycle", func() bool {
		s.deliver(s.cycle.RunLive(ctx))

		return false
	}, s.flight.Release)
	if err != nil {
		s.flight.Release()
		return false
	}

	return true
}

// Stop cancels the timer and any in-flight cycle and blocks until all
// workers have terminated. After Stop returns, no acquisition is running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	s.tasks.Stop()
	s.tasks.Wait()

	if s.live {
		s.log.Info("live view stopped")
	}
	s.live = false
}

// SingleShot issues one on-demand capture cycle off the timer path. It
// returns ErrCycleInFlight if a cycle is already running.
func (s *Scheduler) SingleShot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.flight.TryAcquire() {
		return ErrCycleInFlight
	}

	ctx := s.tasks.Context()
	err := s.tasks.StartWithExit("single-shot", func() bool {
		s.deliver(s.cycle.Run(ctx))

		return false
	}, s.flight.Release)
	if err != nil {
		s.flight.Release()
		return err
	}

	return nil
}

// WithAcquisitionPaused stops the live view, joins any in-flight cycle, runs
// fn, and restarts the live view if it was running. Use it for detector
// reconfiguration (exposure, trigger mode) that must not race a live
// acquisition on the same handle.
func (s *Scheduler) WithAcquisitionPaused(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasLive := s.live
	interval := s.interval
	s.stopLocked()

	err := fn()

	if wasLive {
		if restartErr := s.startLocked(interval); restartErr != nil && err == nil {
			err = restartErr
		}
	}

	return err
}

// LiveRunning reports whether the live-view timer is active.
func (s *Scheduler) LiveRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.live
}

// InFlight reports whether an acquisition cycle is currently running.
func (s *Scheduler) InFlight() bool {
	return s.flight.InFlight()
}

func (s *Scheduler) deliver(res Result) {
	if res.Failed() {
		s.log.Warn("acquisition cycle failed", "error", res.Err)
	}

	s.listeners.Range(func(_ uint64, fn ResultListener) bool {
		fn(res)
		return true
	})
}
