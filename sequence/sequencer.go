package sequence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"uedaq/acquire"
	"uedaq/device"
	"uedaq/logger"
)

// Fixed output subdirectories, created once per run.
const (
	DirDark    = "dark_image"
	DirLaserBg = "laser_background"
	DirPumpOff = "pump_off"
)

// Sequencer drives one full experiment run: for each of N scans it acquires
// dark, laser-background and pump-off reference frames, then sweeps a
// shuffled delay list, moving the stage and acquiring one pump-on frame per
// delay.
//
// The sequencer is the scripted regime: it runs on a single logical thread,
// every hardware call is synchronous from its point of view, and it assumes
// exclusive ownership of the detector handle for the run's duration. Each
// acquisition step retries indefinitely on transient faults; only
// initialization failures and unclassified errors abort the run.
type Sequencer struct {
	cfg   *RunConfig
	det   device.Detector
	pump  device.Shutter
	probe device.Shutter
	stage device.DelayStage
	cycle *acquire.Cycle
	log   logger.Logger
	state atomicRunState
	elog  *ExperimentLog
}

// NewSequencer assembles a sequencer from a validated run configuration and
// the hardware handles. The handles stay owned by the caller.
func NewSequencer(cfg *RunConfig, det device.Detector, pump, probe device.Shutter, stage device.DelayStage) *Sequencer {
	return &Sequencer{
		cfg:   cfg,
		det:   det,
		pump:  pump,
		probe: probe,
		stage: stage,
		log:   cfg.Logger(),
		cycle: acquire.NewCycle(det,
			acquire.WithPollInterval(cfg.PollInterval()),
			acquire.WithSimExposure(cfg.SimExposure()),
			acquire.WithCycleLogger(cfg.Logger()),
		),
	}
}

// State returns the sequencer's current position in the run state machine.
func (s *Sequencer) State() RunState {
	return s.state.Get()
}

// Run executes the experiment. It blocks until all scans complete or a fatal
// error occurs. Every exit path appends the failure (if any) to the
// experiment log and closes it, so the log always reflects the point the run
// reached.
func (s *Sequencer) Run(ctx context.Context) (err error) {
	elog, err := OpenExperimentLog(s.cfg.SaveDir())
	if err != nil {
		return err
	}
	s.elog = elog

	defer func() {
		if err != nil {
			s.state.Set(RunAborted)
			s.elog.Append(err.Error())
			s.log.Error("experiment aborted", "error", err)
		}
		s.elog.Close()
	}()

	delays := s.cfg.Delays()
	s.state.Set(RunInitializing)
	s.elog.Appendf("starting experiment with %d scans at %d delays", s.cfg.ScanCount(), len(delays))
	if err = s.elog.Flush(); err != nil {
		return err
	}

	if err = s.initialize(ctx); err != nil {
		return err
	}

	for scan := 1; scan <= s.cfg.ScanCount(); scan++ {
		if err = s.runScan(ctx, scan, delays); err != nil {
			return err
		}
	}

	s.state.Set(RunCompleting)
	if err = s.pump.Enable(false); err != nil {
		return err
	}
	if err = s.probe.Enable(false); err != nil {
		return err
	}

	s.elog.Append("EXPERIMENT COMPLETE")
	s.log.Info("experiment complete", "scans", s.cfg.ScanCount())

	return nil
}

// initialize brings the hardware to its run configuration: detector ready
// and exposed, shutters in manual mode, output directories in place. A
// readiness timeout here is fatal and aborts the run before any motion.
func (s *Sequencer) initialize(ctx context.Context) error {
	if s.det.Connected() {
		if err := s.waitDetectorReady(ctx); err != nil {
			return err
		}
		if err := s.det.SetExposure(s.cfg.Exposure()); err != nil {
			return err
		}
	} else {
		s.elog.Append("detector disconnected, synthesizing placeholder frames")
		s.log.Warn("detector disconnected, synthesizing placeholder frames")
	}

	if err := s.pump.SetOperatingMode(device.ShutterModeManual); err != nil {
		return err
	}
	if err := s.probe.SetOperatingMode(device.ShutterModeManual); err != nil {
		return err
	}

	for _, dir := range []string{DirDark, DirLaserBg, DirPumpOff} {
		if err := os.MkdirAll(filepath.Join(s.cfg.SaveDir(), dir), 0o755); err != nil {
			return err
		}
	}

	return nil
}

// waitDetectorReady polls the detector into its ready state within the
// configured attempt budget, re-initializing it first if it reports a
// faulted state. Budget exhaustion is non-retryable.
func (s *Sequencer) waitDetectorReady(ctx context.Context) error {
	st, err := s.det.State()
	if err != nil {
		return err
	}

	if st.IsFaulted() {
		s.log.Info("detector faulted, re-initializing", "state", st)
		if err := s.det.InitDevice(); err != nil {
			return err
		}
	}

	for attempt := 0; attempt < s.cfg.ReadyAttempts(); attempt++ {
		st, err = s.det.State()
		if err != nil {
			return err
		}
		if st.IsReady() {
			return nil
		}

		if err := sleepCtx(ctx, s.cfg.ReadyInterval()); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: state %s after %d attempts", ErrDetectorNotReady, st, s.cfg.ReadyAttempts())
}

// runScan performs one full scan: the three reference acquisitions followed
// by the shuffled delay sweep. Shutter transitions always precede the
// acquisition they gate.
func (s *Sequencer) runScan(ctx context.Context, scan int, delays []float64) error {
	s.log.Info("scan started", "scan", scan, "total", s.cfg.ScanCount())

	s.state.Set(RunDarkRef)
	if err := s.setShutters(false, false); err != nil {
		return err
	}
	if err := s.acquireUntilSuccess(ctx, DirDark, fmt.Sprintf("dark_epoch_%010ds", time.Now().Unix())); err != nil {
		return err
	}
	s.elog.Append("dark image acquired")

	s.state.Set(RunLaserBg)
	if err := s.setShutters(true, false); err != nil {
		return err
	}
	if err := s.acquireUntilSuccess(ctx, DirLaserBg, fmt.Sprintf("laser_bg_epoch_%010ds", time.Now().Unix())); err != nil {
		return err
	}
	s.elog.Append("laser background image acquired")

	s.state.Set(RunPumpOff)
	if err := s.setShutters(false, true); err != nil {
		return err
	}
	if err := s.acquireUntilSuccess(ctx, DirPumpOff, fmt.Sprintf("pump_off_epoch_%010ds", time.Now().Unix())); err != nil {
		return err
	}
	s.elog.Append("pump off image acquired")

	s.state.Set(RunDelaySweep)
	if err := s.pump.Enable(true); err != nil {
		return err
	}

	scanDir := fmt.Sprintf("scan_%04d", scan)
	if err := os.MkdirAll(filepath.Join(s.cfg.SaveDir(), scanDir), 0o755); err != nil {
		return err
	}

	// Fresh permutation per scan so consecutive scans never replay the same
	// delay order.
	for _, delay := range ShuffledDelays(s.cfg.Rand(), delays) {
		if err := s.stage.MoveAbsolute(delay, s.cfg.ZeroOffset()); err != nil {
			return err
		}
		// Stage must be at rest before the gated frame is triggered.
		if err := s.stage.WaitUntilStopped(); err != nil {
			return err
		}

		name := fmt.Sprintf("pumpon_%+08.3fps", delay)
		if err := s.acquireUntilSuccess(ctx, scanDir, name); err != nil {
			return err
		}

		s.elog.Appendf("pump on image acquired at scan %d and time-delay %.1fps", scan, delay)
		if err := s.elog.Flush(); err != nil {
			return err
		}
	}

	return nil
}

// acquireUntilSuccess grabs one frame, retrying the same exposure on every
// transient fault with no backoff and no retry ceiling. Never giving up on a
// single exposure is deliberate for unattended overnight runs; a permanently
// faulted device keeps the loop spinning until a human intervenes.
func (s *Sequencer) acquireUntilSuccess(ctx context.Context, subdir, name string) error {
	for {
		res := s.cycle.Run(ctx)
		if !res.Failed() {
			return s.cfg.Sink().Store(subdir, name, res.Frame)
		}

		// Cancellation is fatal, not a transient fault.
		if ctx.Err() != nil {
			return res.Err
		}

		s.elog.Append(res.Err.Error())
		s.log.Warn("acquisition failed, retrying", "dir", subdir, "name", name, "error", res.Err)
	}
}

// setShutters applies the pump and probe shutter states, in that order.
func (s *Sequencer) setShutters(pumpOpen, probeOpen bool) error {
	if err := s.pump.Enable(pumpOpen); err != nil {
		return err
	}

	return s.probe.Enable(probeOpen)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
