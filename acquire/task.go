package acquire

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"uedaq/logger"
)

// TaskFunc is one iteration of a task loop. It returns true to keep the loop
// running, or false to stop the goroutine.
type TaskFunc func() bool

// TaskRunner supervises the worker goroutines of the interactive acquisition
// regime. Every worker is spawned fresh per invocation, observes the runner's
// context for cooperative cancellation, and is joined by Wait.
//
// Stop followed by Wait guarantees that no supervised goroutine is still
// running; afterwards the runner can be reused for a new set of tasks.
type TaskRunner struct {
	pctx    context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  logger.Logger
	count   atomic.Int32
	tickers sync.Map     // map[string]*time.Ticker
	mu      sync.RWMutex // protects ctx and cancel
}

// NewTaskRunner creates a TaskRunner whose workers descend from ctx.
func NewTaskRunner(ctx context.Context, l logger.Logger) *TaskRunner {
	r := &TaskRunner{pctx: ctx, logger: l}
	r.ctx, r.cancel = context.WithCancel(ctx)
	return r
}

// Context returns the cancellation context current workers observe.
func (r *TaskRunner) Context() context.Context {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ctx
}

// Start spawns a goroutine that calls taskFunc in a loop until it returns
// false or the runner is stopped.
func (r *TaskRunner) Start(name string, taskFunc TaskFunc) error {
	return r.StartWithExit(name, taskFunc, nil)
}

// StartWithExit spawns like Start and additionally runs exitFunc when the
// worker terminates. The worker may be canceled before its first iteration,
// so cleanup that must not depend on the task body executing (releasing
// guards, closing handles) belongs in exitFunc, not in the body.
func (r *TaskRunner) StartWithExit(name string, taskFunc TaskFunc, exitFunc func()) error {
	ctx := r.Context()

	select {
	case <-ctx.Done():
		return ErrRunnerStopped
	default:
	}

	r.logger.Debug("start task", "name", name)
	r.wg.Add(1)
	r.count.Add(1)

	go func() {
		defer r.wg.Done()
		defer func() {
			if exitFunc != nil {
				exitFunc()
			}
			r.count.Add(-1)
			r.logger.Debug("task terminated", "name", name, "task_count", r.TaskCount())
		}()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				if !r.callWithRecover(name, taskFunc) {
					return
				}
			}
		}
	}()

	return nil
}

// StartInterval spawns a goroutine that calls taskFunc on every tick of the
// given interval until it returns false or the runner is stopped. Task names
// must be unique among running interval tasks.
func (r *TaskRunner) StartInterval(name string, taskFunc TaskFunc, interval time.Duration) (*time.Ticker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid interval: %v", interval)
	}

	ctx := r.Context()

	select {
	case <-ctx.Done():
		return nil, ErrRunnerStopped
	default:
	}

	ticker := time.NewTicker(interval)
	if _, loaded := r.tickers.LoadOrStore(name, ticker); loaded {
		ticker.Stop()
		return nil, fmt.Errorf("interval task %s already exists", name)
	}

	r.logger.Debug("start interval task", "name", name, "interval", interval)
	r.wg.Add(1)
	r.count.Add(1)

	go func() {
		defer r.wg.Done()
		defer func() {
			ticker.Stop()
			r.tickers.Delete(name)
			r.count.Add(-1)
			r.logger.Debug("interval task terminated", "name", name, "task_count", r.TaskCount())
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !r.callWithRecover(name, taskFunc) {
					return
				}
			}
		}
	}()

	return ticker, nil
}

// StopInterval stops the interval task with the given name.
func (r *TaskRunner) StopInterval(name string) error {
	val, ok := r.tickers.LoadAndDelete(name)
	if !ok {
		return fmt.Errorf("interval task %s not found", name)
	}

	if ticker, ok := val.(*time.Ticker); ok {
		ticker.Stop()
	}

	return nil
}

// Stop signals all running workers to terminate. It does not wait; call Wait
// for join semantics.
func (r *TaskRunner) Stop() {
	r.tickers.Range(func(key, value any) bool {
		if ticker, ok := value.(*time.Ticker); ok {
			ticker.Stop()
		}

		return true
	})

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
}

// Wait blocks until every worker has terminated, then re-arms the runner so
// new tasks can be started.
func (r *TaskRunner) Wait() {
	r.wg.Wait()

	r.mu.Lock()
	r.ctx, r.cancel = context.WithCancel(r.pctx)
	r.mu.Unlock()
}

// TaskCount returns the number of currently running workers.
func (r *TaskRunner) TaskCount() int {
	return int(r.count.Load())
}

// callWithRecover calls taskFunc with panic protection. A panicking task is
// treated as terminated.
func (r *TaskRunner) callWithRecover(name string, taskFunc TaskFunc) (cont bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in task", "name", name, "panic", rec)
			cont = false
		}
	}()

	return taskFunc()
}
