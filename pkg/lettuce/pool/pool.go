// Package pool provides the shared worker-thread pools underlying a client
// instance: a fixed-size task pool with a two-phase (quiet period, then
// forced) shutdown contract, and a reference-counted Provider that hands out
// pools by kind.
package pool

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrPoolClosed is returned by Submit once shutdown has begun.
	ErrPoolClosed = errors.New("pool: shut down")

	// ErrQueueFull is returned by Submit when the pending task buffer is full.
	ErrQueueFull = errors.New("pool: task queue full")

	// ErrShutdownTimeout indicates workers were still busy when the forced
	// termination timeout elapsed.
	ErrShutdownTimeout = errors.New("pool: workers still busy after shutdown timeout")

	// ErrNilTask is returned when a nil task is submitted.
	ErrNilTask = errors.New("pool: nil task")
)

// Executor is the narrow task-submission capability consumers depend on.
// Consumers only submit work; they never control the pool lifecycle.
type Executor interface {
	// Submit dispatches a task for asynchronous execution.
	Submit(task func()) error

	// Workers returns the number of worker goroutines.
	Workers() int
}

// Config configures a Pool.
type Config struct {
	// Workers is the number of worker goroutines.
	// Default: MinPoolSize
	Workers int

	// QueueSize is the pending task buffer size.
	// Default: 1024
	QueueSize int

	// Name labels the pool in log output.
	Name string

	// Logger receives shutdown diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// Pool is a fixed-size goroutine worker pool.
//
// Shutdown is two-phase cooperative cancellation: new submissions are
// rejected immediately, queued work may drain for the quiet period, then
// workers are told to stop after their current task. There is no per-task
// cancellation; a pool terminates exactly once.
type Pool struct {
	name    string
	logger  *slog.Logger
	workers int

	tasks chan func()
	kill  chan struct{}
	wg    sync.WaitGroup

	pending atomic.Int64
	idle    chan struct{}

	closed     atomic.Bool
	terminated atomic.Bool

	mu       sync.Mutex
	shutdown *Future
}

// Compile-time interface check.
var _ Executor = (*Pool)(nil)

// New creates a pool and starts its workers.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = MinPoolSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}

	p := &Pool{
		name:    cfg.Name,
		logger:  cfg.Logger,
		workers: cfg.Workers,
		tasks:   make(chan func(), cfg.QueueSize),
		kill:    make(chan struct{}),
		idle:    make(chan struct{}, 1),
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		// Kill takes priority over further queue consumption.
		select {
		case <-p.kill:
			return
		default:
		}

		select {
		case <-p.kill:
			return
		case task := <-p.tasks:
			task()
			if p.pending.Add(-1) == 0 {
				select {
				case p.idle <- struct{}{}:
				default:
				}
			}
		}
	}
}

// Submit dispatches a task for asynchronous execution.
// Returns ErrPoolClosed once shutdown has begun.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return ErrNilTask
	}
	if p.closed.Load() {
		return ErrPoolClosed
	}

	p.pending.Add(1)
	select {
	case p.tasks <- task:
		return nil
	default:
		p.pending.Add(-1)
		return ErrQueueFull
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Pending returns the number of submitted tasks not yet completed.
func (p *Pool) Pending() int {
	return int(p.pending.Load())
}

// IsTerminated reports whether shutdown has fully completed.
func (p *Pool) IsTerminated() bool {
	return p.terminated.Load()
}

// Shutdown stops the pool asynchronously. New submissions are rejected
// immediately; already-queued work may finish within quietPeriod; after
// that workers stop as soon as their current task returns, and the
// returned future resolves once every worker has exited.
//
// A timeout of zero waits for in-flight tasks to finish their current
// run. A positive timeout bounds the wait: if workers are still busy
// when it elapses the future resolves to false with ErrShutdownTimeout.
//
// Shutdown is idempotent: repeated calls return the future from the
// first call without re-running termination.
func (p *Pool) Shutdown(quietPeriod, timeout time.Duration) *Future {
	p.mu.Lock()
	if p.shutdown != nil {
		f := p.shutdown
		p.mu.Unlock()
		return f
	}
	f := NewFuture()
	p.shutdown = f
	p.mu.Unlock()

	p.closed.Store(true)
	go p.terminate(f, quietPeriod, timeout)
	return f
}

func (p *Pool) terminate(f *Future, quietPeriod, timeout time.Duration) {
	// Quiet period: let queued work drain while workers keep consuming.
	if quietPeriod > 0 && p.pending.Load() > 0 {
		deadline := time.NewTimer(quietPeriod)
		defer deadline.Stop()

	drain:
		for p.pending.Load() > 0 {
			select {
			case <-p.idle:
				// Recheck; a stale idle signal is harmless.
			case <-deadline.C:
				break drain
			}
		}
	}

	abandoned := p.pending.Load()

	// Force phase: workers stop after their current task.
	close(p.kill)

	exited := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(exited)
	}()

	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()

		select {
		case <-exited:
		case <-t.C:
			if p.logger != nil {
				p.logger.Warn("pool workers still busy at shutdown timeout",
					slog.String("pool", p.name),
					slog.Duration("timeout", timeout),
				)
			}
			f.Complete(false, ErrShutdownTimeout)
			return
		}
	} else {
		<-exited
	}

	p.terminated.Store(true)

	if abandoned > 0 && p.logger != nil {
		p.logger.Warn("pool shut down with queued tasks abandoned",
			slog.String("pool", p.name),
			slog.Int64("abandoned", abandoned),
		)
	}

	f.Complete(true, nil)
}
