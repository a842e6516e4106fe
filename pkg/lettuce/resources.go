package lettuce

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/delay"
	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/dns"
	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/event"
	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/metrics"
	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/pool"
)

// Shutdown phase defaults applied by Shutdown().
const (
	DefaultShutdownQuietPeriod = 2 * time.Second
	DefaultShutdownTimeout     = 15 * time.Second
)

// ClientResources is the resource bundle shared by client instances.
//
// Accessors are safe for concurrent use. Sub-resources handed out here are
// shared: consumers submit tasks, publish, or subscribe, but only the
// bundle transitions a resource from running to terminated, exactly once.
type ClientResources interface {
	// IOThreadPoolSize returns the effective I/O pool size.
	IOThreadPoolSize() int

	// ComputationThreadPoolSize returns the effective computation pool size.
	ComputationThreadPoolSize() int

	// PoolProvider returns the provider serving shared worker pools.
	PoolProvider() pool.Provider

	// ComputationExecutor returns the pool for callbacks that must not
	// block I/O threads.
	ComputationExecutor() pool.Executor

	// EventBus returns the process-wide event bus.
	EventBus() event.Bus

	// CommandLatencyCollector returns the latency collection capability.
	CommandLatencyCollector() metrics.CommandLatencyCollector

	// DNSResolver returns the configured name-resolution capability.
	DNSResolver() dns.Resolver

	// ReconnectDelay returns the backoff delay for one connection's
	// reconnect sequence. Stateful strategies yield a fresh instance per
	// call; stateless strategies always return the shared instance.
	ReconnectDelay() delay.Delay

	// Shutdown tears down every owned sub-resource with default phases.
	Shutdown() *pool.Future

	// ShutdownTimeout tears down every owned sub-resource concurrently and
	// resolves to true only if all of them succeeded. Idempotent.
	ShutdownTimeout(quietPeriod, timeout time.Duration) *pool.Future
}

// DefaultClientResources is the standard ClientResources implementation.
// Use Create or NewBuilder to construct one.
type DefaultClientResources struct {
	ioPoolSize          int
	computationPoolSize int
	busBuffer           int
	logger              *slog.Logger

	provider       pool.Provider
	sharedProvider bool

	collector metrics.CommandLatencyCollector
	resolver  dns.Resolver
	strategy  delay.Strategy

	stateMu          sync.Mutex
	computation      pool.Executor
	ownedComputation *pool.Pool
	bus              event.Bus
	ownedBus         *event.LocalBus
	shutdownFuture   *pool.Future
}

// Compile-time interface check.
var _ ClientResources = (*DefaultClientResources)(nil)

// Create returns resources with all defaults. Equivalent to
// NewBuilder().Build(), which cannot fail without explicit options.
func Create() *DefaultClientResources {
	r, err := NewBuilder().Build()
	if err != nil {
		// Defaults are always valid; reaching this is a bug.
		panic("lettuce: default resources: " + err.Error())
	}
	return r
}

// IOThreadPoolSize returns the effective I/O pool size.
func (r *DefaultClientResources) IOThreadPoolSize() int {
	return r.ioPoolSize
}

// ComputationThreadPoolSize returns the effective computation pool size.
func (r *DefaultClientResources) ComputationThreadPoolSize() int {
	return r.computationPoolSize
}

// PoolProvider returns the provider serving shared worker pools.
func (r *DefaultClientResources) PoolProvider() pool.Provider {
	return r.provider
}

// ComputationExecutor returns the computation pool, creating it on first
// access when owned. A pool first accessed after shutdown began is handed
// out already terminated.
func (r *DefaultClientResources) ComputationExecutor() pool.Executor {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	if r.computation == nil {
		p := pool.New(pool.Config{
			Workers: r.computationPoolSize,
			Name:    string(pool.KindComputation),
			Logger:  r.logger,
		})
		if r.shutdownFuture != nil {
			p.Shutdown(0, 0)
		}
		r.ownedComputation = p
		r.computation = p
	}
	return r.computation
}

// EventBus returns the event bus, creating it on first access when owned.
// A bus first accessed after shutdown began is handed out already closed.
func (r *DefaultClientResources) EventBus() event.Bus {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	if r.bus == nil {
		b := event.NewBus(event.BusConfig{
			BufferSize: r.busBuffer,
			Logger:     r.logger,
		})
		if r.shutdownFuture != nil {
			b.Close()
		}
		r.ownedBus = b
		r.bus = b
	}
	return r.bus
}

// CommandLatencyCollector returns the latency collection capability.
func (r *DefaultClientResources) CommandLatencyCollector() metrics.CommandLatencyCollector {
	return r.collector
}

// DNSResolver returns the configured name-resolution capability.
func (r *DefaultClientResources) DNSResolver() dns.Resolver {
	return r.resolver
}

// ReconnectDelay returns the backoff delay for one connection's reconnect
// sequence.
func (r *DefaultClientResources) ReconnectDelay() delay.Delay {
	return r.strategy.New()
}

// Shutdown tears down every owned sub-resource with default phases.
func (r *DefaultClientResources) Shutdown() *pool.Future {
	return r.ShutdownTimeout(DefaultShutdownQuietPeriod, DefaultShutdownTimeout)
}

// ShutdownTimeout tears down every owned sub-resource concurrently and
// resolves to true only if all of them succeeded.
//
// Externally supplied pool provider, computation executor, and event bus
// are left completely untouched. The latency collector is the deliberate
// exception: it is queried and, if enabled, stopped regardless of who
// supplied it. Repeated calls return the future from the first call.
func (r *DefaultClientResources) ShutdownTimeout(quietPeriod, timeout time.Duration) *pool.Future {
	r.stateMu.Lock()
	if r.shutdownFuture != nil {
		f := r.shutdownFuture
		r.stateMu.Unlock()
		return f
	}
	f := pool.NewFuture()
	r.shutdownFuture = f
	ownedComputation := r.ownedComputation
	ownedBus := r.ownedBus
	r.stateMu.Unlock()

	// Metrics safety overrides ownership.
	if r.collector.IsEnabled() {
		r.collector.Stop()
	}

	go func() {
		var g errgroup.Group

		if !r.sharedProvider {
			g.Go(func() error {
				return awaitShutdown(r.provider.Shutdown(quietPeriod, timeout))
			})
		}
		if ownedComputation != nil {
			g.Go(func() error {
				return awaitShutdown(ownedComputation.Shutdown(quietPeriod, timeout))
			})
		}
		if ownedBus != nil {
			g.Go(ownedBus.Close)
		}

		err := g.Wait()
		if err != nil && r.logger != nil {
			r.logger.Error("client resources shutdown incomplete",
				slog.String("error", err.Error()),
			)
		}
		f.Complete(err == nil, err)
	}()

	return f
}

func awaitShutdown(f *pool.Future) error {
	ok, err := f.Await(context.Background())
	if err != nil {
		return err
	}
	if !ok {
		return pool.ErrShutdownTimeout
	}
	return nil
}
