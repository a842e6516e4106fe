package lettuce

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/config"
	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/delay"
	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/dns"
	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/event"
	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/metrics"
	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/pool"
)

// Builder accumulates client resource options. Zero options produce a
// fully defaulted bundle; Build validates the combination once and
// constructs an immutable DefaultClientResources.
//
// Builder is NOT thread-safe. Configure it from a single goroutine, then
// share the built resources freely.
type Builder struct {
	ioThreadPoolSize          int
	computationThreadPoolSize int
	eventBusBuffer            int

	latencyOptions    metrics.Options
	latencyOptionsSet bool

	provider    pool.Provider
	computation pool.Executor
	bus         event.Bus
	collector   metrics.CommandLatencyCollector
	resolver    dns.Resolver
	strategy    delay.Strategy
	logger      *slog.Logger

	configErr error
}

// NewBuilder creates a builder with all options unset.
func NewBuilder() *Builder {
	return &Builder{}
}

// IOThreadPoolSize sets the I/O pool size. Values below pool.MinPoolSize
// are floored; zero means runtime.NumCPU().
func (b *Builder) IOThreadPoolSize(n int) *Builder {
	b.ioThreadPoolSize = n
	return b
}

// ComputationThreadPoolSize sets the computation pool size. Values below
// pool.MinPoolSize are floored; zero means runtime.NumCPU().
func (b *Builder) ComputationThreadPoolSize(n int) *Builder {
	b.computationThreadPoolSize = n
	return b
}

// EventBusBuffer sets the per-subscription event buffer size.
func (b *Builder) EventBusBuffer(n int) *Builder {
	b.eventBusBuffer = n
	return b
}

// CommandLatencyCollectorOptions configures the default latency collector.
// Ignored when CommandLatencyCollector supplies one.
func (b *Builder) CommandLatencyCollectorOptions(opts metrics.Options) *Builder {
	b.latencyOptions = opts
	b.latencyOptionsSet = true
	return b
}

// CommandLatencyCollector supplies an external latency collector. It is
// still stopped at shutdown if it reports enabled.
func (b *Builder) CommandLatencyCollector(c metrics.CommandLatencyCollector) *Builder {
	b.collector = c
	return b
}

// PoolProvider supplies an external pool provider. The bundle will never
// shut it down.
func (b *Builder) PoolProvider(p pool.Provider) *Builder {
	b.provider = p
	return b
}

// ComputationExecutor supplies an external computation executor. The
// bundle will never shut it down.
func (b *Builder) ComputationExecutor(e pool.Executor) *Builder {
	b.computation = e
	return b
}

// EventBus supplies an external event bus. The bundle will never close it.
func (b *Builder) EventBus(bus event.Bus) *Builder {
	b.bus = bus
	return b
}

// DNSResolver sets the name-resolution capability.
func (b *Builder) DNSResolver(r dns.Resolver) *Builder {
	b.resolver = r
	return b
}

// ReconnectDelay sets the backoff strategy. A stateful delay instance
// wrapped in delay.Stateless is rejected at Build time.
func (b *Builder) ReconnectDelay(s delay.Strategy) *Builder {
	b.strategy = s
	return b
}

// Logger sets the logger for shutdown and slow-consumer diagnostics.
func (b *Builder) Logger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// FromConfig applies a loaded configuration file. Explicit setter calls
// after FromConfig override its values.
func (b *Builder) FromConfig(cfg config.Config) *Builder {
	if err := cfg.Validate(); err != nil {
		b.configErr = err
		return b
	}

	b.ioThreadPoolSize = cfg.IOThreadPoolSize
	b.computationThreadPoolSize = cfg.ComputationThreadPoolSize

	if cfg.MetricsEnabled != nil && !*cfg.MetricsEnabled {
		b.latencyOptions = metrics.DisabledOptions()
		b.latencyOptionsSet = true
	}

	strategy, err := cfg.DelayStrategy()
	if err != nil {
		b.configErr = err
		return b
	}
	b.strategy = strategy
	return b
}

// Build validates the accumulated options and constructs the resources.
// No resource is allocated if validation fails.
func (b *Builder) Build() (*DefaultClientResources, error) {
	if b.configErr != nil {
		return nil, b.configErr
	}
	if b.ioThreadPoolSize < 0 {
		return nil, fmt.Errorf("lettuce: ioThreadPoolSize must not be negative, got %d", b.ioThreadPoolSize)
	}
	if b.computationThreadPoolSize < 0 {
		return nil, fmt.Errorf("lettuce: computationThreadPoolSize must not be negative, got %d", b.computationThreadPoolSize)
	}

	strategy := b.strategy
	if strategy.IsZero() {
		strategy = delay.Stateless(delay.Exponential(delay.ExponentialConfig{}))
	}
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	collector := b.collector
	if collector == nil {
		opts := metrics.DefaultOptions()
		if b.latencyOptionsSet {
			opts = b.latencyOptions
		}
		collector = metrics.NewCommandLatencyCollector(opts)
	}

	resolver := b.resolver
	if resolver == nil {
		resolver = dns.System()
	}

	r := &DefaultClientResources{
		ioPoolSize:          effectiveSize(b.ioThreadPoolSize),
		computationPoolSize: effectiveSize(b.computationThreadPoolSize),
		busBuffer:           b.eventBusBuffer,
		logger:              b.logger,
		collector:           collector,
		resolver:            resolver,
		strategy:            strategy,
	}

	if b.provider != nil {
		r.provider = b.provider
		r.sharedProvider = true
	} else {
		r.provider = pool.NewProvider(pool.ProviderConfig{
			IOWorkers:          r.ioPoolSize,
			ComputationWorkers: r.computationPoolSize,
			Logger:             b.logger,
		})
	}

	if b.computation != nil {
		r.computation = b.computation
	}
	if b.bus != nil {
		r.bus = b.bus
	}

	return r, nil
}

// effectiveSize applies the pool-size floor independently per pool kind.
func effectiveSize(n int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < pool.MinPoolSize {
		return pool.MinPoolSize
	}
	return n
}
