package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// MinPoolSize is the lower bound applied to every configured pool size.
// Too few workers risks deadlocking event-loop and reconnect interactions
// under load.
const MinPoolSize = 3

// Kind identifies a pool variety served by a Provider.
type Kind string

const (
	// KindIO is the event-loop pool driving connection I/O.
	KindIO Kind = "io"

	// KindComputation is the pool for callbacks that must not block I/O.
	KindComputation Kind = "computation"
)

var (
	// ErrUnsupportedKind is returned by Allocate for a kind the provider
	// was not configured with.
	ErrUnsupportedKind = errors.New("pool: unsupported pool kind")

	// ErrProviderClosed is returned by Allocate once provider shutdown
	// has begun.
	ErrProviderClosed = errors.New("pool: provider shut down")
)

// Provider hands out shared worker pools by kind.
//
// Pools are created lazily on first allocation and reference-counted per
// kind. There is no partial release: a pool is destroyed only by the
// provider-wide Shutdown, never because callers stopped using it.
type Provider interface {
	// Allocate returns the shared pool for kind, creating it on first use.
	Allocate(kind Kind) (Executor, error)

	// Shutdown stops every created pool asynchronously with the two-phase
	// contract and resolves to true once all of them terminated. Idempotent.
	Shutdown(quietPeriod, timeout time.Duration) *Future

	// IsTerminated reports whether shutdown has fully completed.
	IsTerminated() bool
}

// ProviderConfig configures a DefaultProvider.
type ProviderConfig struct {
	// IOWorkers sizes the KindIO pool.
	// Default: MinPoolSize
	IOWorkers int

	// ComputationWorkers sizes the KindComputation pool.
	// Default: MinPoolSize
	ComputationWorkers int

	// QueueSize is the pending task buffer per pool.
	// Default: 1024
	QueueSize int

	// Logger receives shutdown diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// DefaultProvider is the in-process Provider implementation.
type DefaultProvider struct {
	cfg ProviderConfig

	mu       sync.Mutex
	pools    map[Kind]*Pool
	refs     map[Kind]int
	shutdown *Future

	terminated atomic.Bool
}

// Compile-time interface check.
var _ Provider = (*DefaultProvider)(nil)

// NewProvider creates a provider. No pools are started until Allocate.
func NewProvider(cfg ProviderConfig) *DefaultProvider {
	if cfg.IOWorkers <= 0 {
		cfg.IOWorkers = MinPoolSize
	}
	if cfg.ComputationWorkers <= 0 {
		cfg.ComputationWorkers = MinPoolSize
	}

	return &DefaultProvider{
		cfg:   cfg,
		pools: make(map[Kind]*Pool),
		refs:  make(map[Kind]int),
	}
}

func (p *DefaultProvider) size(kind Kind) (int, bool) {
	switch kind {
	case KindIO:
		return p.cfg.IOWorkers, true
	case KindComputation:
		return p.cfg.ComputationWorkers, true
	}
	return 0, false
}

// Allocate returns the shared pool for kind, creating it on first use and
// incrementing the kind's reference count.
func (p *DefaultProvider) Allocate(kind Kind) (Executor, error) {
	size, ok := p.size(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown != nil {
		return nil, ErrProviderClosed
	}

	pl, ok := p.pools[kind]
	if !ok {
		pl = New(Config{
			Workers:   size,
			QueueSize: p.cfg.QueueSize,
			Name:      string(kind),
			Logger:    p.cfg.Logger,
		})
		p.pools[kind] = pl
	}

	p.refs[kind]++
	return pl, nil
}

// Refs reports how many Allocate calls have been served for kind.
func (p *DefaultProvider) Refs(kind Kind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs[kind]
}

// Shutdown stops every created pool concurrently and resolves to true once
// all of them terminated. Repeated calls return the cached future.
func (p *DefaultProvider) Shutdown(quietPeriod, timeout time.Duration) *Future {
	p.mu.Lock()
	if p.shutdown != nil {
		f := p.shutdown
		p.mu.Unlock()
		return f
	}
	f := NewFuture()
	p.shutdown = f

	pools := make([]*Pool, 0, len(p.pools))
	for _, pl := range p.pools {
		pools = append(pools, pl)
	}
	p.mu.Unlock()

	go func() {
		var g errgroup.Group
		for _, pl := range pools {
			g.Go(func() error {
				ok, err := pl.Shutdown(quietPeriod, timeout).Await(context.Background())
				if err != nil {
					return err
				}
				if !ok {
					return ErrShutdownTimeout
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			f.Complete(false, err)
			return
		}

		p.terminated.Store(true)
		f.Complete(true, nil)
	}()

	return f
}

// IsTerminated reports whether shutdown has fully completed.
func (p *DefaultProvider) IsTerminated() bool {
	return p.terminated.Load()
}
