package pool_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/pool"
)

func TestProviderAllocateSharesPoolPerKind(t *testing.T) {
	p := pool.NewProvider(pool.ProviderConfig{IOWorkers: 4, ComputationWorkers: 3})
	defer p.Shutdown(0, 0)

	io1, err := p.Allocate(pool.KindIO)
	require.NoError(t, err)
	io2, err := p.Allocate(pool.KindIO)
	require.NoError(t, err)

	assert.Same(t, io1, io2)
	assert.Equal(t, 4, io1.Workers())
	assert.Equal(t, 2, p.Refs(pool.KindIO))

	comp, err := p.Allocate(pool.KindComputation)
	require.NoError(t, err)
	assert.NotSame(t, io1, comp)
	assert.Equal(t, 3, comp.Workers())
	assert.Equal(t, 1, p.Refs(pool.KindComputation))
}

func TestProviderUnsupportedKind(t *testing.T) {
	p := pool.NewProvider(pool.ProviderConfig{})
	defer p.Shutdown(0, 0)

	_, err := p.Allocate(pool.Kind("gpu"))
	assert.ErrorIs(t, err, pool.ErrUnsupportedKind)
}

func TestProviderAllocateAfterShutdown(t *testing.T) {
	p := pool.NewProvider(pool.ProviderConfig{})

	_, err := p.Allocate(pool.KindIO)
	require.NoError(t, err)

	ok, err := p.Shutdown(0, 0).Await(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = p.Allocate(pool.KindIO)
	assert.ErrorIs(t, err, pool.ErrProviderClosed)
}

func TestProviderShutdownTerminatesAllPools(t *testing.T) {
	p := pool.NewProvider(pool.ProviderConfig{IOWorkers: 3, ComputationWorkers: 3})

	io, err := p.Allocate(pool.KindIO)
	require.NoError(t, err)
	comp, err := p.Allocate(pool.KindComputation)
	require.NoError(t, err)

	require.NoError(t, io.Submit(func() {}))
	require.NoError(t, comp.Submit(func() {}))

	ok, err := p.Shutdown(0, 0).Await(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, p.IsTerminated())

	assert.True(t, io.(*pool.Pool).IsTerminated())
	assert.True(t, comp.(*pool.Pool).IsTerminated())
}

func TestProviderShutdownIdempotent(t *testing.T) {
	p := pool.NewProvider(pool.ProviderConfig{})

	f1 := p.Shutdown(0, 0)
	f2 := p.Shutdown(time.Second, time.Second)

	assert.Same(t, f1, f2)

	ok, err := f1.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, p.IsTerminated())
}

func TestProviderShutdownWithNoPools(t *testing.T) {
	p := pool.NewProvider(pool.ProviderConfig{})

	ok, err := p.Shutdown(0, 0).Await(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, p.IsTerminated())
}
