package pool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/pool"
)

func TestPoolExecutesTasks(t *testing.T) {
	p := pool.New(pool.Config{Workers: 4})

	var executed atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		err := p.Submit(func() {
			executed.Add(1)
			wg.Done()
		})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, int32(50), executed.Load())
	assert.Equal(t, 4, p.Workers())

	ok, err := p.Shutdown(0, 0).Await(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, p.IsTerminated())
}

func TestPoolDefaultsToMinPoolSize(t *testing.T) {
	p := pool.New(pool.Config{})
	defer p.Shutdown(0, 0)

	assert.Equal(t, pool.MinPoolSize, p.Workers())
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	p := pool.New(pool.Config{Workers: 1})

	ok, err := p.Shutdown(0, 0).Await(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	err = p.Submit(func() {})
	assert.ErrorIs(t, err, pool.ErrPoolClosed)
}

func TestPoolSubmitNilTask(t *testing.T) {
	p := pool.New(pool.Config{Workers: 1})
	defer p.Shutdown(0, 0)

	assert.ErrorIs(t, p.Submit(nil), pool.ErrNilTask)
}

func TestPoolShutdownIdempotent(t *testing.T) {
	p := pool.New(pool.Config{Workers: 2})

	f1 := p.Shutdown(0, 0)
	f2 := p.Shutdown(time.Second, time.Second)

	assert.Same(t, f1, f2)

	ok, err := f1.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPoolQuietPeriodDrainsQueuedWork(t *testing.T) {
	p := pool.New(pool.Config{Workers: 1})

	var executed atomic.Int32
	for i := 0; i < 10; i++ {
		err := p.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			executed.Add(1)
		})
		require.NoError(t, err)
	}

	ok, err := p.Shutdown(2*time.Second, time.Second).Await(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(10), executed.Load())
	assert.True(t, p.IsTerminated())
}

func TestPoolShutdownTimeoutWhileTaskBlocked(t *testing.T) {
	p := pool.New(pool.Config{Workers: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	err := p.Submit(func() {
		close(started)
		<-release
	})
	require.NoError(t, err)
	<-started

	ok, err := p.Shutdown(0, 50*time.Millisecond).Await(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, pool.ErrShutdownTimeout)
	assert.False(t, p.IsTerminated())

	close(release)
}

func TestFutureCompleted(t *testing.T) {
	f := pool.Completed(true, nil)

	select {
	case <-f.Done():
	default:
		t.Fatal("expected completed future")
	}

	ok, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFutureCompleteOnce(t *testing.T) {
	f := pool.NewFuture()
	f.Complete(true, nil)
	f.Complete(false, pool.ErrShutdownTimeout)

	ok, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFutureAwaitCancelled(t *testing.T) {
	f := pool.NewFuture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := f.Await(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
