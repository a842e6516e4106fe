package delay_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/delay"
)

func TestExponential(t *testing.T) {
	d := delay.Exponential(delay.ExponentialConfig{
		Initial:    100 * time.Millisecond,
		Max:        1 * time.Second,
		Multiplier: 2.0,
	})

	assert.Equal(t, time.Duration(0), d.Delay(0))
	assert.Equal(t, 100*time.Millisecond, d.Delay(1))
	assert.Equal(t, 200*time.Millisecond, d.Delay(2))
	assert.Equal(t, 400*time.Millisecond, d.Delay(3))
	assert.Equal(t, 800*time.Millisecond, d.Delay(4))
	assert.Equal(t, 1*time.Second, d.Delay(5), "delay should cap at Max")
	assert.Equal(t, 1*time.Second, d.Delay(50))
}

func TestExponentialIsPure(t *testing.T) {
	d := delay.Exponential(delay.ExponentialConfig{})

	// Same attempt, same answer, in any order.
	first := d.Delay(7)
	d.Delay(1)
	d.Delay(12)
	assert.Equal(t, first, d.Delay(7))
	assert.False(t, delay.IsStateful(d))
}

func TestConstant(t *testing.T) {
	d := delay.Constant(250 * time.Millisecond)

	assert.Equal(t, time.Duration(0), d.Delay(0))
	assert.Equal(t, 250*time.Millisecond, d.Delay(1))
	assert.Equal(t, 250*time.Millisecond, d.Delay(99))
}

func TestFullJitterBounds(t *testing.T) {
	cfg := delay.ExponentialConfig{
		Initial:    100 * time.Millisecond,
		Max:        2 * time.Second,
		Multiplier: 2.0,
	}
	d := delay.FullJitter(cfg)
	upper := delay.Exponential(cfg)

	for attempt := 1; attempt <= 6; attempt++ {
		for i := 0; i < 50; i++ {
			got := d.Delay(attempt)
			assert.GreaterOrEqual(t, got, time.Duration(0))
			assert.LessOrEqual(t, got, upper.Delay(attempt))
		}
	}
}

func TestEqualJitterBounds(t *testing.T) {
	cfg := delay.ExponentialConfig{
		Initial:    100 * time.Millisecond,
		Max:        2 * time.Second,
		Multiplier: 2.0,
	}
	d := delay.EqualJitter(cfg)
	upper := delay.Exponential(cfg)

	for attempt := 1; attempt <= 6; attempt++ {
		for i := 0; i < 50; i++ {
			got := d.Delay(attempt)
			assert.GreaterOrEqual(t, got, upper.Delay(attempt)/2)
			assert.LessOrEqual(t, got, upper.Delay(attempt))
		}
	}
}

func TestDecorrelatedJitterBounds(t *testing.T) {
	cfg := delay.ExponentialConfig{
		Initial: 50 * time.Millisecond,
		Max:     500 * time.Millisecond,
	}
	d := delay.DecorrelatedJitter(cfg)()

	assert.Equal(t, time.Duration(0), d.Delay(0))
	for attempt := 1; attempt <= 100; attempt++ {
		got := d.Delay(attempt)
		assert.GreaterOrEqual(t, got, 50*time.Millisecond)
		assert.LessOrEqual(t, got, 500*time.Millisecond)
	}
}

func TestDecorrelatedJitterIsStateful(t *testing.T) {
	d := delay.DecorrelatedJitter(delay.ExponentialConfig{})()
	assert.True(t, delay.IsStateful(d))
}

func TestStrategyStatelessSharesInstance(t *testing.T) {
	d := delay.Exponential(delay.ExponentialConfig{})
	s := delay.Stateless(d)

	require.NoError(t, s.Validate())
	assert.Same(t, d, s.New())
	assert.Same(t, s.New(), s.New())
}

func TestStrategyStatefulFactoryCreatesFreshInstances(t *testing.T) {
	s := delay.StatefulFactory(delay.DecorrelatedJitter(delay.ExponentialConfig{}))

	require.NoError(t, s.Validate())
	d1 := s.New()
	d2 := s.New()
	assert.NotSame(t, d1, d2)
}

func TestStrategyRejectsSharedStatefulInstance(t *testing.T) {
	instance := delay.DecorrelatedJitter(delay.ExponentialConfig{})()
	s := delay.Stateless(instance)

	assert.ErrorIs(t, s.Validate(), delay.ErrStatefulShared)
}

func TestStrategyZero(t *testing.T) {
	var s delay.Strategy
	assert.True(t, s.IsZero())
	assert.False(t, delay.Stateless(delay.Constant(time.Second)).IsZero())
}
