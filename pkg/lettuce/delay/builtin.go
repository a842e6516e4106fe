package delay

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// ExponentialConfig configures exponential backoff.
type ExponentialConfig struct {
	// Initial is the delay before the first retry.
	// Default: 100ms
	Initial time.Duration

	// Max caps the delay.
	// Default: 30s
	Max time.Duration

	// Multiplier is applied per attempt.
	// Default: 2.0
	Multiplier float64
}

func (c ExponentialConfig) withDefaults() ExponentialConfig {
	if c.Initial <= 0 {
		c.Initial = 100 * time.Millisecond
	}
	if c.Max <= 0 {
		c.Max = 30 * time.Second
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 2.0
	}
	return c
}

type constant time.Duration

// Constant returns a delay that always waits d.
func Constant(d time.Duration) Delay {
	return constant(d)
}

func (c constant) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(c)
}

type exponential struct {
	cfg ExponentialConfig
}

// Exponential returns a stateless capped exponential backoff: a pure
// function of the attempt number, Initial*Multiplier^(attempt-1) clamped
// to Max.
func Exponential(cfg ExponentialConfig) Delay {
	return &exponential{cfg: cfg.withDefaults()}
}

func (e *exponential) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := float64(e.cfg.Initial) * math.Pow(e.cfg.Multiplier, float64(attempt-1))
	if d > float64(e.cfg.Max) {
		return e.cfg.Max
	}
	return time.Duration(d)
}

type fullJitter struct {
	exp exponential
}

// FullJitter returns a stateless backoff drawing uniformly from
// [0, exponential(attempt)]. Random but memoryless, so safe to share.
func FullJitter(cfg ExponentialConfig) Delay {
	return &fullJitter{exp: exponential{cfg: cfg.withDefaults()}}
}

func (f *fullJitter) Delay(attempt int) time.Duration {
	upper := f.exp.Delay(attempt)
	if upper <= 0 {
		return 0
	}
	return rand.N(upper + 1)
}

type equalJitter struct {
	exp exponential
}

// EqualJitter returns a stateless backoff of half the exponential delay
// plus a uniform draw over the other half.
func EqualJitter(cfg ExponentialConfig) Delay {
	return &equalJitter{exp: exponential{cfg: cfg.withDefaults()}}
}

func (e *equalJitter) Delay(attempt int) time.Duration {
	d := e.exp.Delay(attempt)
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + rand.N(half+1)
}

type decorrelatedJitter struct {
	cfg ExponentialConfig

	mu   sync.Mutex
	prev time.Duration
}

// DecorrelatedJitter returns a factory for stateful backoff where each
// delay draws uniformly from [Initial, 3*previous], clamped to Max. The
// previous-delay history makes instances unsafe to share; wrap the result
// in StatefulFactory.
func DecorrelatedJitter(cfg ExponentialConfig) func() Delay {
	cfg = cfg.withDefaults()
	return func() Delay {
		return &decorrelatedJitter{cfg: cfg}
	}
}

func (d *decorrelatedJitter) Stateful() bool {
	return true
}

func (d *decorrelatedJitter) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	low := d.cfg.Initial
	high := 3 * d.prev
	if high < low {
		high = low
	}

	next := low + rand.N(high-low+1)
	if next > d.cfg.Max {
		next = d.cfg.Max
	}
	d.prev = next
	return next
}
