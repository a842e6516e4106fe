// Package delay provides reconnect backoff strategies.
//
// A Delay computes the wait before a reconnect attempt. Some delays carry
// mutable history (decorrelated jitter remembers the previous delay) and
// must never be shared between concurrently reconnecting connections; the
// Strategy sum type makes that structurally impossible: stateful delays can
// only be configured through a factory, so every connection gets its own
// instance.
package delay

import (
	"errors"
	"time"
)

// Delay computes the backoff before reconnect attempt number attempt.
// Attempts are 1-based; implementations return zero for attempt <= 0.
type Delay interface {
	Delay(attempt int) time.Duration
}

// statefulDelay is implemented by delays that carry mutable history.
type statefulDelay interface {
	Stateful() bool
}

// IsStateful reports whether d declares itself stateful.
func IsStateful(d Delay) bool {
	s, ok := d.(statefulDelay)
	return ok && s.Stateful()
}

// ErrStatefulShared rejects a stateful delay instance installed as shared
// configuration. Use StatefulFactory so each connection gets its own
// instance.
var ErrStatefulShared = errors.New("delay: stateful delay instance cannot be shared, use StatefulFactory")

// Strategy selects how delay instances are handed to connections.
// It is a closed two-variant sum: Stateless wraps one shared instance,
// StatefulFactory wraps a constructor invoked per reconnect sequence.
type Strategy struct {
	shared  Delay
	factory func() Delay
}

// Stateless wraps a delay with no mutable state, safe to share across
// concurrently reconnecting connections.
func Stateless(d Delay) Strategy {
	return Strategy{shared: d}
}

// StatefulFactory wraps a constructor for delays that keep per-connection
// state. Every New call produces a fresh instance.
func StatefulFactory(fn func() Delay) Strategy {
	return Strategy{factory: fn}
}

// IsZero reports whether the strategy is unset.
func (s Strategy) IsZero() bool {
	return s.shared == nil && s.factory == nil
}

// Validate fails if a stateful delay instance was installed as shared
// configuration.
func (s Strategy) Validate() error {
	if s.shared != nil && IsStateful(s.shared) {
		return ErrStatefulShared
	}
	return nil
}

// New returns the delay for one connection's reconnect sequence: the shared
// instance for a Stateless strategy, a fresh instance for a StatefulFactory.
func (s Strategy) New() Delay {
	if s.factory != nil {
		return s.factory()
	}
	return s.shared
}
