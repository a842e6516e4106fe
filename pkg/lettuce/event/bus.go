package event

import (
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
)

// Bus is a hot multicast publish/subscribe channel.
type Bus interface {
	// Publish hands an event to the delivery mechanism and returns without
	// waiting for subscriber processing.
	Publish(evt Event)

	// Subscribe registers for events published after this call.
	Subscribe() Subscription

	// Close terminates delivery. Idempotent.
	Close() error
}

// Subscription is an active registration on a Bus.
type Subscription interface {
	// C is the delivery channel. It is closed when the subscription ends.
	C() <-chan Event

	// Unsubscribe removes the subscription and closes the channel.
	Unsubscribe()
}

// BusConfig configures bus behavior.
type BusConfig struct {
	// BufferSize is the channel buffer size per subscription.
	// Default: 128
	BufferSize int

	// OnDrop is called when a slow subscriber's buffer overflows and an
	// event is dropped.
	OnDrop func(evt Event, subscriberID string)

	// Logger receives slow-consumer warnings. Nil disables logging.
	Logger *slog.Logger
}

// DefaultBusConfig provides reasonable defaults.
var DefaultBusConfig = BusConfig{
	BufferSize: 128,
}

// LocalBus is the in-process Bus implementation.
//
// Delivery order matches publish order for events published by a single
// goroutine; no order is defined across concurrent publishers.
type LocalBus struct {
	config BusConfig

	mu   sync.RWMutex
	subs map[string]*subscription

	nextID    atomic.Int64
	closed    atomic.Bool
	dropCount atomic.Int64
}

// Compile-time interface check.
var _ Bus = (*LocalBus)(nil)

// NewBus creates a new local event bus.
func NewBus(config BusConfig) *LocalBus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBusConfig.BufferSize
	}

	return &LocalBus{
		config: config,
		subs:   make(map[string]*subscription),
	}
}

type subscription struct {
	id     string
	events chan Event
	bus    *LocalBus
	dead   atomic.Bool
}

func (s *subscription) C() <-chan Event {
	return s.events
}

func (s *subscription) Unsubscribe() {
	if !s.dead.CompareAndSwap(false, true) {
		return
	}

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	delete(s.bus.subs, s.id)
	close(s.events)
}

// Publish delivers evt to every current subscriber's buffer. Events
// published after Close are discarded.
func (b *LocalBus) Publish(evt Event) {
	if b.closed.Load() {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.events <- evt:
		default:
			// Buffer full - drop rather than block the publisher.
			dropped := b.dropCount.Add(1)
			if b.config.OnDrop != nil {
				b.config.OnDrop(evt, sub.id)
			}
			if b.config.Logger != nil && dropped%100 == 1 {
				b.config.Logger.Warn("slow event subscriber, dropping",
					slog.String("subscriber", sub.id),
					slog.Int64("dropped_total", dropped),
				)
			}
		}
	}
}

// Subscribe registers for future events. A subscription taken after Close
// is already terminated: its channel is closed.
func (b *LocalBus) Subscribe() Subscription {
	id := strconv.FormatInt(b.nextID.Add(1), 10)
	sub := &subscription{
		id:     id,
		events: make(chan Event, b.config.BufferSize),
		bus:    b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		sub.dead.Store(true)
		close(sub.events)
		return sub
	}

	b.subs[id] = sub
	return sub
}

// DropCount returns the total number of events dropped on full buffers.
func (b *LocalBus) DropCount() int64 {
	return b.dropCount.Load()
}

// Close terminates all subscriptions and discards further publishes.
func (b *LocalBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		sub.dead.Store(true)
		close(sub.events)
		delete(b.subs, id)
	}

	return nil
}
