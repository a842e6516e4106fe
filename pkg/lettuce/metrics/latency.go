// Package metrics provides the command latency collection capability held
// by the client resources.
//
// Latencies are recorded through OpenTelemetry histograms on the global
// meter provider; aggregation and export are the meter provider's concern,
// not this package's.
package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CommandLatencyCollector records per-command latencies.
//
// Stop disables collection; a stopped collector never records again. The
// resources bundle checks IsEnabled at shutdown and stops an enabled
// collector exactly once, regardless of who supplied it.
type CommandLatencyCollector interface {
	// IsEnabled reports whether latencies are being collected.
	IsEnabled() bool

	// RecordCommandLatency records one command round trip: the time to the
	// first response byte and the time to completion.
	RecordCommandLatency(ctx context.Context, command string, firstResponse, completion time.Duration)

	// Stop disables collection. Idempotent.
	Stop()
}

// Options tunes the default collector.
type Options struct {
	// Enabled turns collection on.
	Enabled bool

	// TargetPercentiles are the percentiles downstream exporters should
	// surface. This is a hint carried with the collector; the recording
	// path does not aggregate.
	TargetPercentiles []float64

	// ResetLatenciesAfterEvent requests that exporters reset accumulated
	// latencies after each metrics event.
	ResetLatenciesAfterEvent bool
}

// DefaultOptions returns enabled collection with the usual percentiles.
func DefaultOptions() Options {
	return Options{
		Enabled:                  true,
		TargetPercentiles:        []float64{50, 90, 95, 99, 99.9},
		ResetLatenciesAfterEvent: true,
	}
}

// DisabledOptions returns options with collection turned off.
func DisabledOptions() Options {
	opts := DefaultOptions()
	opts.Enabled = false
	return opts
}

// DefaultCommandLatencyCollector records latencies into OTel histograms.
type DefaultCommandLatencyCollector struct {
	opts    Options
	enabled atomic.Bool

	initOnce      sync.Once
	initErr       error
	firstResponse metric.Float64Histogram
	completion    metric.Float64Histogram
}

// Compile-time interface check.
var _ CommandLatencyCollector = (*DefaultCommandLatencyCollector)(nil)

// NewCommandLatencyCollector creates a collector with the given options.
func NewCommandLatencyCollector(opts Options) *DefaultCommandLatencyCollector {
	c := &DefaultCommandLatencyCollector{opts: opts}
	c.enabled.Store(opts.Enabled)
	return c
}

// Options returns the options the collector was created with.
func (c *DefaultCommandLatencyCollector) Options() Options {
	return c.opts
}

// IsEnabled reports whether latencies are being collected.
func (c *DefaultCommandLatencyCollector) IsEnabled() bool {
	return c.enabled.Load()
}

// instruments lazily creates the histograms on the global meter provider,
// so a collector that never records costs nothing.
func (c *DefaultCommandLatencyCollector) instruments() error {
	c.initOnce.Do(func() {
		meter := otel.Meter("lettuce")

		c.firstResponse, c.initErr = meter.Float64Histogram("lettuce.command.first_response_ms",
			metric.WithDescription("Time from command dispatch to first response byte in milliseconds"),
			metric.WithUnit("ms"),
		)
		if c.initErr != nil {
			return
		}

		c.completion, c.initErr = meter.Float64Histogram("lettuce.command.completion_ms",
			metric.WithDescription("Time from command dispatch to completion in milliseconds"),
			metric.WithUnit("ms"),
		)
	})
	return c.initErr
}

// RecordCommandLatency records one command round trip. A disabled
// collector records nothing.
func (c *DefaultCommandLatencyCollector) RecordCommandLatency(ctx context.Context, command string, firstResponse, completion time.Duration) {
	if !c.enabled.Load() {
		return
	}
	if err := c.instruments(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("command", command))
	c.firstResponse.Record(ctx, float64(firstResponse)/float64(time.Millisecond), attrs)
	c.completion.Record(ctx, float64(completion)/float64(time.Millisecond), attrs)
}

// Stop disables collection. Idempotent.
func (c *DefaultCommandLatencyCollector) Stop() {
	c.enabled.Store(false)
}
