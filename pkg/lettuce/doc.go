/*
Package lettuce provides the shared client resources underlying a
high-concurrency Redis client: worker-thread pools for I/O and
computation, a command latency collector, a process-wide event bus, a DNS
resolver reference, and the reconnect backoff strategy, composed behind
one facade with coordinated, idempotent shutdown.

# Basic Usage

Create resources with defaults, share them across client instances, and
shut them down once when the process ends:

	res := lettuce.Create()
	defer res.Shutdown()

	ioPool, err := res.PoolProvider().Allocate(pool.KindIO)
	if err != nil {
	    log.Fatal(err)
	}
	ioPool.Submit(func() {
	    // connection I/O
	})

# Builder

Every sub-resource can be tuned or replaced through the builder:

	res, err := lettuce.NewBuilder().
	    IOThreadPoolSize(8).
	    ComputationThreadPoolSize(4).
	    CommandLatencyCollectorOptions(metrics.DisabledOptions()).
	    ReconnectDelay(delay.StatefulFactory(delay.DecorrelatedJitter(delay.ExponentialConfig{}))).
	    Build()

Externally supplied resources (pool provider, computation executor, event
bus) are never shut down by the bundle: whoever created them owns their
lifecycle. The one exception is the latency collector: shutdown queries
IsEnabled once and stops the collector if it reports enabled, regardless
of who supplied it.

# Shutdown

Shutdown is asynchronous and idempotent. Every owned sub-resource is torn
down concurrently with a two-phase contract: a quiet period in which
queued work may drain, then forced termination after the timeout. The
returned future resolves to true only if every owned shutdown succeeded.
*/
package lettuce
