// Package metrics defines the OpenTelemetry instruments tinyweb records.
//
// Instruments are created from a caller-supplied [metric.Meter], so the
// package works unchanged with the global no-op provider, an SDK provider
// exporting over OTLP, or a manual reader in tests.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ScopeName is the instrumentation scope used for tinyweb's meter.
const ScopeName = "github.com/jpalmerr/tinyweb"

// Connection outcomes.
const (
	OutcomeServed   = "served"
	OutcomeAborted  = "aborted"
	OutcomeRejected = "rejected"
)

// PoolStats is the view of the worker pool observed by the gauges.
type PoolStats interface {
	Size() int
	Pending() int
	Panics() uint64
}

// Metrics records per-connection measurements.
type Metrics struct {
	connections metric.Int64Counter
	duration    metric.Float64Histogram
	drained     metric.Int64Counter
}

// New creates the instruments on meter and registers callbacks that
// observe stats on every collection.
func New(meter metric.Meter, stats PoolStats) (*Metrics, error) {
	connections, err := meter.Int64Counter("tinyweb.connections",
		metric.WithDescription("Connections handled, by outcome and response status"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("create connections counter: %w", err)
	}

	duration, err := meter.Float64Histogram("tinyweb.connection.duration",
		metric.WithDescription("Time from worker pickup to connection close"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	drained, err := meter.Int64Counter("tinyweb.drained",
		metric.WithDescription("Unread client bytes discarded after the request header"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("create drained counter: %w", err)
	}

	if _, err := meter.Int64ObservableGauge("tinyweb.pool.workers",
		metric.WithDescription("Worker goroutines in the pool"),
		metric.WithUnit("{worker}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(stats.Size()))
			return nil
		})); err != nil {
		return nil, fmt.Errorf("create workers gauge: %w", err)
	}

	if _, err := meter.Int64ObservableGauge("tinyweb.pool.pending",
		metric.WithDescription("Connections waiting for a free worker"),
		metric.WithUnit("{connection}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(stats.Pending()))
			return nil
		})); err != nil {
		return nil, fmt.Errorf("create pending gauge: %w", err)
	}

	if _, err := meter.Int64ObservableCounter("tinyweb.pool.panics",
		metric.WithDescription("Jobs that panicked and were recovered"),
		metric.WithUnit("{panic}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(stats.Panics()))
			return nil
		})); err != nil {
		return nil, fmt.Errorf("create panics counter: %w", err)
	}

	return &Metrics{
		connections: connections,
		duration:    duration,
		drained:     drained,
	}, nil
}

// RecordConnection counts one finished connection and its duration.
// status is empty when no response was sent. A nil Metrics records nothing.
func (m *Metrics) RecordConnection(ctx context.Context, outcome, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("status", status),
	)
	m.connections.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordDrained adds n discarded bytes.
func (m *Metrics) RecordDrained(ctx context.Context, n int) {
	if m != nil && n > 0 {
		m.drained.Add(ctx, int64(n))
	}
}
