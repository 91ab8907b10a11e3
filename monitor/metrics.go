package monitor

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records delivery metrics. It is only called from the
// consumer side, never from the real-time cycle.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDrain records one Refresh that delivered n records.
	RecordDrain(ctx context.Context, session string, n int)

	// RecordDropped records records lost at stage since the last call.
	RecordDropped(ctx context.Context, session, stage string, n uint64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	delivered metric.Int64Counter
	dropped   metric.Int64Counter
	drainSize metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("midimon"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	delivered, err := meter.Int64Counter("midimon.events.delivered",
		metric.WithDescription("Records drained into the history"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter("midimon.events.dropped",
		metric.WithDescription("Records dropped because a ring was full"),
	)
	if err != nil {
		return nil, err
	}

	drainSize, err := meter.Int64Histogram("midimon.drain.size",
		metric.WithDescription("Records delivered per refresh"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		delivered: delivered,
		dropped:   dropped,
		drainSize: drainSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider, or a no-op recorder if the instruments cannot be created.
// Configure the provider with otel.SetMeterProvider before calling it.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordDrain(ctx context.Context, session string, n int) {
	attrs := metric.WithAttributes(attribute.String("session", session))
	m.delivered.Add(ctx, int64(n), attrs)
	m.drainSize.Record(ctx, int64(n), attrs)
}

func (m *otelMetrics) RecordDropped(ctx context.Context, session, stage string, n uint64) {
	m.dropped.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("session", session),
		attribute.String("stage", stage),
	))
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordDrain(context.Context, string, int)              {}
func (NoopMetrics) RecordDropped(context.Context, string, string, uint64) {}
