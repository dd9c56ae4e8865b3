package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Common attribute keys for consistency across metrics.
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrEvent          = attribute.Key("realtime.event")
	AttrOutcome        = attribute.Key("outcome")
	AttrWebhookType    = attribute.Key("webhook.type")
)

// HTTPDurationBuckets are bucket boundaries for HTTP request duration (seconds).
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Counter is a helper for creating and recording counter metrics.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new Int64Counter.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, err
	}
	return &Counter{counter: c}, nil
}

// Add adds value to the counter.
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by one.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Histogram is a helper for recording distributions in seconds.
type Histogram struct {
	histogram metric.Float64Histogram
}

// HistogramOpts configures NewHistogram.
type HistogramOpts struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

// NewHistogram creates a new Float64Histogram.
func NewHistogram(meter metric.Meter, opts HistogramOpts) (*Histogram, error) {
	histOpts := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(opts.Boundaries) > 0 {
		histOpts = append(histOpts, metric.WithExplicitBucketBoundaries(opts.Boundaries...))
	}
	h, err := meter.Float64Histogram(opts.Name, histOpts...)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: h}, nil
}

// Record records a raw value.
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// RecordDuration records d in seconds.
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.Record(ctx, d.Seconds(), attrs...)
}

// CollaborationMetrics tracks the realtime and background side of the service.
// All methods are safe on a nil receiver.
type CollaborationMetrics struct {
	connections   metric.Int64UpDownCounter
	broadcasts    *Counter
	dropped       *Counter
	sweepRemoved  *Counter
	sweepFailed   *Counter
	sweepDuration *Histogram
	webhooks      *Counter
}

// NewCollaborationMetrics registers the instruments on meter.
func NewCollaborationMetrics(meter metric.Meter) (*CollaborationMetrics, error) {
	connections, err := meter.Int64UpDownCounter(
		"taskflow_ws_connections",
		metric.WithDescription("Open websocket connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}
	broadcasts, err := NewCounter(meter, "taskflow_ws_broadcast_total", "Events broadcast to rooms", "{event}")
	if err != nil {
		return nil, err
	}
	dropped, err := NewCounter(meter, "taskflow_ws_dropped_total", "Events dropped for slow clients", "{event}")
	if err != nil {
		return nil, err
	}
	sweepRemoved, err := NewCounter(meter, "taskflow_sweep_removed_total", "Approved tasks removed by the expiry sweep", "{task}")
	if err != nil {
		return nil, err
	}
	sweepFailed, err := NewCounter(meter, "taskflow_sweep_failed_total", "Expired tasks the sweep could not remove", "{task}")
	if err != nil {
		return nil, err
	}
	sweepDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "taskflow_sweep_duration_seconds",
		Description: "Expiry sweep run time",
		Unit:        "s",
		Boundaries:  []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	if err != nil {
		return nil, err
	}
	webhooks, err := NewCounter(meter, "taskflow_webhook_events_total", "Identity provider webhook deliveries", "{delivery}")
	if err != nil {
		return nil, err
	}

	return &CollaborationMetrics{
		connections:   connections,
		broadcasts:    broadcasts,
		dropped:       dropped,
		sweepRemoved:  sweepRemoved,
		sweepFailed:   sweepFailed,
		sweepDuration: sweepDuration,
		webhooks:      webhooks,
	}, nil
}

func (m *CollaborationMetrics) ConnectionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.connections.Add(ctx, 1)
}

func (m *CollaborationMetrics) ConnectionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.connections.Add(ctx, -1)
}

// EventBroadcast counts one event fanned out to a room.
func (m *CollaborationMetrics) EventBroadcast(ctx context.Context, event string) {
	if m == nil {
		return
	}
	m.broadcasts.Inc(ctx, AttrEvent.String(event))
}

// EventDropped counts an event discarded because a client buffer was full.
func (m *CollaborationMetrics) EventDropped(ctx context.Context, event string) {
	if m == nil {
		return
	}
	m.dropped.Inc(ctx, AttrEvent.String(event))
}

// SweepCompleted records one expiry sweep run.
func (m *CollaborationMetrics) SweepCompleted(ctx context.Context, removed, failed int, d time.Duration) {
	if m == nil {
		return
	}
	m.sweepRemoved.Add(ctx, int64(removed))
	m.sweepFailed.Add(ctx, int64(failed))
	m.sweepDuration.RecordDuration(ctx, d)
}

// WebhookHandled counts a webhook delivery by type and outcome.
func (m *CollaborationMetrics) WebhookHandled(ctx context.Context, eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.Inc(ctx, AttrWebhookType.String(eventType), AttrOutcome.String(outcome))
}
