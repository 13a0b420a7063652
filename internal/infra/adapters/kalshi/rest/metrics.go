package rest

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/kalshi-gateway/internal/infra/telemetry"
)

type restMetrics struct {
	environment string

	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func newRESTMetrics() *restMetrics {
	meter := otel.Meter("adapter.kalshi.rest")
	rm := &restMetrics{
		environment: telemetry.Environment(),
		requests:    nil,
		latency:     nil,
	}

	rm.requests, _ = meter.Int64Counter(telemetry.RESTRequestsMetric,
		metric.WithDescription("Kalshi trade API requests"),
		metric.WithUnit("{request}"))

	rm.latency, _ = meter.Float64Histogram(telemetry.RESTLatencyMetric,
		metric.WithDescription("Kalshi trade API request latency"),
		metric.WithUnit("ms"))

	return rm
}

func (rm *restMetrics) record(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	if rm == nil {
		return
	}
	ctx = telemetry.EnsureContext(ctx)
	attrs := metric.WithAttributes(telemetry.RequestAttributes(rm.environment, method, route, status)...)
	if rm.requests != nil {
		rm.requests.Add(ctx, 1, attrs)
	}
	if rm.latency != nil {
		rm.latency.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
	}
}
