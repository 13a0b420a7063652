package stream

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/kalshi-gateway/internal/infra/telemetry"
)

type streamMetrics struct {
	environment string

	messages       metric.Int64Counter
	decodeFailures metric.Int64Counter
	reconnects     metric.Int64Counter
	disconnects    metric.Int64Counter
	commands       metric.Int64Counter
}

func newStreamMetrics() *streamMetrics {
	meter := otel.Meter("adapter.kalshi.stream")
	sm := &streamMetrics{
		environment:    telemetry.Environment(),
		messages:       nil,
		decodeFailures: nil,
		reconnects:     nil,
		disconnects:    nil,
		commands:       nil,
	}

	sm.messages, _ = meter.Int64Counter(telemetry.StreamMessagesMetric,
		metric.WithDescription("Frames received from the Kalshi websocket"),
		metric.WithUnit("{message}"))

	sm.decodeFailures, _ = meter.Int64Counter(telemetry.StreamDecodeErrorMetric,
		metric.WithDescription("Frames with a known type that failed to decode"),
		metric.WithUnit("{message}"))

	sm.reconnects, _ = meter.Int64Counter(telemetry.StreamReconnectMetric,
		metric.WithDescription("Kalshi websocket connection attempts"),
		metric.WithUnit("{attempt}"))

	sm.disconnects, _ = meter.Int64Counter(telemetry.StreamDisconnectMetric,
		metric.WithDescription("Kalshi websocket connections lost or abandoned"),
		metric.WithUnit("{disconnect}"))

	sm.commands, _ = meter.Int64Counter(telemetry.StreamCommandMetric,
		metric.WithDescription("Commands written to the Kalshi websocket"),
		metric.WithUnit("{command}"))

	return sm
}

func (sm *streamMetrics) recordMessage(ctx context.Context, messageType string) {
	if sm == nil || sm.messages == nil {
		return
	}
	ctx = telemetry.EnsureContext(ctx)
	sm.messages.Add(ctx, 1, metric.WithAttributes(telemetry.MessageAttributes(sm.environment, messageType)...))
}

func (sm *streamMetrics) recordDecodeFailure(ctx context.Context) {
	if sm == nil || sm.decodeFailures == nil {
		return
	}
	ctx = telemetry.EnsureContext(ctx)
	sm.decodeFailures.Add(ctx, 1, metric.WithAttributes(telemetry.BaseAttributes(sm.environment)...))
}

func (sm *streamMetrics) recordReconnect(ctx context.Context, result string) {
	if sm == nil || sm.reconnects == nil {
		return
	}
	ctx = telemetry.EnsureContext(ctx)
	sm.reconnects.Add(ctx, 1, metric.WithAttributes(telemetry.ConnectionAttributes(sm.environment, result, "")...))
}

func (sm *streamMetrics) recordDisconnect(ctx context.Context, reason string) {
	if sm == nil || sm.disconnects == nil {
		return
	}
	ctx = telemetry.EnsureContext(ctx)
	sm.disconnects.Add(ctx, 1, metric.WithAttributes(telemetry.ConnectionAttributes(sm.environment, "", reason)...))
}

func (sm *streamMetrics) recordCommand(ctx context.Context, command string, err error) {
	if sm == nil || sm.commands == nil {
		return
	}
	ctx = telemetry.EnsureContext(ctx)
	result := "success"
	if err != nil {
		result = "error"
	}
	sm.commands.Add(ctx, 1, metric.WithAttributes(telemetry.CommandAttributes(sm.environment, command, result)...))
}
