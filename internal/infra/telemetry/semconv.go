package telemetry

import "go.opentelemetry.io/otel/attribute"

// Attribute keys shared by the gateway's metrics.
const (
	// AttrEnvironment specifies the venue environment (demo, production, custom).
	AttrEnvironment = attribute.Key("environment")
	// AttrVenue identifies the upstream venue.
	AttrVenue = attribute.Key("venue")
	// AttrMessageType is the inbound frame type tag.
	AttrMessageType = attribute.Key("message.type")
	// AttrCommandType is the outbound stream command (subscribe, unsubscribe, ...).
	AttrCommandType = attribute.Key("command.type")
	// AttrResult records the outcome of an operation.
	AttrResult = attribute.Key("result")
	// AttrReason gives extra context for failures and disconnects.
	AttrReason = attribute.Key("reason")
	// AttrEndpoint is the REST endpoint template, e.g. /markets/{ticker}.
	AttrEndpoint = attribute.Key("http.endpoint")
	// AttrMethod is the HTTP method.
	AttrMethod = attribute.Key("http.method")
	// AttrStatus is the HTTP status code, or 0 when no response arrived.
	AttrStatus = attribute.Key("http.status")
)

// Metric names.
const (
	StreamMessagesMetric    = "kalshi_ws_messages"
	StreamDecodeErrorMetric = "kalshi_ws_decode_failures"
	StreamReconnectMetric   = "kalshi_ws_reconnects"
	StreamDisconnectMetric  = "kalshi_ws_disconnects"
	StreamCommandMetric     = "kalshi_ws_commands"
	RESTRequestsMetric      = "kalshi_rest_requests"
	RESTLatencyMetric       = "kalshi_rest_latency"
)

// VenueKalshi labels every metric emitted by the Kalshi adapter.
const VenueKalshi = "kalshi"

// BaseAttributes returns the environment and venue labels.
func BaseAttributes(environment string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEnvironment.String(environment),
		AttrVenue.String(VenueKalshi),
	}
}

// MessageAttributes returns attributes for inbound message metrics.
func MessageAttributes(environment, messageType string) []attribute.KeyValue {
	return append(BaseAttributes(environment), AttrMessageType.String(messageType))
}

// CommandAttributes returns attributes for outbound command metrics.
func CommandAttributes(environment, command, result string) []attribute.KeyValue {
	attrs := append(BaseAttributes(environment), AttrCommandType.String(command))
	if result != "" {
		attrs = append(attrs, AttrResult.String(result))
	}
	return attrs
}

// ConnectionAttributes returns attributes for reconnect and disconnect metrics.
func ConnectionAttributes(environment, result, reason string) []attribute.KeyValue {
	attrs := BaseAttributes(environment)
	if result != "" {
		attrs = append(attrs, AttrResult.String(result))
	}
	if reason != "" {
		attrs = append(attrs, AttrReason.String(reason))
	}
	return attrs
}

// RequestAttributes returns attributes for REST request metrics.
func RequestAttributes(environment, method, endpoint string, status int) []attribute.KeyValue {
	return append(BaseAttributes(environment),
		AttrMethod.String(method),
		AttrEndpoint.String(endpoint),
		AttrStatus.Int(status),
	)
}
