package stream

import "github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"

// Event is one item delivered by Manager.Next.
type Event interface {
	isEvent()
}

// MessageEvent carries a decoded frame, control messages included.
type MessageEvent struct {
	Message wire.Message
}

// Reconnected reports a new connection with every desired subscription re-sent. Attempt is the
// 1-based attempt that succeeded within this reconnect cycle. Subscription ids from before are void.
type Reconnected struct {
	Attempt int
}

// Disconnected reports that reconnection stopped: attempts were exhausted or the credential was
// rejected. The next call to Next starts a new cycle.
type Disconnected struct {
	Err error
}

// DecodeFailure reports a frame with a known type whose payload did not decode. The connection
// stays open.
type DecodeFailure struct {
	Err error
}

func (MessageEvent) isEvent()  {}
func (Reconnected) isEvent()   {}
func (Disconnected) isEvent()  {}
func (DecodeFailure) isEvent() {}
