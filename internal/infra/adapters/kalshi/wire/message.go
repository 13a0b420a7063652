package wire

// Message is a decoded inbound frame. The set of implementations is closed; Unknown is the fallback.
type Message interface {
	// Type returns the frame's type tag.
	Type() MsgType
	isMessage()
}

// Header carries the envelope fields shared by every data frame.
type Header struct {
	Tag MsgType
	SID *uint64
	Seq *uint64
}

// Type returns the frame's type tag.
func (h Header) Type() MsgType { return h.Tag }

// Meta returns the envelope fields.
func (h Header) Meta() Header { return h }

// Sid returns the subscription id, or zero and false when absent.
func (h Header) Sid() (uint64, bool) { return deref(h.SID) }

// Sequence returns the sequence number, or zero and false when absent.
func (h Header) Sequence() (uint64, bool) { return deref(h.Seq) }

func (Header) isMessage() {}

// DataMessage is implemented by every per-channel data variant.
type DataMessage interface {
	Message
	Meta() Header
}

// Subscribed acknowledges a subscribe command with the server-assigned sid.
type Subscribed struct {
	ID  *uint64
	SID *uint64
}

// Unsubscribed acknowledges an unsubscribe command.
type Unsubscribed struct {
	ID  *uint64
	SID *uint64
}

// OK acknowledges an update_subscription command.
type OK struct {
	ID  *uint64
	SID *uint64
}

// Subscriptions answers a list_subscriptions command.
type Subscriptions struct {
	ID            *uint64
	Subscriptions []SubscriptionInfo
}

// Error is a server-reported error frame.
type Error struct {
	ID  *uint64
	SID *uint64
	Err ErrorBody
}

// Unknown carries a frame whose tag is not modelled. Raw is the undecoded msg value, or nil.
type Unknown struct {
	Tag string
	ID  *uint64
	SID *uint64
	Seq *uint64
	Raw []byte
}

func (Subscribed) Type() MsgType    { return TypeSubscribed }
func (Unsubscribed) Type() MsgType  { return TypeUnsubscribed }
func (OK) Type() MsgType            { return TypeOK }
func (Subscriptions) Type() MsgType { return TypeListSubscriptions }
func (Error) Type() MsgType         { return TypeError }
func (u Unknown) Type() MsgType     { return MsgType(u.Tag) }

func (Subscribed) isMessage()    {}
func (Unsubscribed) isMessage()  {}
func (OK) isMessage()            {}
func (Subscriptions) isMessage() {}
func (Error) isMessage()         {}
func (Unknown) isMessage()       {}

// TickerMessage is a ticker data frame.
type TickerMessage struct {
	Header
	Msg Ticker
}

// TickerV2Message is a ticker_v2 data frame.
type TickerV2Message struct {
	Header
	Msg TickerV2
}

// TradeMessage is a trade data frame.
type TradeMessage struct {
	Header
	Msg Trade
}

// OrderbookSnapshotMessage is an orderbook_snapshot data frame.
type OrderbookSnapshotMessage struct {
	Header
	Msg OrderbookSnapshot
}

// OrderbookDeltaMessage is an orderbook_delta data frame.
type OrderbookDeltaMessage struct {
	Header
	Msg OrderbookDelta
}

// FillMessage is a fill data frame.
type FillMessage struct {
	Header
	Msg Fill
}

// MarketPositionsMessage is a market_positions data frame.
type MarketPositionsMessage struct {
	Header
	Msg MarketPositions
}

// MarketLifecycleMessage is a market_lifecycle_v2 data frame.
type MarketLifecycleMessage struct {
	Header
	Msg MarketLifecycleV2
}

// MultivariateMessage is a multivariate or multivariate_lookup data frame.
type MultivariateMessage struct {
	Header
	Msg Multivariate
}

// CommunicationsMessage is an RFQ or quote frame. Msg holds one of the Communication variants.
type CommunicationsMessage struct {
	Header
	Msg Communication
}

// OrderGroupMessage is an order_group_updates data frame.
type OrderGroupMessage struct {
	Header
	Msg OrderGroupUpdate
}

// CorrelationID returns the command id carried by a control message.
func CorrelationID(m Message) (uint64, bool) {
	switch v := m.(type) {
	case Subscribed:
		return deref(v.ID)
	case Unsubscribed:
		return deref(v.ID)
	case OK:
		return deref(v.ID)
	case Subscriptions:
		return deref(v.ID)
	case Error:
		return deref(v.ID)
	case Unknown:
		return deref(v.ID)
	default:
		return 0, false
	}
}

// SubscriptionID returns the sid carried by any message, when present.
func SubscriptionID(m Message) (uint64, bool) {
	switch v := m.(type) {
	case Subscribed:
		return deref(v.SID)
	case Unsubscribed:
		return deref(v.SID)
	case OK:
		return deref(v.SID)
	case Error:
		return deref(v.SID)
	case Unknown:
		return deref(v.SID)
	case DataMessage:
		return deref(v.Meta().SID)
	default:
		return 0, false
	}
}

func deref(p *uint64) (uint64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
