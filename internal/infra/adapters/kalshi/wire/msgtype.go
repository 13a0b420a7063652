package wire

// MsgType is the "type" tag of an inbound frame.
type MsgType string

const (
	TypeSubscribed         MsgType = "subscribed"
	TypeUnsubscribed       MsgType = "unsubscribed"
	TypeOK                 MsgType = "ok"
	TypeListSubscriptions  MsgType = "list_subscriptions"
	TypeError              MsgType = "error"
	TypeTicker             MsgType = "ticker"
	TypeTickerV2           MsgType = "ticker_v2"
	TypeTrade              MsgType = "trade"
	TypeOrderbookSnapshot  MsgType = "orderbook_snapshot"
	TypeOrderbookDelta     MsgType = "orderbook_delta"
	TypeFill               MsgType = "fill"
	TypeMarketPositions    MsgType = "market_positions"
	TypeMarketLifecycleV2  MsgType = "market_lifecycle_v2"
	TypeMultivariate       MsgType = "multivariate"
	TypeMultivariateLookup MsgType = "multivariate_lookup"
	TypeCommunications     MsgType = "communications"
	TypeRfqCreated         MsgType = "rfq_created"
	TypeRfqDeleted         MsgType = "rfq_deleted"
	TypeQuoteCreated       MsgType = "quote_created"
	TypeQuoteAccepted      MsgType = "quote_accepted"
	TypeQuoteExecuted      MsgType = "quote_executed"
	TypeOrderGroupUpdates  MsgType = "order_group_updates"
)

// KnownTypes lists every tag the codec decodes into a typed variant or a named control message.
var KnownTypes = []MsgType{
	TypeSubscribed, TypeUnsubscribed, TypeOK, TypeListSubscriptions, TypeError,
	TypeTicker, TypeTickerV2, TypeTrade, TypeOrderbookSnapshot, TypeOrderbookDelta,
	TypeFill, TypeMarketPositions, TypeMarketLifecycleV2, TypeMultivariate, TypeMultivariateLookup,
	TypeCommunications, TypeRfqCreated, TypeRfqDeleted, TypeQuoteCreated, TypeQuoteAccepted,
	TypeQuoteExecuted, TypeOrderGroupUpdates,
}

// Known reports whether the tag is part of the modelled protocol.
func (t MsgType) Known() bool {
	for _, known := range KnownTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t MsgType) String() string { return string(t) }
