// Package wire implements the Kalshi streaming protocol codec: channel and message type
// names, the inbound envelope, typed payloads and outbound command frames.
package wire

// Channel names a streamed data category.
type Channel string

const (
	ChannelTicker            Channel = "ticker"
	ChannelTickerV2          Channel = "ticker_v2"
	ChannelTrade             Channel = "trade"
	ChannelMarketLifecycleV2 Channel = "market_lifecycle_v2"
	ChannelMultivariate      Channel = "multivariate"
	ChannelOrderbookDelta    Channel = "orderbook_delta"
	ChannelFill              Channel = "fill"
	ChannelMarketPositions   Channel = "market_positions"
	ChannelCommunications    Channel = "communications"
	ChannelOrderGroupUpdates Channel = "order_group_updates"
)

// IsPrivate reports whether subscribing to the channel requires an authenticated connection.
func (c Channel) IsPrivate() bool {
	switch c {
	case ChannelOrderbookDelta, ChannelFill, ChannelMarketPositions, ChannelCommunications, ChannelOrderGroupUpdates:
		return true
	default:
		return false
	}
}

// Known reports whether the channel is one the client models.
func (c Channel) Known() bool {
	switch c {
	case ChannelTicker, ChannelTickerV2, ChannelTrade, ChannelMarketLifecycleV2, ChannelMultivariate:
		return true
	default:
		return c.IsPrivate()
	}
}

func (c Channel) String() string { return string(c) }
