package wire

import (
	"slices"

	json "github.com/goccy/go-json"

	"github.com/coachpo/kalshi-gateway/errs"
)

// SubscriptionParams is the params object of a subscribe command. Nil slices and pointers are
// omitted from the frame.
type SubscriptionParams struct {
	Channels            []Channel `json:"channels"`
	MarketTickers       []string  `json:"market_tickers,omitempty"`
	MarketIDs           []string  `json:"market_ids,omitempty"`
	EventTickers        []string  `json:"event_tickers,omitempty"`
	SendInitialSnapshot *bool     `json:"send_initial_snapshot,omitempty"`
	ShardFactor         *uint32   `json:"shard_factor,omitempty"`
	ShardKey            *string   `json:"shard_key,omitempty"`
}

// Normalized returns a deep copy with channels and filter lists sorted so that semantically
// identical requests compare equal.
func (p SubscriptionParams) Normalized() SubscriptionParams {
	out := p.Clone()
	slices.Sort(out.Channels)
	slices.Sort(out.MarketTickers)
	slices.Sort(out.MarketIDs)
	slices.Sort(out.EventTickers)
	return out
}

// Clone returns a deep copy.
func (p SubscriptionParams) Clone() SubscriptionParams {
	out := SubscriptionParams{
		Channels:      cloneSlice(p.Channels),
		MarketTickers: cloneSlice(p.MarketTickers),
		MarketIDs:     cloneSlice(p.MarketIDs),
		EventTickers:  cloneSlice(p.EventTickers),
	}
	if p.SendInitialSnapshot != nil {
		v := *p.SendInitialSnapshot
		out.SendInitialSnapshot = &v
	}
	if p.ShardFactor != nil {
		v := *p.ShardFactor
		out.ShardFactor = &v
	}
	if p.ShardKey != nil {
		v := *p.ShardKey
		out.ShardKey = &v
	}
	return out
}

// Key returns a canonical identity for the normalized request.
func (p SubscriptionParams) Key() string {
	data, err := json.Marshal(p.Normalized())
	if err != nil {
		return ""
	}
	return string(data)
}

// HasChannel reports whether the request includes ch.
func (p SubscriptionParams) HasChannel(ch Channel) bool {
	return slices.Contains(p.Channels, ch)
}

// RequiresAuth reports whether any requested channel is private.
func (p SubscriptionParams) RequiresAuth() bool {
	for _, ch := range p.Channels {
		if ch.IsPrivate() {
			return true
		}
	}
	return false
}

// Validate enforces the venue's subscribe parameter rules.
func (p SubscriptionParams) Validate() error {
	if len(p.Channels) == 0 {
		return errs.Invalid("subscribe: at least one channel is required")
	}
	hasOrderbookDelta := p.HasChannel(ChannelOrderbookDelta)
	if hasOrderbookDelta && len(p.MarketTickers) == 0 && len(p.MarketIDs) == 0 {
		return errs.Invalid("subscribe: orderbook_delta requires market_tickers or market_ids")
	}
	if p.SendInitialSnapshot != nil && !hasOrderbookDelta {
		return errs.Invalid("subscribe: send_initial_snapshot only allowed for orderbook_delta")
	}
	if p.MarketIDs != nil && p.HasChannel(ChannelMarketPositions) {
		return errs.Invalid("subscribe: market_positions only supports market_tickers")
	}
	if (p.ShardFactor != nil || p.ShardKey != nil) && !p.HasChannel(ChannelCommunications) {
		return errs.Invalid("subscribe: shard_factor/shard_key only allowed for communications")
	}
	return nil
}

// UpdateParams is the params object of an update_subscription command.
type UpdateParams struct {
	SID                 uint64   `json:"sid"`
	MarketTickers       []string `json:"market_tickers,omitempty"`
	MarketIDs           []string `json:"market_ids,omitempty"`
	EventTickers        []string `json:"event_tickers,omitempty"`
	SendInitialSnapshot *bool    `json:"send_initial_snapshot,omitempty"`
	ShardFactor         *uint32  `json:"shard_factor,omitempty"`
	ShardKey            *string  `json:"shard_key,omitempty"`
}

// Apply merges the fields set on u into p and returns the result.
func (u UpdateParams) Apply(p SubscriptionParams) SubscriptionParams {
	out := p.Clone()
	if u.MarketTickers != nil {
		out.MarketTickers = cloneSlice(u.MarketTickers)
	}
	if u.MarketIDs != nil {
		out.MarketIDs = cloneSlice(u.MarketIDs)
	}
	if u.EventTickers != nil {
		out.EventTickers = cloneSlice(u.EventTickers)
	}
	if u.SendInitialSnapshot != nil {
		v := *u.SendInitialSnapshot
		out.SendInitialSnapshot = &v
	}
	if u.ShardFactor != nil {
		v := *u.ShardFactor
		out.ShardFactor = &v
	}
	if u.ShardKey != nil {
		v := *u.ShardKey
		out.ShardKey = &v
	}
	return out
}

// SubscriptionInfo describes one server-side subscription in a list_subscriptions reply.
type SubscriptionInfo struct {
	SID                 uint64    `json:"sid"`
	Channels            []Channel `json:"channels"`
	MarketTickers       []string  `json:"market_tickers,omitempty"`
	MarketIDs           []string  `json:"market_ids,omitempty"`
	EventTickers        []string  `json:"event_tickers,omitempty"`
	SendInitialSnapshot *bool     `json:"send_initial_snapshot,omitempty"`
	ShardFactor         *uint32   `json:"shard_factor,omitempty"`
	ShardKey            *string   `json:"shard_key,omitempty"`
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
