package schema

// MarketStatus is the status filter accepted by the market listing endpoint.
type MarketStatus string

const (
	MarketUnopened MarketStatus = "unopened"
	MarketOpen     MarketStatus = "open"
	MarketPaused   MarketStatus = "paused"
	MarketClosed   MarketStatus = "closed"
	MarketSettled  MarketStatus = "settled"
)

// MarketState is the lifecycle state reported on market records.
type MarketState string

const (
	StateInitialized MarketState = "initialized"
	StateInactive    MarketState = "inactive"
	StateActive      MarketState = "active"
	StateClosed      MarketState = "closed"
	StateDetermined  MarketState = "determined"
	StateDisputed    MarketState = "disputed"
	StateAmended     MarketState = "amended"
	StateFinalized   MarketState = "finalized"
	StateUnknown     MarketState = unknownValue
)

// UnmarshalJSON maps unrecognised states to StateUnknown.
func (v *MarketState) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data,
		string(StateInitialized), string(StateInactive), string(StateActive), string(StateClosed),
		string(StateDetermined), string(StateDisputed), string(StateAmended), string(StateFinalized))
	if err != nil {
		return err
	}
	*v = MarketState(s)
	return nil
}

// MveFilter includes or excludes multivariate event markets from listings.
type MveFilter string

const (
	MveOnly    MveFilter = "only"
	MveExclude MveFilter = "exclude"
)

// EventStatus filters event listings.
type EventStatus string

const (
	EventOpen    EventStatus = "open"
	EventClosed  EventStatus = "closed"
	EventSettled EventStatus = "settled"
)

// PositionCountFilter restricts position listings to non-zero fields.
type PositionCountFilter string

const (
	CountPosition    PositionCountFilter = "position"
	CountTotalTraded PositionCountFilter = "total_traded"
)
