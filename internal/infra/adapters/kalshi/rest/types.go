package rest

import (
	json "github.com/goccy/go-json"

	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

// ErrorResponse is the venue's error body.
type ErrorResponse struct {
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
	Service string          `json:"service,omitempty"`
}

// ExchangeStatus reports whether the exchange and trading are active.
type ExchangeStatus struct {
	ExchangeActive              bool    `json:"exchange_active"`
	TradingActive               bool    `json:"trading_active"`
	ExchangeEstimatedResumeTime *string `json:"exchange_estimated_resume_time,omitempty"`
}

// Announcement is one exchange-wide notice.
type Announcement struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	DeliveryTime string `json:"delivery_time"`
	Status       string `json:"status"`
}

type announcementsResponse struct {
	Announcements []Announcement `json:"announcements"`
}

// SettlementSource names where a series resolves from.
type SettlementSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Series is a template for recurring events.
type Series struct {
	Ticker                 string             `json:"ticker"`
	Frequency              *string            `json:"frequency,omitempty"`
	Title                  *string            `json:"title,omitempty"`
	Category               *string            `json:"category,omitempty"`
	Tags                   []string           `json:"tags,omitempty"`
	SettlementSources      []SettlementSource `json:"settlement_sources,omitempty"`
	ContractURL            *string            `json:"contract_url,omitempty"`
	ContractTermsURL       *string            `json:"contract_terms_url,omitempty"`
	FeeType                *string            `json:"fee_type,omitempty"`
	FeeMultiplier          *int64             `json:"fee_multiplier,omitempty"`
	AdditionalProhibitions []string           `json:"additional_prohibitions,omitempty"`
	ProductMetadata        json.RawMessage    `json:"product_metadata,omitempty"`
	Volume                 *int64             `json:"volume,omitempty"`
	VolumeFP               *schema.Count      `json:"volume_fp,omitempty"`
	LatestEventTicker      *string            `json:"latest_event_ticker,omitempty"`
	Inactive               *bool              `json:"inactive,omitempty"`
}

type seriesListResponse struct {
	Series []Series `json:"series"`
}

type seriesResponse struct {
	Series Series `json:"series"`
}

// Milestone is a dated checkpoint attached to an event.
type Milestone struct {
	Name        *string `json:"name,omitempty"`
	TS          *int64  `json:"ts,omitempty"`
	Status      *string `json:"status,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Event groups related markets.
type Event struct {
	EventTicker          string          `json:"event_ticker"`
	SeriesTicker         *string         `json:"series_ticker,omitempty"`
	Title                *string         `json:"title,omitempty"`
	SubTitle             *string         `json:"sub_title,omitempty"`
	Category             *string         `json:"category,omitempty"`
	Status               *string         `json:"status,omitempty"`
	MutuallyExclusive    *bool           `json:"mutually_exclusive,omitempty"`
	StrikeDate           *string         `json:"strike_date,omitempty"`
	CollateralReturnType *string         `json:"collateral_return_type,omitempty"`
	AvailableOnBrokers   *bool           `json:"available_on_brokers,omitempty"`
	Volume               *int64          `json:"volume,omitempty"`
	VolumeFP             *schema.Count   `json:"volume_fp,omitempty"`
	Markets              []Market        `json:"markets,omitempty"`
	Milestones           []Milestone     `json:"milestones,omitempty"`
	CustomStrike         json.RawMessage `json:"custom_strike,omitempty"`
}

type eventsResponse struct {
	Events []Event `json:"events"`
	Cursor string  `json:"cursor"`
}

type eventResponse struct {
	Event   Event    `json:"event"`
	Markets []Market `json:"markets,omitempty"`
}

// Market is one tradable binary contract.
type Market struct {
	Ticker           string                `json:"ticker"`
	EventTicker      *string               `json:"event_ticker,omitempty"`
	MarketID         *string               `json:"market_id,omitempty"`
	Status           *schema.MarketState   `json:"status,omitempty"`
	MarketType       *string               `json:"market_type,omitempty"`
	Title            *string               `json:"title,omitempty"`
	Subtitle         *string               `json:"subtitle,omitempty"`
	YesSubTitle      *string               `json:"yes_sub_title,omitempty"`
	NoSubTitle       *string               `json:"no_sub_title,omitempty"`
	RulesPrimary     *string               `json:"rules_primary,omitempty"`
	Result           *string               `json:"result,omitempty"`
	CanCloseEarly    *bool                 `json:"can_close_early,omitempty"`
	OpenTime         *string               `json:"open_time,omitempty"`
	CloseTime        *string               `json:"close_time,omitempty"`
	ExpirationTime   *string               `json:"expiration_time,omitempty"`
	CreatedTime      *string               `json:"created_time,omitempty"`
	UpdatedTime      *string               `json:"updated_time,omitempty"`
	YesBid           *int64                `json:"yes_bid,omitempty"`
	YesAsk           *int64                `json:"yes_ask,omitempty"`
	NoBid            *int64                `json:"no_bid,omitempty"`
	NoAsk            *int64                `json:"no_ask,omitempty"`
	LastPrice        *int64                `json:"last_price,omitempty"`
	YesBidDollars    *schema.Dollars       `json:"yes_bid_dollars,omitempty"`
	YesAskDollars    *schema.Dollars       `json:"yes_ask_dollars,omitempty"`
	NoBidDollars     *schema.Dollars       `json:"no_bid_dollars,omitempty"`
	NoAskDollars     *schema.Dollars       `json:"no_ask_dollars,omitempty"`
	LastPriceDollars *schema.Dollars       `json:"last_price_dollars,omitempty"`
	Volume           *int64                `json:"volume,omitempty"`
	VolumeFP         *schema.Count         `json:"volume_fp,omitempty"`
	Volume24h        *int64                `json:"volume_24h,omitempty"`
	Volume24hFP      *schema.Count         `json:"volume_24h_fp,omitempty"`
	OpenInterest     *int64                `json:"open_interest,omitempty"`
	OpenInterestFP   *schema.Count         `json:"open_interest_fp,omitempty"`
	Liquidity        *int64                `json:"liquidity,omitempty"`
	LiquidityDollars *schema.Dollars       `json:"liquidity_dollars,omitempty"`
	MveSelectedLegs  []wire.MveSelectedLeg `json:"mve_selected_legs,omitempty"`
	CustomStrike     json.RawMessage       `json:"custom_strike,omitempty"`
}

type marketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

type marketResponse struct {
	Market Market `json:"market"`
}

// Orderbook holds resting bids for both sides. Cent levels are (price, quantity); dollar levels
// carry fixed-point prices.
type Orderbook struct {
	Yes        [][2]int64         `json:"yes,omitempty"`
	No         [][2]int64         `json:"no,omitempty"`
	YesDollars []wire.DollarLevel `json:"yes_dollars,omitempty"`
	NoDollars  []wire.DollarLevel `json:"no_dollars,omitempty"`
}

// OrderbookFP holds fixed-point levels for both sides.
type OrderbookFP struct {
	YesDollars []wire.FixedLevel `json:"yes_dollars,omitempty"`
	NoDollars  []wire.FixedLevel `json:"no_dollars,omitempty"`
}

// OrderbookResponse is the reply of the orderbook endpoint.
type OrderbookResponse struct {
	Orderbook   Orderbook    `json:"orderbook"`
	OrderbookFP *OrderbookFP `json:"orderbook_fp,omitempty"`
}

// Trade is one public execution.
type Trade struct {
	TradeID         string                 `json:"trade_id"`
	Ticker          string                 `json:"ticker"`
	Price           *int64                 `json:"price,omitempty"`
	Count           *int64                 `json:"count,omitempty"`
	CountFP         *schema.Count          `json:"count_fp,omitempty"`
	YesPrice        *int64                 `json:"yes_price,omitempty"`
	NoPrice         *int64                 `json:"no_price,omitempty"`
	YesPriceDollars *schema.Dollars        `json:"yes_price_dollars,omitempty"`
	NoPriceDollars  *schema.Dollars        `json:"no_price_dollars,omitempty"`
	TakerSide       *schema.TradeTakerSide `json:"taker_side,omitempty"`
	CreatedTime     *string                `json:"created_time,omitempty"`
}

type tradesResponse struct {
	Trades []Trade `json:"trades"`
	Cursor string  `json:"cursor"`
}

// Balance is the account balance in cents.
type Balance struct {
	Balance        int64 `json:"balance"`
	PortfolioValue int64 `json:"portfolio_value"`
	UpdatedTS      int64 `json:"updated_ts"`
}

// PositionsPage is one page of the positions endpoint.
type PositionsPage struct {
	MarketPositions []schema.MarketPosition `json:"market_positions"`
	EventPositions  []schema.EventPosition  `json:"event_positions"`
	Cursor          string                  `json:"cursor"`
}

// Order is an order record as reported by the portfolio endpoints.
type Order struct {
	OrderID                 string                      `json:"order_id"`
	Ticker                  string                      `json:"ticker"`
	Status                  *schema.OrderStatus         `json:"status,omitempty"`
	Side                    *schema.YesNo               `json:"side,omitempty"`
	Action                  *schema.BuySell             `json:"action,omitempty"`
	Type                    *schema.OrderType           `json:"type,omitempty"`
	Count                   *int64                      `json:"count,omitempty"`
	CountFP                 *schema.Count               `json:"count_fp,omitempty"`
	RemainingCount          *int64                      `json:"remaining_count,omitempty"`
	RemainingCountFP        *schema.Count               `json:"remaining_count_fp,omitempty"`
	FilledCount             *int64                      `json:"filled_count,omitempty"`
	FilledCountFP           *schema.Count               `json:"filled_count_fp,omitempty"`
	YesPrice                *int64                      `json:"yes_price,omitempty"`
	NoPrice                 *int64                      `json:"no_price,omitempty"`
	YesPriceDollars         *schema.Dollars             `json:"yes_price_dollars,omitempty"`
	NoPriceDollars          *schema.Dollars             `json:"no_price_dollars,omitempty"`
	CreatedTime             *string                     `json:"created_time,omitempty"`
	UpdatedTime             *string                     `json:"updated_time,omitempty"`
	ClientOrderID           *string                     `json:"client_order_id,omitempty"`
	OrderGroupID            *string                     `json:"order_group_id,omitempty"`
	TimeInForce             *schema.TimeInForce         `json:"time_in_force,omitempty"`
	ReduceOnly              *bool                       `json:"reduce_only,omitempty"`
	PostOnly                *bool                       `json:"post_only,omitempty"`
	CancelOrderOnPause      *bool                       `json:"cancel_order_on_pause,omitempty"`
	SelfTradePreventionType *schema.SelfTradePrevention `json:"self_trade_prevention_type,omitempty"`
	Subaccount              *uint32                     `json:"subaccount,omitempty"`
	FeesPaid                *int64                      `json:"fees_paid,omitempty"`
	FeesPaidFP              *schema.Dollars             `json:"fees_paid_fp,omitempty"`
}

// UnmarshalJSON accepts the *_price_fixed and order_type spellings.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	aux := struct {
		*plain
		YesPriceFixed *schema.Dollars   `json:"yes_price_fixed"`
		NoPriceFixed  *schema.Dollars   `json:"no_price_fixed"`
		OrderType     *schema.OrderType `json:"order_type"`
	}{plain: (*plain)(o)}
	if     err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if o.YesPriceDollars == nil {
		o.YesPriceDollars = aux.YesPriceFixed
	}
	if o.NoPriceDollars == nil {
		o.NoPriceDollars = aux.NoPriceFixed
	}
	if o.Type == nil {
		o.Type = aux.OrderType
	}
	return nil
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
	Cursor string  `json:"cursor"`
}

type orderResponse struct {
	Order Order `json:"order"`
}

// CancelOrderResponse reports the cancelled order and how many contracts were removed.
type CancelOrderResponse struct {
	Order       Order        `json:"order"`
	ReducedBy   int64        `json:"reduced_by"`
	ReducedByFP schema.Count `json:"reduced_by_fp"`
}

// Fill is one execution of the account's order.
type Fill struct {
	FillID           string          `json:"fill_id"`
	OrderID          string          `json:"order_id"`
	TradeID          string          `json:"trade_id"`
	Ticker           string          `json:"ticker"`
	MarketTicker     *string         `json:"market_ticker,omitempty"`
	Count            *int64          `json:"count,omitempty"`
	CountFP          *schema.Count   `json:"count_fp,omitempty"`
	YesPrice         *int64          `json:"yes_price,omitempty"`
	NoPrice          *int64          `json:"no_price,omitempty"`
	YesPriceFixed    *schema.Dollars `json:"yes_price_fixed,omitempty"`
	NoPriceFixed     *schema.Dollars `json:"no_price_fixed,omitempty"`
	Side             *schema.YesNo   `json:"side,omitempty"`
	Action           *schema.BuySell `json:"action,omitempty"`
	IsTaker          *bool           `json:"is_taker,omitempty"`
	FeeCost          *schema.Dollars `json:"fee_cost,omitempty"`
	CreatedTime      *string         `json:"created_time,omitempty"`
	SubaccountNumber *uint32         `json:"subaccount_number,omitempty"`
}

// UnmarshalJSON accepts the *_price_dollars spellings.
func (f *Fill) UnmarshalJSON(data []byte) error {
	type plain Fill
	aux := struct {
		*plain
		YesPriceDollars *schema.Dollars `json:"yes_price_dollars"`
		NoPriceDollars  *schema.Dollars `json:"no_price_dollars"`
	}{plain: (*plain)(f)}
	if     err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if f.YesPriceFixed == nil {
		f.YesPriceFixed = aux.YesPriceDollars
	}
	if f.NoPriceFixed == nil {
		f.NoPriceFixed = aux.NoPriceDollars
	}
	return nil
}

type fillsResponse struct {
	Fills  []Fill `json:"fills"`
	Cursor string `json:"cursor"`
}

// Settlement is the payout of a settled market position.
type Settlement struct {
	SettlementID string          `json:"settlement_id"`
	Ticker       string          `json:"ticker"`
	MarketTicker *string         `json:"market_ticker,omitempty"`
	EventTicker  *string         `json:"event_ticker,omitempty"`
	MarketResult *string         `json:"market_result,omitempty"`
	YesCount     *int64          `json:"yes_count,omitempty"`
	YesCountFP   *schema.Count   `json:"yes_count_fp,omitempty"`
	YesTotalCost *schema.Dollars `json:"yes_total_cost,omitempty"`
	NoCount      *int64          `json:"no_count,omitempty"`
	NoCountFP    *schema.Count   `json:"no_count_fp,omitempty"`
	NoTotalCost  *schema.Dollars `json:"no_total_cost,omitempty"`
	Revenue      *schema.Dollars `json:"revenue,omitempty"`
	SettledTime  *string         `json:"settled_time,omitempty"`
	FeeCost      *schema.Dollars `json:"fee_cost,omitempty"`
	Value        *schema.Dollars `json:"value,omitempty"`
	CreatedTime  *string         `json:"created_time,omitempty"`
}

type settlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
	Cursor      string       `json:"cursor"`
}

// APILimits reports the account's access tier and request allowances.
type APILimits struct {
	UsageTier  string `json:"usage_tier"`
	ReadLimit  int64  `json:"read_limit"`
	WriteLimit int64  `json:"write_limit"`
}

// UserDataTimestamp reports when portfolio data was last refreshed.
type UserDataTimestamp struct {
	AsOfTime string `json:"as_of_time"`
}
