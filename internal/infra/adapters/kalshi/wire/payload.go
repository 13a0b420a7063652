package wire

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
)

// Ticker is the payload of the ticker channel.
type Ticker struct {
	MarketTicker       string         `json:"market_ticker"`
	MarketID           string         `json:"market_id"`
	Price              int64          `json:"price"`
	YesBid             int64          `json:"yes_bid"`
	YesAsk             int64          `json:"yes_ask"`
	PriceDollars       schema.Dollars `json:"price_dollars"`
	YesBidDollars      schema.Dollars `json:"yes_bid_dollars"`
	YesAskDollars      schema.Dollars `json:"yes_ask_dollars"`
	Volume             int64          `json:"volume"`
	VolumeFP           schema.Count   `json:"volume_fp"`
	OpenInterest       int64          `json:"open_interest"`
	OpenInterestFP     schema.Count   `json:"open_interest_fp"`
	DollarVolume       int64          `json:"dollar_volume"`
	DollarOpenInterest int64          `json:"dollar_open_interest"`
	TS                 int64          `json:"ts"`
}

var tickerRequired = []string{
	"market_ticker", "market_id", "price", "yes_bid", "yes_ask", "price_dollars",
	"yes_bid_dollars", "yes_ask_dollars", "volume", "volume_fp", "open_interest",
	"open_interest_fp", "dollar_volume", "dollar_open_interest", "ts",
}

// TickerV2 is the payload of the ticker_v2 channel. Only changed fields are present.
type TickerV2 struct {
	MarketTicker   string          `json:"market_ticker"`
	MarketID       *string         `json:"market_id,omitempty"`
	Price          *int64          `json:"price,omitempty"`
	PriceDollars   *schema.Dollars `json:"price_dollars,omitempty"`
	YesBid         *int64          `json:"yes_bid,omitempty"`
	YesAsk         *int64          `json:"yes_ask,omitempty"`
	NoBid          *int64          `json:"no_bid,omitempty"`
	NoAsk          *int64          `json:"no_ask,omitempty"`
	Volume         *int64          `json:"volume,omitempty"`
	VolumeFP       *schema.Count   `json:"volume_fp,omitempty"`
	OpenInterest   *int64          `json:"open_interest,omitempty"`
	OpenInterestFP *schema.Count   `json:"open_interest_fp,omitempty"`
	TS             *int64          `json:"ts,omitempty"`
}

var tickerV2Required = []string{"market_ticker"}

// Trade is the payload of the public trade channel.
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

var tradeRequired = []string{"trade_id", "ticker"}

// DollarLevel is a (price_dollars, quantity) book level.
type DollarLevel struct {
	Price    schema.Dollars
	Quantity int64
}

// UnmarshalJSON decodes a two element array.
func (l *DollarLevel) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("dollar level: %w", err)
	}
	if err := json.Unmarshal(pair[0], &l.Price); err != nil {
		return fmt.Errorf("dollar level price: %w", err)
	}
	if err := json.Unmarshal(pair[1], &l.Quantity); err != nil {
		return fmt.Errorf("dollar level quantity: %w", err)
	}
	return nil
}

// FixedLevel is a fully fixed-point (price_dollars, quantity_fp) book level.
type FixedLevel struct {
	Price    schema.Dollars
	Quantity schema.Count
}

// UnmarshalJSON decodes a two element array of strings.
func (l *FixedLevel) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("fixed level: %w", err)
	}
	l.Price = schema.Dollars(pair[0])
	l.Quantity = schema.Count(pair[1])
	return nil
}

// OrderbookSnapshot carries the full book for one market. Cent levels are (price, quantity).
type OrderbookSnapshot struct {
	MarketTicker string        `json:"market_ticker"`
	MarketID     string        `json:"market_id"`
	Yes          [][2]int64    `json:"yes,omitempty"`
	No           [][2]int64    `json:"no,omitempty"`
	YesDollars   []DollarLevel `json:"yes_dollars,omitempty"`
	NoDollars    []DollarLevel `json:"no_dollars,omitempty"`
	YesDollarsFP []FixedLevel  `json:"yes_dollars_fp,omitempty"`
	NoDollarsFP  []FixedLevel  `json:"no_dollars_fp,omitempty"`
}

var orderbookSnapshotRequired = []string{"market_ticker", "market_id"}

// OrderbookDelta is a single level change for one side of a market.
type OrderbookDelta struct {
	MarketTicker  string         `json:"market_ticker"`
	MarketID      string         `json:"market_id"`
	Price         int64          `json:"price"`
	PriceDollars  schema.Dollars `json:"price_dollars"`
	Delta         int64          `json:"delta"`
	DeltaFP       schema.Count   `json:"delta_fp"`
	Side          schema.YesNo   `json:"side"`
	ClientOrderID *string        `json:"client_order_id,omitempty"`
	Subaccount    *int64         `json:"subaccount,omitempty"`
	TS            *string        `json:"ts,omitempty"`
}

var orderbookDeltaRequired = []string{
	"market_ticker", "market_id", "price", "price_dollars", "delta", "delta_fp", "side",
}

// Fill reports an execution against one of the account's orders.
type Fill struct {
	FillID           string         `json:"fill_id"`
	TradeID          string         `json:"trade_id"`
	OrderID          string         `json:"order_id"`
	ClientOrderID    *string        `json:"client_order_id,omitempty"`
	Ticker           string         `json:"ticker"`
	MarketTicker     string         `json:"market_ticker"`
	Side             schema.YesNo   `json:"side"`
	Action           schema.BuySell `json:"action"`
	Count            int64          `json:"count"`
	CountFP          schema.Count   `json:"count_fp"`
	YesPrice         int64          `json:"yes_price"`
	NoPrice          int64          `json:"no_price"`
	YesPriceFixed    schema.Dollars `json:"yes_price_fixed"`
	NoPriceFixed     schema.Dollars `json:"no_price_fixed"`
	IsTaker          bool           `json:"is_taker"`
	FeeCost          schema.Dollars `json:"fee_cost"`
	CreatedTime      *string        `json:"created_time,omitempty"`
	SubaccountNumber *int64         `json:"subaccount_number,omitempty"`
	TS               *int64         `json:"ts,omitempty"`
}

var fillRequired = []string{
	"fill_id", "trade_id", "order_id", "ticker", "market_ticker", "side", "action",
	"count", "count_fp", "yes_price", "no_price", "yes_price_fixed|yes_price_dollars",
	"no_price_fixed|no_price_dollars", "is_taker", "fee_cost",
}

// UnmarshalJSON accepts the *_dollars spellings of the fixed prices.
func (f *Fill) UnmarshalJSON(data []byte) error {
	type plain Fill
	aux := struct {
		*plain
		YesPriceDollars *schema.Dollars `json:"yes_price_dollars"`
		NoPriceDollars  *schema.Dollars `json:"no_price_dollars"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if f.YesPriceFixed == "" && aux.YesPriceDollars != nil {
		f.YesPriceFixed = *aux.YesPriceDollars
	}
	if f.NoPriceFixed == "" && aux.NoPriceDollars != nil {
		f.NoPriceFixed = *aux.NoPriceDollars
	}
	return nil
}

// MarketLifecycleV2 reports market state transitions.
type MarketLifecycleV2 struct {
	MarketTicker string               `json:"market_ticker"`
	Status       *schema.MarketStatus `json:"status,omitempty"`
	CanTrade     *bool                `json:"can_trade,omitempty"`
	CanSettle    *bool                `json:"can_settle,omitempty"`
	OpenTime     *string              `json:"open_time,omitempty"`
	CloseTime    *string              `json:"close_time,omitempty"`
	SettledTime  *string              `json:"settled_time,omitempty"`
}

var marketLifecycleRequired = []string{"market_ticker"}

// MarketPositions carries the account's current market and event positions. Either list may be absent.
type MarketPositions struct {
	MarketPositions []schema.MarketPosition `json:"market_positions"`
	EventPositions  []schema.EventPosition  `json:"event_positions"`
}

var marketPositionsRequired []string

// SelectedMarket is one leg of a multivariate combination.
type SelectedMarket struct {
	EventTicker  string       `json:"event_ticker"`
	MarketTicker string       `json:"market_ticker"`
	Side         schema.YesNo `json:"side"`
}

var selectedMarketRequired = []string{"event_ticker", "market_ticker", "side"}

// UnmarshalJSON rejects legs without their tickers or side.
func (m *SelectedMarket) UnmarshalJSON(data []byte) error {
	type plain SelectedMarket
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	if err := missingKeys(data, selectedMarketRequired); err != nil {
		return fmt.Errorf("selected market: %w", err)
	}
	*m = SelectedMarket(out)
	return nil
}

// Multivariate is the payload of multivariate and multivariate_lookup frames.
type Multivariate struct {
	CollectionTicker string           `json:"collection_ticker"`
	EventTicker      string           `json:"event_ticker"`
	MarketTicker     string           `json:"market_ticker"`
	SelectedMarkets  []SelectedMarket `json:"selected_markets"`
}

var multivariateRequired = []string{"collection_ticker", "event_ticker", "market_ticker", "selected_markets"}

// OrderGroupEvent classifies an order group update.
type OrderGroupEvent string

const (
	OrderGroupCreated      OrderGroupEvent = "created"
	OrderGroupTriggered    OrderGroupEvent = "triggered"
	OrderGroupReset        OrderGroupEvent = "reset"
	OrderGroupDeleted      OrderGroupEvent = "deleted"
	OrderGroupLimitUpdated OrderGroupEvent = "limit_updated"
	OrderGroupUnknown      OrderGroupEvent = "unknown"
)

// UnmarshalJSON maps unrecognised event types to OrderGroupUnknown.
func (e *OrderGroupEvent) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := OrderGroupEvent(raw); v {
	case OrderGroupCreated, OrderGroupTriggered, OrderGroupReset, OrderGroupDeleted, OrderGroupLimitUpdated:
		*e = v
	default:
		*e = OrderGroupUnknown
	}
	return nil
}

// OrderGroupUpdate is the payload of order_group_updates frames.
type OrderGroupUpdate struct {
	EventType        OrderGroupEvent `json:"event_type"`
	OrderGroupID     string          `json:"order_group_id"`
	ContractsLimitFP *schema.Count   `json:"contracts_limit_fp,omitempty"`
}

var orderGroupRequired = []string{"event_type", "order_group_id"}

// ErrorBody is the msg object of an error frame.
type ErrorBody struct {
	Code    *int64  `json:"code,omitempty"`
	Message *string `json:"message,omitempty"`
}

// UnmarshalJSON accepts both "message" and the shorter "msg" spelling.
func (e *ErrorBody) UnmarshalJSON(data []byte) error {
	var aux struct {
		Code    *int64  `json:"code"`
		Message *string `json:"message"`
		Msg     *string `json:"msg"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Code = aux.Code
	e.Message = aux.Message
	if e.Message == nil {
		e.Message = aux.Msg
	}
	return nil
}

func (e ErrorBody) String() string {
	code := "?"
	if e.Code != nil {
		code = fmt.Sprint(*e.Code)
	}
	msg := ""
	if e.Message != nil {
		msg = *e.Message
	}
	return "code=" + code + " message=" + msg
}
