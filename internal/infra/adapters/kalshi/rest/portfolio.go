package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
)

const maxSubaccount = 32

// GetBalance returns the account balance.
func (c *Client) GetBalance(ctx context.Context) (Balance, error) {
	var out Balance
	err := c.do(ctx, call{method: http.MethodGet, route: "/portfolio/balance", path: "/portfolio/balance", auth: true}, &out)
	return out, err
}

// PositionsParams filter GetPositions.
type PositionsParams struct {
	Cursor       string
	Limit        int
	CountFilter  []schema.PositionCountFilter
	Ticker       string
	EventTickers []string
	Subaccount   *uint32
}

// Validate checks limits and the subaccount range.
func (p PositionsParams) Validate() error {
	if p.Limit < 0 || p.Limit > 1000 {
		return errs.Invalid("GET /portfolio/positions: limit must be 1..=1000")
	}
	if len(p.EventTickers) > 10 {
		return errs.Invalid("GET /portfolio/positions: event_ticker supports up to 10 tickers")
	}
	return validSubaccount(p.Subaccount)
}

func (p PositionsParams) query() *query {
	filters := make([]string, 0, len(p.CountFilter))
	for _, f := range p.CountFilter {
		filters = append(filters, string(f))
	}
	return newQuery().
		str("cursor", p.Cursor).
		limit(p.Limit).
		csv("count_filter", filters).
		str("ticker", p.Ticker).
		csv("event_ticker", p.EventTickers).
		u32("subaccount", p.Subaccount)
}

// GetPositions returns one page of market and event positions.
func (c *Client) GetPositions(ctx context.Context, p PositionsParams) (PositionsPage, error) {
	if err := p.Validate(); err != nil {
		return PositionsPage{}, err
	}
	var out PositionsPage
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/portfolio/positions",
		path:   "/portfolio/positions",
		query:  p.query().values(),
		auth:   true,
	}, &out)
	return out, err
}

// PositionsPager walks GetPositions; each item is a whole page since a page carries two lists.
func (c *Client) PositionsPager(p PositionsParams) *Pager[PositionsPage] {
	return NewPager(p.Cursor, func(ctx context.Context, cursor string) ([]PositionsPage, string, error) {
		p.Cursor = cursor
		page, err := c.GetPositions(ctx, p)
		if err != nil {
			return nil, "", err
		}
		return []PositionsPage{page}, page.Cursor, nil
	})
}

// OrdersParams filter GetOrders.
type OrdersParams struct {
	Ticker       string
	EventTickers []string
	MinTS        *int64
	MaxTS        *int64
	Status       schema.OrderStatus
	Limit        int
	Cursor       string
	Subaccount   *uint32
}

// Validate checks limits and the subaccount range.
func (p OrdersParams) Validate() error {
	if p.Limit < 0 || p.Limit > 200 {
		return errs.Invalid("GET /portfolio/orders: limit must be 1..=200")
	}
	if len(p.EventTickers) > 10 {
		return errs.Invalid("GET /portfolio/orders: event_ticker supports up to 10 tickers")
	}
	return validSubaccount(p.Subaccount)
}

func (p OrdersParams) query() *query {
	return newQuery().
		str("ticker", p.Ticker).
		csv("event_ticker", p.EventTickers).
		i64("min_ts", p.MinTS).
		i64("max_ts", p.MaxTS).
		str("status", string(p.Status)).
		limit(p.Limit).
		str("cursor", p.Cursor).
		u32("subaccount", p.Subaccount)
}

// OrdersPage is one page of GetOrders.
type OrdersPage struct {
	Orders []Order
	Cursor string
}

// GetOrders lists the account's orders.
func (c *Client) GetOrders(ctx context.Context, p OrdersParams) (OrdersPage, error) {
	if err := p.Validate(); err != nil {
		return OrdersPage{}, err
	}
	var out ordersResponse
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/portfolio/orders",
		path:   "/portfolio/orders",
		query:  p.query().values(),
		auth:   true,
	}, &out)
	return OrdersPage{Orders: out.Orders, Cursor: out.Cursor}, err
}

// OrdersPager walks GetOrders from p.Cursor.
func (c *Client) OrdersPager(p OrdersParams) *Pager[Order] {
	return NewPager(p.Cursor, func(ctx context.Context, cursor string) ([]Order, string, error) {
		p.Cursor = cursor
		page, err := c.GetOrders(ctx, p)
		return page.Orders, page.Cursor, err
	})
}

// CreateOrderRequest is the body of POST /portfolio/orders. Prices are either cents or
// fixed-point dollars, for one side only.
type CreateOrderRequest struct {
	Ticker                  string                     `json:"ticker"`
	Side                    schema.YesNo               `json:"side"`
	Action                  schema.BuySell             `json:"action"`
	ClientOrderID           string                     `json:"client_order_id,omitempty"`
	Count                   *uint32                    `json:"count,omitempty"`
	CountFP                 *schema.Count              `json:"count_fp,omitempty"`
	Type                    schema.OrderType           `json:"type,omitempty"`
	YesPrice                *uint32                    `json:"yes_price,omitempty"`
	NoPrice                 *uint32                    `json:"no_price,omitempty"`
	YesPriceDollars         *schema.Dollars            `json:"yes_price_dollars,omitempty"`
	NoPriceDollars          *schema.Dollars            `json:"no_price_dollars,omitempty"`
	ExpirationTS            *int64                     `json:"expiration_ts,omitempty"`
	TimeInForce             schema.TimeInForce         `json:"time_in_force,omitempty"`
	BuyMaxCost              *uint32                    `json:"buy_max_cost,omitempty"`
	PostOnly                *bool                      `json:"post_only,omitempty"`
	ReduceOnly              *bool                      `json:"reduce_only,omitempty"`
	SellPositionFloor       *uint32                    `json:"sell_position_floor,omitempty"`
	SelfTradePreventionType schema.SelfTradePrevention `json:"self_trade_prevention_type,omitempty"`
	OrderGroupID            string                     `json:"order_group_id,omitempty"`
	CancelOrderOnPause      *bool                      `json:"cancel_order_on_pause,omitempty"`
	Subaccount              *uint32                    `json:"subaccount,omitempty"`
}

// Validate rejects field combinations the venue would refuse.
func (r CreateOrderRequest) Validate() error {
	if r.Count == nil && r.CountFP == nil {
		return errs.Invalid("CreateOrderRequest: must provide count or count_fp")
	}
	if r.Count != nil && r.CountFP != nil {
		if fp, err := r.CountFP.Decimal(); err == nil && !fp.Equal(decimal.NewFromInt(int64(*r.Count))) {
			return errs.Invalid("CreateOrderRequest: count and count_fp must match")
		}
	}

	yesCents, noCents := r.YesPrice != nil, r.NoPrice != nil
	yesDollars, noDollars := r.YesPriceDollars != nil, r.NoPriceDollars != nil
	if yesCents && yesDollars {
		return errs.Invalid("CreateOrderRequest: cannot set both yes_price and yes_price_dollars")
	}
	if noCents && noDollars {
		return errs.Invalid("CreateOrderRequest: cannot set both no_price and no_price_dollars")
	}
	if (yesCents || yesDollars) && (noCents || noDollars) {
		return errs.Invalid("CreateOrderRequest: cannot set both yes and no prices")
	}
	priced := yesCents || noCents || yesDollars || noDollars
	if r.Type == schema.OrderTypeMarket && priced {
		return errs.Invalid("CreateOrderRequest: market orders cannot include price fields")
	}
	if r.Type == schema.OrderTypeLimit && !priced {
		return errs.Invalid("CreateOrderRequest: limit orders require a price")
	}
	if r.Subaccount != nil && *r.Subaccount > maxSubaccount {
		return errs.Invalid("CreateOrderRequest: subaccount must be 0..=32")
	}
	if r.SellPositionFloor != nil && *r.SellPositionFloor != 0 {
		return errs.Invalid("CreateOrderRequest: sell_position_floor must be 0 (deprecated)")
	}
	return nil
}

// CreateOrder places an order. An empty ClientOrderID is replaced with a random UUID so the
// returned order can be matched against user channel updates.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	if err := req.Validate(); err != nil {
		return Order{}, err
	}
	if strings.TrimSpace(req.ClientOrderID) == "" {
		req.ClientOrderID = uuid.NewString()
	}
	var out orderResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/portfolio/orders",
		path:   "/portfolio/orders",
		body:   req,
		auth:   true,
	}, &out)
	return out.Order, err
}

// CancelOrder cancels a resting order. subaccount may be nil for the primary account.
func (c *Client) CancelOrder(ctx context.Context, orderID string, subaccount *uint32) (CancelOrderResponse, error) {
	if strings.TrimSpace(orderID) == "" {
		return CancelOrderResponse{}, errs.Invalid("DELETE /portfolio/orders/{order_id}: order id required")
	}
	if err := validSubaccount(subaccount); err != nil {
		return CancelOrderResponse{}, err
	}
	var out CancelOrderResponse
	err := c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/portfolio/orders/{order_id}",
		path:   "/portfolio/orders/" + segment(orderID),
		query:  newQuery().u32("subaccount", subaccount).values(),
		auth:   true,
	}, &out)
	return out, err
}

// FillsParams filter GetFills.
type FillsParams struct {
	Limit       int
	Cursor      string
	MinTS       *int64
	MaxTS       *int64
	OrderID     string
	Ticker      string
	EventTicker string
	Subaccount  *uint32
}

func (p FillsParams) query() *query {
	return newQuery().
		limit(p.Limit).
		str("cursor", p.Cursor).
		i64("min_ts", p.MinTS).
		i64("max_ts", p.MaxTS).
		str("order_id", p.OrderID).
		str("ticker", p.Ticker).
		str("event_ticker", p.EventTicker).
		u32("subaccount", p.Subaccount)
}

// FillsPage is one page of GetFills.
type FillsPage struct {
	Fills  []Fill
	Cursor string
}

// GetFills lists the account's executions.
func (c *Client) GetFills(ctx context.Context, p FillsParams) (FillsPage, error) {
	if err := validSubaccount(p.Subaccount); err != nil {
		return FillsPage{}, err
	}
	var out fillsResponse
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/portfolio/fills",
		path:   "/portfolio/fills",
		query:  p.query().values(),
		auth:   true,
	}, &out)
	return FillsPage{Fills: out.Fills, Cursor: out.Cursor}, err
}

// FillsPager walks GetFills from p.Cursor.
func (c *Client) FillsPager(p FillsParams) *Pager[Fill] {
	return NewPager(p.Cursor, func(ctx context.Context, cursor string) ([]Fill, string, error) {
		p.Cursor = cursor
		page, err := c.GetFills(ctx, p)
		return page.Fills, page.Cursor, err
	})
}

// SettlementsParams filter GetSettlements.
type SettlementsParams struct {
	Limit       int
	Cursor      string
	MinTS       *int64
	MaxTS       *int64
	Ticker      string
	EventTicker string
	Subaccount  *uint32
}

func (p SettlementsParams) query() *query {
	return newQuery().
		limit(p.Limit).
		str("cursor", p.Cursor).
		i64("min_ts", p.MinTS).
		i64("max_ts", p.MaxTS).
		str("ticker", p.Ticker).
		str("event_ticker", p.EventTicker).
		u32("subaccount", p.Subaccount)
}

// SettlementsPage is one page of GetSettlements.
type SettlementsPage struct {
	Settlements []Settlement
	Cursor      string
}

// GetSettlements lists settled positions.
func (c *Client) GetSettlements(ctx context.Context, p SettlementsParams) (SettlementsPage, error) {
	if err := validSubaccount(p.Subaccount); err != nil {
		return SettlementsPage{}, err
	}
	var out settlementsResponse
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/portfolio/settlements",
		path:   "/portfolio/settlements",
		query:  p.query().values(),
		auth:   true,
	}, &out)
	return SettlementsPage{Settlements: out.Settlements, Cursor: out.Cursor}, err
}

// SettlementsPager walks GetSettlements from p.Cursor.
func (c *Client) SettlementsPager(p SettlementsParams) *Pager[Settlement] {
	return NewPager(p.Cursor, func(ctx context.Context, cursor string) ([]Settlement, string, error) {
		p.Cursor = cursor
		page, err := c.GetSettlements(ctx, p)
		return page.Settlements, page.Cursor, err
	})
}

func validSubaccount(sub *uint32) error {
	if sub != nil && *sub > maxSubaccount {
		return errs.Invalid("subaccount must be 0..=32")
	}
	return nil
}
