package rest

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
	"github.com/coachpo/kalshi-gateway/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func requireInvalid(t *testing.T, err error, message string) {
	t.Helper()
	e := requireE(t, err)
	require.Equal(t, errs.CodeInvalid, e.Code)
	require.Equal(t, message, e.Message)
}

func TestMarketsParamsValidate(t *testing.T) {
	cases := []struct {
		name   string
		params MarketsParams
		err    string
	}{
		{name: "empty", params: MarketsParams{}},
		{name: "limit too large", params: MarketsParams{Limit: 1001}, err: "GET /markets: limit must be 1..=1000"},
		{name: "negative limit", params: MarketsParams{Limit: -1}, err: "GET /markets: limit must be 1..=1000"},
		{
			name:   "too many events",
			params: MarketsParams{EventTickers: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}},
			err:    "GET /markets: event_ticker supports up to 10 tickers",
		},
		{
			name:   "created and close",
			params: MarketsParams{MinCreatedTS: ptr(int64(1)), MaxCloseTS: ptr(int64(2))},
			err:    "GET /markets: timestamp filters are mutually exclusive (created vs close vs settled vs updated)",
		},
		{
			name:   "updated with status",
			params: MarketsParams{MinUpdatedTS: ptr(int64(1)), Status: schema.MarketOpen},
			err:    "GET /markets: min_updated_ts cannot be combined with other filters (except mve_filter=exclude)",
		},
		{
			name:   "updated with tickers",
			params: MarketsParams{MinUpdatedTS: ptr(int64(1)), Tickers: []string{"A"}},
			err:    "GET /markets: min_updated_ts cannot be combined with other filters (except mve_filter=exclude)",
		},
		{
			name:   "updated with mve only",
			params: MarketsParams{MinUpdatedTS: ptr(int64(1)), MveFilter: schema.MveOnly},
			err:    "GET /markets: with min_updated_ts, only mve_filter=exclude is allowed",
		},
		{name: "updated with mve exclude", params: MarketsParams{MinUpdatedTS: ptr(int64(1)), MveFilter: schema.MveExclude}},
		{name: "created with open", params: MarketsParams{MinCreatedTS: ptr(int64(1)), Status: schema.MarketOpen}},
		{
			name:   "created with closed",
			params: MarketsParams{MaxCreatedTS: ptr(int64(1)), Status: schema.MarketClosed},
			err:    "GET /markets: created_ts filters are only compatible with status unopened/open or no status",
		},
		{
			name:   "close with open",
			params: MarketsParams{MinCloseTS: ptr(int64(1)), Status: schema.MarketOpen},
			err:    "GET /markets: close_ts filters are only compatible with status closed or no status",
		},
		{name: "close with closed", params: MarketsParams{MinCloseTS: ptr(int64(1)), Status: schema.MarketClosed}},
		{
			name:   "settled with paused",
			params: MarketsParams{MinSettledTS: ptr(int64(1)), Status: schema.MarketPaused},
			err:    "GET /markets: settled_ts filters are only compatible with status settled or no status",
		},
		{name: "settled with settled", params: MarketsParams{MaxSettledTS: ptr(int64(1)), Status: schema.MarketSettled}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.err == "" {
				require.NoError(t, err)
				return
			}
			requireInvalid(t, err, tc.err)
		})
	}
}

func TestListParamsValidate(t *testing.T) {
	eleven := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}

	requireInvalid(t, EventsParams{Limit: 201}.Validate(), "GET /events: limit must be 1..=200")
	require.NoError(t, EventsParams{Limit: 200}.Validate())

	requireInvalid(t, PositionsParams{Limit: 1001}.Validate(), "GET /portfolio/positions: limit must be 1..=1000")
	requireInvalid(t, PositionsParams{EventTickers: eleven}.Validate(), "GET /portfolio/positions: event_ticker supports up to 10 tickers")
	requireInvalid(t, PositionsParams{Subaccount: ptr(uint32(33))}.Validate(), "subaccount must be 0..=32")
	require.NoError(t, PositionsParams{Subaccount: ptr(uint32(32))}.Validate())

	requireInvalid(t, OrdersParams{Limit: 201}.Validate(), "GET /portfolio/orders: limit must be 1..=200")
	requireInvalid(t, OrdersParams{EventTickers: eleven}.Validate(), "GET /portfolio/orders: event_ticker supports up to 10 tickers")
	requireInvalid(t, OrdersParams{Subaccount: ptr(uint32(40))}.Validate(), "subaccount must be 0..=32")
}

func TestCreateOrderRequestValidate(t *testing.T) {
	base := func() CreateOrderRequest {
		return CreateOrderRequest{
			Ticker:   "MKT-A",
			Side:     schema.Yes,
			Action:   schema.Buy,
			Type:     schema.OrderTypeLimit,
			Count:    ptr(uint32(10)),
			YesPrice: ptr(uint32(40)),
		}
	}
	cases := []struct {
		name   string
		mutate func(*CreateOrderRequest)
		err    string
	}{
		{name: "valid", mutate: func(*CreateOrderRequest) {}},
		{
			name:   "no count",
			mutate: func(r *CreateOrderRequest) { r.Count = nil },
			err:    "CreateOrderRequest: must provide count or count_fp",
		},
		{
			name:   "matching fixed-point count",
			mutate: func(r *CreateOrderRequest) { r.CountFP = ptr(schema.Count("10.00")) },
		},
		{
			name:   "mismatched fixed-point count",
			mutate: func(r *CreateOrderRequest) { r.CountFP = ptr(schema.Count("10.50")) },
			err:    "CreateOrderRequest: count and count_fp must match",
		},
		{
			name:   "yes cents and dollars",
			mutate: func(r *CreateOrderRequest) { r.YesPriceDollars = ptr(schema.Dollars("0.4000")) },
			err:    "CreateOrderRequest: cannot set both yes_price and yes_price_dollars",
		},
		{
			name: "no cents and dollars",
			mutate: func(r *CreateOrderRequest) {
				r.YesPrice = nil
				r.NoPrice = ptr(uint32(60))
				r.NoPriceDollars = ptr(schema.Dollars("0.6000"))
			},
			err: "CreateOrderRequest: cannot set both no_price and no_price_dollars",
		},
		{
			name:   "both sides priced",
			mutate: func(r *CreateOrderRequest) { r.NoPriceDollars = ptr(schema.Dollars("0.6000")) },
			err:    "CreateOrderRequest: cannot set both yes and no prices",
		},
		{
			name:   "priced market order",
			mutate: func(r *CreateOrderRequest) { r.Type = schema.OrderTypeMarket },
			err:    "CreateOrderRequest: market orders cannot include price fields",
		},
		{
			name: "unpriced market order",
			mutate: func(r *CreateOrderRequest) {
				r.Type = schema.OrderTypeMarket
				r.YesPrice = nil
			},
		},
		{
			name:   "unpriced limit order",
			mutate: func(r *CreateOrderRequest) { r.YesPrice = nil },
			err:    "CreateOrderRequest: limit orders require a price",
		},
		{
			name:   "subaccount out of range",
			mutate: func(r *CreateOrderRequest) { r.Subaccount = ptr(uint32(33)) },
			err:    "CreateOrderRequest: subaccount must be 0..=32",
		},
		{
			name:   "non-zero sell floor",
			mutate: func(r *CreateOrderRequest) { r.SellPositionFloor = ptr(uint32(1)) },
			err:    "CreateOrderRequest: sell_position_floor must be 0 (deprecated)",
		},
		{
			name:   "zero sell floor",
			mutate: func(r *CreateOrderRequest) { r.SellPositionFloor = ptr(uint32(0)) },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base()
			tc.mutate(&req)
			err := req.Validate()
			if tc.err == "" {
				require.NoError(t, err)
				return
			}
			requireInvalid(t, err, tc.err)
		})
	}
}

func TestInvalidParamsNeverReachTheServer(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, `{}`)
	}, Options{Signer: testutil.Signer(t)})

	_, err := c.GetMarkets(context.Background(), MarketsParams{Limit: 5000})
	require.True(t, errs.IsCode(err, errs.CodeInvalid))
	_, err = c.GetEvents(context.Background(), EventsParams{Limit: 500})
	require.True(t, errs.IsCode(err, errs.CodeInvalid))
	_, err = c.CreateOrder(context.Background(), CreateOrderRequest{Ticker: "MKT-A"})
	require.True(t, errs.IsCode(err, errs.CodeInvalid))
	_, err = c.CancelOrder(context.Background(), "o-1", ptr(uint32(99)))
	require.True(t, errs.IsCode(err, errs.CodeInvalid))
	require.Zero(t, hits.Load())
}
