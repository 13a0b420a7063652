package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sourcegraph/conc/pool"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
)

const defaultOrderbookConcurrency = 4

// MarketsParams filter GetMarkets. Timestamps are seconds since the epoch.
type MarketsParams struct {
	Limit        int
	Cursor       string
	EventTickers []string
	SeriesTicker string
	MinCreatedTS *int64
	MaxCreatedTS *int64
	MinUpdatedTS *int64
	MinCloseTS   *int64
	MaxCloseTS   *int64
	MinSettledTS *int64
	MaxSettledTS *int64
	Status       schema.MarketStatus
	Tickers      []string
	MveFilter    schema.MveFilter
}

// Validate enforces the filter combinations the venue accepts.
func (p MarketsParams) Validate() error {
	if p.Limit < 0 || p.Limit > 1000 {
		return errs.Invalid("GET /markets: limit must be 1..=1000")
	}
	if len(p.EventTickers) > 10 {
		return errs.Invalid("GET /markets: event_ticker supports up to 10 tickers")
	}

	created := p.MinCreatedTS != nil || p.MaxCreatedTS != nil
	closing := p.MinCloseTS != nil || p.MaxCloseTS != nil
	settled := p.MinSettledTS != nil || p.MaxSettledTS != nil
	updated := p.MinUpdatedTS != nil

	groups := 0
	for _, set := range []bool{created, closing, settled, updated} {
		if set {
			groups++
		}
	}
	if groups > 1 {
		return errs.Invalid("GET /markets: timestamp filters are mutually exclusive (created vs close vs settled vs updated)")
	}

	if updated {
		if p.Status != "" || p.SeriesTicker != "" || len(p.EventTickers) > 0 || len(p.Tickers) > 0 {
			return errs.Invalid("GET /markets: min_updated_ts cannot be combined with other filters (except mve_filter=exclude)")
		}
		if p.MveFilter == schema.MveOnly {
			return errs.Invalid("GET /markets: with min_updated_ts, only mve_filter=exclude is allowed")
		}
	}
	switch {
	case created && p.Status != "" && p.Status != schema.MarketUnopened && p.Status != schema.MarketOpen:
		return errs.Invalid("GET /markets: created_ts filters are only compatible with status unopened/open or no status")
	case closing && p.Status != "" && p.Status != schema.MarketClosed:
		return errs.Invalid("GET /markets: close_ts filters are only compatible with status closed or no status")
	case settled && p.Status != "" && p.Status != schema.MarketSettled:
		return errs.Invalid("GET /markets: settled_ts filters are only compatible with status settled or no status")
	}
	return nil
}

func (p MarketsParams) query() *query {
	return newQuery().
		limit(p.Limit).
		str("cursor", p.Cursor).
		csv("event_ticker", p.EventTickers).
		str("series_ticker", p.SeriesTicker).
		i64("min_created_ts", p.MinCreatedTS).
		i64("max_created_ts", p.MaxCreatedTS).
		i64("min_updated_ts", p.MinUpdatedTS).
		i64("min_close_ts", p.MinCloseTS).
		i64("max_close_ts", p.MaxCloseTS).
		i64("min_settled_ts", p.MinSettledTS).
		i64("max_settled_ts", p.MaxSettledTS).
		str("status", string(p.Status)).
		csv("tickers", p.Tickers).
		str("mve_filter", string(p.MveFilter))
}

// MarketsPage is one page of GetMarkets.
type MarketsPage struct {
	Markets []Market
	Cursor  string
}

// GetMarkets lists markets.
func (c *Client) GetMarkets(ctx context.Context, p MarketsParams) (MarketsPage, error) {
	if err := p.Validate(); err != nil {
		return MarketsPage{}, err
	}
	var out marketsResponse
	err := c.do(ctx, call{method: http.MethodGet, route: "/markets", path: "/markets", query: p.query().values()}, &out)
	return MarketsPage{Markets: out.Markets, Cursor: out.Cursor}, err
}

// MarketsPager walks GetMarkets from p.Cursor.
func (c *Client) MarketsPager(p MarketsParams) *Pager[Market] {
	return NewPager(p.Cursor, func(ctx context.Context, cursor string) ([]Market, string, error) {
		p.Cursor = cursor
		page, err := c.GetMarkets(ctx, p)
		return page.Markets, page.Cursor, err
	})
}

// GetMarket fetches one market.
func (c *Client) GetMarket(ctx context.Context, ticker string) (Market, error) {
	var out marketResponse
	err := c.do(ctx, call{method: http.MethodGet, route: "/markets/{ticker}", path: "/markets/" + segment(ticker)}, &out)
	return out.Market, err
}

// GetMarketOrderbook fetches resting bids for a market. depth 0 returns every level.
func (c *Client) GetMarketOrderbook(ctx context.Context, ticker string, depth int) (OrderbookResponse, error) {
	if depth < 0 {
		return OrderbookResponse{}, errs.Invalid("GET /markets/{ticker}/orderbook: depth must not be negative")
	}
	q := newQuery()
	if depth > 0 {
		q.str("depth", strconv.Itoa(depth))
	}
	var out OrderbookResponse
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/markets/{ticker}/orderbook",
		path:   "/markets/" + segment(ticker) + "/orderbook",
		query:  q.values(),
	}, &out)
	return out, err
}

type tickerBook struct {
	ticker string
	book   OrderbookResponse
}

// GetOrderbooks fetches books for several markets with at most concurrency requests in flight.
// The first failure cancels the remaining fetches.
func (c *Client) GetOrderbooks(ctx context.Context, tickers []string, depth, concurrency int) (map[string]OrderbookResponse, error) {
	if concurrency <= 0 {
		concurrency = defaultOrderbookConcurrency
	}
	p := pool.NewWithResults[tickerBook]().
		WithContext(ctx).
		WithMaxGoroutines(concurrency).
		WithCancelOnError().
		WithFirstError()
	for _, ticker := range tickers {
		p.Go(func(ctx context.Context) (tickerBook, error) {
			book, err := c.GetMarketOrderbook(ctx, ticker, depth)
			return tickerBook{ticker: ticker, book: book}, err
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	out := make(map[string]OrderbookResponse, len(results))
	for _, r := range results {
		out[r.ticker] = r.book
	}
	return out, nil
}

// TradesParams filter GetTrades.
type TradesParams struct {
	Ticker       string
	EventTicker  string
	SeriesTicker string
	MinTS        *int64
	MaxTS        *int64
	Limit        int
	Cursor       string
}

func (p TradesParams) query() *query {
	return newQuery().
		str("ticker", p.Ticker).
		str("event_ticker", p.EventTicker).
		str("series_ticker", p.SeriesTicker).
		i64("min_ts", p.MinTS).
		i64("max_ts", p.MaxTS).
		limit(p.Limit).
		str("cursor", p.Cursor)
}

// TradesPage is one page of GetTrades.
type TradesPage struct {
	Trades []Trade
	Cursor string
}

// GetTrades lists public executions.
func (c *Client) GetTrades(ctx context.Context, p TradesParams) (TradesPage, error) {
	if p.Limit < 0 {
		return TradesPage{}, errs.Invalid("GET /markets/trades: limit must not be negative")
	}
	var out tradesResponse
	err := c.do(ctx, call{method: http.MethodGet, route: "/markets/trades", path: "/markets/trades", query: p.query().values()}, &out)
	return TradesPage{Trades: out.Trades, Cursor: out.Cursor}, err
}

// TradesPager walks GetTrades from p.Cursor.
func (c *Client) TradesPager(p TradesParams) *Pager[Trade] {
	return NewPager(p.Cursor, func(ctx context.Context, cursor string) ([]Trade, string, error) {
		p.Cursor = cursor
		page, err := c.GetTrades(ctx, p)
		return page.Trades, page.Cursor, err
	})
}
