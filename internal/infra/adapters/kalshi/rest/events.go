package rest

import (
	"context"
	"net/http"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
)

// EventsParams filter GetEvents. Limit defaults to 200 server-side.
type EventsParams struct {
	Limit             int
	Cursor            string
	WithNestedMarkets *bool
	WithMilestones    *bool
	Status            schema.EventStatus
	SeriesTicker      string
	MinCloseTS        *int64
}

// Validate checks the limit range.
func (p EventsParams) Validate() error {
	if p.Limit != 0 && (p.Limit < 1 || p.Limit > 200) {
		return errs.Invalid("GET /events: limit must be 1..=200")
	}
	return nil
}

func (p EventsParams) query() *query {
	return newQuery().
		limit(p.Limit).
		str("cursor", p.Cursor).
		flag("with_nested_markets", p.WithNestedMarkets).
		flag("with_milestones", p.WithMilestones).
		str("status", string(p.Status)).
		str("series_ticker", p.SeriesTicker).
		i64("min_close_ts", p.MinCloseTS)
}

// EventsPage is one page of GetEvents.
type EventsPage struct {
	Events []Event
	Cursor string
}

// GetEvents lists events.
func (c *Client) GetEvents(ctx context.Context, p EventsParams) (EventsPage, error) {
	if err := p.Validate(); err != nil {
		return EventsPage{}, err
	}
	var out eventsResponse
	err := c.do(ctx, call{method: http.MethodGet, route: "/events", path: "/events", query: p.query().values()}, &out)
	return EventsPage{Events: out.Events, Cursor: out.Cursor}, err
}

// GetEvent fetches one event, optionally with its markets nested.
func (c *Client) GetEvent(ctx context.Context, ticker string, withNestedMarkets bool) (Event, error) {
	q := newQuery()
	if withNestedMarkets {
		q.flag("with_nested_markets", &withNestedMarkets)
	}
	var out eventResponse
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/events/{ticker}",
		path:   "/events/" + segment(ticker),
		query:  q.values(),
	}, &out)
	if err != nil {
		return Event{}, err
	}
	if len(out.Event.Markets) == 0 && len(out.Markets) > 0 {
		out.Event.Markets = out.Markets
	}
	return out.Event, nil
}

// EventsPager walks GetEvents from p.Cursor.
func (c *Client) EventsPager(p EventsParams) *Pager[Event] {
	return NewPager(p.Cursor, func(ctx context.Context, cursor string) ([]Event, string, error) {
		p.Cursor = cursor
		page, err := c.GetEvents(ctx, p)
		return page.Events, page.Cursor, err
	})
}
