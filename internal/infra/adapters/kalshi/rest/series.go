package rest

import (
	"context"
	"net/http"

	gocache "github.com/patrickmn/go-cache"
)

// SeriesListParams filter GetSeriesList.
type SeriesListParams struct {
	Category               string
	Tags                   string
	IncludeProductMetadata *bool
	IncludeVolume          *bool
}

// GetSeriesList lists series templates.
func (c *Client) GetSeriesList(ctx context.Context, p SeriesListParams) ([]Series, error) {
	q := newQuery().
		str("category", p.Category).
		str("tags", p.Tags).
		flag("include_product_metadata", p.IncludeProductMetadata).
		flag("include_volume", p.IncludeVolume)
	var out seriesListResponse
	err := c.do(ctx, call{method: http.MethodGet, route: "/series", path: "/series", query: q.values()}, &out)
	return out.Series, err
}

// GetSeries fetches one series. Results are cached for the configured TTL; series metadata
// changes rarely.
func (c *Client) GetSeries(ctx context.Context, ticker string) (Series, error) {
	if cached, ok := c.series.Get(ticker); ok {
		return cached.(Series), nil
	}
	var out seriesResponse
	err := c.do(ctx, call{method: http.MethodGet, route: "/series/{ticker}", path: "/series/" + segment(ticker)}, &out)
	if err != nil {
		return Series{}, err
	}
	c.series.Set(ticker, out.Series, gocache.DefaultExpiration)
	return out.Series, nil
}

// ForgetSeries drops the cached copy of a series.
func (c *Client) ForgetSeries(ticker string) {
	c.series.Delete(ticker)
}
