package rest

import (
	"context"
	"net/http"
)

// GetExchangeStatus reports whether the exchange and trading are active.
func (c *Client) GetExchangeStatus(ctx context.Context) (ExchangeStatus, error) {
	var out ExchangeStatus
	err := c.do(ctx, call{method: http.MethodGet, route: "/exchange/status", path: "/exchange/status"}, &out)
	return out, err
}

// GetAnnouncements lists exchange-wide announcements.
func (c *Client) GetAnnouncements(ctx context.Context) ([]Announcement, error) {
	var out announcementsResponse
	err := c.do(ctx, call{method: http.MethodGet, route: "/exchange/announcements", path: "/exchange/announcements"}, &out)
	return out.Announcements, err
}

// GetUserDataTimestamp reports when portfolio data was last refreshed.
func (c *Client) GetUserDataTimestamp(ctx context.Context) (UserDataTimestamp, error) {
	var out UserDataTimestamp
	err := c.do(ctx, call{method: http.MethodGet, route: "/exchange/user_data_timestamp", path: "/exchange/user_data_timestamp"}, &out)
	return out, err
}

// GetAPILimits reports the account's access tier.
func (c *Client) GetAPILimits(ctx context.Context) (APILimits, error) {
	var out APILimits
	err := c.do(ctx, call{method: http.MethodGet, route: "/account/limits", path: "/account/limits", auth: true}, &out)
	return out, err
}
