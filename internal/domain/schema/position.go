package schema

import (
	"fmt"

	"github.com/buger/jsonparser"
	json "github.com/goccy/go-json"
)

// MarketPosition is the per-market position record shared by the portfolio endpoint and the market_positions channel.
type MarketPosition struct {
	Ticker          string   `json:"ticker"`
	Position        *int64   `json:"position,omitempty"`
	PositionFP      *Count   `json:"position_fp,omitempty"`
	FeesPaid        *int64   `json:"fees_paid,omitempty"`
	FeesPaidFP      *Dollars `json:"fees_paid_fp,omitempty"`
	RestingOrders   *int64   `json:"resting_orders,omitempty"`
	RestingOrdersFP *Count   `json:"resting_orders_fp,omitempty"`
	TotalTraded     *int64   `json:"total_traded,omitempty"`
	TotalTradedFP   *Count   `json:"total_traded_fp,omitempty"`
	Subaccount      *uint32  `json:"subaccount,omitempty"`
}

// EventPosition aggregates positions across the markets of one event.
type EventPosition struct {
	EventTicker     string   `json:"event_ticker"`
	Position        *int64   `json:"position,omitempty"`
	PositionFP      *Count   `json:"position_fp,omitempty"`
	FeesPaid        *int64   `json:"fees_paid,omitempty"`
	FeesPaidFP      *Dollars `json:"fees_paid_fp,omitempty"`
	RestingOrders   *int64   `json:"resting_orders,omitempty"`
	RestingOrdersFP *Count   `json:"resting_orders_fp,omitempty"`
	TotalTraded     *int64   `json:"total_traded,omitempty"`
	TotalTradedFP   *Count   `json:"total_traded_fp,omitempty"`
	Subaccount      *uint32  `json:"subaccount,omitempty"`
}

// UnmarshalJSON rejects records without a ticker.
func (p *MarketPosition) UnmarshalJSON(data []byte) error {
	type plain MarketPosition
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	if err := requireKeys(data, "ticker"); err != nil {
		return fmt.Errorf("market position: %w", err)
	}
	*p = MarketPosition(out)
	return nil
}

// UnmarshalJSON rejects records without an event ticker.
func (p *EventPosition) UnmarshalJSON(data []byte) error {
	type plain EventPosition
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	if err := requireKeys(data, "event_ticker"); err != nil {
		return fmt.Errorf("event position: %w", err)
	}
	*p = EventPosition(out)
	return nil
}

// requireKeys reports the first key that is absent or null in the object.
func requireKeys(obj []byte, keys ...string) error {
	for _, key := range keys {
		_, vt, _, err := jsonparser.Get(obj, key)
		if err != nil || vt == jsonparser.Null {
			return fmt.Errorf("missing field %q", key)
		}
	}
	return nil
}
