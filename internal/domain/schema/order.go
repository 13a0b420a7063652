package schema

// OrderType distinguishes limit and market orders.
type OrderType string

const (
	OrderTypeLimit   OrderType = "limit"
	OrderTypeMarket  OrderType = "market"
	OrderTypeUnknown OrderType = unknownValue
)

// UnmarshalJSON maps unrecognised order types to OrderTypeUnknown.
func (v *OrderType) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, string(OrderTypeLimit), string(OrderTypeMarket))
	if err != nil {
		return err
	}
	*v = OrderType(s)
	return nil
}

// TimeInForce controls how long an order rests on the book.
type TimeInForce string

const (
	FillOrKill         TimeInForce = "fill_or_kill"
	GoodTillCanceled   TimeInForce = "good_till_canceled"
	ImmediateOrCancel  TimeInForce = "immediate_or_cancel"
	TimeInForceUnknown TimeInForce = unknownValue
)

// UnmarshalJSON maps unrecognised values to TimeInForceUnknown.
func (v *TimeInForce) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, string(FillOrKill), string(GoodTillCanceled), string(ImmediateOrCancel))
	if err != nil {
		return err
	}
	*v = TimeInForce(s)
	return nil
}

// SelfTradePrevention selects which side is cancelled on a self-cross.
type SelfTradePrevention string

const (
	SelfTradeTakerAtCross SelfTradePrevention = "taker_at_cross"
	SelfTradeMaker        SelfTradePrevention = "maker"
	SelfTradeUnknown      SelfTradePrevention = unknownValue
)

// UnmarshalJSON maps unrecognised values to SelfTradeUnknown.
func (v *SelfTradePrevention) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, string(SelfTradeTakerAtCross), string(SelfTradeMaker))
	if err != nil {
		return err
	}
	*v = SelfTradePrevention(s)
	return nil
}

// OrderStatus reports the lifecycle state of an order.
type OrderStatus string

const (
	OrderResting  OrderStatus = "resting"
	OrderCanceled OrderStatus = "canceled"
	OrderExecuted OrderStatus = "executed"
	OrderUnknown  OrderStatus = unknownValue
)

// UnmarshalJSON maps unrecognised statuses to OrderUnknown.
func (v *OrderStatus) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, string(OrderResting), string(OrderCanceled), string(OrderExecuted))
	if err != nil {
		return err
	}
	*v = OrderStatus(s)
	return nil
}
