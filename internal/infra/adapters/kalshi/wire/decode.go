package wire

import (
	"bytes"
	"errors"

	json "github.com/goccy/go-json"

	"github.com/coachpo/kalshi-gateway/errs"
)

var errMissingMsg = errors.New("missing msg")

// Decode parses one inbound frame into values that own their memory; data may be reused afterwards.
func Decode(data []byte) (Message, error) {
	return decode(bytes.Clone(data), false)
}

// DecodeBorrowed parses one inbound frame without copying it. Raw byte fields of the result
// alias data, so data must stay untouched while the message is in use.
func DecodeBorrowed(data []byte) (Message, error) {
	return decode(data, true)
}

func decode(data []byte, borrow bool) (Message, error) {
	env, err := ScanEnvelope(data)
	if err != nil {
		return nil, decodeError("", "malformed envelope", err)
	}
	tag := MsgType(env.Type)
	switch tag {
	case TypeSubscribed:
		return Subscribed{ID: env.ID, SID: ackSID(env)}, nil
	case TypeUnsubscribed:
		return Unsubscribed{ID: env.ID, SID: ackSID(env)}, nil
	case TypeOK:
		return OK{ID: env.ID, SID: ackSID(env)}, nil
	case TypeListSubscriptions:
		subs, err := decodeSubscriptions(env, borrow)
		if err != nil {
			return nil, decodeError(tag, "decode subscriptions", err)
		}
		return Subscriptions{ID: env.ID, Subscriptions: subs}, nil
	case TypeError:
		var body ErrorBody
		if env.Msg != nil {
			if err := unmarshal(env.Msg, &body, borrow); err != nil {
				return nil, decodeError(tag, "decode error body", err)
			}
		}
		return Error{ID: env.ID, SID: env.SID, Err: body}, nil
	}

	hdr := Header{Tag: tag, SID: env.SID, Seq: env.Seq}
	switch tag {
	case TypeTicker:
		msg, err := payload[Ticker](env, borrow, tickerRequired)
		return wrap(TickerMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeTickerV2:
		msg, err := payload[TickerV2](env, borrow, tickerV2Required)
		return wrap(TickerV2Message{Header: hdr, Msg: msg}, tag, err)
	case TypeTrade:
		msg, err := payload[Trade](env, borrow, tradeRequired)
		return wrap(TradeMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeOrderbookSnapshot:
		msg, err := payload[OrderbookSnapshot](env, borrow, orderbookSnapshotRequired)
		return wrap(OrderbookSnapshotMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeOrderbookDelta:
		msg, err := payload[OrderbookDelta](env, borrow, orderbookDeltaRequired)
		return wrap(OrderbookDeltaMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeFill:
		msg, err := payload[Fill](env, borrow, fillRequired)
		return wrap(FillMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeMarketPositions:
		msg, err := payload[MarketPositions](env, borrow, marketPositionsRequired)
		return wrap(MarketPositionsMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeMarketLifecycleV2:
		msg, err := payload[MarketLifecycleV2](env, borrow, marketLifecycleRequired)
		return wrap(MarketLifecycleMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeMultivariate, TypeMultivariateLookup:
		msg, err := payload[Multivariate](env, borrow, multivariateRequired)
		return wrap(MultivariateMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeOrderGroupUpdates:
		msg, err := payload[OrderGroupUpdate](env, borrow, orderGroupRequired)
		return wrap(OrderGroupMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeRfqCreated:
		msg, err := payload[RfqCreated](env, borrow, rfqCreatedRequired)
		return wrap(CommunicationsMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeRfqDeleted:
		msg, err := payload[RfqDeleted](env, borrow, rfqDeletedRequired)
		return wrap(CommunicationsMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeQuoteCreated:
		msg, err := payload[QuoteCreated](env, borrow, quoteCreatedRequired)
		return wrap(CommunicationsMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeQuoteAccepted:
		msg, err := payload[QuoteAccepted](env, borrow, quoteAcceptedRequired)
		return wrap(CommunicationsMessage{Header: hdr, Msg: msg}, tag, err)
	case TypeQuoteExecuted:
		msg, err := payload[QuoteExecuted](env, borrow, quoteExecutedRequired)
		return wrap(CommunicationsMessage{Header: hdr, Msg: msg}, tag, err)
	}

	// Includes the bare "communications" tag, which only ever arrives as one of its sub-types.
	return Unknown{Tag: env.Type, ID: env.ID, SID: env.SID, Seq: env.Seq, Raw: env.Msg}, nil
}

// ackSID prefers the envelope sid and falls back to msg.sid.
func ackSID(env Envelope) *uint64 {
	if env.SID != nil || env.Msg == nil {
		return env.SID
	}
	var body struct {
		SID *uint64 `json:"sid"`
	}
	if err := json.Unmarshal(env.Msg, &body); err != nil {
		return nil
	}
	return body.SID
}

func payload[T any](env Envelope, borrow bool, required []string) (T, error) {
	var out T
	if env.Msg == nil {
		return out, errMissingMsg
	}
	if err := missingKeys(env.Msg, required); err != nil {
		return out, err
	}
	if err := unmarshal(env.Msg, &out, borrow); err != nil {
		return out, err
	}
	return out, nil
}

func decodeSubscriptions(env Envelope, borrow bool) ([]SubscriptionInfo, error) {
	if env.Msg != nil {
		var body struct {
			Subscriptions []SubscriptionInfo `json:"subscriptions"`
		}
		if err := unmarshal(env.Msg, &body, borrow); err != nil {
			return nil, err
		}
		if body.Subscriptions != nil {
			return body.Subscriptions, nil
		}
	}
	if env.Subscriptions == nil {
		return []SubscriptionInfo{}, nil
	}
	var subs []SubscriptionInfo
	if err := unmarshal(env.Subscriptions, &subs, borrow); err != nil {
		return nil, err
	}
	return subs, nil
}

func unmarshal(data []byte, v any, borrow bool) error {
	if borrow {
		return json.UnmarshalNoEscape(data, v)
	}
	return json.Unmarshal(data, v)
}

func wrap[M Message](msg M, tag MsgType, err error) (Message, error) {
	if err != nil {
		return nil, decodeError(tag, "decode "+string(tag)+" payload", err)
	}
	return msg, nil
}

func decodeError(tag MsgType, message string, cause error) error {
	return errs.Kalshi(errs.CodeDecode,
		errs.WithMessage(message),
		errs.WithCause(cause),
		errs.WithVenueField("type", string(tag)))
}
