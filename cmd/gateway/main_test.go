package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/kalshi-gateway/internal/domain/orderbook"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/stream"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

const testTicker = "KXBTC-25DEC31-T100000"

type fakeSubscriber struct {
	active       map[uint64]wire.SubscriptionParams
	subscribed   []wire.SubscriptionParams
	unsubscribed []uint64
	failUnsub    error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, params wire.SubscriptionParams) (uint64, error) {
	f.subscribed = append(f.subscribed, params)
	return uint64(len(f.subscribed)), nil
}

func (f *fakeSubscriber) Unsubscribe(_ context.Context, sid uint64) (uint64, error) {
	if f.failUnsub != nil {
		return 0, f.failUnsub
	}
	f.unsubscribed = append(f.unsubscribed, sid)
	return 99, nil
}

func (f *fakeSubscriber) State() stream.Snapshot {
	return stream.Snapshot{Active: f.active}
}

func newTestGateway(sub *fakeSubscriber) (*gateway, *bytes.Buffer) {
	var buf bytes.Buffer
	feed := kalshi.NewBookFeed(orderbook.NewBooks(0))
	return newGateway(sub, feed, log.New(&buf, "", 0)), &buf
}

func event(t *testing.T, format string, args ...any) stream.Event {
	t.Helper()
	msg, err := wire.Decode([]byte(fmt.Sprintf(format, args...)))
	require.NoError(t, err)
	return stream.MessageEvent{Message: msg}
}

func snapshot(t *testing.T, sid, seq uint64) stream.Event {
	return event(t, `{"type":"orderbook_snapshot","sid":%d,"seq":%d,"msg":{"market_ticker":"%s","market_id":"m1",`+
		`"yes":[[40,100]],"no":[[55,7]]}}`, sid, seq, testTicker)
}

func delta(t *testing.T, sid, seq uint64) stream.Event {
	return event(t, `{"type":"orderbook_delta","sid":%d,"seq":%d,"msg":{"market_ticker":"%s","market_id":"m1",`+
		`"price":41,"delta":5,"side":"yes"}}`, sid, seq, testTicker)
}

func TestGatewayResubscribesOnGap(t *testing.T) {
	params := wire.SubscriptionParams{Channels: []wire.Channel{wire.ChannelOrderbookDelta}, MarketTickers: []string{testTicker}}
	sub := &fakeSubscriber{active: map[uint64]wire.SubscriptionParams{4: params}}
	gw, logs := newTestGateway(sub)
	ctx := context.Background()

	require.NoError(t, gw.handle(ctx, snapshot(t, 4, 1)))
	require.NoError(t, gw.handle(ctx, delta(t, 4, 2)))
	require.Empty(t, sub.unsubscribed)

	require.NoError(t, gw.handle(ctx, delta(t, 4, 5)))
	require.Equal(t, []uint64{4}, sub.unsubscribed)
	require.Equal(t, []wire.SubscriptionParams{params}, sub.subscribed)
	require.Contains(t, logs.String(), "sequence gap on sid=4: expected=3 got=5")

	book, ok := gw.feed.Books().Lookup(testTicker)
	require.True(t, ok)
	require.False(t, book.HasSnapshot())
}

func TestGatewayGapOnInactiveSidIsIgnored(t *testing.T) {
	sub := &fakeSubscriber{}
	gw, logs := newTestGateway(sub)
	ctx := context.Background()

	require.NoError(t, gw.handle(ctx, snapshot(t, 7, 1)))
	require.NoError(t, gw.handle(ctx, delta(t, 7, 3)))
	require.Empty(t, sub.unsubscribed)
	require.Empty(t, sub.subscribed)
	require.Contains(t, logs.String(), "sid=7 no longer active")
}

func TestGatewayResyncFailureStopsLoop(t *testing.T) {
	params := wire.SubscriptionParams{Channels: []wire.Channel{wire.ChannelOrderbookDelta}}
	sub := &fakeSubscriber{active: map[uint64]wire.SubscriptionParams{2: params}, failUnsub: errors.New("closed")}
	gw, _ := newTestGateway(sub)
	ctx := context.Background()

	require.NoError(t, gw.handle(ctx, snapshot(t, 2, 1)))
	err := gw.handle(ctx, delta(t, 2, 9))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsubscribe sid 2")
}

func TestGatewayToleratesDecodeFailures(t *testing.T) {
	gw, logs := newTestGateway(&fakeSubscriber{})
	require.NoError(t, gw.handle(context.Background(), stream.DecodeFailure{Err: errors.New("bad frame")}))
	require.Contains(t, logs.String(), "decode failure: bad frame")
}

func TestGatewayLogsVenueErrors(t *testing.T) {
	gw, logs := newTestGateway(&fakeSubscriber{})
	require.NoError(t, gw.handle(context.Background(), event(t, `{"id":3,"type":"error","msg":{"code":6,"msg":"Already subscribed"}}`)))
	require.Contains(t, logs.String(), `venue error: id=3 code=6 message="Already subscribed"`)
}

func TestGatewaySummaryListsSnapshottedBooks(t *testing.T) {
	gw, _ := newTestGateway(&fakeSubscriber{})
	require.Empty(t, gw.summary())

	require.NoError(t, gw.handle(context.Background(), snapshot(t, 1, 1)))
	lines := gw.summary()
	require.Len(t, lines, 1)
	require.True(t, strings.HasPrefix(lines[0], "book "+testTicker+": yes bid=40c x 100 ask=45c x 7"), lines[0])

	require.NoError(t, gw.handle(context.Background(), stream.Reconnected{Attempt: 2}))
	require.Empty(t, gw.summary())
}

func TestGatewaySubscribeSendsEachRequest(t *testing.T) {
	sub := &fakeSubscriber{}
	gw, _ := newTestGateway(sub)
	subs := []wire.SubscriptionParams{
		{Channels: []wire.Channel{wire.ChannelTicker}},
		{Channels: []wire.Channel{wire.ChannelTrade}, MarketTickers: []string{testTicker}},
	}
	require.NoError(t, gw.subscribe(context.Background(), subs))
	require.Equal(t, subs, sub.subscribed)
}
