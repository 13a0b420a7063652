package stream

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

func TestConnBorrowedReceiveReusesBuffer(t *testing.T) {
	fv := newFakeVenue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := Dial(ctx, DialOptions{URL: fv.url()})
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, StateOpen, c.State())
	require.False(t, c.Authenticated())

	vc := fv.accept(t)
	vc.send(t, `{"type":"communications","sid":8,"msg":{"first":true}}`)
	vc.send(t, `{"type":"communications","sid":8,"msg":{"other":1}}`)

	msg, err := c.ReceiveBorrowed(ctx)
	require.NoError(t, err)
	first, ok := msg.(wire.Unknown)
	require.True(t, ok)
	require.Equal(t, `{"first":true}`, string(first.Raw))

	msg, err = c.ReceiveBorrowed(ctx)
	require.NoError(t, err)
	second := msg.(wire.Unknown)
	require.Equal(t, `{"other":1}`, string(second.Raw))
	// The first message aliased the shared read buffer.
	require.NotEqual(t, `{"first":true}`, string(first.Raw))
}

func TestConnOwnedReceiveAndSend(t *testing.T) {
	fv := newFakeVenue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := Dial(ctx, DialOptions{URL: fv.url(), WriteTimeout: time.Second})
	require.NoError(t, err)
	defer c.Close()
	vc := fv.accept(t)

	require.NoError(t, c.Send(ctx, wire.ListSubscriptions(4)))
	cmd := vc.next(t)
	require.Equal(t, uint64(4), cmd.ID)
	require.Equal(t, wire.CmdListSubscriptions, cmd.Cmd)

	vc.send(t, fmt.Sprintf(validTickerFrame, 3))
	msg, err := c.Receive(ctx)
	require.NoError(t, err)
	sid, ok := wire.SubscriptionID(msg)
	require.True(t, ok)
	require.Equal(t, uint64(3), sid)
}

func TestConnClosedIsTerminal(t *testing.T) {
	fv := newFakeVenue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := Dial(ctx, DialOptions{URL: fv.url()})
	require.NoError(t, err)
	fv.accept(t)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.Equal(t, StateClosed, c.State())

	_, err = c.Receive(ctx)
	require.ErrorIs(t, err, ErrConnectionClosed)
	err = c.Send(ctx, wire.ListSubscriptions(1))
	require.ErrorIs(t, err, ErrConnectionClosed)
}

func TestConnRemoteDropSurfacesAsClosed(t *testing.T) {
	fv := newFakeVenue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := Dial(ctx, DialOptions{URL: fv.url()})
	require.NoError(t, err)
	vc := fv.accept(t)
	vc.drop(t)

	_, err = c.Receive(ctx)
	require.ErrorIs(t, err, ErrConnectionClosed)
	require.Equal(t, StateClosed, c.State())
}

func TestDialClassifiesHandshakeFailures(t *testing.T) {
	fv := newFakeVenue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	fv.reject.Store(http.StatusForbidden)
	_, err := Dial(ctx, DialOptions{URL: fv.url()})
	require.Error(t, err)
	require.True(t, errs.IsCode(err, errs.CodeAuth))
	require.Equal(t, errs.CanonicalAuthRejected, errs.CanonicalOf(err))

	fv.reject.Store(http.StatusServiceUnavailable)
	_, err = Dial(ctx, DialOptions{URL: fv.url()})
	require.Error(t, err)
	require.True(t, errs.IsCode(err, errs.CodeNetwork))
}

func TestConnReceiveDeadlineKeepsSocketOpen(t *testing.T) {
	fv := newFakeVenue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := Dial(ctx, DialOptions{URL: fv.url()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	vc := fv.accept(t)

	short, stop := context.WithTimeout(ctx, 30*time.Millisecond)
	defer stop()
	_, err = c.ReceiveBorrowed(short)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, StateOpen, c.State())

	vc.send(t, fmt.Sprintf(validTickerFrame, 4))
	msg, err := c.ReceiveBorrowed(ctx)
	require.NoError(t, err)
	sid, ok := wire.SubscriptionID(msg)
	require.True(t, ok)
	require.Equal(t, uint64(4), sid)
}
