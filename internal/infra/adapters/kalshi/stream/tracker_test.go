package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

func u64(v uint64) *uint64 { return &v }

func desireParams(tr *tracker, p wire.SubscriptionParams) string {
	p = p.Normalized()
	key := p.Key()
	tr.desire(key, p)
	return key
}

func TestTrackerDesireIgnoresEquivalentRequests(t *testing.T) {
	tr := newTracker()
	a := tickerParams("B", "A").Normalized()
	b := tickerParams("A", "B").Normalized()

	require.True(t, tr.desire(a.Key(), a))
	require.False(t, tr.desire(b.Key(), b))
	require.Len(t, tr.snapshot().Desired, 1)
}

func TestTrackerAcknowledgementLifecycle(t *testing.T) {
	tr := newTracker()
	key := desireParams(tr, tickerParams("MKT-A"))
	tr.recordSubscribe(1, key, tr.desired[key])

	id, ok := tr.commandFor(key)
	require.True(t, ok)
	require.Equal(t, uint64(1), id)

	// Acknowledgements for unknown command ids are ignored.
	tr.apply(wire.Subscribed{ID: u64(9), SID: u64(90)})
	require.Empty(t, tr.active)

	tr.apply(wire.Subscribed{ID: u64(1), SID: u64(10)})
	require.Empty(t, tr.pending)
	require.Contains(t, tr.active, uint64(10))
	id, ok = tr.commandFor(key)
	require.True(t, ok)
	require.Equal(t, uint64(1), id)

	tr.forget(key)
	tr.recordUnsubscribe(2, 10)
	tr.apply(wire.Unsubscribed{ID: u64(2)})
	require.Empty(t, tr.active)
	require.Empty(t, tr.unsubs)
	require.Empty(t, tr.snapshot().Desired)
}

func TestTrackerErrorKeepsDesired(t *testing.T) {
	tr := newTracker()
	key := desireParams(tr, tickerParams("MKT-A"))
	tr.recordSubscribe(1, key, tr.desired[key])

	tr.apply(wire.Error{ID: u64(1)})
	require.Empty(t, tr.pending)
	require.Contains(t, tr.desired, key)

	tr.apply(wire.Error{SID: u64(77)})
	require.Contains(t, tr.desired, key)
}

func TestTrackerResubscribeSetPreservesOrder(t *testing.T) {
	tr := newTracker()
	first := desireParams(tr, tickerParams("MKT-A"))
	second := desireParams(tr, wire.SubscriptionParams{Channels: []wire.Channel{wire.ChannelTrade}})
	third := desireParams(tr, tickerParams("MKT-C"))
	tr.recordSubscribe(1, first, tr.desired[first])
	tr.apply(wire.Subscribed{ID: u64(1), SID: u64(4)})
	tr.forget(second)

	set := tr.resubscribeSet()
	require.Len(t, set, 2)
	require.Equal(t, first, set[0].key)
	require.Equal(t, third, set[1].key)
	require.Empty(t, tr.pending)
	require.Empty(t, tr.active)
}

func TestTrackerUpdateMovesDesiredKey(t *testing.T) {
	tr := newTracker()
	key := desireParams(tr, tickerParams("MKT-A"))
	tr.recordSubscribe(1, key, tr.desired[key])
	tr.apply(wire.Subscribed{ID: u64(1), SID: u64(3)})

	entry, ok := tr.update(2, 3, wire.UpdateParams{SID: 3, MarketTickers: []string{"MKT-Z", "MKT-B"}})
	require.True(t, ok)
	require.Equal(t, []string{"MKT-B", "MKT-Z"}, entry.params.MarketTickers)
	require.NotContains(t, tr.desired, key)
	require.Contains(t, tr.desired, entry.key)
	require.Equal(t, []string{entry.key}, tr.order)

	_, ok = tr.update(4, 99, wire.UpdateParams{SID: 99})
	require.False(t, ok)
	require.NotContains(t, tr.updates, uint64(4))

	tr.apply(wire.OK{ID: u64(2), SID: u64(3)})
	require.Empty(t, tr.updates)
}

func TestTrackerRefusedUpdateIsRolledBack(t *testing.T) {
	tr := newTracker()
	key := desireParams(tr, tickerParams("MKT-A"))
	tr.recordSubscribe(1, key, tr.desired[key])
	tr.apply(wire.Subscribed{ID: u64(1), SID: u64(3)})
	before := tr.active[3]

	_, ok := tr.update(2, 3, wire.UpdateParams{SID: 3, MarketTickers: []string{"MKT-B"}})
	require.True(t, ok)
	require.NotContains(t, tr.desired, key)

	tr.apply(wire.Error{ID: u64(2)})
	require.Equal(t, before, tr.active[3])
	require.Equal(t, []string{key}, tr.order)
	require.Equal(t, []string{"MKT-A"}, tr.desired[key].MarketTickers)
	require.Empty(t, tr.updates)

	resent := tr.resubscribeSet()
	require.Len(t, resent, 1)
	require.Equal(t, []string{"MKT-A"}, resent[0].params.MarketTickers)
}

func TestTrackerRequiresAuth(t *testing.T) {
	tr := newTracker()
	desireParams(tr, tickerParams("MKT-A"))
	require.False(t, tr.requiresAuth())
	desireParams(tr, wire.SubscriptionParams{Channels: []wire.Channel{wire.ChannelMarketPositions}})
	require.True(t, tr.requiresAuth())
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := newTracker()
	key := desireParams(tr, tickerParams("MKT-A"))
	tr.recordSubscribe(1, key, tr.desired[key])
	tr.apply(wire.Subscribed{ID: u64(1), SID: u64(8)})

	snap := tr.snapshot()
	snap.Active[8].MarketTickers[0] = "CHANGED"
	require.Equal(t, "MKT-A", tr.active[8].params.MarketTickers[0])
	require.Equal(t, []uint64{8}, snap.ActiveSIDs())
}
