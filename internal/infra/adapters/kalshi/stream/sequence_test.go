package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

func delta(sid, seq uint64) wire.Message {
	return wire.OrderbookDeltaMessage{Header: wire.Header{Tag: wire.TypeOrderbookDelta, SID: u64(sid), Seq: u64(seq)}}
}

func TestSequenceTrackerReportsGapsPerSID(t *testing.T) {
	seqs := NewSequenceTracker()

	_, gap := seqs.Observe(delta(1, 5))
	require.False(t, gap)
	_, gap = seqs.Observe(delta(2, 40))
	require.False(t, gap)
	_, gap = seqs.Observe(delta(1, 6))
	require.False(t, gap)

	g, gap := seqs.Observe(delta(1, 9))
	require.True(t, gap)
	require.Equal(t, Gap{SID: 1, Expected: 7, Got: 9}, g)

	_, gap = seqs.Observe(delta(2, 41))
	require.False(t, gap)
}

func TestSequenceTrackerIgnoresUnsequencedMessages(t *testing.T) {
	seqs := NewSequenceTracker()
	_, gap := seqs.Observe(wire.Subscribed{ID: u64(1), SID: u64(1)})
	require.False(t, gap)
	_, gap = seqs.Observe(wire.TickerMessage{Header: wire.Header{Tag: wire.TypeTicker, SID: u64(1)}})
	require.False(t, gap)
	_, ok := seqs.Last(1)
	require.False(t, ok)
}

func TestSequenceTrackerForgetAndReset(t *testing.T) {
	seqs := NewSequenceTracker()
	seqs.Observe(delta(1, 5))
	seqs.Observe(delta(2, 5))

	seqs.Forget(1)
	_, gap := seqs.Observe(delta(1, 100))
	require.False(t, gap)

	seqs.Reset()
	_, ok := seqs.Last(2)
	require.False(t, ok)
}
