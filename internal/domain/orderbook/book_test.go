package orderbook

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
)

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func seeded(t *testing.T) *Book {
	t.Helper()
	b := NewBook("MKT-A", 0)
	b.ApplySnapshot(Snapshot{
		Yes: []Level{{PriceCents: 40, Quantity: qty(100)}, {PriceCents: 42, Quantity: qty(13)}},
		No:  []Level{{PriceCents: 55, Quantity: qty(7)}, {PriceCents: 30, Quantity: qty(0)}},
		Seq: 1,
	})
	return b
}

func TestSnapshotDropsEmptyLevels(t *testing.T) {
	b := seeded(t)
	require.True(t, b.HasSnapshot())
	require.Len(t, b.Levels(schema.No), 1)
	require.Equal(t, uint64(1), b.LastSeq())
	require.False(t, b.LastUpdate().IsZero())
}

func TestBestBidAndImpliedAsk(t *testing.T) {
	b := seeded(t)

	bid, ok := b.BestBid(schema.Yes)
	require.True(t, ok)
	require.Equal(t, int64(42), bid.PriceCents)
	require.True(t, bid.Quantity.Equal(qty(13)))

	ask, ok := b.BestAsk(schema.Yes)
	require.True(t, ok)
	require.Equal(t, int64(45), ask.PriceCents)
	require.True(t, ask.Quantity.Equal(qty(7)))

	noAsk, ok := b.BestAsk(schema.No)
	require.True(t, ok)
	require.Equal(t, int64(58), noAsk.PriceCents)

	spread, ok := b.Spread(schema.Yes)
	require.True(t, ok)
	require.Equal(t, int64(3), spread)
}

func TestDeltaAddsAndRemovesLevels(t *testing.T) {
	b := seeded(t)

	applied, err := b.ApplyDelta(Delta{Side: schema.Yes, PriceCents: 44, Change: qty(5), Seq: 2})
	require.NoError(t, err)
	require.True(t, applied)
	bid, _ := b.BestBid(schema.Yes)
	require.Equal(t, int64(44), bid.PriceCents)

	_, err = b.ApplyDelta(Delta{Side: schema.Yes, PriceCents: 44, Change: qty(-5), Seq: 3})
	require.NoError(t, err)
	bid, _ = b.BestBid(schema.Yes)
	require.Equal(t, int64(42), bid.PriceCents)

	_, err = b.ApplyDelta(Delta{Side: schema.Yes, PriceCents: 40, Change: qty(-30), Seq: 4})
	require.NoError(t, err)
	levels := b.Levels(schema.Yes)
	require.Equal(t, []int64{42, 40}, []int64{levels[0].PriceCents, levels[1].PriceCents})
	require.True(t, levels[1].Quantity.Equal(qty(70)))
	require.Equal(t, uint64(4), b.LastSeq())

	_, err = b.ApplyDelta(Delta{Side: schema.No, PriceCents: 55, Change: qty(-9)})
	require.NoError(t, err)
	_, ok := b.BestAsk(schema.Yes)
	require.False(t, ok)
}

func TestFractionalQuantities(t *testing.T) {
	b := NewBook("MKT-A", 0)
	b.ApplySnapshot(Snapshot{Yes: []Level{{PriceCents: 10, Quantity: decimal.RequireFromString("1.50")}}})
	_, err := b.ApplyDelta(Delta{Side: schema.Yes, PriceCents: 10, Change: decimal.RequireFromString("-1.25")})
	require.NoError(t, err)
	bid, ok := b.BestBid(schema.Yes)
	require.True(t, ok)
	require.Equal(t, "0.25", bid.Quantity.String())
}

func TestDeltaBeforeSnapshotIsIgnored(t *testing.T) {
	b := NewBook("MKT-A", 0)
	applied, err := b.ApplyDelta(Delta{Side: schema.Yes, PriceCents: 44, Change: qty(5)})
	require.NoError(t, err)
	require.False(t, applied)
	require.Empty(t, b.Levels(schema.Yes))
}

func TestDeltaRejectsUnknownSide(t *testing.T) {
	b := seeded(t)
	_, err := b.ApplyDelta(Delta{Side: schema.YesNoUnknown, PriceCents: 44, Change: qty(5)})
	require.ErrorIs(t, err, ErrUnknownSide)
}

func TestResetWaitsForSnapshot(t *testing.T) {
	b := seeded(t)
	b.Reset()
	require.False(t, b.HasSnapshot())
	_, ok := b.BestBid(schema.Yes)
	require.False(t, ok)
	applied, err := b.ApplyDelta(Delta{Side: schema.Yes, PriceCents: 44, Change: qty(5)})
	require.NoError(t, err)
	require.False(t, applied)
}

func TestLevelsHonourDepth(t *testing.T) {
	b := NewBook("MKT-A", 2)
	b.ApplySnapshot(Snapshot{Yes: []Level{
		{PriceCents: 10, Quantity: qty(1)},
		{PriceCents: 30, Quantity: qty(1)},
		{PriceCents: 20, Quantity: qty(1)},
	}})
	levels := b.Levels(schema.Yes)
	require.Len(t, levels, 2)
	require.Equal(t, int64(30), levels[0].PriceCents)
	require.Equal(t, int64(20), levels[1].PriceCents)
}

func TestBooksIndex(t *testing.T) {
	books := NewBooks(0)
	a := books.Book("B-MKT")
	require.Same(t, a, books.Book("B-MKT"))
	books.Book("A-MKT").ApplySnapshot(Snapshot{Yes: []Level{{PriceCents: 1, Quantity: qty(1)}}})
	require.Equal(t, []string{"A-MKT", "B-MKT"}, books.Tickers())

	books.ResetAll()
	got, ok := books.Lookup("A-MKT")
	require.True(t, ok)
	require.False(t, got.HasSnapshot())

	books.Remove("A-MKT")
	_, ok = books.Lookup("A-MKT")
	require.False(t, ok)
}
