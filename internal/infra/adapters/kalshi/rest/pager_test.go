package rest

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
	"github.com/coachpo/kalshi-gateway/internal/testutil"
)

func sliceFetcher(pages map[string][]int, next map[string]string, calls *int) FetchFunc[int] {
	return func(_ context.Context, cursor string) ([]int, string, error) {
		*calls++
		items, ok := pages[cursor]
		if !ok {
			return nil, "", errors.New("unknown cursor " + cursor)
		}
		return items, next[cursor], nil
	}
}

func TestPagerYieldsPagesInOrder(t *testing.T) {
	calls := 0
	p := NewPager("", sliceFetcher(
		map[string][]int{"": {1, 2}, "c1": {3}, "c2": {}},
		map[string]string{"": "c1", "c1": "c2"},
		&calls))

	var got [][]int
	for {
		items, ok, err := p.NextPage(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, items)
	}
	require.Equal(t, [][]int{{1, 2}, {3}, {}}, got)
	require.True(t, p.Done())
	require.Empty(t, p.Cursor())
	require.Equal(t, 3, calls)

	items, ok, err := p.NextPage(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, items)
	require.Equal(t, 3, calls)
}

func TestPagerCollectStopsAtMax(t *testing.T) {
	calls := 0
	p := NewPager("", sliceFetcher(
		map[string][]int{"": {1, 2, 3}, "c1": {4, 5}},
		map[string]string{"": "c1"},
		&calls))

	items, err := p.Collect(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, items)
	require.Equal(t, 1, calls)
	require.Equal(t, "c1", p.Cursor())
	require.False(t, p.Done())
}

func TestPagerCollectAll(t *testing.T) {
	calls := 0
	p := NewPager("", sliceFetcher(
		map[string][]int{"": {1}, "c1": {2, 3}},
		map[string]string{"": "c1"},
		&calls))

	items, err := p.Collect(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, items)
}

func TestPagerResumesFromCursor(t *testing.T) {
	calls := 0
	p := NewPager("c1", sliceFetcher(
		map[string][]int{"": {1}, "c1": {2, 3}},
		map[string]string{"": "c1"},
		&calls))

	items, err := p.Collect(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, items)
	require.Equal(t, 1, calls)
}

func TestPagerKeepsCursorOnError(t *testing.T) {
	failures := 1
	p := NewPager("", func(_ context.Context, cursor string) ([]int, string, error) {
		if cursor == "c1" && failures > 0 {
			failures--
			return nil, "", errors.New("transient")
		}
		if cursor == "" {
			return []int{1}, "c1", nil
		}
		return []int{2}, "", nil
	})

	_, _, err := p.NextPage(context.Background())
	require.NoError(t, err)
	_, _, err = p.NextPage(context.Background())
	require.Error(t, err)
	require.Equal(t, "c1", p.Cursor())

	items, ok, err := p.NextPage(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []int{2}, items)
}

func TestPagerForEachStopsOnError(t *testing.T) {
	calls := 0
	p := NewPager("", sliceFetcher(
		map[string][]int{"": {1, 2}, "c1": {3}},
		map[string]string{"": "c1"},
		&calls))

	stop := errors.New("stop")
	var seen []int
	err := p.ForEach(context.Background(), func(v int) error {
		seen = append(seen, v)
		if v == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, []int{1, 2}, seen)
	require.Equal(t, 1, calls)
}

func TestMarketsPagerFollowsServerCursor(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/trade-api/v2/markets", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("limit"))
		switch r.URL.Query().Get("cursor") {
		case "":
			writeJSON(w, http.StatusOK, `{"markets":[{"ticker":"A"},{"ticker":"B"}],"cursor":"next-1"}`)
		case "next-1":
			writeJSON(w, http.StatusOK, `{"markets":[{"ticker":"C"}],"cursor":""}`)
		default:
			writeJSON(w, http.StatusBadRequest, `{"code":"bad_cursor","message":"bad cursor"}`)
		}
	}, Options{})

	markets, err := c.MarketsPager(MarketsParams{Limit: 2}).Collect(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, markets, 3)
	require.Equal(t, "C", markets[2].Ticker)
	require.Equal(t, int32(2), hits.Load())
}

func TestPositionsPagerYieldsWholePages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "position,total_traded", r.URL.Query().Get("count_filter"))
		if r.URL.Query().Get("cursor") == "" {
			writeJSON(w, http.StatusOK, `{"market_positions":[{"ticker":"A","position":3}],"event_positions":[],"cursor":"p2"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"market_positions":[{"ticker":"B","position":-1}],"event_positions":[],"cursor":""}`)
	}, Options{Signer: testutil.Signer(t)})

	pages, err := c.PositionsPager(PositionsParams{
		CountFilter: []schema.PositionCountFilter{schema.CountPosition, schema.CountTotalTraded},
	}).Collect(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "A", pages[0].MarketPositions[0].Ticker)
	require.Equal(t, "B", pages[1].MarketPositions[0].Ticker)
}
