// Package orderbook maintains local Kalshi books from snapshots and level deltas. Both sides of
// a binary market are bid books; the ask of one side is implied by the best bid of the other.
package orderbook

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
)

// MaxPriceCents is the settlement value of a winning contract.
const MaxPriceCents = 100

// ErrUnknownSide indicates a level update for a side other than yes or no.
var ErrUnknownSide = errors.New("orderbook: side must be yes or no")

// Level is one resting price level.
type Level struct {
	PriceCents int64
	Quantity   decimal.Decimal
}

// Snapshot replaces the whole book.
type Snapshot struct {
	Yes []Level
	No  []Level
	// Seq of the frame that carried the snapshot, zero when fetched over REST.
	Seq uint64
}

// Delta changes the quantity resting at one price by a signed amount.
type Delta struct {
	Side       schema.YesNo
	PriceCents int64
	Change     decimal.Decimal
	Seq        uint64
}

// Book is the resting interest of one market. A Book is safe for concurrent use.
type Book struct {
	mu          sync.RWMutex
	ticker      string
	depth       int
	initialized bool
	yes         map[int64]decimal.Decimal
	no          map[int64]decimal.Decimal
	lastSeq     uint64
	lastUpdate  time.Time
	now         func() time.Time
}

// NewBook returns an empty book. depth limits Levels output; <= 0 keeps every level.
func NewBook(ticker string, depth int) *Book {
	return &Book{
		ticker: ticker,
		depth:  depth,
		yes:    make(map[int64]decimal.Decimal),
		no:     make(map[int64]decimal.Decimal),
		now:    time.Now,
	}
}

// Ticker returns the market ticker.
func (b *Book) Ticker() string { return b.ticker }

// HasSnapshot reports whether a snapshot has been applied since creation or the last Reset.
func (b *Book) HasSnapshot() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// ApplySnapshot replaces both sides.
func (b *Book) ApplySnapshot(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	replaceSide(b.yes, s.Yes)
	replaceSide(b.no, s.No)
	b.initialized = true
	b.lastSeq = s.Seq
	b.lastUpdate = b.now()
}

// ApplyDelta adjusts one level. It reports false without changing anything when no snapshot
// has been applied yet.
func (b *Book) ApplyDelta(d Delta) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return false, nil
	}
	var side map[int64]decimal.Decimal
	switch d.Side {
	case schema.Yes:
		side = b.yes
	case schema.No:
		side = b.no
	default:
		return false, ErrUnknownSide
	}
	qty := side[d.PriceCents].Add(d.Change)
	if qty.Sign() <= 0 {
		delete(side, d.PriceCents)
	} else {
		side[d.PriceCents] = qty
	}
	if d.Seq != 0 {
		b.lastSeq = d.Seq
	}
	b.lastUpdate = b.now()
	return true, nil
}

// Reset clears the book; deltas are ignored until the next snapshot.
func (b *Book) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.yes)
	clear(b.no)
	b.initialized = false
	b.lastSeq = 0
}

// BestBid returns the highest resting bid on side.
func (b *Book) BestBid(side schema.YesNo) (Level, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return best(b.sideLocked(side))
}

// BestAsk returns the implied ask on side: buying side at p matches a bid on the other side
// at 100 - p.
func (b *Book) BestAsk(side schema.YesNo) (Level, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, ok := best(b.sideLocked(side.Opposite()))
	if !ok {
		return Level{}, false
	}
	return Level{PriceCents: MaxPriceCents - bid.PriceCents, Quantity: bid.Quantity}, true
}

// Spread returns the gap in cents between the best ask and best bid on side.
func (b *Book) Spread(side schema.YesNo) (int64, bool) {
	bid, ok := b.BestBid(side)
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk(side)
	if !ok {
		return 0, false
	}
	return ask.PriceCents - bid.PriceCents, true
}

// Levels returns the bids on side from best to worst, limited to the configured depth.
func (b *Book) Levels(side schema.YesNo) []Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	source := b.sideLocked(side)
	if len(source) == 0 {
		return nil
	}
	out := make([]Level, 0, len(source))
	for price, qty := range source {
		out = append(out, Level{PriceCents: price, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents > out[j].PriceCents })
	if b.depth > 0 && len(out) > b.depth {
		out = out[:b.depth]
	}
	return out
}

// LastSeq returns the seq of the last applied frame.
func (b *Book) LastSeq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSeq
}

// LastUpdate returns when the book last changed.
func (b *Book) LastUpdate() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdate
}

func (b *Book) sideLocked(side schema.YesNo) map[int64]decimal.Decimal {
	switch side {
	case schema.Yes:
		return b.yes
	case schema.No:
		return b.no
	default:
		return nil
	}
}

func replaceSide(target map[int64]decimal.Decimal, levels []Level) {
	clear(target)
	for _, level := range levels {
		if level.Quantity.Sign() <= 0 {
			continue
		}
		target[level.PriceCents] = target[level.PriceCents].Add(level.Quantity)
	}
}

func best(side map[int64]decimal.Decimal) (Level, bool) {
	found := false
	var out Level
	for price, qty := range side {
		if !found || price > out.PriceCents {
			out = Level{PriceCents: price, Quantity: qty}
			found = true
		}
	}
	return out, found
}
