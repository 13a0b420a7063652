package kalshi

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/domain/orderbook"
	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/rest"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/stream"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

// BookUpdate reports what one event did to the books.
type BookUpdate struct {
	// Ticker is the market whose book changed, empty when none did.
	Ticker string
	// Gap is set when a sequence discontinuity invalidated the books fed by Gap.SID. The caller
	// should resubscribe that sid to receive a fresh snapshot.
	Gap *stream.Gap
}

// BookFeed applies orderbook_snapshot and orderbook_delta frames to local books and resets
// them when sequence continuity is lost.
type BookFeed struct {
	books *orderbook.Books
	seq   *stream.SequenceTracker

	mu   sync.Mutex
	sids map[uint64]map[string]struct{}
}

// NewBookFeed feeds books.
func NewBookFeed(books *orderbook.Books) *BookFeed {
	return &BookFeed{
		books: books,
		seq:   stream.NewSequenceTracker(),
		sids:  make(map[uint64]map[string]struct{}),
	}
}

// Books returns the fed books.
func (f *BookFeed) Books() *orderbook.Books { return f.books }

// Apply consumes one stream event.
func (f *BookFeed) Apply(ev stream.Event) (BookUpdate, error) {
	switch e := ev.(type) {
	case stream.Reconnected, stream.Disconnected:
		f.resetAll()
		return BookUpdate{}, nil
	case stream.MessageEvent:
		return f.applyMessage(e.Message)
	default:
		return BookUpdate{}, nil
	}
}

func (f *BookFeed) applyMessage(msg wire.Message) (BookUpdate, error) {
	switch m := msg.(type) {
	case wire.OrderbookSnapshotMessage:
		if gap, ok := f.seq.Observe(m); ok {
			f.invalidate(gap.SID)
			return BookUpdate{Gap: &gap}, nil
		}
		snap, err := SnapshotFromWire(m.Msg)
		if err != nil {
			return BookUpdate{}, err
		}
		if seq, ok := m.Sequence(); ok {
			snap.Seq = seq
		}
		f.books.Book(m.Msg.MarketTicker).ApplySnapshot(snap)
		if sid, ok := m.Sid(); ok {
			f.track(sid, m.Msg.MarketTicker)
		}
		return BookUpdate{Ticker: m.Msg.MarketTicker}, nil
	case wire.OrderbookDeltaMessage:
		if gap, ok := f.seq.Observe(m); ok {
			f.invalidate(gap.SID)
			return BookUpdate{Gap: &gap}, nil
		}
		delta, err := DeltaFromWire(m.Msg)
		if err != nil {
			return BookUpdate{}, err
		}
		if seq, ok := m.Sequence(); ok {
			delta.Seq = seq
		}
		applied, err := f.books.Book(m.Msg.MarketTicker).ApplyDelta(delta)
		if err != nil || !applied {
			return BookUpdate{}, err
		}
		return BookUpdate{Ticker: m.Msg.MarketTicker}, nil
	case wire.Unsubscribed:
		if m.SID != nil {
			f.invalidate(*m.SID)
			f.seq.Forget(*m.SID)
		}
		return BookUpdate{}, nil
	default:
		return BookUpdate{}, nil
	}
}

// Seed replaces a market's book with a REST snapshot.
func (f *BookFeed) Seed(ticker string, resp rest.OrderbookResponse) error {
	snap, err := SnapshotFromREST(resp)
	if err != nil {
		return err
	}
	f.books.Book(ticker).ApplySnapshot(snap)
	return nil
}

func (f *BookFeed) track(sid uint64, ticker string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sids[sid]
	if !ok {
		set = make(map[string]struct{})
		f.sids[sid] = set
	}
	set[ticker] = struct{}{}
}

func (f *BookFeed) invalidate(sid uint64) {
	f.mu.Lock()
	tickers := f.sids[sid]
	delete(f.sids, sid)
	f.mu.Unlock()
	for ticker := range tickers {
		if b, ok := f.books.Lookup(ticker); ok {
			b.Reset()
		}
	}
}

func (f *BookFeed) resetAll() {
	f.seq.Reset()
	f.mu.Lock()
	f.sids = make(map[uint64]map[string]struct{})
	f.mu.Unlock()
	f.books.ResetAll()
}

// SnapshotFromWire converts a streamed snapshot. Fixed-point levels take precedence over cent
// levels when present.
func SnapshotFromWire(s wire.OrderbookSnapshot) (orderbook.Snapshot, error) {
	yes, err := sideLevels(s.Yes, s.YesDollarsFP)
	if err != nil {
		return orderbook.Snapshot{}, snapshotError(s.MarketTicker, err)
	}
	no, err := sideLevels(s.No, s.NoDollarsFP)
	if err != nil {
		return orderbook.Snapshot{}, snapshotError(s.MarketTicker, err)
	}
	return orderbook.Snapshot{Yes: yes, No: no}, nil
}

// SnapshotFromREST converts the orderbook endpoint's reply.
func SnapshotFromREST(resp rest.OrderbookResponse) (orderbook.Snapshot, error) {
	var yesFP, noFP []wire.FixedLevel
	if resp.OrderbookFP != nil {
		yesFP, noFP = resp.OrderbookFP.YesDollars, resp.OrderbookFP.NoDollars
	}
	yes, err := sideLevels(resp.Orderbook.Yes, yesFP)
	if err != nil {
		return orderbook.Snapshot{}, snapshotError("rest", err)
	}
	no, err := sideLevels(resp.Orderbook.No, noFP)
	if err != nil {
		return orderbook.Snapshot{}, snapshotError("rest", err)
	}
	return orderbook.Snapshot{Yes: yes, No: no}, nil
}

// DeltaFromWire converts a streamed level change. delta_fp is preferred over the integer delta.
func DeltaFromWire(d wire.OrderbookDelta) (orderbook.Delta, error) {
	change := decimal.NewFromInt(d.Delta)
	if strings.TrimSpace(string(d.DeltaFP)) != "" {
		parsed, err := d.DeltaFP.Decimal()
		if err != nil {
			return orderbook.Delta{}, deltaError(d.MarketTicker, err)
		}
		change = parsed
	}
	price := d.Price
	if price == 0 && d.PriceDollars != "" {
		cents, err := d.PriceDollars.Cents()
		if err != nil {
			return orderbook.Delta{}, deltaError(d.MarketTicker, err)
		}
		price = cents
	}
	if d.Side != schema.Yes && d.Side != schema.No {
		return orderbook.Delta{}, deltaError(d.MarketTicker, orderbook.ErrUnknownSide)
	}
	return orderbook.Delta{Side: d.Side, PriceCents: price, Change: change}, nil
}

func sideLevels(cents [][2]int64, fixed []wire.FixedLevel) ([]orderbook.Level, error) {
	if len(fixed) > 0 {
		out := make([]orderbook.Level, 0, len(fixed))
		for _, level := range fixed {
			price, err := level.Price.Cents()
			if err != nil {
				return nil, fmt.Errorf("price %q: %w", level.Price, err)
			}
			qty, err := level.Quantity.Decimal()
			if err != nil {
				return nil, fmt.Errorf("quantity %q: %w", level.Quantity, err)
			}
			out = append(out, orderbook.Level{PriceCents: price, Quantity: qty})
		}
		return out, nil
	}
	out := make([]orderbook.Level, 0, len(cents))
	for _, level := range cents {
		out = append(out, orderbook.Level{PriceCents: level[0], Quantity: decimal.NewFromInt(level[1])})
	}
	return out, nil
}

func snapshotError(ticker string, err error) error {
	return errs.Kalshi(errs.CodeDecode,
		errs.WithMessage("orderbook snapshot for "+ticker),
		errs.WithCause(err))
}

func deltaError(ticker string, err error) error {
	return errs.Kalshi(errs.CodeDecode,
		errs.WithMessage("orderbook delta for "+ticker),
		errs.WithCause(err))
}
