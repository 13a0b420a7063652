package stream

import (
	"sync"

	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

// Gap describes a discontinuity in one subscription's sequence numbers.
type Gap struct {
	SID      uint64
	Expected uint64
	Got      uint64
}

// SequenceTracker remembers the last seq seen per sid. Sequence numbers are only comparable
// within one sid; a reconnect yields new sids, so call Reset on Reconnected.
type SequenceTracker struct {
	mu   sync.Mutex
	last map[uint64]uint64
}

// NewSequenceTracker returns an empty tracker.
func NewSequenceTracker() *SequenceTracker {
	return &SequenceTracker{last: make(map[uint64]uint64)}
}

// Observe records the message's seq. It returns a Gap when seq is not exactly one past the
// previous value for the same sid. Messages without sid or seq are ignored.
func (t *SequenceTracker) Observe(msg wire.Message) (Gap, bool) {
	dm, ok := msg.(wire.DataMessage)
	if !ok {
		return Gap{}, false
	}
	sid, ok := dm.Meta().Sid()
	if !ok {
		return Gap{}, false
	}
	seq, ok := dm.Meta().Sequence()
	if !ok {
		return Gap{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	prev, seen := t.last[sid]
	t.last[sid] = seq
	if seen && seq != prev+1 {
		return Gap{SID: sid, Expected: prev + 1, Got: seq}, true
	}
	return Gap{}, false
}

// Last returns the last seq observed for sid.
func (t *SequenceTracker) Last(sid uint64) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	seq, ok := t.last[sid]
	return seq, ok
}

// Forget drops the state of one sid, e.g. after it was unsubscribed.
func (t *SequenceTracker) Forget(sid uint64) {
	t.mu.Lock()
	delete(t.last, sid)
	t.mu.Unlock()
}

// Reset drops all state.
func (t *SequenceTracker) Reset() {
	t.mu.Lock()
	t.last = make(map[uint64]uint64)
	t.mu.Unlock()
}
