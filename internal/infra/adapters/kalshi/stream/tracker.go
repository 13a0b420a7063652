package stream

import (
	"sort"

	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

type pendingEntry struct {
	key    string
	params wire.SubscriptionParams
}

type activeEntry struct {
	key    string
	cmdID  uint64
	params wire.SubscriptionParams
}

// updateEntry is the state an unacknowledged update_subscription replaced.
type updateEntry struct {
	sid      uint64
	previous activeEntry
}

// tracker holds the desired, pending and active subscription sets. It is not safe for concurrent
// use; the Manager guards it with its mutex.
type tracker struct {
	desired map[string]wire.SubscriptionParams
	order   []string
	pending map[uint64]pendingEntry
	active  map[uint64]activeEntry
	// unsubscribe command id -> sid, for acknowledgements that omit the sid
	unsubs map[uint64]uint64
	// update command id -> replaced entry, restored if the server refuses the update
	updates map[uint64]updateEntry
}

func newTracker() *tracker {
	return &tracker{
		desired: make(map[string]wire.SubscriptionParams),
		order:   nil,
		pending: make(map[uint64]pendingEntry),
		active:  make(map[uint64]activeEntry),
		unsubs:  make(map[uint64]uint64),
		updates: make(map[uint64]updateEntry),
	}
}

// desire adds a normalized request. It reports false when an equal request is already desired.
func (t *tracker) desire(key string, params wire.SubscriptionParams) bool {
	if _, ok := t.desired[key]; ok {
		return false
	}
	t.desired[key] = params
	t.order = append(t.order, key)
	return true
}

func (t *tracker) forget(key string) {
	if _, ok := t.desired[key]; !ok {
		return
	}
	delete(t.desired, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// commandFor returns the command id of the pending or active entry for key.
func (t *tracker) commandFor(key string) (uint64, bool) {
	for id, entry := range t.pending {
		if entry.key == key {
			return id, true
		}
	}
	for _, entry := range t.active {
		if entry.key == key {
			return entry.cmdID, true
		}
	}
	return 0, false
}

func (t *tracker) recordSubscribe(id uint64, key string, params wire.SubscriptionParams) {
	t.pending[id] = pendingEntry{key: key, params: params}
}

func (t *tracker) recordUnsubscribe(id, sid uint64) {
	t.unsubs[id] = sid
}

// resubscribeSet clears connection-scoped state and returns every desired request in the order
// it was first desired.
func (t *tracker) resubscribeSet() []pendingEntry {
	t.pending = make(map[uint64]pendingEntry)
	t.active = make(map[uint64]activeEntry)
	t.unsubs = make(map[uint64]uint64)
	t.updates = make(map[uint64]updateEntry)
	out := make([]pendingEntry, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, pendingEntry{key: key, params: t.desired[key]})
	}
	return out
}

// dropConnection abandons pending commands and active subscriptions. Desired entries survive.
func (t *tracker) dropConnection() {
	t.pending = make(map[uint64]pendingEntry)
	t.active = make(map[uint64]activeEntry)
	t.unsubs = make(map[uint64]uint64)
	t.updates = make(map[uint64]updateEntry)
}

// update replaces the active entry for sid with the merged params and moves the desired entry
// to the new key. The replaced entry is kept under command id until the server answers.
func (t *tracker) update(id, sid uint64, upd wire.UpdateParams) (activeEntry, bool) {
	entry, ok := t.active[sid]
	if !ok {
		return activeEntry{}, false
	}
	t.updates[id] = updateEntry{sid: sid, previous: entry}
	merged := upd.Apply(entry.params).Normalized()
	next := activeEntry{key: merged.Key(), cmdID: entry.cmdID, params: merged}
	t.replace(entry, next)
	t.active[sid] = next
	return next, true
}

// revert restores the entry an update replaced. A sid that left the active set meanwhile stays
// gone.
func (t *tracker) revert(u updateEntry) {
	current, ok := t.active[u.sid]
	if !ok {
		return
	}
	t.replace(current, u.previous)
	t.active[u.sid] = u.previous
}

// replace swaps the desired request behind from for the one behind to, if from is still desired.
func (t *tracker) replace(from, to activeEntry) {
	if _, desired := t.desired[from.key]; !desired {
		return
	}
	if from.key == to.key {
		t.desired[to.key] = to.params
		return
	}
	t.forget(from.key)
	t.desire(to.key, to.params)
}

// apply updates bookkeeping from a control message.
func (t *tracker) apply(msg wire.Message) {
	switch m := msg.(type) {
	case wire.Subscribed:
		if m.ID == nil || m.SID == nil {
			return
		}
		entry, ok := t.pending[*m.ID]
		if !ok {
			return
		}
		delete(t.pending, *m.ID)
		t.active[*m.SID] = activeEntry{key: entry.key, cmdID: *m.ID, params: entry.params}
	case wire.Unsubscribed:
		sid, ok := uint64(0), false
		if m.SID != nil {
			sid, ok = *m.SID, true
		} else if m.ID != nil {
			sid, ok = t.unsubs[*m.ID]
		}
		if m.ID != nil {
			delete(t.unsubs, *m.ID)
		}
		if ok {
			delete(t.active, sid)
		}
	case wire.OK:
		if m.ID != nil {
			delete(t.updates, *m.ID)
		}
	case wire.Error:
		// A rejected subscribe stops being pending; the request stays desired and is retried on
		// the next reconnect. A rejected update restores the filters it replaced. Errors for
		// unknown ids or sids change nothing.
		if m.ID == nil {
			return
		}
		delete(t.pending, *m.ID)
		delete(t.unsubs, *m.ID)
		if u, ok := t.updates[*m.ID]; ok {
			delete(t.updates, *m.ID)
			t.revert(u)
		}
	}
}

// Snapshot is a point-in-time copy of the subscription state.
type Snapshot struct {
	Desired       []wire.SubscriptionParams
	Pending       map[uint64]wire.SubscriptionParams
	Active        map[uint64]wire.SubscriptionParams
	Connected     bool
	Authenticated bool
}

// ActiveSIDs returns the active subscription ids in ascending order.
func (s Snapshot) ActiveSIDs() []uint64 {
	out := make([]uint64, 0, len(s.Active))
	for sid := range s.Active {
		out = append(out, sid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *tracker) snapshot() Snapshot {
	snap := Snapshot{
		Desired: make([]wire.SubscriptionParams, 0, len(t.order)),
		Pending: make(map[uint64]wire.SubscriptionParams, len(t.pending)),
		Active:  make(map[uint64]wire.SubscriptionParams, len(t.active)),
	}
	for _, key := range t.order {
		snap.Desired = append(snap.Desired, t.desired[key].Clone())
	}
	for id, entry := range t.pending {
		snap.Pending[id] = entry.params.Clone()
	}
	for sid, entry := range t.active {
		snap.Active[sid] = entry.params.Clone()
	}
	return snap
}

func (t *tracker) requiresAuth() bool {
	for _, p := range t.desired {
		if p.RequiresAuth() {
			return true
		}
	}
	return false
}
