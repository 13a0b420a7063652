package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

// ErrManagerClosed is returned by every operation after Close.
var ErrManagerClosed = errors.New("kalshi stream: manager closed")

// Manager keeps the caller's desired subscriptions alive across connection failures. Next is the
// single read path: it decodes frames, updates the pending and active sets from acknowledgements,
// and transparently reconnects and resubscribes when the connection drops.
type Manager struct {
	opts    Options
	metrics *streamMetrics
	dial    func(context.Context, DialOptions) (*Conn, error)
	sleep   func(context.Context, time.Duration) error

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	conn   *Conn
	subs   *tracker
	nextID uint64
	closed bool

	reading  atomic.Bool
	lastConn *Conn // owned by the reader
}

// NewManager validates the options. No connection is opened until Connect, Subscribe or Next.
func NewManager(opts Options) (*Manager, error) {
	opts = withDefaults(opts)
	if opts.URL == "" {
		return nil, errs.Kalshi(errs.CodeConfig, errs.WithMessage("stream: websocket url is required"))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		opts:    opts,
		metrics: newStreamMetrics(),
		dial:    Dial,
		sleep:   sleepContext,
		ctx:     ctx,
		cancel:  cancel,
		subs:    newTracker(),
	}, nil
}

// Connect opens a connection now instead of on first use.
func (m *Manager) Connect(ctx context.Context) error {
	ctx, stop := m.bind(ctx)
	defer stop()
	_, err := m.connect(ctx)
	return err
}

// Subscribe adds the request to the desired set and sends a subscribe command, connecting first
// if needed. It returns the command id without waiting for the acknowledgement. An equal request
// that is already pending or active returns its existing command id.
func (m *Manager) Subscribe(ctx context.Context, params wire.SubscriptionParams) (uint64, error) {
	p := params.Normalized()
	if p.RequiresAuth() && m.opts.Signer == nil {
		return 0, errs.AuthRequired("WebSocket private channel subscription")
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	key := p.Key()

	ctx, stop := m.bind(ctx)
	defer stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrManagerClosed
	}

	if !m.subs.desire(key, p) {
		if id, ok := m.subs.commandFor(key); ok {
			return id, nil
		}
	}
	if m.conn != nil && p.RequiresAuth() && !m.conn.Authenticated() {
		m.opts.Logger.Printf("reconnecting with credentials for private channels %v", p.Channels)
		m.dropLocked(m.conn, "auth_upgrade")
	}
	if m.conn == nil {
		if err := m.connectLocked(ctx); err != nil {
			return 0, err
		}
		id, _ := m.subs.commandFor(key)
		return id, nil
	}
	return m.sendSubscribeLocked(ctx, key, p)
}

// Unsubscribe removes the request behind an active sid from the desired set and sends an
// unsubscribe command. The sid leaves the active set when the acknowledgement arrives.
func (m *Manager) Unsubscribe(ctx context.Context, sid uint64) (uint64, error) {
	ctx, stop := m.bind(ctx)
	defer stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrManagerClosed
	}
	entry, ok := m.subs.active[sid]
	if !ok {
		return 0, errs.Kalshi(errs.CodeNotFound, errs.WithMessage(fmt.Sprintf("unsubscribe: sid %d is not active", sid)))
	}
	m.subs.forget(entry.key)

	id := m.nextCmdID()
	if err := m.sendLocked(ctx, wire.Unsubscribe(id, sid)); err != nil {
		return 0, err
	}
	m.subs.recordUnsubscribe(id, sid)
	return id, nil
}

// UpdateSubscription changes the filters of an active subscription. The merged request replaces
// both the active entry and its desired entry, so it survives reconnects. If the server answers
// the command with an error, the previous filters are restored.
func (m *Manager) UpdateSubscription(ctx context.Context, upd wire.UpdateParams) (uint64, error) {
	ctx, stop := m.bind(ctx)
	defer stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrManagerClosed
	}
	entry, ok := m.subs.active[upd.SID]
	if !ok {
		return 0, errs.Kalshi(errs.CodeNotFound, errs.WithMessage(fmt.Sprintf("update_subscription: sid %d is not active", upd.SID)))
	}
	if err := upd.Apply(entry.params).Validate(); err != nil {
		return 0, err
	}

	id := m.nextCmdID()
	if err := m.sendLocked(ctx, wire.UpdateSubscription(id, upd)); err != nil {
		return 0, err
	}
	m.subs.update(id, upd.SID, upd)
	return id, nil
}

// ListSubscriptions asks the server for its view of this connection's subscriptions. The reply
// arrives through Next as a wire.Subscriptions message.
func (m *Manager) ListSubscriptions(ctx context.Context) (uint64, error) {
	ctx, stop := m.bind(ctx)
	defer stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrManagerClosed
	}
	id := m.nextCmdID()
	if err := m.sendLocked(ctx, wire.ListSubscriptions(id)); err != nil {
		return 0, err
	}
	return id, nil
}

// Next returns the next event. Only one goroutine may call it at a time. Cancelling ctx abandons
// the wait but keeps the connection open; a frame still in flight is returned by the next call.
func (m *Manager) Next(ctx context.Context) (Event, error) {
	if !m.reading.CompareAndSwap(false, true) {
		return nil, errs.Kalshi(errs.CodeInvalid, errs.WithMessage("stream: concurrent Next calls are not supported"))
	}
	defer m.reading.Store(false)

	ctx, stop := m.bind(ctx)
	defer stop()

	for {
		if err := m.ctxErr(ctx); err != nil {
			return nil, err
		}
		c := m.current()
		if c == nil {
			return m.reconnect(ctx)
		}
		if m.lastConn != nil && m.lastConn != c {
			// Replaced outside Next, e.g. an upgrade to an authenticated connection.
			m.lastConn = c
			return Reconnected{Attempt: 1}, nil
		}
		m.lastConn = c

		msg, err := c.receive(ctx, m.opts.Mode)
		if err != nil {
			if errs.IsCode(err, errs.CodeDecode) {
				m.metrics.recordDecodeFailure(ctx)
				m.opts.Logger.Printf("decode failure: %v", err)
				return DecodeFailure{Err: err}, nil
			}
			if !isClosed(err) {
				if cerr := m.ctxErr(ctx); cerr != nil {
					return nil, cerr
				}
			}
			m.drop(c, "read_failed")
			if cerr := m.ctxErr(ctx); cerr != nil {
				return nil, cerr
			}
			m.opts.Logger.Printf("connection lost: %v", err)
			continue
		}
		m.metrics.recordMessage(ctx, string(msg.Type()))
		m.observe(c, msg)
		return MessageEvent{Message: msg}, nil
	}
}

// Run calls handler for every event until ctx ends, the manager closes or handler fails.
func (m *Manager) Run(ctx context.Context, handler func(context.Context, Event) error) error {
	for {
		ev, err := m.Next(ctx)
		if err != nil {
			return err
		}
		if err := handler(ctx, ev); err != nil {
			return err
		}
	}
}

// State returns a copy of the subscription state.
func (m *Manager) State() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.subs.snapshot()
	if m.conn != nil {
		snap.Connected = true
		snap.Authenticated = m.conn.Authenticated()
	}
	return snap
}

// Close releases the connection and makes a blocked Next return ErrManagerClosed.
func (m *Manager) Close() error {
	m.cancel()
	m.mu.Lock()
	m.closed = true
	c := m.conn
	m.conn = nil
	m.subs.dropConnection()
	m.mu.Unlock()
	if c != nil {
		return c.Close()
	}
	return nil
}

func (m *Manager) reconnect(ctx context.Context) (Event, error) {
	b := m.opts.Policy.NewBackOff()
	for attempt := 1; ; attempt++ {
		c, err := m.connect(ctx)
		if err == nil {
			m.lastConn = c
			m.opts.Logger.Printf("connected on attempt %d", attempt)
			return Reconnected{Attempt: attempt}, nil
		}
		if cerr := m.ctxErr(ctx); cerr != nil {
			return nil, cerr
		}
		if errs.CanonicalOf(err) == errs.CanonicalAuthRejected {
			m.metrics.recordDisconnect(ctx, "auth_rejected")
			m.opts.Logger.Printf("credentials rejected, giving up: %v", err)
			return Disconnected{Err: err}, nil
		}
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			m.metrics.recordDisconnect(ctx, "attempts_exhausted")
			m.opts.Logger.Printf("giving up after %d attempts: %v", attempt, err)
			return Disconnected{Err: err}, nil
		}
		m.opts.Logger.Printf("connect attempt %d failed: %v; retrying in %s", attempt, err, delay)
		if err := m.sleep(ctx, delay); err != nil {
			if cerr := m.ctxErr(ctx); cerr != nil {
				return nil, cerr
			}
			return nil, err
		}
	}
}

func (m *Manager) connect(ctx context.Context) (*Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	if m.conn != nil {
		return m.conn, nil
	}
	if err := m.connectLocked(ctx); err != nil {
		return nil, err
	}
	return m.conn, nil
}

// connectLocked dials and re-sends every desired request. Pending and active state from any
// previous connection is discarded.
func (m *Manager) connectLocked(ctx context.Context) error {
	dialOpts := DialOptions{
		URL:              m.opts.URL,
		HandshakeTimeout: m.opts.HandshakeTimeout,
		WriteTimeout:     m.opts.WriteTimeout,
		ReadLimit:        m.opts.ReadLimit,
	}
	if m.subs.requiresAuth() {
		dialOpts.Signer = m.opts.Signer
	}
	c, err := m.dial(ctx, dialOpts)
	if err != nil {
		m.metrics.recordReconnect(ctx, "error")
		return err
	}
	m.metrics.recordReconnect(ctx, "success")
	m.conn = c
	for _, entry := range m.subs.resubscribeSet() {
		if _, err := m.sendSubscribeLocked(ctx, entry.key, entry.params); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) sendSubscribeLocked(ctx context.Context, key string, p wire.SubscriptionParams) (uint64, error) {
	id := m.nextCmdID()
	if err := m.sendLocked(ctx, wire.Subscribe(id, p)); err != nil {
		return 0, err
	}
	m.subs.recordSubscribe(id, key, p)
	return id, nil
}

func (m *Manager) sendLocked(ctx context.Context, cmd wire.Command) error {
	c := m.conn
	if c == nil {
		return closedError(cmd.Cmd, nil)
	}
	err := c.Send(ctx, cmd)
	m.metrics.recordCommand(ctx, cmd.Cmd, err)
	if err != nil && isClosed(err) {
		m.dropLocked(c, "write_failed")
	}
	return err
}

func (m *Manager) nextCmdID() uint64 {
	m.nextID++
	return m.nextID
}

func (m *Manager) current() *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

func (m *Manager) observe(c *Conn, msg wire.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != c {
		return
	}
	if e, ok := msg.(wire.Error); ok {
		m.opts.Logger.Printf("server error: %s", e.Err)
	}
	m.subs.apply(msg)
}

func (m *Manager) drop(c *Conn, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(c, reason)
}

func (m *Manager) dropLocked(c *Conn, reason string) {
	if c == nil || m.conn != c {
		return
	}
	m.conn = nil
	m.subs.dropConnection()
	_ = c.Close()
	m.metrics.recordDisconnect(m.ctx, reason)
}

// bind returns a context cancelled by either ctx or Close.
func (m *Manager) bind(ctx context.Context) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.ctx, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

func (m *Manager) ctxErr(ctx context.Context) error {
	if m.ctx.Err() != nil {
		return ErrManagerClosed
	}
	return ctx.Err()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
