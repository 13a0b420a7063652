package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/auth"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
)

// State is the lifecycle state of one Conn.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrConnectionClosed matches, via errors.Is, every failure caused by a dead connection.
var ErrConnectionClosed = errs.Kalshi(errs.CodeNetwork,
	errs.WithCanonicalCode(errs.CanonicalConnectionClosed),
	errs.WithMessage("connection closed"))

// DialOptions configure a single connection attempt.
type DialOptions struct {
	URL              string
	Signer           *auth.Signer
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64
	HTTPClient       *http.Client
}

// Conn owns one physical websocket. Closed is terminal; reconnecting needs a new Conn.
// Writes are serialized; reads must come from a single goroutine.
//
// Frames are read by a background goroutine bound to the connection's lifetime, one frame per
// request, so a caller giving up on Receive never tears the socket down.
type Conn struct {
	ws            *websocket.Conn
	state         atomic.Int32
	authenticated bool
	writeTimeout  time.Duration

	writeMu sync.Mutex
	readBuf bytes.Buffer

	life     context.Context
	stop     context.CancelFunc
	readOnce sync.Once
	demand   chan DecodeMode
	frames   chan frame
	inflight bool // owned by the reader

	closeOnce sync.Once
}

type frame struct {
	msg wire.Message
	err error
}

// Dial performs the handshake. With a signer, the key, timestamp and signature headers over
// GET WSPath are attached to the upgrade request.
func Dial(ctx context.Context, opts DialOptions) (*Conn, error) {
	c := &Conn{
		authenticated: opts.Signer != nil,
		writeTimeout:  opts.WriteTimeout,
		demand:        make(chan DecodeMode),
		frames:        make(chan frame, 1),
	}
	c.life, c.stop = context.WithCancel(context.Background())
	c.state.Store(int32(StateConnecting))

	header := http.Header{}
	if opts.Signer != nil {
		signed, err := opts.Signer.Headers(http.MethodGet, WSPath)
		if err != nil {
			c.stop()
			return nil, err
		}
		signed.Apply(header)
	}

	if opts.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.HandshakeTimeout)
		defer cancel()
	}

	ws, resp, err := websocket.Dial(ctx, opts.URL, &websocket.DialOptions{
		HTTPHeader: header,
		HTTPClient: opts.HTTPClient,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.state.Store(int32(StateClosed))
		c.stop()
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, errs.Kalshi(errs.CodeAuth,
				errs.WithHTTP(resp.StatusCode),
				errs.WithCanonicalCode(errs.CanonicalAuthRejected),
				errs.WithMessage("websocket handshake rejected"),
				errs.WithRemediation("verify the API key id and private key"),
				errs.WithCause(err))
		}
		opt := []errs.Option{errs.WithMessage("dial " + opts.URL), errs.WithCause(err)}
		if resp != nil {
			opt = append(opt, errs.WithHTTP(resp.StatusCode))
		}
		return nil, errs.Kalshi(errs.CodeNetwork, opt...)
	}
	if opts.ReadLimit > 0 {
		ws.SetReadLimit(opts.ReadLimit)
	}
	c.ws = ws
	c.state.Store(int32(StateOpen))
	return c, nil
}

// State reports the current lifecycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

// Authenticated reports whether the handshake carried signed headers.
func (c *Conn) Authenticated() bool { return c.authenticated }

// Send encodes the command and writes it as one text frame.
func (c *Conn) Send(ctx context.Context, cmd wire.Command) error {
	data, err := cmd.Encode()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.State() != StateOpen {
		return closedError("send "+cmd.Cmd, nil)
	}
	writeCtx := ctx
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	if err := c.ws.Write(writeCtx, websocket.MessageText, data); err != nil {
		c.abort()
		return closedError("send "+cmd.Cmd, err)
	}
	return nil
}

// Receive blocks for the next data frame and decodes it into an owned message. Pings are
// answered by the transport while reading. A decode failure leaves the connection open and is
// returned as an errs.CodeDecode error. When ctx ends first, ctx.Err() is returned and the frame
// still in flight is delivered by the next call.
func (c *Conn) Receive(ctx context.Context) (wire.Message, error) {
	return c.receive(ctx, DecodeOwned)
}

// ReceiveBorrowed is Receive without copying: the frame lands in a buffer reused by the next
// call, and raw byte fields of the returned message alias it.
func (c *Conn) ReceiveBorrowed(ctx context.Context) (wire.Message, error) {
	return c.receive(ctx, DecodeBorrowed)
}

func (c *Conn) receive(ctx context.Context, mode DecodeMode) (wire.Message, error) {
	if c.State() != StateOpen {
		return nil, closedError("receive", nil)
	}
	c.readOnce.Do(func() { go c.readLoop() })

	if !c.inflight {
		select {
		case c.demand <- mode:
			c.inflight = true
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.life.Done():
			return c.lastFrame()
		}
	}
	select {
	case f := <-c.frames:
		c.inflight = false
		return f.msg, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.life.Done():
		return c.lastFrame()
	}
}

// lastFrame prefers a frame that raced with Close, so a remote close keeps its status.
func (c *Conn) lastFrame() (wire.Message, error) {
	select {
	case f := <-c.frames:
		c.inflight = false
		return f.msg, f.err
	default:
		return nil, closedError("receive", nil)
	}
}

// readLoop reads one frame per demand. The borrowed buffer is only rewritten after the
// previous frame has been handed over and another one requested.
func (c *Conn) readLoop() {
	for {
		var mode DecodeMode
		select {
		case mode = <-c.demand:
		case <-c.life.Done():
			return
		}
		msg, err := c.read(mode)
		if err != nil && isClosed(err) {
			c.abort()
			c.frames <- frame{err: err}
			return
		}
		c.frames <- frame{msg: msg, err: err}
	}
}

func (c *Conn) read(mode DecodeMode) (wire.Message, error) {
	if mode != DecodeBorrowed {
		_, data, err := c.ws.Read(c.life)
		if err != nil {
			return nil, closedError("receive", err)
		}
		return wire.Decode(data)
	}
	_, r, err := c.ws.Reader(c.life)
	if err != nil {
		return nil, closedError("receive", err)
	}
	c.readBuf.Reset()
	if _, err := c.readBuf.ReadFrom(r); err != nil {
		return nil, closedError("receive", err)
	}
	return wire.DecodeBorrowed(c.readBuf.Bytes())
}

// Close releases the socket. It is safe to call more than once and concurrently with Receive.
func (c *Conn) Close() error {
	c.state.Store(int32(StateClosed))
	var err error
	c.closeOnce.Do(func() {
		if c.stop != nil {
			c.stop()
		}
		if c.ws != nil {
			err = c.ws.CloseNow()
		}
	})
	return err
}

func (c *Conn) abort() {
	_ = c.Close()
}

func closedError(op string, cause error) error {
	opts := []errs.Option{
		errs.WithCanonicalCode(errs.CanonicalConnectionClosed),
		errs.WithMessage(op + ": connection closed"),
	}
	if cause != nil {
		opts = append(opts, errs.WithCause(cause))
		if status := websocket.CloseStatus(cause); status != -1 {
			opts = append(opts, errs.WithVenueField("close_status", fmt.Sprint(int(status))))
		}
	}
	return errs.Kalshi(errs.CodeNetwork, opts...)
}

// isClosed reports whether err came from a dead connection rather than a bad frame.
func isClosed(err error) bool {
	return errors.Is(err, ErrConnectionClosed)
}
