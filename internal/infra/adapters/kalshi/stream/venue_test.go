package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// fakeVenue is a scripted streaming endpoint. Every accepted connection is handed to the test
// through conns; inbound command frames are decoded onto the connection's cmds channel.
type fakeVenue struct {
	srv    *httptest.Server
	conns  chan *venueConn
	reject atomic.Int32
	dials  atomic.Int32
}

type venueConn struct {
	ws     *websocket.Conn
	header http.Header
	cmds   chan inboundCommand
	done   chan struct{}
}

type inboundCommand struct {
	ID     uint64          `json:"id"`
	Cmd    string          `json:"cmd"`
	Params json.RawMessage `json:"params"`
}

func newFakeVenue(t *testing.T) *fakeVenue {
	t.Helper()
	fv := &fakeVenue{conns: make(chan *venueConn, 8)}
	fv.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fv.dials.Add(1)
		if status := fv.reject.Load(); status != 0 {
			http.Error(w, "rejected", int(status))
			return
		}
		if r.URL.Path != WSPath {
			http.NotFound(w, r)
			return
		}
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		vc := &venueConn{
			ws:     ws,
			header: r.Header.Clone(),
			cmds:   make(chan inboundCommand, 16),
			done:   make(chan struct{}),
		}
		fv.conns <- vc
		defer close(vc.done)
		for {
			_, data, err := ws.Read(context.Background())
			if err != nil {
				return
			}
			var cmd inboundCommand
			if json.Unmarshal(data, &cmd) == nil {
				vc.cmds <- cmd
			}
		}
	}))
	t.Cleanup(fv.srv.Close)
	return fv
}

func (fv *fakeVenue) url() string {
	return "ws" + strings.TrimPrefix(fv.srv.URL, "http") + WSPath
}

func (fv *fakeVenue) accept(t *testing.T) *venueConn {
	t.Helper()
	select {
	case vc := <-fv.conns:
		t.Cleanup(func() { _ = vc.ws.CloseNow() })
		return vc
	case <-time.After(2 * time.Second):
		t.Fatal("expected a websocket connection")
		return nil
	}
}

func (vc *venueConn) next(t *testing.T) inboundCommand {
	t.Helper()
	select {
	case cmd := <-vc.cmds:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("expected a command frame")
		return inboundCommand{}
	}
}

func (vc *venueConn) expectQuiet(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case cmd := <-vc.cmds:
		t.Fatalf("unexpected command %s id=%d params=%s", cmd.Cmd, cmd.ID, cmd.Params)
	case <-time.After(wait):
	}
}

func (vc *venueConn) send(t *testing.T, frame string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, vc.ws.Write(ctx, websocket.MessageText, []byte(frame)))
}

// drop kills the connection without a close handshake.
func (vc *venueConn) drop(t *testing.T) {
	t.Helper()
	_ = vc.ws.CloseNow()
	select {
	case <-vc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("server side did not observe the drop")
	}
}

func (cmd inboundCommand) subscription(t *testing.T) map[string]any {
	t.Helper()
	var params map[string]any
	require.NoError(t, json.Unmarshal(cmd.Params, &params))
	return params
}
