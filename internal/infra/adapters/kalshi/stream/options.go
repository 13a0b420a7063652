// Package stream maintains the Kalshi streaming connection: the authenticated socket, the
// desired/pending/active subscription state, and reconnection with full resubscription.
package stream

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/auth"
)

// WSPath is the fixed streaming path. The handshake signature always covers it.
const WSPath = "/trade-api/ws/v2"

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 5 * time.Second
	defaultReadLimit        = 8 << 20
)

// DecodeMode selects owned or borrowed frame decoding.
type DecodeMode string

const (
	// DecodeOwned copies every frame; messages may be retained indefinitely.
	DecodeOwned DecodeMode = "owned"
	// DecodeBorrowed reuses one read buffer; raw byte fields of a message are valid until the next Next call.
	DecodeBorrowed DecodeMode = "borrowed"
)

// Options configure a Manager.
type Options struct {
	// URL is the full streaming endpoint, e.g. wss://demo-api.kalshi.co/trade-api/ws/v2.
	URL string
	// Signer authenticates the handshake. Nil restricts the manager to public channels.
	Signer *auth.Signer
	Policy Policy
	Mode   DecodeMode

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64

	Logger *log.Logger
}

func withDefaults(in Options) Options {
	in.URL = strings.TrimSpace(in.URL)
	in.Policy = in.Policy.normalized()
	if in.Mode != DecodeBorrowed {
		in.Mode = DecodeOwned
	}
	if in.HandshakeTimeout <= 0 {
		in.HandshakeTimeout = defaultHandshakeTimeout
	}
	if in.WriteTimeout <= 0 {
		in.WriteTimeout = defaultWriteTimeout
	}
	if in.ReadLimit <= 0 {
		in.ReadLimit = defaultReadLimit
	}
	if in.Logger == nil {
		in.Logger = log.New(os.Stdout, "kalshi stream: ", log.LstdFlags|log.Lmicroseconds)
	}
	return in
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
