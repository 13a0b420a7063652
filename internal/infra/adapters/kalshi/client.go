package kalshi

import (
	"log"
	"os"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/auth"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/rest"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/stream"
)

// Options configure a Client. URL, base URL and signer fields of the nested options are
// filled from Environment and Signer.
type Options struct {
	Environment Environment
	Signer      *auth.Signer
	REST        rest.Options
	Stream      stream.Options
	Logger      *log.Logger
}

// Client bundles a REST client and a streaming manager for one environment and credential.
type Client struct {
	env    Environment
	rest   *rest.Client
	stream *stream.Manager
}

// NewClient builds both halves. The streaming manager does not connect until first use.
func NewClient(opts Options) (*Client, error) {
	if opts.Environment == (Environment{}) {
		opts.Environment = Demo()
	}
	if err := opts.Environment.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "kalshi ", log.LstdFlags|log.Lmicroseconds)
	}

	restOpts := opts.REST
	restOpts.BaseURL = opts.Environment.RESTBaseURL()
	restOpts.Signer = opts.Signer
	if restOpts.Logger == nil {
		restOpts.Logger = log.New(logger.Writer(), logger.Prefix()+"rest: ", logger.Flags())
	}
	rc, err := rest.NewClient(restOpts)
	if err != nil {
		return nil, err
	}

	streamOpts := opts.Stream
	streamOpts.URL = opts.Environment.WSURL
	streamOpts.Signer = opts.Signer
	if streamOpts.Logger == nil {
		streamOpts.Logger = log.New(logger.Writer(), logger.Prefix()+"stream: ", logger.Flags())
	}
	sm, err := stream.NewManager(streamOpts)
	if err != nil {
		return nil, err
	}
	return &Client{env: opts.Environment, rest: rc, stream: sm}, nil
}

// Environment returns the endpoints in use.
func (c *Client) Environment() Environment { return c.env }

// REST returns the trade API client.
func (c *Client) REST() *rest.Client { return c.rest }

// Stream returns the streaming manager.
func (c *Client) Stream() *stream.Manager { return c.stream }

// Close releases the streaming connection.
func (c *Client) Close() error {
	if c == nil || c.stream == nil {
		return nil
	}
	if err := c.stream.Close(); err != nil {
		return errs.Kalshi(errs.CodeNetwork, errs.WithMessage("close stream"), errs.WithCause(err))
	}
	return nil
}
