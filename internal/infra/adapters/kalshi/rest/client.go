// Package rest is the Kalshi trade API client: signed requests, paced dispatch, typed endpoints
// and cursor pagination.
package rest

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-resty/resty/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/auth"
)

// RESTPrefix is the path prefix of every trade API route. Signatures cover it.
const RESTPrefix = "/trade-api/v2"

const (
	defaultTimeout        = 15 * time.Second
	defaultSeriesCacheTTL = 5 * time.Minute
)

// Options configure a Client.
type Options struct {
	// BaseURL is the scheme and host, optionally followed by RESTPrefix.
	BaseURL string
	// Signer authenticates portfolio routes. Nil restricts the client to public routes.
	Signer *auth.Signer
	// Limits paces requests. Nil applies DefaultRateLimits.
	Limits *RateLimits

	Timeout        time.Duration
	HTTPClient     *http.Client
	SeriesCacheTTL time.Duration

	Logger *log.Logger
}

// Client issues requests against the trade API.
type Client struct {
	http    *resty.Client
	signer  *auth.Signer
	limiter *limiter
	series  *gocache.Cache
	metrics *restMetrics
	logger  *log.Logger
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errs.Kalshi(errs.CodeConfig, errs.WithMessage("rest base url required"))
	}
	base = strings.TrimSuffix(base, RESTPrefix)
	if _, err := url.Parse(base); err != nil {
		return nil, errs.Kalshi(errs.CodeConfig, errs.WithMessage("invalid rest base url"), errs.WithCause(err))
	}
	limits := DefaultRateLimits()
	if opts.Limits != nil {
		limits = *opts.Limits
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ttl := opts.SeriesCacheTTL
	if ttl <= 0 {
		ttl = defaultSeriesCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "kalshi rest: ", log.LstdFlags|log.Lmicroseconds)
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(base + RESTPrefix).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    rc,
		signer:  opts.Signer,
		limiter: newLimiter(limits),
		series:  gocache.New(ttl, 2*ttl),
		metrics: newRESTMetrics(),
		logger:  logger,
	}, nil
}

// Authenticated reports whether the client carries a signer.
func (c *Client) Authenticated() bool {
	return c.signer != nil
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type call struct {
	method string
	// route labels metrics and errors without per-resource identifiers.
	route string
	path  string
	query url.Values
	body  any
	auth  bool
}

func (c *Client) do(ctx context.Context, req call, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	headers := make(map[string]string, 4)
	if req.auth {
		if c.signer == nil {
			return errs.AuthRequired("REST endpoint " + req.route)
		}
		signed, err := c.signer.Headers(req.method, RESTPrefix+req.path)
		if err != nil {
			return err
		}
		headers[auth.HeaderKey] = signed.Key
		headers[auth.HeaderTimestamp] = signed.TimestampMS
		headers[auth.HeaderSignature] = signed.Signature
	}

	if err := c.limiter.wait(ctx, req.method); err != nil {
		return err
	}

	r := c.http.R().SetContext(ctx).SetHeaders(headers)
	if len(req.query) > 0 {
		r.SetQueryParamsFromValues(req.query)
	}
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return errs.Kalshi(errs.CodeInvalid, errs.WithMessage("encode request body"), errs.WithCause(err))
		}
		r.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	started := time.Now()
	resp, err := r.Execute(req.method, req.path)
	if err != nil {
		c.metrics.record(ctx, req.method, req.route, 0, time.Since(started))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errs.Kalshi(errs.CodeNetwork,
			errs.WithMessage(req.method+" "+req.route+" failed"),
			errs.WithCanonicalCode(errs.CanonicalConnectionClosed),
			errs.WithCause(err))
	}
	status := resp.StatusCode()
	c.metrics.record(ctx, req.method, req.route, status, time.Since(started))

	body := resp.Body()
	if status >= http.StatusBadRequest {
		return httpError(status, req.route, requestID(resp.Header()), body)
	}
	if out == nil {
		return nil
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errs.Kalshi(errs.CodeDecode,
			errs.WithMessage("decode "+req.route+" response"),
			errs.WithHTTP(status),
			errs.WithCause(err))
	}
	return nil
}

func requestID(h http.Header) string {
	if id := h.Get("X-Request-Id"); id != "" {
		return id
	}
	return h.Get("Request-Id")
}

func segment(s string) string {
	return url.PathEscape(s)
}
