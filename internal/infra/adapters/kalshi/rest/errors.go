package rest

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/coachpo/kalshi-gateway/errs"
)

// ParseErrorResponse decodes a venue error body. ok is false when the body is not a JSON error
// object, including the {"error": {...}} wrapping some routes use.
func ParseErrorResponse(body []byte) (ErrorResponse, bool) {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && (resp.Code != "" || resp.Message != "") {
		return resp, true
	}
	var wrapped struct {
		Error ErrorResponse `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && (wrapped.Error.Code != "" || wrapped.Error.Message != "") {
		return wrapped.Error, true
	}
	return ErrorResponse{}, false
}

func httpError(status int, route, reqID string, body []byte) error {
	code, canonical := classifyStatus(status)

	opts := []errs.Option{
		errs.WithHTTP(status),
		errs.WithVenueField("endpoint", route),
		errs.WithVenueField("request_id", reqID),
	}
	if parsed, ok := ParseErrorResponse(body); ok {
		opts = append(opts,
			errs.WithRawCode(parsed.Code),
			errs.WithRawMessage(parsed.Message),
			errs.WithVenueField("service", parsed.Service),
		)
		if len(parsed.Details) > 0 && string(parsed.Details) != "null" {
			opts = append(opts, errs.WithVenueField("details", string(parsed.Details)))
		}
		if mapped := canonicalFromRaw(parsed.Code); mapped != errs.CanonicalUnknown {
			canonical = mapped
		}
	} else if raw := strings.TrimSpace(string(body)); raw != "" {
		opts = append(opts, errs.WithRawMessage(raw))
	}
	opts = append(opts,
		errs.WithMessage(route+" returned "+http.StatusText(status)),
		errs.WithCanonicalCode(canonical),
	)
	if status == http.StatusTooManyRequests {
		opts = append(opts, errs.WithRemediation("lower the configured request rate"))
	}
	return errs.Kalshi(code, opts...)
}

func classifyStatus(status int) (errs.Code, errs.CanonicalCode) {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.CodeAuth, errs.CanonicalAuthRejected
	case http.StatusNotFound:
		return errs.CodeNotFound, errs.CanonicalUnknown
	case http.StatusConflict:
		return errs.CodeConflict, errs.CanonicalUnknown
	case http.StatusTooManyRequests:
		return errs.CodeRateLimited, errs.CanonicalRateLimited
	case http.StatusBadRequest:
		return errs.CodeInvalid, errs.CanonicalUnknown
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errs.CodeUnavailable, errs.CanonicalUnknown
	default:
		return errs.CodeExchange, errs.CanonicalUnknown
	}
}

func canonicalFromRaw(raw string) errs.CanonicalCode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "insufficient_balance", "insufficient_funds":
		return errs.CanonicalInsufficientBalance
	case "order_not_found":
		return errs.CanonicalOrderNotFound
	case "market_not_found", "event_not_found", "series_not_found", "invalid_ticker":
		return errs.CanonicalInvalidTicker
	default:
		return errs.CanonicalUnknown
	}
}
