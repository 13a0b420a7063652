package rest

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/coachpo/kalshi-gateway/errs"
)

// RateLimits caps requests per second for read (GET) and write routes. Zero disables pacing.
type RateLimits struct {
	ReadRPS  float64 `yaml:"read_rps" json:"read_rps"`
	WriteRPS float64 `yaml:"write_rps" json:"write_rps"`
}

// DefaultRateLimits matches the basic access tier.
func DefaultRateLimits() RateLimits {
	return RateLimits{ReadRPS: 20, WriteRPS: 10}
}

type limiter struct {
	read  *rate.Limiter
	write *rate.Limiter
}

func newLimiter(limits RateLimits) *limiter {
	return &limiter{
		read:  pacer(limits.ReadRPS),
		write: pacer(limits.WriteRPS),
	}
}

func pacer(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func (l *limiter) wait(ctx context.Context, method string) error {
	if l == nil {
		return nil
	}
	lim := l.write
	if method == http.MethodGet {
		lim = l.read
	}
	if lim == nil {
		return nil
	}
	if err := lim.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errs.Kalshi(errs.CodeRateLimited,
			errs.WithMessage("request would exceed the configured rate"),
			errs.WithCanonicalCode(errs.CanonicalRateLimited),
			errs.WithCause(err))
	}
	return nil
}
