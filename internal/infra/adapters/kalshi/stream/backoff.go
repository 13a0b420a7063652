package stream

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 30 * time.Second
)

// Policy controls reconnection. The delay after the nth consecutive failure is
// min(InitialDelay * 2^(n-1), MaxDelay), randomized by ±Jitter when Jitter > 0.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// MaxAttempts bounds connection attempts per reconnect cycle. Zero means unlimited.
	MaxAttempts int
	// Jitter is a randomization factor in [0, 1].
	Jitter float64
}

// DefaultPolicy returns 1s initial delay, 30s cap, unlimited attempts and no jitter.
func DefaultPolicy() Policy {
	return Policy{InitialDelay: defaultInitialDelay, MaxDelay: defaultMaxDelay}
}

func (p Policy) normalized() Policy {
	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	if p.MaxAttempts < 0 {
		p.MaxAttempts = 0
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Jitter > 1 {
		p.Jitter = 1
	}
	return p
}

// NewBackOff returns a fresh schedule for one reconnect cycle. NextBackOff is called after each
// failed attempt and returns backoff.Stop once MaxAttempts attempts have failed.
func (p Policy) NewBackOff() backoff.BackOff {
	p = p.normalized()
	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = p.InitialDelay
	backoffCfg.RandomizationFactor = p.Jitter
	backoffCfg.Multiplier = 2
	backoffCfg.MaxInterval = p.MaxDelay
	backoffCfg.Reset()
	return &attemptBackOff{inner: backoffCfg, limit: p.MaxAttempts}
}

// Delay returns the unjittered wait after the nth consecutive failure (n >= 1).
func (p Policy) Delay(n int) time.Duration {
	p.Jitter = 0
	p.MaxAttempts = 0
	b := p.NewBackOff()
	var d time.Duration
	for i := 0; i < n; i++ {
		d = b.NextBackOff()
	}
	return d
}

type attemptBackOff struct {
	inner    *backoff.ExponentialBackOff
	limit    int
	failures int
}

func (b *attemptBackOff) NextBackOff() time.Duration {
	b.failures++
	if b.limit > 0 && b.failures >= b.limit {
		return backoff.Stop
	}
	return b.inner.NextBackOff()
}

func (b *attemptBackOff) Reset() {
	b.failures = 0
	b.inner.Reset()
}
