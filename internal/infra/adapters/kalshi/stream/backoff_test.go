package stream

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/require"
)

func TestPolicyDelayDoublesUpToCap(t *testing.T) {
	policy := DefaultPolicy()
	cases := []struct {
		n    int
		want time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{12, 30 * time.Second},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, policy.Delay(tc.n), "attempt %d", tc.n)
	}
}

func TestPolicyNormalization(t *testing.T) {
	p := Policy{InitialDelay: 5 * time.Second, MaxDelay: time.Second, MaxAttempts: -3, Jitter: 4}.normalized()
	require.Equal(t, 5*time.Second, p.MaxDelay)
	require.Equal(t, 0, p.MaxAttempts)
	require.Equal(t, 1.0, p.Jitter)

	zero := Policy{}.normalized()
	require.Equal(t, DefaultPolicy(), zero)
}

func TestNewBackOffStopsAfterMaxAttempts(t *testing.T) {
	b := Policy{InitialDelay: 10 * time.Millisecond, MaxDelay: time.Second, MaxAttempts: 3}.NewBackOff()
	require.Equal(t, 10*time.Millisecond, b.NextBackOff())
	require.Equal(t, 20*time.Millisecond, b.NextBackOff())
	require.Equal(t, backoff.Stop, b.NextBackOff())

	b.Reset()
	require.Equal(t, 10*time.Millisecond, b.NextBackOff())
}

func TestNewBackOffJitterStaysInBounds(t *testing.T) {
	b := Policy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: 0.5}.NewBackOff()
	for i := 0; i < 20; i++ {
		d := b.NextBackOff()
		require.GreaterOrEqual(t, d, 50*time.Millisecond)
		require.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}
