package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyHTTP(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		transportErr error
		want         Class
	}{
		{"transport error", 0, errors.New("connection refused"), ClassTransient},
		{"rate limited", 429, nil, ClassTransient},
		{"server error", 500, nil, ClassTransient},
		{"bad gateway", 502, nil, ClassTransient},
		{"unauthorized", 401, nil, ClassAuth},
		{"forbidden", 403, nil, ClassAuth},
		{"not found", 404, nil, ClassPermanent},
		{"bad request", 400, nil, ClassPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyHTTP(tt.status, tt.transportErr))
		})
	}
}

func TestRetryPolicyBackoffGrowth(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		Base:        time.Second,
		Cap:         30 * time.Second,
		Jitter:      func(time.Duration) time.Duration { return 0 },
	}

	wantDelays := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}
	for attempt, want := range wantDelays {
		decision := policy.Next(attempt+1, ClassTransient)
		require.True(t, decision.Retry, "attempt %d", attempt+1)
		require.Equal(t, want, decision.Delay, "attempt %d", attempt+1)
	}
}

func TestRetryPolicyCap(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 10,
		Base:        time.Second,
		Cap:         5 * time.Second,
		Jitter:      func(time.Duration) time.Duration { return 0 },
	}

	decision := policy.Next(6, ClassTransient)
	require.True(t, decision.Retry)
	require.Equal(t, 5*time.Second, decision.Delay)
}

func TestRetryPolicyJitterBounds(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		Base:        time.Second,
		Cap:         30 * time.Second,
	}

	for i := 0; i < 100; i++ {
		decision := policy.Next(1, ClassTransient)
		require.True(t, decision.Retry)
		require.GreaterOrEqual(t, decision.Delay, time.Second)
		require.Less(t, decision.Delay, 2*time.Second)
	}
}

func TestRetryPolicyExhaustion(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Base: time.Second, Cap: 30 * time.Second}

	require.True(t, policy.Next(2, ClassTransient).Retry)
	require.False(t, policy.Next(3, ClassTransient).Retry)
	require.False(t, policy.Next(4, ClassTransient).Retry)
}

func TestRetryPolicyNeverRetriesTerminalClasses(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Base: time.Second, Cap: 30 * time.Second}

	require.False(t, policy.Next(1, ClassAuth).Retry)
	require.False(t, policy.Next(1, ClassPermanent).Retry)
}
