package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(), "call %d should be allowed", i)
	}

	err := limiter.Check()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestRateLimiter_Remaining(t *testing.T) {
	limiter := NewRateLimiter(5, time.Hour)

	assert.Equal(t, 5, limiter.Remaining())

	require.NoError(t, limiter.Check())
	require.NoError(t, limiter.Check())

	assert.Equal(t, 3, limiter.Remaining())
}

func TestRateLimiter_Reset(t *testing.T) {
	limiter := NewRateLimiter(1, time.Hour)

	require.NoError(t, limiter.Check())
	require.Error(t, limiter.Check())

	limiter.Reset()

	assert.Equal(t, 1, limiter.Remaining())
	require.NoError(t, limiter.Check())
}

func TestRateLimiter_WindowRolls(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, time.Hour).WithClock(func() time.Time { return now })

	require.NoError(t, limiter.Check())
	require.Error(t, limiter.Check())

	// Advancing past the window restores the budget.
	now = now.Add(time.Hour + time.Second)
	require.NoError(t, limiter.Check())
}

func TestRateLimiter_DefaultBudgetExhaustsAtFifty(t *testing.T) {
	limiter := NewRateLimiter(50, time.Hour)

	for i := 0; i < 50; i++ {
		require.NoError(t, limiter.Check())
	}
	require.Error(t, limiter.Check())
	assert.Equal(t, 0, limiter.Remaining())
}
