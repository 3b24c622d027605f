package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(max int, window time.Duration, opts ...Option) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
	l := New(max, window, opts...)
	l.now = clock.now
	return l, clock
}

func TestAcquire_UnderCapacity(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx))
	}

	stats := l.Stats()
	assert.Equal(t, 3, stats.RequestsUsed)
	assert.Equal(t, 0, stats.RequestsRemaining)
}

func TestAcquire_FailFast(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute, FailFast())
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	clock.advance(10 * time.Second)
	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))

	err := l.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLimited)

	var le *LimitedError
	require.ErrorAs(t, err, &le)
	// Oldest grant expires 60s after it was recorded; 10s have passed.
	assert.Equal(t, 50*time.Second, le.RetryAfter)
}

func TestAcquire_RollingWindow(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute, FailFast())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
	require.ErrorIs(t, l.Acquire(ctx), ErrLimited)

	// Once the oldest grants roll out of the window, capacity frees up.
	clock.advance(61 * time.Second)
	require.NoError(t, l.Acquire(ctx))

	stats := l.Stats()
	assert.Equal(t, 1, stats.RequestsUsed)
}

func TestAcquire_BlocksUntilCapacity(t *testing.T) {
	l := New(1, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))

	start := time.Now()
	require.NoError(t, l.Acquire(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond, "second acquire should wait for the window")
}

func TestAcquire_ContextCancelled(t *testing.T) {
	l := New(1, time.Hour)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestStats_BeforeActivity(t *testing.T) {
	l, _ := newTestLimiter(180, time.Hour)

	stats := l.Stats()
	assert.Equal(t, 0, stats.RequestsUsed)
	assert.Equal(t, 180, stats.RequestsRemaining)
	assert.Equal(t, 180, stats.MaxRequests)
	assert.Equal(t, 3600, stats.WindowSeconds)
	assert.Zero(t, stats.UsagePercentage)
}

func TestStats_UsagePercentage(t *testing.T) {
	l, _ := newTestLimiter(4, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))

	stats := l.Stats()
	assert.InDelta(t, 50.0, stats.UsagePercentage, 0.001)
}

func TestStats_DoesNotMutate(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	require.NoError(t, l.Acquire(context.Background()))

	for i := 0; i < 5; i++ {
		_ = l.Stats()
	}
	assert.Equal(t, 1, l.Stats().RequestsUsed)
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute, FailFast())
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	require.ErrorIs(t, l.Acquire(ctx), ErrLimited)

	l.Reset()
	require.NoError(t, l.Acquire(ctx))
}
