// Package ratelimit implements a rolling-window rate limiter sized for the
// YNAB API quota (200 requests per hour per access token).
//
// Every granted acquisition is timestamped; before each capacity check,
// timestamps older than the window are discarded, so the window rolls with
// "now" instead of resetting on calendar boundaries.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrLimited signals an exhausted request quota under fail-fast policy.
// Use errors.Is() to check.
var ErrLimited = errors.New("rate limited")

// LimitedError wraps ErrLimited with a hint for when capacity frees up.
type LimitedError struct {
	RetryAfter time.Duration
}

func (e *LimitedError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrLimited.Error(), e.RetryAfter.Round(time.Second))
}

func (e *LimitedError) Unwrap() error { return ErrLimited }

// Stats is a read-only snapshot of limiter usage.
type Stats struct {
	RequestsUsed      int
	RequestsRemaining int
	MaxRequests       int
	WindowSeconds     int
	UsagePercentage   float64
}

// Limiter grants at most max acquisitions per rolling window. The default
// policy blocks the caller until the oldest grant leaves the window;
// fail-fast returns a LimitedError instead.
//
// One limiter is shared by every call path of one client, so all state
// transitions happen under a single mutex. The mutex is never held while
// sleeping.
type Limiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	grants   []time.Time
	failFast bool
	logger   *slog.Logger

	now func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// FailFast makes Acquire return a LimitedError instead of blocking.
func FailFast() Option {
	return func(l *Limiter) { l.failFast = true }
}

// WithLogger enables debug logging. Pass nil to disable (default).
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// New creates a limiter granting max acquisitions per window.
func New(max int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// prune drops grants older than the window. Callers must hold l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.grants) && !l.grants[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.grants = append(l.grants[:0], l.grants[i:]...)
	}
}

// Acquire records one request against the quota. If the window is full it
// blocks until the oldest grant expires (or ctx is done); under fail-fast
// it returns a LimitedError carrying the retry-after hint. Grants are
// never dropped or reordered.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.grants) < l.max {
			l.grants = append(l.grants, now)
			used := len(l.grants)
			l.mu.Unlock()
			if l.logger != nil {
				l.logger.Debug("request recorded", "used", used, "max", l.max)
			}
			return nil
		}
		wait := l.grants[0].Add(l.window).Sub(now)
		used := len(l.grants)
		l.mu.Unlock()

		if l.failFast {
			return &LimitedError{RetryAfter: wait}
		}
		if l.logger != nil {
			l.logger.Warn("rate limit reached, waiting",
				"wait", wait, "used", used, "max", l.max)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Stats returns current usage without mutating the grant ledger beyond
// discarding expired entries.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())

	used := len(l.grants)
	var pct float64
	if l.max > 0 {
		pct = float64(used) / float64(l.max) * 100
	}
	return Stats{
		RequestsUsed:      used,
		RequestsRemaining: l.max - used,
		MaxRequests:       l.max,
		WindowSeconds:     int(l.window / time.Second),
		UsagePercentage:   pct,
	}
}

// Reset discards all tracked grants.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.grants = l.grants[:0]
	if l.logger != nil {
		l.logger.Info("rate limiter reset")
	}
}
