// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit bounds call frequency to the content-fetch service.
// One Limiter is constructed at process start and shared by every
// enrichment call; reservation and bookkeeping happen atomically inside
// golang.org/x/time/rate, so concurrent callers never compute overlapping
// waits against stale state.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter admits at most n calls per window. With burst 1 and an
// inter-call interval of window/n, no sliding window of the configured
// length ever contains more than n admitted calls.
type Limiter struct {
	lim *rate.Limiter

	// now and sleep are swappable in tests to run against a fake clock.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a limiter admitting n calls per window. n defaults to 20
// and window to one minute, the content-fetch service's published limit.
func New(n int, window time.Duration) *Limiter {
	if n <= 0 {
		n = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		lim:   rate.NewLimiter(rate.Every(window/time.Duration(n)), 1),
		now:   time.Now,
		sleep: defaultSleep,
	}
}

// Acquire blocks until the caller may proceed, or until ctx is done.
// It returns nil exactly when the caller is admitted.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := l.now()
	r := l.lim.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("rate limiter cannot satisfy request")
	}

	delay := r.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	if err := l.sleep(ctx, delay); err != nil {
		r.CancelAt(l.now())
		return err
	}
	return nil
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
