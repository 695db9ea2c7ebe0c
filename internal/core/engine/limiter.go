package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter grants outbound request slots from a token bucket, with a minimum
// spacing floor between consecutive grants. Capacity equals the configured
// per-minute rate; tokens refill continuously at capacity/60 per second.
type Limiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	spacing *rate.Limiter

	// Clock and Sleep are overridable for tests; nil means real time.
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter builds a limiter for the given requests-per-minute budget.
// minSpacing of zero disables the spacing floor.
func NewLimiter(perMinute int, minSpacing time.Duration) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}

	l := &Limiter{
		bucket: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
	if minSpacing > 0 {
		l.spacing = rate.NewLimiter(rate.Every(minSpacing), 1)
	}
	return l
}

// Acquire blocks until one token is available and the spacing floor has
// elapsed, then consumes the slot. It only fails when ctx is done; the grant
// itself can never be rejected.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	now := l.now()
	res := l.bucket.ReserveN(now, 1)
	delay := res.DelayFrom(now)

	var spacingRes *rate.Reservation
	if l.spacing != nil {
		spacingRes = l.spacing.ReserveN(now, 1)
		if d := spacingRes.DelayFrom(now); d > delay {
			delay = d
		}
	}
	l.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	if err := l.sleep(ctx, delay); err != nil {
		l.mu.Lock()
		at := l.now()
		res.CancelAt(at)
		if spacingRes != nil {
			spacingRes.CancelAt(at)
		}
		l.mu.Unlock()
		return err
	}
	return nil
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now()
}

func (l *Limiter) sleep(ctx context.Context, d time.Duration) error {
	if l.Sleep != nil {
		return l.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
