package poller

import (
	"context"
	"time"
)

// Backoff grows the delay between status checks geometrically up to Max.
// Zero fields fall back to DefaultBackoff, so a delay is never zero.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
}

// DefaultBackoff polls after one second, then every 1.5x longer up to 30 seconds.
var DefaultBackoff = Backoff{
	Initial: time.Second,
	Max:     30 * time.Second,
	Factor:  1.5,
}

func (b Backoff) normalized() Backoff {
	if b.Initial <= 0 {
		b.Initial = DefaultBackoff.Initial
	}
	if b.Max <= 0 {
		b.Max = DefaultBackoff.Max
	}
	if b.Max < b.Initial {
		b.Max = b.Initial
	}
	if b.Factor < 1 {
		b.Factor = DefaultBackoff.Factor
	}
	return b
}

// Delay returns the wait before the attempt-th status check, counting from zero.
func (b Backoff) Delay(attempt int) time.Duration {
	b = b.normalized()
	d := float64(b.Initial)
	for i := 0; i < attempt; i++ {
		d *= b.Factor
		if d >= float64(b.Max) {
			return b.Max
		}
	}
	return time.Duration(d)
}

// clamp keeps a server hint within the configured bounds.
func (b Backoff) clamp(d time.Duration) time.Duration {
	b = b.normalized()
	if d < b.Initial {
		return b.Initial
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// hint converts a seconds-remaining estimate into a clamped delay. Estimates
// beyond Max are capped before conversion so they cannot overflow.
func (b Backoff) hint(seconds int64) time.Duration {
	b = b.normalized()
	if seconds > int64(b.Max/time.Second) {
		return b.Max
	}
	return b.clamp(time.Duration(seconds) * time.Second)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-clock Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
