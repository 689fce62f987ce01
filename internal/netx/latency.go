package netx

import (
	"context"
	"math/rand/v2"
	"time"
)

// Latency simulates a network round-trip of a random duration in [Min, Max].
// It is the only place simulated backends suspend.
type Latency struct {
	Min time.Duration
	Max time.Duration
}

// ReferenceLatency matches the delays of the demo backend.
var ReferenceLatency = Latency{Min: 500 * time.Millisecond, Max: 1500 * time.Millisecond}

// Duration picks the delay for one round-trip.
func (l Latency) Duration() time.Duration {
	if l.Max <= l.Min {
		return max(l.Min, 0)
	}
	return l.Min + rand.N(l.Max-l.Min+1)
}

// Wait blocks for one round-trip or until ctx is done.
func (l Latency) Wait(ctx context.Context) error {
	d := l.Duration()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
