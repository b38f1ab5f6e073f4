package usecase

import (
	"context"
	"math/rand/v2"
	"time"
)

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the real Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Delay produces randomized human-like pauses
type Delay struct {
	sleep Sleeper
	rand  func(n int64) int64
}

// NewDelay creates a delay source. A nil sleeper uses SleepContext.
func NewDelay(sleep Sleeper) *Delay {
	if sleep == nil {
		sleep = SleepContext
	}
	return &Delay{sleep: sleep, rand: rand.Int64N}
}

// Between returns a uniformly random duration in [min, max].
// Inverted bounds are swapped.
func (d *Delay) Between(min, max time.Duration) time.Duration {
	if min > max {
		min, max = max, min
	}
	if min == max {
		return min
	}
	return min + time.Duration(d.rand(int64(max-min)+1))
}

// Sleep waits a random duration in [min, max]
func (d *Delay) Sleep(ctx context.Context, min, max time.Duration) error {
	return d.sleep(ctx, d.Between(min, max))
}

// Wait sleeps for a fixed duration
func (d *Delay) Wait(ctx context.Context, dur time.Duration) error {
	return d.sleep(ctx, dur)
}
