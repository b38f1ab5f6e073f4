package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay_BetweenStaysInRange(t *testing.T) {
	d := NewDelay(noSleep)
	for i := 0; i < 200; i++ {
		got := d.Between(30*time.Millisecond, 80*time.Millisecond)
		assert.GreaterOrEqual(t, got, 30*time.Millisecond)
		assert.LessOrEqual(t, got, 80*time.Millisecond)
	}
}

func TestDelay_BetweenInvertedAndEqual(t *testing.T) {
	d := NewDelay(noSleep)
	got := d.Between(5*time.Second, time.Second)
	assert.GreaterOrEqual(t, got, time.Second)
	assert.LessOrEqual(t, got, 5*time.Second)

	assert.Equal(t, 2*time.Second, d.Between(2*time.Second, 2*time.Second))
}

func TestSleepContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := SleepContext(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDelay_SleepUsesSleeper(t *testing.T) {
	var slept []time.Duration
	d := NewDelay(func(ctx context.Context, dur time.Duration) error {
		slept = append(slept, dur)
		return nil
	})

	assert.NoError(t, d.Sleep(context.Background(), time.Second, 2*time.Second))
	assert.NoError(t, d.Wait(context.Background(), 3*time.Second))
	assert.Len(t, slept, 2)
	assert.Equal(t, 3*time.Second, slept[1])
}
