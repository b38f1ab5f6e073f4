package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerState_Next(t *testing.T) {
	tests := []struct {
		name   string
		from   WorkerState
		cmd    ControlType
		want   WorkerState
		wantOK bool
	}{
		{"pause running", WorkerRunning, ControlPause, WorkerPaused, true},
		{"pause paused is a no-op", WorkerPaused, ControlPause, WorkerPaused, false},
		{"resume paused", WorkerPaused, ControlResume, WorkerRunning, true},
		{"resume running is a no-op", WorkerRunning, ControlResume, WorkerRunning, false},
		{"stop running", WorkerRunning, ControlStop, WorkerStopping, true},
		{"stop paused", WorkerPaused, ControlStop, WorkerStopping, true},
		{"stop stopped", WorkerStopped, ControlStop, WorkerStopped, false},
		{"config keeps state", WorkerPaused, ControlConfig, WorkerPaused, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.from.Next(tt.cmd)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, SessionRunning, StatusFor(WorkerRunning))
	assert.Equal(t, SessionPaused, StatusFor(WorkerPaused))
	assert.Equal(t, SessionStopped, StatusFor(WorkerStopped))
}

func TestWorkerStats_ResponseTimesBounded(t *testing.T) {
	var s WorkerStats
	for i := 0; i < MaxResponseSamples+25; i++ {
		s.AddResponseTime(time.Duration(i) * time.Millisecond)
	}

	assert.Len(t, s.ResponseTimesMs, MaxResponseSamples)
	assert.Equal(t, int64(25), s.ResponseTimesMs[0])
}

func TestWorkerStats_Average(t *testing.T) {
	var s WorkerStats
	assert.Zero(t, s.AverageResponseTime())

	s.AddResponseTime(time.Second)
	s.AddResponseTime(3 * time.Second)
	assert.Equal(t, 2*time.Second, s.AverageResponseTime())
}

func TestWorkerStats_SnapshotIsIndependent(t *testing.T) {
	s := WorkerStats{ResponseTimesMs: []int64{1, 2}}
	snap := s.Snapshot()
	s.ResponseTimesMs[0] = 99

	assert.Equal(t, int64(1), snap.ResponseTimesMs[0])
}

func TestLastReceived(t *testing.T) {
	msgs := []Message{
		{Text: "hi", IsSent: false},
		{Text: "hello", IsSent: true},
		{Text: "how are you", IsSent: false},
		{Text: "good", IsSent: true},
	}

	got, idx := LastReceived(msgs)
	assert.Equal(t, "how are you", got.Text)
	assert.Equal(t, 2, idx)

	_, idx = LastReceived([]Message{{Text: "only me", IsSent: true}})
	assert.Equal(t, -1, idx)
}

func TestDedupSet(t *testing.T) {
	d := NewDedupSet()
	key := ProcessedKey("Alice", "hey there")

	assert.Equal(t, "Alice:hey there", key)
	assert.False(t, d.Has(key))
	d.Add(key)
	assert.True(t, d.Has(key))
	assert.Equal(t, 1, d.Len())
}
