package domain

import "time"

// MaxResponseSamples bounds the response-time sample list
const MaxResponseSamples = 100

// WorkerStats holds the counters a worker reports.
// Only the worker loop mutates it; reports carry copies.
type WorkerStats struct {
	MessagesReceived     int       `json:"messagesReceived"`
	MessagesSent         int       `json:"messagesSent"`
	ConversationsHandled int       `json:"conversationsHandled"`
	ResponseTimesMs      []int64   `json:"responseTimesMs"`
	StartedAt            time.Time `json:"startedAt"`
	LastActivity         time.Time `json:"lastActivity"`
}

// AddResponseTime appends a sample, dropping the oldest past the bound
func (s *WorkerStats) AddResponseTime(d time.Duration) {
	s.ResponseTimesMs = append(s.ResponseTimesMs, d.Milliseconds())
	if over := len(s.ResponseTimesMs) - MaxResponseSamples; over > 0 {
		s.ResponseTimesMs = append([]int64(nil), s.ResponseTimesMs[over:]...)
	}
}

// AverageResponseTime returns the mean of the samples, zero without samples
func (s *WorkerStats) AverageResponseTime() time.Duration {
	if len(s.ResponseTimesMs) == 0 {
		return 0
	}
	var total int64
	for _, ms := range s.ResponseTimesMs {
		total += ms
	}
	return time.Duration(total/int64(len(s.ResponseTimesMs))) * time.Millisecond
}

// Snapshot returns a copy safe to hand to another goroutine
func (s WorkerStats) Snapshot() WorkerStats {
	s.ResponseTimesMs = append([]int64(nil), s.ResponseTimesMs...)
	return s
}
