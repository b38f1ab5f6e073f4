package domain

import "time"

// RateWindow is the length of the rolling reply-count window
const RateWindow = time.Hour

// RateState tracks replies sent in the current hourly window
type RateState struct {
	RepliesThisHour int       `json:"repliesThisHour"`
	LastHourReset   time.Time `json:"lastHourReset"`
}

// Roll resets the counter once more than an hour has passed since the last reset
func (r *RateState) Roll(now time.Time) {
	if r.LastHourReset.IsZero() || now.Sub(r.LastHourReset) > RateWindow {
		r.RepliesThisHour = 0
		r.LastHourReset = now
	}
}

// Allow rolls the window and reports whether another reply fits under max
func (r *RateState) Allow(now time.Time, max int) bool {
	r.Roll(now)
	return r.RepliesThisHour < max
}

// Record counts one sent reply
func (r *RateState) Record(now time.Time) {
	r.Roll(now)
	r.RepliesThisHour++
}
