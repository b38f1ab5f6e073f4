package domain

import "time"

// Schedule is the daily window in which replies are allowed (value object)
type Schedule struct {
	Enabled      bool
	StartHour    int // inclusive, 0-23
	EndHour      int // exclusive, 0-23
	SkipWeekends bool
}

// Active checks whether t falls inside the window.
// StartHour > EndHour wraps past midnight; StartHour == EndHour covers the whole day.
func (s Schedule) Active(t time.Time) bool {
	if !s.Enabled {
		return true
	}

	if s.SkipWeekends {
		switch t.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	hour := t.Hour()
	switch {
	case s.StartHour == s.EndHour:
		return true
	case s.StartHour < s.EndHour:
		return hour >= s.StartHour && hour < s.EndHour
	default:
		return hour >= s.StartHour || hour < s.EndHour
	}
}
