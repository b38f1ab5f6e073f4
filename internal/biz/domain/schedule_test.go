package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2024-01-03 is a Wednesday, 2024-01-06 a Saturday.
func at(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 30, 0, 0, time.Local)
}

func TestSchedule_Disabled(t *testing.T) {
	s := Schedule{Enabled: false, StartHour: 9, EndHour: 17, SkipWeekends: true}
	assert.True(t, s.Active(at(6, 3)))
}

func TestSchedule_DaytimeWindow(t *testing.T) {
	s := Schedule{Enabled: true, StartHour: 9, EndHour: 17}

	tests := []struct {
		hour int
		want bool
	}{
		{8, false},
		{9, true},
		{16, true},
		{17, false},
		{23, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Active(at(3, tt.hour)), "hour %d", tt.hour)
	}
}

func TestSchedule_OvernightWraparound(t *testing.T) {
	s := Schedule{Enabled: true, StartHour: 22, EndHour: 6}

	assert.True(t, s.Active(at(3, 23)))
	assert.True(t, s.Active(at(3, 2)))
	assert.True(t, s.Active(at(3, 22)))
	assert.False(t, s.Active(at(3, 6)))
	assert.False(t, s.Active(at(3, 12)))
}

func TestSchedule_SkipWeekends(t *testing.T) {
	s := Schedule{Enabled: true, StartHour: 0, EndHour: 23, SkipWeekends: true}

	assert.False(t, s.Active(at(6, 12)), "saturday")
	assert.False(t, s.Active(at(7, 12)), "sunday")
	assert.True(t, s.Active(at(8, 12)), "monday")
}

func TestSchedule_EqualHoursCoverWholeDay(t *testing.T) {
	s := Schedule{Enabled: true, StartHour: 5, EndHour: 5}
	for h := 0; h < 24; h++ {
		assert.True(t, s.Active(at(3, h)), "hour %d", h)
	}
}
