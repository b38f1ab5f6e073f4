package domain

import "time"

// AnalyticsEvent is one recorded report event
type AnalyticsEvent struct {
	SessionID    string
	Type         ReportType
	Conversation string
	At           time.Time
}

// DailyCount holds per-day counters
type DailyCount struct {
	Day      string `json:"day"` // YYYY-MM-DD
	Received int    `json:"received"`
	Sent     int    `json:"sent"`
	Errors   int    `json:"errors"`
}

// AnalyticsSummary represents usage over a period
type AnalyticsSummary struct {
	SessionID string       `json:"sessionId"`
	Since     time.Time    `json:"since"`
	Received  int          `json:"received"`
	Sent      int          `json:"sent"`
	Errors    int          `json:"errors"`
	Daily     []DailyCount `json:"daily"`
}
