package domain

import (
	"strings"
	"time"
)

// RuntimeConfig is the per-session worker configuration.
// Timing fields are in seconds.
type RuntimeConfig struct {
	// AI
	APIKey      string  `json:"apiKey"`
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Personality string  `json:"personality"` // preset name or literal system prompt

	// Timing
	ResponseDelayMin  int `json:"responseDelayMin"`
	ResponseDelayMax  int `json:"responseDelayMax"`
	PollIntervalMin   int `json:"pollIntervalMin"`
	PollIntervalMax   int `json:"pollIntervalMax"`
	MaxRepliesPerHour int `json:"maxRepliesPerHour"`

	// Schedule
	ScheduleEnabled bool `json:"scheduleEnabled"`
	StartHour       int  `json:"startHour"`
	EndHour         int  `json:"endHour"`
	SkipWeekends    bool `json:"skipWeekends"`

	// Filters
	IgnoreList []string `json:"ignoreList"`
}

// DefaultRuntimeConfig returns the configuration a new session starts with
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Model:             "gpt-4o-mini",
		Temperature:       0.8,
		Personality:       "friendly",
		ResponseDelayMin:  3,
		ResponseDelayMax:  10,
		PollIntervalMin:   8,
		PollIntervalMax:   15,
		MaxRepliesPerHour: 30,
		StartHour:         9,
		EndHour:           23,
		IgnoreList:        []string{"Team Snapchat"},
	}
}

// WithDefaults fills empty strings and all-zero ranges from the defaults.
// Temperature and MaxRepliesPerHour are meaningful at zero and are taken as stored,
// like the booleans. A nil ignore list gets the default one.
func (c RuntimeConfig) WithDefaults() RuntimeConfig {
	d := DefaultRuntimeConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.Personality == "" {
		c.Personality = d.Personality
	}
	if c.ResponseDelayMin == 0 && c.ResponseDelayMax == 0 {
		c.ResponseDelayMin, c.ResponseDelayMax = d.ResponseDelayMin, d.ResponseDelayMax
	}
	if c.PollIntervalMin == 0 && c.PollIntervalMax == 0 {
		c.PollIntervalMin, c.PollIntervalMax = d.PollIntervalMin, d.PollIntervalMax
	}
	if c.IgnoreList == nil {
		c.IgnoreList = d.IgnoreList
	}
	return c
}

// Normalize repairs inverted ranges and out-of-range hours
func (c RuntimeConfig) Normalize() RuntimeConfig {
	if c.ResponseDelayMin < 0 {
		c.ResponseDelayMin = 0
	}
	if c.PollIntervalMin < 0 {
		c.PollIntervalMin = 0
	}
	if c.ResponseDelayMin > c.ResponseDelayMax {
		c.ResponseDelayMin, c.ResponseDelayMax = c.ResponseDelayMax, c.ResponseDelayMin
	}
	if c.PollIntervalMin > c.PollIntervalMax {
		c.PollIntervalMin, c.PollIntervalMax = c.PollIntervalMax, c.PollIntervalMin
	}
	c.StartHour = clampHour(c.StartHour)
	c.EndHour = clampHour(c.EndHour)
	if c.MaxRepliesPerHour < 0 {
		c.MaxRepliesPerHour = 0
	}
	return c
}

func clampHour(h int) int {
	if h < 0 {
		return 0
	}
	if h > 23 {
		return 23
	}
	return h
}

// ResponseDelay returns the human-like reply delay range
func (c RuntimeConfig) ResponseDelay() (time.Duration, time.Duration) {
	return seconds(c.ResponseDelayMin), seconds(c.ResponseDelayMax)
}

// PollInterval returns the range slept between poll iterations
func (c RuntimeConfig) PollInterval() (time.Duration, time.Duration) {
	return seconds(c.PollIntervalMin), seconds(c.PollIntervalMax)
}

// Schedule extracts the schedule window
func (c RuntimeConfig) Schedule() Schedule {
	return Schedule{
		Enabled:      c.ScheduleEnabled,
		StartHour:    c.StartHour,
		EndHour:      c.EndHour,
		SkipWeekends: c.SkipWeekends,
	}
}

// IsIgnored checks the name against the ignore list (case-insensitive substring)
func (c RuntimeConfig) IsIgnored(name string) bool {
	lower := strings.ToLower(name)
	for _, entry := range c.IgnoreList {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" && strings.Contains(lower, entry) {
			return true
		}
	}
	return false
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// RuntimeConfigPatch is a partial update; nil fields are left unchanged
type RuntimeConfigPatch struct {
	APIKey      *string  `json:"apiKey,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	Personality *string  `json:"personality,omitempty"`

	ResponseDelayMin  *int `json:"responseDelayMin,omitempty"`
	ResponseDelayMax  *int `json:"responseDelayMax,omitempty"`
	PollIntervalMin   *int `json:"pollIntervalMin,omitempty"`
	PollIntervalMax   *int `json:"pollIntervalMax,omitempty"`
	MaxRepliesPerHour *int `json:"maxRepliesPerHour,omitempty"`

	ScheduleEnabled *bool `json:"scheduleEnabled,omitempty"`
	StartHour       *int  `json:"startHour,omitempty"`
	EndHour         *int  `json:"endHour,omitempty"`
	SkipWeekends    *bool `json:"skipWeekends,omitempty"`

	IgnoreList []string `json:"ignoreList,omitempty"`
}

// Apply merges the patch into cfg
func (p RuntimeConfigPatch) Apply(cfg RuntimeConfig) RuntimeConfig {
	if p.APIKey != nil {
		cfg.APIKey = *p.APIKey
	}
	if p.Model != nil {
		cfg.Model = *p.Model
	}
	if p.Temperature != nil {
		cfg.Temperature = *p.Temperature
	}
	if p.Personality != nil {
		cfg.Personality = *p.Personality
	}
	if p.ResponseDelayMin != nil {
		cfg.ResponseDelayMin = *p.ResponseDelayMin
	}
	if p.ResponseDelayMax != nil {
		cfg.ResponseDelayMax = *p.ResponseDelayMax
	}
	if p.PollIntervalMin != nil {
		cfg.PollIntervalMin = *p.PollIntervalMin
	}
	if p.PollIntervalMax != nil {
		cfg.PollIntervalMax = *p.PollIntervalMax
	}
	if p.MaxRepliesPerHour != nil {
		cfg.MaxRepliesPerHour = *p.MaxRepliesPerHour
	}
	if p.ScheduleEnabled != nil {
		cfg.ScheduleEnabled = *p.ScheduleEnabled
	}
	if p.StartHour != nil {
		cfg.StartHour = *p.StartHour
	}
	if p.EndHour != nil {
		cfg.EndHour = *p.EndHour
	}
	if p.SkipWeekends != nil {
		cfg.SkipWeekends = *p.SkipWeekends
	}
	if p.IgnoreList != nil {
		cfg.IgnoreList = append([]string{}, p.IgnoreList...)
	}
	return cfg
}

// PatchFrom builds a patch that replaces every field with the values of cfg
func PatchFrom(cfg RuntimeConfig) RuntimeConfigPatch {
	ignore := cfg.IgnoreList
	if ignore == nil {
		ignore = []string{}
	}
	return RuntimeConfigPatch{
		APIKey:            &cfg.APIKey,
		Model:             &cfg.Model,
		Temperature:       &cfg.Temperature,
		Personality:       &cfg.Personality,
		ResponseDelayMin:  &cfg.ResponseDelayMin,
		ResponseDelayMax:  &cfg.ResponseDelayMax,
		PollIntervalMin:   &cfg.PollIntervalMin,
		PollIntervalMax:   &cfg.PollIntervalMax,
		MaxRepliesPerHour: &cfg.MaxRepliesPerHour,
		ScheduleEnabled:   &cfg.ScheduleEnabled,
		StartHour:         &cfg.StartHour,
		EndHour:           &cfg.EndHour,
		SkipWeekends:      &cfg.SkipWeekends,
		IgnoreList:        ignore,
	}
}
