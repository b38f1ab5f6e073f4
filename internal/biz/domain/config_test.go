package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeConfig_WithDefaults(t *testing.T) {
	cfg := RuntimeConfig{Model: "custom", ScheduleEnabled: true}.WithDefaults()

	assert.Equal(t, "custom", cfg.Model)
	assert.True(t, cfg.ScheduleEnabled)
	assert.Equal(t, DefaultRuntimeConfig().Personality, cfg.Personality)
	assert.Equal(t, DefaultRuntimeConfig().PollIntervalMax, cfg.PollIntervalMax)
	assert.Equal(t, []string{"Team Snapchat"}, cfg.IgnoreList)
}

func TestRuntimeConfig_ExplicitZerosSurvive(t *testing.T) {
	var zeroTemp float32
	zeroMax := 0

	cfg := RuntimeConfigPatch{
		Temperature:       &zeroTemp,
		MaxRepliesPerHour: &zeroMax,
	}.Apply(DefaultRuntimeConfig()).WithDefaults().Normalize()

	assert.Zero(t, cfg.Temperature)
	assert.Zero(t, cfg.MaxRepliesPerHour)
	assert.Equal(t, DefaultRuntimeConfig().Model, cfg.Model)
}

func TestRuntimeConfig_WithDefaultsKeepsEmptyIgnoreList(t *testing.T) {
	cfg := RuntimeConfig{IgnoreList: []string{}}.WithDefaults()
	assert.Empty(t, cfg.IgnoreList)
}

func TestRuntimeConfig_NormalizeSwapsInvertedRanges(t *testing.T) {
	cfg := RuntimeConfig{
		ResponseDelayMin: 10,
		ResponseDelayMax: 2,
		PollIntervalMin:  30,
		PollIntervalMax:  5,
		StartHour:        -3,
		EndHour:          30,
	}.Normalize()

	assert.Equal(t, 2, cfg.ResponseDelayMin)
	assert.Equal(t, 10, cfg.ResponseDelayMax)
	assert.Equal(t, 5, cfg.PollIntervalMin)
	assert.Equal(t, 30, cfg.PollIntervalMax)
	assert.Equal(t, 0, cfg.StartHour)
	assert.Equal(t, 23, cfg.EndHour)
}

func TestRuntimeConfig_Ranges(t *testing.T) {
	cfg := RuntimeConfig{ResponseDelayMin: 2, ResponseDelayMax: 4, PollIntervalMin: 5, PollIntervalMax: 9}

	lo, hi := cfg.ResponseDelay()
	assert.Equal(t, 2*time.Second, lo)
	assert.Equal(t, 4*time.Second, hi)

	lo, hi = cfg.PollInterval()
	assert.Equal(t, 5*time.Second, lo)
	assert.Equal(t, 9*time.Second, hi)
}

func TestRuntimeConfig_IsIgnored(t *testing.T) {
	cfg := RuntimeConfig{IgnoreList: []string{"team snapchat", " Bot ", ""}}

	assert.True(t, cfg.IsIgnored("Team Snapchat"))
	assert.True(t, cfg.IsIgnored("RoBoT friend"))
	assert.False(t, cfg.IsIgnored("Alice"))
}

func TestRuntimeConfigPatch_Apply(t *testing.T) {
	base := DefaultRuntimeConfig()
	model := "gpt-4o"
	enabled := true
	start := 22

	got := RuntimeConfigPatch{
		Model:           &model,
		ScheduleEnabled: &enabled,
		StartHour:       &start,
		IgnoreList:      []string{"mom"},
	}.Apply(base)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.True(t, got.ScheduleEnabled)
	assert.Equal(t, 22, got.StartHour)
	assert.Equal(t, base.EndHour, got.EndHour)
	assert.Equal(t, base.Temperature, got.Temperature)
	assert.Equal(t, []string{"mom"}, got.IgnoreList)
}

func TestPatchFrom_RoundTrip(t *testing.T) {
	src := DefaultRuntimeConfig()
	src.Model = "x"
	src.SkipWeekends = true
	src.IgnoreList = nil

	got := PatchFrom(src).Apply(RuntimeConfig{IgnoreList: []string{"old"}})

	assert.Equal(t, "x", got.Model)
	assert.True(t, got.SkipWeekends)
	assert.Empty(t, got.IgnoreList)
}
