package usecase

import (
	"time"

	"github.com/snapreply/snapreply/internal/biz/domain"
)

// Verdict is the outcome of a reply gate check
type Verdict int

const (
	VerdictAllow Verdict = iota
	VerdictOutsideSchedule
	VerdictRateLimited
	VerdictDuplicate
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictOutsideSchedule:
		return "outside_schedule"
	case VerdictRateLimited:
		return "rate_limited"
	case VerdictDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// GateUsecase owns the per-worker reply policy state: rate window and dedup set.
// It is used by a single worker goroutine and is not safe for concurrent use.
type GateUsecase struct {
	now   func() time.Time
	rate  domain.RateState
	dedup *domain.DedupSet
}

// NewGateUsecase creates a gate. A nil clock uses time.Now.
func NewGateUsecase(now func() time.Time) *GateUsecase {
	if now == nil {
		now = time.Now
	}
	return &GateUsecase{now: now, dedup: domain.NewDedupSet()}
}

// InSchedule checks the schedule window at the current local time
func (uc *GateUsecase) InSchedule(cfg domain.RuntimeConfig) bool {
	return cfg.Schedule().Active(uc.now())
}

// Check evaluates dedup and rate limit for one inbound message without changing dedup state
func (uc *GateUsecase) Check(conversation, text string, cfg domain.RuntimeConfig) Verdict {
	if !uc.InSchedule(cfg) {
		return VerdictOutsideSchedule
	}
	if uc.dedup.Has(domain.ProcessedKey(conversation, text)) {
		return VerdictDuplicate
	}
	if !uc.rate.Allow(uc.now(), cfg.MaxRepliesPerHour) {
		return VerdictRateLimited
	}
	return VerdictAllow
}

// MarkProcessed records the message so it is never answered again
func (uc *GateUsecase) MarkProcessed(conversation, text string) {
	uc.dedup.Add(domain.ProcessedKey(conversation, text))
}

// IsProcessed reports whether the message was already handled
func (uc *GateUsecase) IsProcessed(conversation, text string) bool {
	return uc.dedup.Has(domain.ProcessedKey(conversation, text))
}

// RecordReply counts a sent reply against the hourly cap
func (uc *GateUsecase) RecordReply() {
	uc.rate.Record(uc.now())
}

// Rate returns a copy of the current rate window
func (uc *GateUsecase) Rate() domain.RateState {
	return uc.rate
}

// Processed returns the number of dedup keys held
func (uc *GateUsecase) Processed() int {
	return uc.dedup.Len()
}
