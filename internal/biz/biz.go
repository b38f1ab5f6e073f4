package biz

import (
	"time"

	"go.uber.org/zap"

	"github.com/snapreply/snapreply/internal/biz/repo"
	"github.com/snapreply/snapreply/internal/biz/usecase"
)

// Usecases contains the usecases one worker needs.
// Gate holds per-session dedup and rate state, so each worker gets its own bundle.
type Usecases struct {
	Scanner   *usecase.ScannerUsecase
	Filter    *usecase.FilterUsecase
	Navigator *usecase.NavigatorUsecase
	Reply     *usecase.ReplyUsecase
	Gate      *usecase.GateUsecase
	Delay     *usecase.Delay
}

// NewUsecases creates all usecases for one session
func NewUsecases(
	completion repo.CompletionRepo,
	prompts usecase.PromptResolver,
	sleep usecase.Sleeper,
	now func() time.Time,
	log *zap.Logger,
) *Usecases {
	delay := usecase.NewDelay(sleep)
	return &Usecases{
		Scanner:   usecase.NewScannerUsecase(log),
		Filter:    usecase.NewFilterUsecase(),
		Navigator: usecase.NewNavigatorUsecase(delay, nil, log),
		Reply:     usecase.NewReplyUsecase(completion, prompts),
		Gate:      usecase.NewGateUsecase(now),
		Delay:     delay,
	}
}
