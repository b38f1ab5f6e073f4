package data

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/snapreply/snapreply/internal/biz/repo"
	"github.com/snapreply/snapreply/internal/conf"
	"github.com/snapreply/snapreply/internal/infra/browser"
)

// Repositories contains all repositories
type Repositories struct {
	Session    repo.SessionRepo
	Analytics  repo.AnalyticsRepo
	Completion repo.CompletionRepo
	Browser    repo.BrowserRepo
	Alert      repo.AlertRepo // nil when alerts are not configured
}

// NewRepositories creates all repositories
func NewRepositories(cfg *conf.Config, log *zap.Logger) (*Repositories, error) {
	sessionRepo, err := NewSessionRepo(cfg.SessionsDir())
	if err != nil {
		return nil, err
	}

	analyticsRepo, err := NewAnalyticsRepo(cfg.AnalyticsDBPath())
	if err != nil {
		return nil, err
	}

	var completion repo.CompletionRepo
	switch cfg.Completion.Provider {
	case conf.ProviderGemini:
		completion = NewGeminiRepo(cfg.Completion.GeminiKey, cfg.Completion.GeminiModel)
	case conf.ProviderOpenAI:
		completion = NewOpenAIRepo(cfg.Completion.OpenAIKey, cfg.Completion.OpenAIBaseURL)
	default:
		analyticsRepo.Close()
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Completion.Provider)
	}

	launcher := browser.NewLauncher(browser.Options{
		Bin:        cfg.Browser.Bin,
		ProfileDir: cfg.ProfilesDir(),
		NoSandbox:  cfg.Browser.NoSandbox,
	}, log)

	return &Repositories{
		Session:    sessionRepo,
		Analytics:  analyticsRepo,
		Completion: completion,
		Browser:    NewBrowserRepo(launcher),
		Alert:      NewFeishuAlertRepo(cfg.Feishu.AppID, cfg.Feishu.AppSecret, cfg.Feishu.AlertChatID),
	}, nil
}

// Close releases resources held by the repositories
func (r *Repositories) Close() error {
	return r.Analytics.Close()
}
