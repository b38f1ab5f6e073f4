package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config represents application configuration
type Config struct {
	// Root for session files, browser profiles and the analytics database
	DataDir string

	Dashboard  DashboardConfig
	Target     TargetConfig
	Browser    BrowserConfig
	Completion CompletionConfig
	Feishu     FeishuConfig
	Analytics  AnalyticsConfig

	// Personality presets (loaded from YAML)
	Personalities *Personalities

	// Debug mode
	Debug bool
}

// DashboardConfig contains dashboard HTTP configuration
type DashboardConfig struct {
	Host string
	Port int
}

// Addr returns the listen address
func (c DashboardConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// BaseURL returns the URL clients use to reach the dashboard
func (c DashboardConfig) BaseURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return "http://" + host + ":" + strconv.Itoa(c.Port)
}

// TargetConfig contains the automated web chat location
type TargetConfig struct {
	URL          string
	LoginURL     string
	LoginTimeout time.Duration
}

// BrowserConfig contains browser launch configuration
type BrowserConfig struct {
	Bin       string
	Headless  bool
	NoSandbox bool
}

// CompletionConfig contains completion provider configuration
type CompletionConfig struct {
	Provider      string // openai or gemini
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiModel   string
}

// FeishuConfig contains Feishu alert configuration (optional)
type FeishuConfig struct {
	AppID       string
	AppSecret   string
	AlertChatID string
}

// Enabled reports whether alerts can be sent
func (c FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.AlertChatID != ""
}

// AnalyticsConfig contains analytics retention settings
type AnalyticsConfig struct {
	RetentionDays int
}

// SessionsDir is where session JSON files live
func (c *Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// ProfilesDir is the parent of per-session browser profiles
func (c *Config) ProfilesDir() string {
	return filepath.Join(c.DataDir, "profiles")
}

// AnalyticsDBPath is the SQLite analytics database
func (c *Config) AnalyticsDBPath() string {
	return filepath.Join(c.DataDir, "analytics.db")
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	homeDir, _ := os.UserHomeDir()
	v.SetDefault("DATA_DIR", filepath.Join(homeDir, ".snapreply"))
	v.SetDefault("DASHBOARD_HOST", "127.0.0.1")
	v.SetDefault("DASHBOARD_PORT", 3001)
	v.SetDefault("TARGET_URL", "https://web.snapchat.com/")
	v.SetDefault("LOGIN_URL", "https://accounts.snapchat.com/accounts/v2/login")
	v.SetDefault("LOGIN_TIMEOUT", 5*time.Minute)
	v.SetDefault("BROWSER_HEADLESS", true)
	v.SetDefault("COMPLETION_PROVIDER", ProviderOpenAI)
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("ANALYTICS_RETENTION_DAYS", 30)
	return v
}

// LoadFrom builds the configuration from a prepared viper instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	personalities, err := LoadPersonalities(v.GetString("PERSONALITIES_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir: v.GetString("DATA_DIR"),
		Dashboard: DashboardConfig{
			Host: v.GetString("DASHBOARD_HOST"),
			Port: v.GetInt("DASHBOARD_PORT"),
		},
		Target: TargetConfig{
			URL:          v.GetString("TARGET_URL"),
			LoginURL:     v.GetString("LOGIN_URL"),
			LoginTimeout: v.GetDuration("LOGIN_TIMEOUT"),
		},
		Browser: BrowserConfig{
			Bin:       v.GetString("BROWSER_BIN"),
			Headless:  v.GetBool("BROWSER_HEADLESS"),
			NoSandbox: v.GetBool("BROWSER_NO_SANDBOX"),
		},
		Completion: CompletionConfig{
			Provider:      strings.ToLower(v.GetString("COMPLETION_PROVIDER")),
			OpenAIKey:     v.GetString("OPENAI_API_KEY"),
			OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
			GeminiKey:     v.GetString("GEMINI_API_KEY"),
			GeminiModel:   v.GetString("GEMINI_MODEL"),
		},
		Feishu: FeishuConfig{
			AppID:       v.GetString("FEISHU_APP_ID"),
			AppSecret:   v.GetString("FEISHU_APP_SECRET"),
			AlertChatID: v.GetString("FEISHU_ALERT_CHAT_ID"),
		},
		Analytics: AnalyticsConfig{
			RetentionDays: v.GetInt("ANALYTICS_RETENTION_DAYS"),
		},
		Personalities: personalities,
		Debug:         v.GetBool("DEBUG"),
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return &ConfigError{Field: "DATA_DIR", Message: "required"}
	}
	if c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535 {
		return &ConfigError{Field: "DASHBOARD_PORT", Message: "must be between 1 and 65535"}
	}
	if c.Target.URL == "" {
		return &ConfigError{Field: "TARGET_URL", Message: "required"}
	}
	switch c.Completion.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return &ConfigError{Field: "COMPLETION_PROVIDER", Message: "must be openai or gemini"}
	}
	if c.Analytics.RetentionDays <= 0 {
		return &ConfigError{Field: "ANALYTICS_RETENTION_DAYS", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
