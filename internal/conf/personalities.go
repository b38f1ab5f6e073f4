package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Personalities maps preset names to system prompts, loaded from YAML
type Personalities struct {
	Default string            `yaml:"default"`
	Presets map[string]string `yaml:"presets"`

	// Source is the file the presets were read from, empty for built-ins
	Source string `yaml:"-"`
}

// LoadPersonalities loads personality presets from a YAML file.
// Without a path the usual locations are tried; when none exists the built-ins are used.
func LoadPersonalities(configPath string) (*Personalities, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/personalities.yaml",
			"/etc/snapreply/personalities.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "personalities.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = raw, p
			break
		}
	}
	if data == nil {
		if configPath != "" {
			return nil, &ConfigError{Field: "PERSONALITIES_CONFIG_PATH", Message: "file not found: " + configPath}
		}
		return DefaultPersonalities(), nil
	}

	var p Personalities
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	p.fillDefaults()
	p.Source = loadedPath
	return &p, nil
}

// fillDefaults adds built-in presets the file does not override
func (p *Personalities) fillDefaults() {
	defaults := DefaultPersonalities()
	if p.Presets == nil {
		p.Presets = make(map[string]string)
	}
	for name, prompt := range defaults.Presets {
		if strings.TrimSpace(p.Presets[name]) == "" {
			p.Presets[name] = prompt
		}
	}
	if p.Default == "" {
		p.Default = defaults.Default
	}
}

// SystemPrompt resolves a personality setting: a preset name yields its prompt,
// an empty value yields the default preset, anything else is used as the prompt itself
func (p *Personalities) SystemPrompt(personality string) string {
	key := strings.ToLower(strings.TrimSpace(personality))
	if key == "" {
		key = p.Default
	}
	if prompt, ok := p.Presets[key]; ok {
		return prompt
	}
	return personality
}

// Names lists the preset names
func (p *Personalities) Names() []string {
	names := make([]string, 0, len(p.Presets))
	for name := range p.Presets {
		names = append(names, name)
	}
	return names
}

const replyRules = `
Rules:
- Reply like a real person texting: one or two short sentences, lowercase is fine.
- Never mention that you are an AI, a bot, or automated.
- Do not use hashtags or more than one emoji.
- If you do not understand the message, ask a short casual question back.`

const (
	friendlyPrompt     = "You are chatting with a friend on a messaging app. Be warm, upbeat and easygoing." + replyRules
	flirtyPrompt       = "You are chatting with someone you like on a messaging app. Be playful and charming, never crude." + replyRules
	professionalPrompt = "You are replying to messages on behalf of a busy person. Be polite and concise, " +
		"and say they will follow up personally when something needs a real decision." + replyRules
	sarcasticPrompt = "You are chatting with a close friend who enjoys banter. Be dry and witty, never mean." + replyRules
)

// DefaultPersonalities returns the built-in presets
func DefaultPersonalities() *Personalities {
	return &Personalities{
		Default: "friendly",
		Presets: map[string]string{
			"friendly":     friendlyPrompt,
			"flirty":       flirtyPrompt,
			"professional": professionalPrompt,
			"sarcastic":    sarcasticPrompt,
		},
	}
}
