package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Backend BackendConfig `json:"backend"`
	Chat    ChatConfig    `json:"chat"`
	Voice   VoiceConfig   `json:"voice"`
	WebChat WebChatConfig `json:"webchat"`
	Log     LogConfig     `json:"log"`
}

type BackendConfig struct {
	BaseURL  string `json:"base_url" env:"LENACHAT_BACKEND_BASE_URL"`
	ClientID string `json:"client_id" env:"LENACHAT_BACKEND_CLIENT_ID"`
	Platform string `json:"platform" env:"LENACHAT_BACKEND_PLATFORM"`
}

type ChatConfig struct {
	StateDir string `json:"state_dir" env:"LENACHAT_CHAT_STATE_DIR"`
}

type VoiceConfig struct {
	SampleRate     int `json:"sample_rate" env:"LENACHAT_VOICE_SAMPLE_RATE"`
	MaxSeconds     int `json:"max_seconds" env:"LENACHAT_VOICE_MAX_SECONDS"`
	ProbeTimeoutMS int `json:"probe_timeout_ms" env:"LENACHAT_VOICE_PROBE_TIMEOUT_MS"`
}

type WebChatConfig struct {
	Host     string `json:"host" env:"LENACHAT_WEBCHAT_HOST"`
	Port     int    `json:"port" env:"LENACHAT_WEBCHAT_PORT"`
	Username string `json:"username" env:"LENACHAT_WEBCHAT_USERNAME"`
	Password string `json:"password" env:"LENACHAT_WEBCHAT_PASSWORD"`
	// RatePerMinute bounds /chat/* calls per client IP. Zero disables limiting.
	RatePerMinute int `json:"rate_per_minute" env:"LENACHAT_WEBCHAT_RATE_PER_MINUTE"`
}

type LogConfig struct {
	Level string `json:"level" env:"LENACHAT_LOG_LEVEL"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:  "https://api.lenaai.net",
			ClientID: "DREAM_HOMES",
			Platform: "website",
		},
		Chat: ChatConfig{
			StateDir: "~/.lenachat",
		},
		Voice: VoiceConfig{
			SampleRate:     16000,
			MaxSeconds:     60,
			ProbeTimeoutMS: 1500,
		},
		WebChat: WebChatConfig{
			Host:          "0.0.0.0",
			Port:          18820,
			RatePerMinute: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Support full config from env var (for containers / serverless)
	if cfgJSON := os.Getenv("LENACHAT_CONFIG_JSON"); cfgJSON != "" {
		if err := json.Unmarshal([]byte(cfgJSON), cfg); err != nil {
			return nil, fmt.Errorf("parsing LENACHAT_CONFIG_JSON: %w", err)
		}
		if err := env.Parse(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// StateDir returns the chat state directory with ~ expanded.
func (c *Config) StateDir() string {
	return expandHome(c.Chat.StateDir)
}

// ProbeTimeout returns the duration-probe bound as a time.Duration.
func (c *Config) ProbeTimeout() time.Duration {
	if c.Voice.ProbeTimeoutMS <= 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(c.Voice.ProbeTimeoutMS) * time.Millisecond
}

// MaxRecord returns the hard cap on a single recording.
func (c *Config) MaxRecord() time.Duration {
	if c.Voice.MaxSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Voice.MaxSeconds) * time.Second
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
