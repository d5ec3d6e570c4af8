package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "COMPANION_"

// Config is the companion's runtime configuration.
type Config struct {
	Server struct {
		Port       string        `koanf:"port"`
		ReplyDelay time.Duration `koanf:"reply_delay"`
		CORSOrigin string        `koanf:"cors_origin"`
	} `koanf:"server"`

	Database struct {
		URL            string `koanf:"url"`
		MigrationsPath string `koanf:"migrations_path"`
		ConnectRetries int    `koanf:"connect_retries"`
	} `koanf:"database"`

	Dialogue struct {
		ConfirmThreshold int    `koanf:"confirm_threshold"`
		Picker           string `koanf:"picker"`
		Seed             int64  `koanf:"seed"`
		TaxonomyPath     string `koanf:"taxonomy_path"`
	} `koanf:"dialogue"`

	Analysis struct {
		Endpoint string        `koanf:"endpoint"`
		Timeout  time.Duration `koanf:"timeout"`
	} `koanf:"analysis"`

	Speech struct {
		STTURL      string `koanf:"stt_url"`
		STTLanguage string `koanf:"stt_language"`
		TTSURL      string `koanf:"tts_url"`
		TTSAPIKey   string `koanf:"tts_api_key"`
		VoiceID     string `koanf:"voice_id"`
	} `koanf:"speech"`

	Report struct {
		TelegramToken string   `koanf:"telegram_token"`
		TelegramURL   string   `koanf:"telegram_url"`
		ChatID        int64    `koanf:"chat_id"`
		FontPaths     []string `koanf:"font_paths"`
	} `koanf:"report"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`

	History struct {
		Path string `koanf:"path"`
	} `koanf:"history"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":                "8080",
		"server.reply_delay":         "600ms",
		"server.cors_origin":         "*",
		"database.migrations_path":   "file://migrations",
		"database.connect_retries":   10,
		"dialogue.confirm_threshold": 2,
		"dialogue.picker":            "first",
		"analysis.timeout":           "10s",
		"log.level":                  "info",
		"history.path":               "$HOME/.headdowell/history.json",
	}
}

// envKey maps COMPANION_DIALOGUE_CONFIRM_THRESHOLD to
// dialogue.confirm_threshold: the first segment is the section.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Load reads defaults, then the TOML file at path (if any), then
// COMPANION_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, p := range []string{"./companion.toml", "$HOME/.headdowell/companion.toml"} {
			p = os.ExpandEnv(p)
			if _, err := os.Stat(p); err == nil {
				if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
					return nil, fmt.Errorf("error loading config %s: %w", p, err)
				}
				break
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.History.Path = os.ExpandEnv(cfg.History.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Dialogue.ConfirmThreshold < 1 {
		return fmt.Errorf("dialogue confirm_threshold must be at least 1, got %d", c.Dialogue.ConfirmThreshold)
	}
	switch c.Dialogue.Picker {
	case "first", "rotating", "random":
	default:
		return fmt.Errorf("unknown dialogue picker %q", c.Dialogue.Picker)
	}
	if c.Report.TelegramToken != "" && c.Report.ChatID == 0 {
		return fmt.Errorf("report chat_id is required when a telegram token is set")
	}
	return nil
}

// ReportEnabled reports whether summaries should be sent to Telegram.
func (c *Config) ReportEnabled() bool {
	return c.Report.TelegramToken != "" && c.Report.ChatID != 0
}
