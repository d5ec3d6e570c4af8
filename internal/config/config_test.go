package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companion.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 600*time.Millisecond, cfg.Server.ReplyDelay)
	assert.Equal(t, 2, cfg.Dialogue.ConfirmThreshold)
	assert.Equal(t, "first", cfg.Dialogue.Picker)
	assert.Equal(t, 10*time.Second, cfg.Analysis.Timeout)
	assert.False(t, cfg.ReportEnabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
[server]
port = "9000"

[dialogue]
confirm_threshold = 3
picker = "rotating"

[report]
telegram_token = "tok"
chat_id = 42
`)
	t.Setenv("COMPANION_SERVER_PORT", "9100")
	t.Setenv("COMPANION_ANALYSIS_ENDPOINT", "http://nlp:8000")
	t.Setenv("COMPANION_DIALOGUE_CONFIRM_THRESHOLD", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "http://nlp:8000", cfg.Analysis.Endpoint)
	assert.Equal(t, 4, cfg.Dialogue.ConfirmThreshold)
	assert.Equal(t, "rotating", cfg.Dialogue.Picker)
	assert.True(t, cfg.ReportEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero threshold", "[dialogue]\nconfirm_threshold = 0\n"},
		{"unknown picker", "[dialogue]\npicker = \"loudest\"\n"},
		{"empty port", "[server]\nport = \"\"\n"},
		{"token without chat", "[report]\ntelegram_token = \"tok\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "dialogue.confirm_threshold", envKey("COMPANION_DIALOGUE_CONFIRM_THRESHOLD"))
	assert.Equal(t, "log.level", envKey("COMPANION_LOG_LEVEL"))
}
