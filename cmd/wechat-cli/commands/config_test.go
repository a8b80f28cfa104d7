package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wechat-cli/internal/app"
)

func noEnv() []string { return nil }

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", nil, noEnv)
	require.NoError(t, err)

	assert.Equal(t, app.DefaultConfigLogFormat, cfg.LogFormat)
	assert.Equal(t, app.DefaultConfigServerHost, cfg.Server.Host)
	assert.Equal(t, app.DefaultConfigAPIBaseURL, cfg.API.BaseURL)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_format = "json"

[server]
host = "0.0.0.0"
port = 9000

[shutdown]
timeout = "10s"

[api]
base_url = "https://api.example.com"

[token]
safety_margin = "2m"
`), 0600))

	cfg, err := loadConfig(path, nil, noEnv)
	require.NoError(t, err)

	assert.Equal(t, app.LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, uint16(9000), cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Shutdown.Timeout)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Token.SafetyMargin)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
host = "10.0.0.1"
`), 0600))

	environ := func() []string {
		return []string{
			"WECHAT_CLI_SERVER__HOST=10.0.0.2",
			"WECHAT_CLI_LOG_LEVEL=DEBUG",
		}
	}

	cfg, err := loadConfig(path, nil, environ)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2", cfg.Server.Host)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	environ := func() []string {
		return []string{"WECHAT_CLI_LOG_FORMAT=yaml"}
	}

	_, err := loadConfig("", nil, environ)
	assert.Error(t, err)
}
