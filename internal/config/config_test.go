package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  base_url: https://dev4url.cc/
  aliases: [www.dev4url.cc]
server:
  port: 9090
database:
  driver: mysql
  host: db
  port: 3306
shortener:
  code_length: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://dev4url.cc", cfg.App.BaseURL, "末尾的 / 应被去掉")
	assert.Equal(t, "dev4url.cc", cfg.PublicHost())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Shortener.CodeLength)
	// 未出现在文件中的字段保持默认值
	assert.Equal(t, 5, cfg.Shortener.MaxAttempts)
	assert.True(t, cfg.SafeBrowsing.FailOpen)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Shortener.CodeLength)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BASE_URL", "https://short.example")
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("SAFE_BROWSING_API_KEY", "secret-key")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://short.example", cfg.App.BaseURL)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.SafeBrowsing.Enabled)
	assert.Equal(t, "secret-key", cfg.SafeBrowsing.APIKey)
}

func TestLoad_ZeroValuesFallBackToDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
rate_limit:
  enabled: true
  requests_per_second: 0
  burst: 0
cache:
  local_ttl: 0
  local_items: 0
`))
	require.NoError(t, err)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, float64(3), cfg.RateLimit.Requests)
	assert.Equal(t, 300, cfg.Cache.LocalTTL)
	assert.Equal(t, int64(10000), cfg.Cache.LocalItems)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "relative base url", body: "app:\n  base_url: /short\n"},
		{name: "code too short", body: "shortener:\n  code_length: 3\n"},
		{name: "unknown driver", body: "database:\n  driver: oracle\n"},
		{name: "safe browsing without key", body: "safe_browsing:\n  enabled: true\n"},
		{name: "broken yaml", body: "app: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
