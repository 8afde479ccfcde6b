package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  id: "ss-test-1"
  listen: ":8080"
  request_timeout: 45s

chrome:
  pool_size: "2"
  warmup:
    url: "https://example.com/"
    timeout: 10s
  restart:
    after_count: 50
    after_time: 30m
  print:
    navigation_timeout: 20s

pdfium:
  min_idle: 1
  max_idle: 2
  max_total: 4
  acquire_timeout: 15s

summarizer:
  model: "gpt-3.5-turbo"
  max_tokens: 512
  token_budget: 3000
  temperature: 0.7

log:
  level: "info"
  console:
    enabled: true
    format: "console"

metrics:
  enabled: true
  listen: ":9090"
  path: "/metrics"
  namespace: "scrape_summary"
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigValid(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ss-test-1", cfg.Server.ID)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 45*time.Second, time.Duration(cfg.Server.RequestTimeout))
	assert.Equal(t, "2", cfg.Chrome.PoolSize)
	assert.Equal(t, 20*time.Second, time.Duration(cfg.Chrome.Print.NavigationTimeout))
	assert.Equal(t, 4, cfg.Pdfium.MaxTotal)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Summarizer.Model)
	assert.Equal(t, 3000, cfg.Summarizer.TokenBudget)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  id: "ss-test-1"
  listen: ":8080"

chrome:
  warmup:
    url: "https://example.com/"

log:
  level: "info"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, time.Duration(cfg.Server.RequestTimeout))
	assert.Equal(t, "auto", cfg.Chrome.PoolSize)
	assert.Equal(t, 10*time.Second, time.Duration(cfg.Chrome.Warmup.Timeout))
	assert.Equal(t, 100, cfg.Chrome.Restart.AfterCount)
	assert.Equal(t, 60*time.Minute, time.Duration(cfg.Chrome.Restart.AfterTime))
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Chrome.Print.NavigationTimeout))
	assert.Equal(t, 1, cfg.Pdfium.MinIdle)
	assert.Equal(t, 4, cfg.Pdfium.MaxTotal)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Summarizer.Model)
	assert.Equal(t, 512, cfg.Summarizer.MaxTokens)
	assert.Equal(t, 3000, cfg.Summarizer.TokenBudget)
	assert.Equal(t, float32(0.7), cfg.Summarizer.Temperature)
	assert.True(t, cfg.Log.Console.Enabled)
	assert.Equal(t, "console", cfg.Log.Console.Format)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML+`
unknown_section:
  foo: bar
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestConfigValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "missing server id",
			modify:  func(c *Config) { c.Server.ID = "" },
			wantErr: "server.id is required",
		},
		{
			name:    "missing listen",
			modify:  func(c *Config) { c.Server.Listen = "" },
			wantErr: "server.listen is required",
		},
		{
			name:    "bad pool size",
			modify:  func(c *Config) { c.Chrome.PoolSize = "lots" },
			wantErr: "chrome.pool_size",
		},
		{
			name:    "missing warmup url",
			modify:  func(c *Config) { c.Chrome.Warmup.URL = "" },
			wantErr: "chrome.warmup.url is required",
		},
		{
			name:    "pdfium max_idle above max_total",
			modify:  func(c *Config) { c.Pdfium.MaxIdle = 10 },
			wantErr: "pdfium.max_idle",
		},
		{
			name:    "missing model",
			modify:  func(c *Config) { c.Summarizer.Model = "" },
			wantErr: "summarizer.model is required",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "invalid log.level",
		},
		{
			name: "metrics port clash",
			modify: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Listen = ":8080"
			},
			wantErr: "must differ from server.listen port",
		},
		{
			name: "bad metrics namespace",
			modify: func(c *Config) {
				c.Metrics.Namespace = "1bad-name"
			},
			wantErr: "invalid metrics.namespace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, validConfigYAML)
			cfg, err := LoadConfig(path)
			require.NoError(t, err)

			tt.modify(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCalculateServerTimeout(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second+SafetyMargin, cfg.Server.CalculateServerTimeout())
}

func TestGetConfigPath(t *testing.T) {
	t.Run("existing file", func(t *testing.T) {
		path := writeConfigFile(t, validConfigYAML)

		resolved, err := GetConfigPath(path)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(resolved))
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := GetConfigPath("")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := GetConfigPath("/nonexistent/config.yaml")
		assert.Error(t, err)
	})
}
