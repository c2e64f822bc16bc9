package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HTTPS_PROXY", "")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "data/ticks", cfg.TickDataPath)
	assert.Equal(t, 2012, cfg.FirstYearToFetch)
	assert.Equal(t, []string{"EURUSD", "USDJPY"}, cfg.AssetsToFetch)
	assert.Equal(t, "http://www.histdata.com", cfg.Fetch.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, "0 0 6 * * 0", cfg.Schedule.Cron)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
tick_data_path: /srv/ticks
first_year_to_fetch: 2015
assets_to_fetch: [eurusd, " gbpusd "]
fetch:
  base_url: http://mirror.local/
  timeout: 45s
  max_retries: 5
  parallelism: 2
schedule:
  cron: "0 30 7 * * 1"
database:
  sqlite_path: /srv/tickdata.db
log:
  level: debug
  format: json
`)

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/ticks", cfg.TickDataPath)
	assert.Equal(t, 2015, cfg.FirstYearToFetch)
	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, cfg.AssetsToFetch)
	assert.Equal(t, "http://mirror.local", cfg.Fetch.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 5, cfg.Fetch.MaxRetries)
	assert.Equal(t, 2, cfg.Fetch.Parallelism)
	assert.Equal(t, "0 30 7 * * 1", cfg.Schedule.Cron)
	assert.Equal(t, "/srv/tickdata.db", cfg.Database.SQLitePath)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "first_year_to_fetch: 2015\nassets_to_fetch: [EURUSD]\n")
	envFile := writeFile(t, dir, "test.env", "TICKDATA_TELEGRAM_BOT_TOKEN=from-dotenv\nTICKDATA_TELEGRAM_CHAT_ID=42\n")

	t.Setenv("TICKDATA_FIRST_YEAR_TO_FETCH", "2018")
	t.Setenv("TICKDATA_ASSETS_TO_FETCH", "AUDUSD,NZDUSD")
	t.Setenv("TICKDATA_FETCH_TIMEOUT", "10s")
	t.Setenv("TICKDATA_TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TICKDATA_TELEGRAM_CHAT_ID", "")
	os.Unsetenv("TICKDATA_TELEGRAM_BOT_TOKEN")
	os.Unsetenv("TICKDATA_TELEGRAM_CHAT_ID")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, 2018, cfg.FirstYearToFetch)
	assert.Equal(t, []string{"AUDUSD", "NZDUSD"}, cfg.AssetsToFetch)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "from-dotenv", cfg.Telegram.BotToken)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "first_year_to_fetch: [not, a, year]\n")

	_, err := Load(path, filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"blank path", func(c *Config) { c.TickDataPath = " " }},
		{"early year", func(c *Config) { c.FirstYearToFetch = 2009 }},
		{"no assets", func(c *Config) { c.AssetsToFetch = nil }},
		{"duplicate asset", func(c *Config) { c.AssetsToFetch = []string{"EURUSD", "USDJPY", "eurusd "} }},
		{"no timeout", func(c *Config) { c.Fetch.Timeout = -time.Second }},
		{"negative retries", func(c *Config) { c.Fetch.MaxRetries = -1 }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "token" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, valid().Validate())
}
