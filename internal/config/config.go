package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TICKDATA_TICK_DATA_PATH.
const EnvPrefix = "TICKDATA_"

// Config holds all application configuration.
type Config struct {
	TickDataPath     string         `yaml:"tick_data_path" env:"TICK_DATA_PATH"`
	FirstYearToFetch int            `yaml:"first_year_to_fetch" env:"FIRST_YEAR_TO_FETCH"`
	AssetsToFetch    []string       `yaml:"assets_to_fetch" env:"ASSETS_TO_FETCH" envSeparator:","`
	Fetch            FetchConfig    `yaml:"fetch" envPrefix:"FETCH_"`
	Schedule         ScheduleConfig `yaml:"schedule" envPrefix:"SCHEDULE_"`
	Database         DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Telegram         TelegramConfig `yaml:"telegram" envPrefix:"TELEGRAM_"`
	Log              LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

// FetchConfig controls archive downloads.
type FetchConfig struct {
	BaseURL     string        `yaml:"base_url" env:"BASE_URL"`
	Proxy       string        `yaml:"proxy" env:"PROXY"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries  int           `yaml:"max_retries" env:"MAX_RETRIES"`
	Parallelism int           `yaml:"parallelism" env:"PARALLELISM"`
}

type ScheduleConfig struct {
	Cron string `yaml:"cron" env:"CRON"`
}

type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" env:"CHAT_ID"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Load reads config from a YAML file, then a .env file, then applies
// environment variable overrides and defaults. A missing file at either path
// is not an error. An empty envFile means ".env".
func Load(path, envFile string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TickDataPath == "" {
		c.TickDataPath = "data/ticks"
	}
	if c.FirstYearToFetch == 0 {
		c.FirstYearToFetch = 2012
	}
	if len(c.AssetsToFetch) == 0 {
		c.AssetsToFetch = []string{"EURUSD", "USDJPY"}
	}
	for i, a := range c.AssetsToFetch {
		c.AssetsToFetch[i] = strings.ToUpper(strings.TrimSpace(a))
	}
	if c.Fetch.BaseURL == "" {
		c.Fetch.BaseURL = "http://www.histdata.com"
	}
	c.Fetch.BaseURL = strings.TrimRight(c.Fetch.BaseURL, "/")
	if c.Fetch.Proxy == "" {
		c.Fetch.Proxy = os.Getenv("HTTPS_PROXY")
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 2 * time.Minute
	}
	if c.Fetch.MaxRetries == 0 {
		c.Fetch.MaxRetries = 3
	}
	if c.Schedule.Cron == "" {
		// Sundays 06:00, after the vendor publishes the previous month.
		c.Schedule.Cron = "0 0 6 * * 0"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TickDataPath) == "" {
		return fmt.Errorf("tick_data_path is required")
	}
	if c.FirstYearToFetch < 2010 {
		return fmt.Errorf("first_year_to_fetch must be 2010 or later")
	}
	if len(c.AssetsToFetch) == 0 {
		return fmt.Errorf("assets_to_fetch is required")
	}
	seen := make(map[string]bool, len(c.AssetsToFetch))
	for _, a := range c.AssetsToFetch {
		code := strings.ToUpper(strings.TrimSpace(a))
		if seen[code] {
			return fmt.Errorf("assets_to_fetch lists %s more than once", code)
		}
		seen[code] = true
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative")
	}
	if c.Fetch.Parallelism < 0 {
		return fmt.Errorf("fetch.parallelism must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
