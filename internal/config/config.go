package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/strategy"
)

// DefaultSymbols is the watch list used when none is configured.
var DefaultSymbols = []string{"XAU/USD", "EUR/USD", "USD/JPY", "AUD/USD", "GBP/USD"}

// profileCooldown is the manual-refresh cooldown each profile was tuned with.
var profileCooldown = map[string]time.Duration{
	"gold":     40 * time.Second,
	"multi":    60 * time.Second,
	"breakout": 40 * time.Second,
}

// Config holds all application configuration.
type Config struct {
	Profile  string   `yaml:"profile"`
	Symbols  []string `yaml:"symbols"`
	Cooldown int      `yaml:"cooldown_seconds"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider          string `yaml:"provider"`
		BaseURL           string `yaml:"base_url"`
		APIKey            string `yaml:"api_key"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
		OutputSize        int    `yaml:"output_size"`
	} `yaml:"data_source"`
	News struct {
		// Enabled defaults to true for the gold profile only.
		Enabled  *bool    `yaml:"enabled"`
		APIKey   string   `yaml:"api_key"`
		Keywords []string `yaml:"keywords"`
		// Symbols limits news mode to the pairs the keywords move.
		Symbols  []string `yaml:"symbols"`
	} `yaml:"news"`
	Signal struct {
		// Precision overrides per-symbol rounding when set.
		Precision       *int `yaml:"precision"`
		ValidityMinutes int  `yaml:"validity_minutes"`
	} `yaml:"signal"`
	Schedule struct {
		// AnalyzeCron is a six-field cron spec; empty disables scheduled refreshes.
		AnalyzeCron string `yaml:"analyze_cron"`
	} `yaml:"schedule"`
	Journal struct {
		CSVPath       string `yaml:"csv_path"`
		SQLitePath    string `yaml:"sqlite_path"`
		CooldownState string `yaml:"cooldown_state"`
	} `yaml:"journal"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present) and the YAML file at path, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

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

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SIGNALDESK_PROFILE"); v != "" {
		c.Profile = v
	}
	if v := os.Getenv("SIGNALDESK_SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("TWELVEDATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("NEWSAPI_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SIGNAL_LOG"); v != "" {
		c.Journal.CSVPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Journal.SQLitePath = v
	}
	if v := os.Getenv("CRON_ANALYZE"); v != "" {
		c.Schedule.AnalyzeCron = v
	}
	if v := os.Getenv("COOLDOWN_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cooldown = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Profile == "" {
		c.Profile = "gold"
	}
	for i, s := range c.Symbols {
		c.Symbols[i] = NormalizeSymbol(s)
	}
	if len(c.Symbols) == 0 {
		c.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Cooldown == 0 {
		c.Cooldown = int(profileCooldown[c.Profile] / time.Second)
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "twelvedata"
	}
	if c.DataSource.BaseURL == "" {
		switch c.DataSource.Provider {
		case "twelvedata":
			c.DataSource.BaseURL = collector.DefaultTwelveDataURL
		case "yahoo":
			c.DataSource.BaseURL = collector.DefaultYahooURL
		}
	}
	if c.DataSource.RequestsPerMinute == 0 {
		c.DataSource.RequestsPerMinute = 8
	}
	if c.DataSource.OutputSize == 0 {
		c.DataSource.OutputSize = 50
	}
	if c.News.Enabled == nil {
		on := c.Profile == "gold"
		c.News.Enabled = &on
	}
	if len(c.News.Keywords) == 0 {
		c.News.Keywords = collector.DefaultKeywords
	}
	for i, s := range c.News.Symbols {
		c.News.Symbols[i] = NormalizeSymbol(s)
	}
	if len(c.News.Symbols) == 0 {
		c.News.Symbols = []string{"XAU/USD"}
	}
	if c.Signal.ValidityMinutes == 0 {
		c.Signal.ValidityMinutes = 15
	}
	if c.Journal.CSVPath == "" {
		c.Journal.CSVPath = "signals_log.csv"
	}
	if c.Journal.SQLitePath == "" {
		c.Journal.SQLitePath = "data/signaldesk.db"
	}
	if c.Journal.CooldownState == "" {
		c.Journal.CooldownState = "data/cooldown.json"
	}
}

// NormalizeSymbol upper-cases a pair and inserts the slash in six-letter
// forms such as "xauusd".
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 6 && !strings.Contains(s, "/") {
		s = s[:3] + "/" + s[3:]
	}
	return s
}

// CooldownInterval returns the manual-refresh cooldown.
func (c *Config) CooldownInterval() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

// NewsEnabled reports whether headlines are checked before scoring.
func (c *Config) NewsEnabled() bool {
	return c.News.Enabled != nil && *c.News.Enabled && c.News.APIKey != ""
}

// StrategyConfig resolves the profile and applies signal overrides.
func (c *Config) StrategyConfig() (strategy.Config, error) {
	sc, err := strategy.Profile(c.Profile)
	if err != nil {
		return sc, err
	}
	if c.Signal.Precision != nil {
		sc.Precision = *c.Signal.Precision
	}
	sc.Validity = time.Duration(c.Signal.ValidityMinutes) * time.Minute
	return sc, sc.Validate()
}

// Validate checks the fields every entry point needs.
func (c *Config) Validate() error {
	if _, err := c.StrategyConfig(); err != nil {
		return fmt.Errorf("profile %s: %w", c.Profile, err)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown_seconds must not be negative")
	}
	switch c.DataSource.Provider {
	case "twelvedata":
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for twelvedata")
		}
	case "yahoo", "mock":
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.DataSource.RequestsPerMinute < 0 {
		return fmt.Errorf("data_source.requests_per_minute must not be negative")
	}
	for _, s := range c.Symbols {
		if !strings.Contains(s, "/") {
			return fmt.Errorf("symbol %q must look like BASE/QUOTE", s)
		}
	}
	return nil
}

// ValidateBot additionally requires Telegram credentials.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
