// Package config loads the bot server settings from the environment, an
// optional .env file and an optional YAML file with the initial bot record.
package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"quotexbot/internal/indicator"
	"quotexbot/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Host     string
	Port     int
	LogLevel string

	// State store
	StateBackend    string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	SQLitePath      string
	BreakerFailures int
	BreakerReset    time.Duration

	// Alerts
	AlertWebhookURL  string
	AlertRatePerMin  int
	TelegramBotToken string
	TelegramChatID   string
	SignalDedupTTL   time.Duration

	// Scheduled jobs, six-field cron specs; empty disables
	SummaryCron   string
	HeartbeatCron string

	// Initial bot record and indicator settings
	Bot        model.BotConfig
	Indicators indicator.Params
}

// File is the layout of BOT_CONFIG_FILE.
type File struct {
	Bot        *model.BotConfig `yaml:"bot"`
	Indicators *IndicatorFile   `yaml:"indicators"`
}

// IndicatorFile overrides the indicator defaults; zero fields keep the default.
type IndicatorFile struct {
	SRWindow        int     `yaml:"sr_window"`
	RSIPeriod       int     `yaml:"rsi_period"`
	MAPeriod        int     `yaml:"ma_period"`
	ManipulationPct float64 `yaml:"manipulation_pct"`
	BuyRSI          float64 `yaml:"buy_rsi"`
	SellRSI         float64 `yaml:"sell_rsi"`
}

// Load reads .env (if present), then BOT_CONFIG_FILE (if set), then the
// environment. Environment values win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] ignoring .env: %v", err)
	}

	cfg := &Config{
		Host:            getEnv("HOST", "0.0.0.0"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		StateBackend:    strings.ToLower(getEnv("STATE_BACKEND", "memory")),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		SQLitePath:      getEnv("SQLITE_PATH", "data/bot.db"),
		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		SummaryCron:   os.Getenv("SUMMARY_CRON"),
		HeartbeatCron: os.Getenv("HEARTBEAT_CRON"),

		Bot:        model.DefaultBotConfig(),
		Indicators: indicator.DefaultParams(),
	}

	p := &parser{}
	cfg.Port = p.getInt("PORT", 8000)
	cfg.RedisDB = p.getInt("REDIS_DB", 0)
	cfg.BreakerFailures = p.getInt("STATE_BREAKER_FAILURES", 5)
	cfg.BreakerReset = p.getDuration("STATE_BREAKER_RESET", 30*time.Second)
	cfg.AlertRatePerMin = p.getInt("ALERT_RATE_PER_MIN", 30)
	cfg.SignalDedupTTL = p.getDuration("SIGNAL_DEDUP_TTL", 5*time.Minute)
	if _, ok := os.LookupEnv("SUMMARY_CRON"); !ok {
		cfg.SummaryCron = "0 0 0 * * *"
	}
	if _, ok := os.LookupEnv("HEARTBEAT_CRON"); !ok {
		cfg.HeartbeatCron = "@every 30s"
	}

	if path := os.Getenv("BOT_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if _, ok := os.LookupEnv("BOT_CAPITAL"); ok {
		cfg.Bot.TotalCapital = p.getFloat("BOT_CAPITAL", cfg.Bot.TotalCapital)
	}
	if _, ok := os.LookupEnv("BOT_RISK_LOW"); ok {
		cfg.Bot.RiskLow = p.getFloat("BOT_RISK_LOW", cfg.Bot.RiskLow)
	}
	if _, ok := os.LookupEnv("BOT_RISK_HIGH"); ok {
		cfg.Bot.RiskHigh = p.getFloat("BOT_RISK_HIGH", cfg.Bot.RiskHigh)
	}
	if _, ok := os.LookupEnv("BOT_MAX_OPERATIONS"); ok {
		cfg.Bot.MaxOperations = p.getInt("BOT_MAX_OPERATIONS", cfg.Bot.MaxOperations)
	}
	if _, ok := os.LookupEnv("BOT_ACTIVE"); ok {
		cfg.Bot.Active = p.getBool("BOT_ACTIVE", cfg.Bot.Active)
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	// Decode over the current record so keys the file omits keep their defaults.
	f := File{Bot: &c.Bot}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if ind := f.Indicators; ind != nil {
		if ind.SRWindow != 0 {
			c.Indicators.SRWindow = ind.SRWindow
		}
		if ind.RSIPeriod != 0 {
			c.Indicators.RSIPeriod = ind.RSIPeriod
		}
		if ind.MAPeriod != 0 {
			c.Indicators.MAPeriod = ind.MAPeriod
		}
		if ind.ManipulationPct != 0 {
			c.Indicators.ManipulationPct = ind.ManipulationPct
		}
		if ind.BuyRSI != 0 {
			c.Indicators.BuyRSI = ind.BuyRSI
		}
		if ind.SellRSI != 0 {
			c.Indicators.SellRSI = ind.SellRSI
		}
	}
	log.Printf("[config] loaded bot settings from %s", path)
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.StateBackend {
	case "memory", "redis", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("STATE_BACKEND must be memory, redis or sqlite, got %q", c.StateBackend))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.Bot.TotalCapital <= 0 {
		errs = append(errs, fmt.Errorf("total capital must be positive, got %g", c.Bot.TotalCapital))
	}
	if c.Bot.RiskLow < 0 || c.Bot.RiskHigh < 0 {
		errs = append(errs, fmt.Errorf("risk percentages must not be negative (low %g, high %g)", c.Bot.RiskLow, c.Bot.RiskHigh))
	}
	if c.Bot.MaxOperations < 0 {
		errs = append(errs, fmt.Errorf("max operations must not be negative, got %d", c.Bot.MaxOperations))
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together"))
	}
	if err := c.Indicators.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Addr is the listen address built from HOST and PORT.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// parser collects conversion errors so every bad variable is reported at once.
type parser struct {
	errs []error
}

func (p *parser) getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return fallback
	}
	return n
}

func (p *parser) getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a number", key, v))
		return fallback
	}
	return f
}

func (p *parser) getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return fallback
	}
	return b
}

func (p *parser) getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return fallback
	}
	return d
}
