// Package config loads dartalert settings from an optional YAML file, the
// environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/shanehull/dartalert/internal/filter"
	"github.com/shanehull/dartalert/internal/history"
	"github.com/shanehull/dartalert/internal/monitor"
)

// Configuration validation errors.
var (
	ErrInvalidInterval     = errors.New("monitor.interval_sec must be at least 1")
	ErrInvalidPageCount    = errors.New("dart.page_count must be between 1 and 100")
	ErrInvalidTimeout      = errors.New("dart.timeout_sec must be at least 1")
	ErrInvalidWindow       = errors.New("monitor.window_start must be before monitor.window_end")
	ErrInvalidThreshold    = errors.New("filter thresholds must be positive")
	ErrExtremeBelowRatio   = errors.New("filter.extreme_ratio cannot be below filter.ratio_threshold")
	ErrInvalidMissingRatio = errors.New("filter.missing_ratio must be 'block' or 'pass'")
	ErrInvalidDedupMode    = errors.New("monitor.dedup_mode must be 'strict' or 'loose'")
	ErrKafkaTopic          = errors.New("kafka.topic is required when kafka.brokers is set")
)

type Config struct {
	DART     DARTConfig     `yaml:"dart"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Filter   FilterConfig   `yaml:"filter"`
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Server   ServerConfig   `yaml:"server"`
}

type DARTConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	PageCount  int    `yaml:"page_count"`
	// BodyLimit caps the sanitized body shown in alerts, in characters.
	BodyLimit int `yaml:"body_limit"`
}

type MonitorConfig struct {
	IntervalSec     int    `yaml:"interval_sec"`
	Timezone        string `yaml:"timezone"`
	TradingHours    bool   `yaml:"trading_hours"`
	WindowStart     string `yaml:"window_start"`
	WindowEnd       string `yaml:"window_end"`
	DedupCapacity   int    `yaml:"dedup_capacity"`
	DedupMode       string `yaml:"dedup_mode"`
	BackfillDelayMs int    `yaml:"backfill_delay_ms"`
	// AttachBody fetches the document for every hot disclosure, even when
	// the title alone decided it, so the alert can show the body.
	AttachBody bool `yaml:"attach_body"`
}

type FilterConfig struct {
	RatioThreshold     float64 `yaml:"ratio_threshold"`
	TestRatioThreshold float64 `yaml:"test_ratio_threshold"`
	ExtremeRatio       float64 `yaml:"extreme_ratio"`
	MissingRatio       string  `yaml:"missing_ratio"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chat_id"`
	APIURL string `yaml:"api_url"`
	// Commands enables the /on /off /status /test bot commands.
	Commands bool `yaml:"commands"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	SMTPUser   string `yaml:"smtp_user"`
	SMTPPass   string `yaml:"smtp_pass"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	p := filter.DefaultPolicy()
	return &Config{
		DART: DARTConfig{
			BaseURL:    "https://opendart.fss.or.kr/api",
			TimeoutSec: 5,
			PageCount:  20,
			BodyLimit:  500,
		},
		Monitor: MonitorConfig{
			IntervalSec:     3,
			Timezone:        "Asia/Seoul",
			TradingHours:    true,
			WindowStart:     "09:00",
			WindowEnd:       "21:40",
			DedupCapacity:   history.DefaultCapacity,
			DedupMode:       history.ModeStrict.String(),
			BackfillDelayMs: 500,
		},
		Filter: FilterConfig{
			RatioThreshold:     p.RatioThreshold,
			TestRatioThreshold: p.TestRatioThreshold,
			ExtremeRatio:       p.ExtremeRatio,
			MissingRatio:       string(p.MissingRatio),
		},
		Telegram: TelegramConfig{
			Commands: true,
		},
		Email: EmailConfig{
			SMTPServer: "smtp.gmail.com",
			SMTPPort:   587,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults. Environment overrides are applied afterwards and the result
// is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("DART_API_KEY", &c.DART.APIKey)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.Token)
	str("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	str("SMTP_SERVER", &c.Email.SMTPServer)
	str("SMTP_USER", &c.Email.SMTPUser)
	str("SMTP_PASS", &c.Email.SMTPPass)
	str("SMTP_FROM", &c.Email.FromEmail)
	str("SMTP_TO", &c.Email.ToEmail)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	str("DARTALERT_ADDR", &c.Server.Addr)

	if v, ok := lookup("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		c.Email.SMTPPort = port
	}

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Monitor.IntervalSec < 1 {
		return ErrInvalidInterval
	}
	if c.DART.PageCount < 1 || c.DART.PageCount > 100 {
		return ErrInvalidPageCount
	}
	if c.DART.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if _, err := time.LoadLocation(c.Monitor.Timezone); err != nil {
		return fmt.Errorf("monitor.timezone %q: %w", c.Monitor.Timezone, err)
	}
	start, err := monitor.ParseClock(c.Monitor.WindowStart)
	if err != nil {
		return fmt.Errorf("monitor.window_start: %w", err)
	}
	end, err := monitor.ParseClock(c.Monitor.WindowEnd)
	if err != nil {
		return fmt.Errorf("monitor.window_end: %w", err)
	}
	if start >= end {
		return ErrInvalidWindow
	}

	switch strings.ToLower(c.Monitor.DedupMode) {
	case "", "strict", "loose":
	default:
		return ErrInvalidDedupMode
	}

	f := c.Filter
	if f.RatioThreshold <= 0 || f.TestRatioThreshold <= 0 || f.ExtremeRatio <= 0 {
		return ErrInvalidThreshold
	}
	if f.ExtremeRatio < f.RatioThreshold {
		return ErrExtremeBelowRatio
	}
	switch filter.MissingRatioPolicy(f.MissingRatio) {
	case filter.MissingRatioBlock, filter.MissingRatioPass:
	default:
		return ErrInvalidMissingRatio
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return ErrKafkaTopic
	}
	return nil
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.Monitor.IntervalSec) * time.Second
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DART.TimeoutSec) * time.Second
}

func (c *Config) BackfillDelay() time.Duration {
	return time.Duration(c.Monitor.BackfillDelayMs) * time.Millisecond
}

// Location returns the monitor time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Monitor.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Window returns the trading-hours gate, or nil when the gate is disabled.
func (c *Config) Window() *monitor.Window {
	if !c.Monitor.TradingHours {
		return nil
	}
	start, _ := monitor.ParseClock(c.Monitor.WindowStart)
	end, _ := monitor.ParseClock(c.Monitor.WindowEnd)
	return &monitor.Window{Start: start, End: end, Location: c.Location()}
}

func (c *Config) Policy() filter.Policy {
	return filter.Policy{
		RatioThreshold:     c.Filter.RatioThreshold,
		TestRatioThreshold: c.Filter.TestRatioThreshold,
		ExtremeRatio:       c.Filter.ExtremeRatio,
		MissingRatio:       filter.MissingRatioPolicy(c.Filter.MissingRatio),
	}
}

func (c *Config) DedupMode() history.Mode {
	return history.ParseMode(c.Monitor.DedupMode)
}

func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != ""
}

func (c *Config) EmailEnabled() bool {
	e := c.Email
	return e.SMTPServer != "" && e.SMTPUser != "" && e.SMTPPass != "" && e.ToEmail != ""
}

func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
