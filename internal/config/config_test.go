package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shanehull/dartalert/internal/filter"
	"github.com/shanehull/dartalert/internal/history"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dartalert.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Interval() != 3*time.Second {
		t.Errorf("Interval = %s, want 3s", cfg.Interval())
	}
	if cfg.Location().String() != "Asia/Seoul" {
		t.Errorf("Location = %s", cfg.Location())
	}
	w := cfg.Window()
	if w == nil || w.String() != "평일 09:00~21:40" {
		t.Errorf("Window = %v", w)
	}
	if cfg.DedupMode() != history.ModeStrict {
		t.Errorf("DedupMode = %v", cfg.DedupMode())
	}
	if cfg.TelegramEnabled() || cfg.EmailEnabled() || cfg.KafkaEnabled() {
		t.Error("no channel should be enabled without credentials")
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
dart:
  page_count: 50
monitor:
  interval_sec: 10
  trading_hours: false
  dedup_mode: loose
filter:
  ratio_threshold: 30
  missing_ratio: pass
kafka:
  brokers: ["localhost:9092"]
  topic: dart.alerts
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DART.PageCount != 50 || cfg.DART.TimeoutSec != 5 {
		t.Errorf("dart = %+v", cfg.DART)
	}
	if cfg.Interval() != 10*time.Second {
		t.Errorf("Interval = %s", cfg.Interval())
	}
	if cfg.Window() != nil {
		t.Error("Window should be nil with trading_hours off")
	}
	if cfg.DedupMode() != history.ModeLoose {
		t.Errorf("DedupMode = %v", cfg.DedupMode())
	}

	p := cfg.Policy()
	want := filter.Policy{RatioThreshold: 30, TestRatioThreshold: 10, ExtremeRatio: 50, MissingRatio: filter.MissingRatioPass}
	if p != want {
		t.Errorf("Policy = %+v, want %+v", p, want)
	}
	if !cfg.KafkaEnabled() {
		t.Error("kafka should be enabled")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "monitor: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(lookupFrom(map[string]string{
		"DART_API_KEY":       "dart-key",
		"TELEGRAM_BOT_TOKEN": "123:abc",
		"TELEGRAM_CHAT_ID":   "-100",
		"SMTP_USER":          "me@example.com",
		"SMTP_PASS":          "secret",
		"SMTP_TO":            "you@example.com",
		"SMTP_PORT":          "465",
		"KAFKA_BROKERS":      "a:9092, b:9092,",
		"KAFKA_TOPIC":        "alerts",
		"DARTALERT_ADDR":     "",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.DART.APIKey != "dart-key" || cfg.Telegram.ChatID != "-100" {
		t.Errorf("credentials not applied: %+v %+v", cfg.DART, cfg.Telegram)
	}
	if cfg.Email.SMTPPort != 465 || !cfg.EmailEnabled() {
		t.Errorf("email = %+v", cfg.Email)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("brokers = %q", cfg.Kafka.Brokers)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("empty env value overrode addr: %q", cfg.Server.Addr)
	}
	if !cfg.TelegramEnabled() {
		t.Error("telegram should be enabled")
	}
}

func TestApplyEnv_BadPort(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(lookupFrom(map[string]string{"SMTP_PORT": "smtp"})); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"zero interval", func(c *Config) { c.Monitor.IntervalSec = 0 }, ErrInvalidInterval},
		{"page count too large", func(c *Config) { c.DART.PageCount = 101 }, ErrInvalidPageCount},
		{"zero timeout", func(c *Config) { c.DART.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"window reversed", func(c *Config) { c.Monitor.WindowStart = "22:00" }, ErrInvalidWindow},
		{"negative threshold", func(c *Config) { c.Filter.RatioThreshold = -1 }, ErrInvalidThreshold},
		{"extreme below ratio", func(c *Config) { c.Filter.ExtremeRatio = 15 }, ErrExtremeBelowRatio},
		{"unknown missing ratio", func(c *Config) { c.Filter.MissingRatio = "maybe" }, ErrInvalidMissingRatio},
		{"unknown dedup mode", func(c *Config) { c.Monitor.DedupMode = "fuzzy" }, ErrInvalidDedupMode},
		{"kafka without topic", func(c *Config) { c.Kafka.Brokers = []string{"a:9092"} }, ErrKafkaTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidate_BadClockAndZone(t *testing.T) {
	cfg := Default()
	cfg.Monitor.WindowEnd = "9pm"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for malformed window_end")
	}

	cfg = Default()
	cfg.Monitor.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
