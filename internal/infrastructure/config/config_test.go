package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg = applyDefaults(cfg)

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.MarketData.Provider != "stooq" || cfg.MarketData.Timeout != 15*time.Second {
		t.Errorf("unexpected market data defaults: %+v", cfg.MarketData)
	}
	if cfg.Analysis.Concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.Analysis.Concurrency)
	}
	if cfg.Refresh.Cron != "0 30 22 * * 1-5" || cfg.Refresh.LookbackDays != 120 {
		t.Errorf("unexpected refresh defaults: %+v", cfg.Refresh)
	}
	if cfg.Fundamentals.RequestDelay != 400*time.Millisecond {
		t.Errorf("unexpected fundamentals delay: %v", cfg.Fundamentals.RequestDelay)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MARKET_DATA_PROVIDER", "YAHOO")
	t.Setenv("ANALYSIS_CONCURRENCY", "8")
	t.Setenv("REFRESH_ENABLED", "true")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("TELEGRAM_ENABLED", "true")
	t.Setenv("YAHOO_COOKIE", " B=abc ")
	t.Setenv("YAHOO_DISABLED", "true")

	cfg := Config{}
	cfg = applyEnv(cfg)

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.HTTP.Addr)
	}
	if cfg.MarketData.Provider != "yahoo" || cfg.Analysis.Concurrency != 8 || !cfg.Refresh.Enabled {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.Notifier.Telegram.ChatID != 12345 || !cfg.Notifier.Telegram.Enabled {
		t.Errorf("telegram env not applied: %+v", cfg.Notifier.Telegram)
	}
	if cfg.MarketData.YahooCookie != "B=abc" || !cfg.MarketData.YahooDisabled {
		t.Errorf("yahoo env not applied: %+v", cfg.MarketData)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
http:
  addr: ":7000"
market_data:
  provider: yahoo
  timeout: 5s
refresh:
  enabled: true
  analyze_groups: true
history:
  sqlite_path: /tmp/scores.db
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Addr != ":7000" || cfg.MarketData.Provider != "yahoo" || cfg.MarketData.Timeout != 5*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.Refresh.Enabled || !cfg.Refresh.AnalyzeGroups || cfg.History.SQLitePath != "/tmp/scores.db" {
		t.Errorf("unexpected refresh/history: %+v %+v", cfg.Refresh, cfg.History)
	}

	missing, err := LoadFromFile(filepath.Join(dir, "nope.yaml"))
	if err != nil || missing.HTTP.Addr == "" {
		t.Errorf("missing file should fall back to defaults, got %+v, %v", missing, err)
	}
}

func TestConfig_ValidateProvider(t *testing.T) {
	cfg := applyDefaults(Config{MarketData: MarketDataConfig{Provider: "bloomberg"}})
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected provider validation error")
	}
}
