package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存 HTTP API 及外部相依的執行設定。
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	DB           DBConfig           `yaml:"db"`
	MarketData   MarketDataConfig   `yaml:"market_data"`
	Analysis     AnalysisConfig     `yaml:"analysis"`
	Refresh      RefreshConfig      `yaml:"refresh"`
	History      HistoryConfig      `yaml:"history"`
	Notifier     NotifierConfig     `yaml:"notifier"`
	Fundamentals FundamentalsConfig `yaml:"fundamentals"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type MarketDataConfig struct {
	Provider  string        `yaml:"provider"` // stooq | yahoo
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	// YahooCookie 用於換取 quoteSummary crumb；未設定時不查 forward PE。
	YahooCookie   string `yaml:"yahoo_cookie"`
	YahooDisabled bool   `yaml:"yahoo_disabled"`
}

type AnalysisConfig struct {
	Concurrency         int `yaml:"concurrency"`
	DefaultLookbackDays int `yaml:"default_lookback_days"`
}

type RefreshConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Cron          string `yaml:"cron"`
	LookbackDays  int    `yaml:"lookback_days"`
	AnalyzeGroups bool   `yaml:"analyze_groups"`
}

// HistoryConfig 控制群組分數歷史；SQLitePath 空字串時不紀錄。
type HistoryConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// FundamentalsConfig 控制季報同步；RequestDelay 為逐檔請求間隔。
type FundamentalsConfig struct {
	RequestDelay time.Duration `yaml:"request_delay"`
}

type NotifierConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig 控制刷新完成後的群組分數摘要推播。
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
	Prefix  string `yaml:"prefix"`
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 檢查列舉型設定。
func (c Config) Validate() error {
	switch c.MarketData.Provider {
	case "stooq", "yahoo":
	default:
		return fmt.Errorf("unsupported market_data.provider %q", c.MarketData.Provider)
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be >= 1")
	}
	return nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.MarketData.Provider == "" {
		cfg.MarketData.Provider = "stooq"
	}
	if cfg.MarketData.Timeout == 0 {
		cfg.MarketData.Timeout = 15 * time.Second
	}
	if cfg.MarketData.UserAgent == "" {
		cfg.MarketData.UserAgent = defaultUserAgent
	}
	if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = 4
	}
	if cfg.Analysis.DefaultLookbackDays == 0 {
		cfg.Analysis.DefaultLookbackDays = 180
	}
	if cfg.Refresh.Cron == "" {
		cfg.Refresh.Cron = "0 30 22 * * 1-5"
	}
	if cfg.Refresh.LookbackDays == 0 {
		cfg.Refresh.LookbackDays = 120
	}
	if cfg.Fundamentals.RequestDelay == 0 {
		cfg.Fundamentals.RequestDelay = 400 * time.Millisecond
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("MARKET_DATA_PROVIDER"); val != "" {
		cfg.MarketData.Provider = strings.ToLower(val)
	}
	if val := os.Getenv("YAHOO_COOKIE"); val != "" {
		cfg.MarketData.YahooCookie = strings.TrimSpace(val)
	}
	if val := os.Getenv("YAHOO_DISABLED"); val != "" {
		cfg.MarketData.YahooDisabled = (strings.TrimSpace(val) == "true")
	}
	if val := os.Getenv("ANALYSIS_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.Concurrency = n
		}
	}
	if val := os.Getenv("REFRESH_ENABLED"); val != "" {
		cfg.Refresh.Enabled = (val == "true")
	}
	if val := os.Getenv("REFRESH_CRON"); val != "" {
		cfg.Refresh.Cron = val
	}
	if val := os.Getenv("REFRESH_ANALYZE_GROUPS"); val != "" {
		cfg.Refresh.AnalyzeGroups = (val == "true")
	}
	if val := os.Getenv("HISTORY_SQLITE_PATH"); val != "" {
		cfg.History.SQLitePath = val
	}
	if val := os.Getenv("TELEGRAM_TOKEN"); val != "" {
		cfg.Notifier.Telegram.Token = val
	}
	if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Notifier.Telegram.ChatID = id
		}
	}
	if val := os.Getenv("TELEGRAM_ENABLED"); val != "" {
		cfg.Notifier.Telegram.Enabled = (val == "true")
	}
	return cfg
}
