package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Symbols []string `envconfig:"SYMBOLS" default:"AAPL,MSFT,BTC-USD"`

	Risk       RiskConfig       `envconfig:"RISK"`
	Refresh    RefreshConfig    `envconfig:"REFRESH"`
	Prices     PricesConfig     `envconfig:"PRICES"`
	News       NewsConfig       `envconfig:"NEWS"`
	AI         AIConfig         `envconfig:"AI"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Database   DatabaseConfig   `envconfig:"DB"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Health     HealthConfig     `envconfig:"HEALTH"`
	Logging    LoggingConfig    `envconfig:"LOG"`
	Migrations MigrationsConfig `envconfig:"MIGRATIONS"`
}

// RiskConfig holds scoring and forecasting parameters
type RiskConfig struct {
	MarketWeight        float64 `envconfig:"MARKET_WEIGHT" default:"0.6"`
	NewsWeight          float64 `envconfig:"NEWS_WEIGHT" default:"0.4"`
	BackfillDays        int     `envconfig:"BACKFILL_DAYS" default:"90"`
	BackfillCommitEvery int     `envconfig:"BACKFILL_COMMIT_EVERY" default:"10"`
	ForecastDaysAhead   int     `envconfig:"FORECAST_DAYS_AHEAD" default:"7"`
	ForecastHorizons    []int   `envconfig:"FORECAST_HORIZONS" default:"1,3,7"`
	TrendWindowDays     int     `envconfig:"TREND_WINDOW_DAYS" default:"30"`
	PatternWindowDays   int     `envconfig:"PATTERN_WINDOW_DAYS" default:"14"`
	NewsWindowDays      int     `envconfig:"NEWS_WINDOW_DAYS" default:"7"`
	AlertThreshold      float64 `envconfig:"ALERT_THRESHOLD" default:"70"`
}

// RefreshConfig controls the periodic pipeline
type RefreshConfig struct {
	Interval     time.Duration `envconfig:"INTERVAL" default:"30m"`
	BackfillCron string        `envconfig:"BACKFILL_CRON" default:"15 2 * * *"`
	LockTTL      time.Duration `envconfig:"LOCK_TTL" default:"5m"`
}

// PricesConfig controls daily bar ingestion
type PricesConfig struct {
	HistoryDays    int           `envconfig:"HISTORY_DAYS" default:"120"`
	BinanceEnabled bool          `envconfig:"BINANCE_ENABLED" default:"true"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

// NewsConfig represents news ingestion configuration
type NewsConfig struct {
	GoogleEnabled   bool          `envconfig:"GOOGLE_ENABLED" default:"true"`
	CoinDeskEnabled bool          `envconfig:"COINDESK_ENABLED" default:"true"`
	MaxArticles     int           `envconfig:"MAX_ARTICLES" default:"20"`
	Timeout         time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

// AIConfig represents LLM sentiment configuration
type AIConfig struct {
	OpenAI        OpenAIConfig  `envconfig:"OPENAI"`
	RatePerMinute int           `envconfig:"RATE_PER_MINUTE" default:"20"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// OpenAIConfig represents OpenAI credentials and model
type OpenAIConfig struct {
	APIKey  string `envconfig:"API_KEY" required:"false"`
	Model   string `envconfig:"MODEL" default:"gpt-3.5-turbo"`
	BaseURL string `envconfig:"BASE_URL" required:"false"`
}

// TelegramConfig represents Telegram alert configuration
type TelegramConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	BotToken string `envconfig:"BOT_TOKEN" required:"false"`
	ChatID   int64  `envconfig:"CHAT_ID" required:"false"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"5432"`
	Name     string `envconfig:"NAME" default:"risklattice"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASSWORD" required:"false"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
}

// RedisConfig represents Redis connection parameters
type RedisConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"true"`
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD" required:"false"`
	DB       int    `envconfig:"DB" default:"0"`
}

// ClickHouseConfig represents ClickHouse connection parameters
type ClickHouseConfig struct {
	Enabled       bool          `envconfig:"ENABLED" default:"false"`
	Host          string        `envconfig:"HOST" default:"localhost"`
	Port          int           `envconfig:"PORT" default:"9000"`
	Database      string        `envconfig:"DATABASE" default:"risklattice"`
	User          string        `envconfig:"USER" default:"default"`
	Password      string        `envconfig:"PASSWORD" required:"false"`
	BatchSize     int           `envconfig:"BATCH_SIZE" default:"500"`
	FlushInterval time.Duration `envconfig:"FLUSH_INTERVAL" default:"30s"`
}

// HealthConfig represents health server configuration
type HealthConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
	File  string `envconfig:"FILE" default:"logs/risklattice.log"`
}

// MigrationsConfig points at SQL migration files
type MigrationsConfig struct {
	Path string `envconfig:"PATH" default:"./migrations"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// normalize trims and upper-cases symbols, dropping blanks
func (c *Config) normalize() {
	symbols := make([]string, 0, len(c.Symbols))
	for _, s := range c.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	c.Symbols = symbols
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}

	if c.Risk.MarketWeight < 0 || c.Risk.MarketWeight > 1 {
		return fmt.Errorf("market weight must be between 0 and 1")
	}
	if c.Risk.NewsWeight < 0 || c.Risk.NewsWeight > 1 {
		return fmt.Errorf("news weight must be between 0 and 1")
	}

	if c.Risk.BackfillDays <= 0 {
		return fmt.Errorf("backfill days must be positive")
	}
	if c.Risk.BackfillCommitEvery <= 0 {
		return fmt.Errorf("backfill commit size must be positive")
	}
	if c.Risk.ForecastDaysAhead <= 0 {
		return fmt.Errorf("forecast days ahead must be positive")
	}
	for _, h := range c.Risk.ForecastHorizons {
		if h <= 0 {
			return fmt.Errorf("forecast horizon %d must be positive", h)
		}
	}
	if c.Risk.TrendWindowDays <= 0 || c.Risk.PatternWindowDays <= 0 || c.Risk.NewsWindowDays <= 0 {
		return fmt.Errorf("analysis windows must be positive")
	}

	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram alerts require bot token and chat id")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetAddr returns Redis host:port
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetDSN returns ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf(
		"clickhouse://%s:%s@%s:%d/%s",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// Horizons returns forecast horizons, falling back to the single default horizon
func (c *RiskConfig) Horizons() []int {
	if len(c.ForecastHorizons) == 0 {
		return []int{c.ForecastDaysAhead}
	}
	return c.ForecastHorizons
}

// AIEnabled reports whether an LLM key is configured
func (c *AIConfig) AIEnabled() bool {
	return c.OpenAI.APIKey != ""
}
