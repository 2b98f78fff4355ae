package config

import (
	"fmt"
	"time"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/config"

	"github.com/shopspring/decimal"
)

// Broker holds the KIS overseas brokerage API configuration.
type Broker struct {
	BaseURL             string        `mapstructure:"base_url"`
	AppKey              string        `mapstructure:"app_key"`
	AppSecret           string        `mapstructure:"app_secret"`
	AccountNumber       string        `mapstructure:"account_number"`
	AccountProductCode  string        `mapstructure:"account_product_code"`
	Mock                bool          `mapstructure:"mock"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerSecond int           `mapstructure:"max_request_per_second"`
	QuoteCacheTTL       time.Duration `mapstructure:"quote_cache_ttl"`
	// CashReferenceTicker is the symbol sent with the orderable amount inquiry.
	CashReferenceTicker string `mapstructure:"cash_reference_ticker"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Trading holds the decision thresholds and order sizing.
type Trading struct {
	Scoring           trading.ScoringConfig  `mapstructure:"scoring"`
	Sell              trading.SellThresholds `mapstructure:"sell"`
	MaxStocksToBuy    int                    `mapstructure:"max_stocks_to_buy"`
	MaxAmountPerStock float64                `mapstructure:"max_amount_per_stock"`
	DryRun            bool                   `mapstructure:"dry_run"`
	// SignalStore selects the signal repository variant: "postgres" or "redis".
	SignalStore   string        `mapstructure:"signal_store"`
	PriceLookback int           `mapstructure:"price_lookback"`
	TickerLockTTL time.Duration `mapstructure:"ticker_lock_ttl"`
}

// PerStockCap returns MaxAmountPerStock as a decimal.
func (t Trading) PerStockCap() decimal.Decimal {
	return decimal.NewFromFloat(t.MaxAmountPerStock)
}

// Scheduler holds the in-process cron scheduler configuration.
type Scheduler struct {
	Enabled bool         `mapstructure:"enabled"`
	Jobs    []entity.Job `mapstructure:"jobs"`
}

// Stream holds the sell evaluation stream settings.
type Stream struct {
	SellEvaluationTimeout         time.Duration `mapstructure:"sell_evaluation_timeout"`
	SellEvaluationRetryInterval   time.Duration `mapstructure:"sell_evaluation_retry_interval"`
	SellEvaluationMaxIdleDuration time.Duration `mapstructure:"sell_evaluation_max_idle_duration"`
	SellEvaluationMaxRetry        int           `mapstructure:"sell_evaluation_max_retry"`
}

// Config holds the full configuration for the trading service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Kafka     config.Kafka    `mapstructure:"kafka"`
	Tracing   config.Tracing  `mapstructure:"tracing"`
	Broker    Broker          `mapstructure:"broker"`
	Telegram  Telegram        `mapstructure:"telegram"`
	Trading   Trading         `mapstructure:"trading"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
	Stream    Stream          `mapstructure:"stream"`
}

// Default returns a configuration populated with the documented defaults.
// Values read from file or environment override these.
func Default() Config {
	return Config{
		App:    config.App{Name: "stock-auto-trader", Env: "development", Version: "1.0.0"},
		Logger: config.Logger{Level: "info", Encoding: "json"},
		API:    config.API{Port: 8080},
		Broker: Broker{
			BaseURL:             "https://openapi.koreainvestment.com:9443",
			Timeout:             10 * time.Second,
			MaxRequestPerSecond: 15,
			QuoteCacheTTL:       5 * time.Second,
			CashReferenceTicker: "AAPL",
		},
		Trading: Trading{
			Scoring:           trading.DefaultScoringConfig(),
			Sell:              trading.DefaultSellThresholds(),
			MaxStocksToBuy:    5,
			MaxAmountPerStock: 10000,
			SignalStore:       "postgres",
			PriceLookback:     180,
			TickerLockTTL:     2 * time.Minute,
		},
		Stream: Stream{
			SellEvaluationTimeout:         30 * time.Second,
			SellEvaluationRetryInterval:   time.Minute,
			SellEvaluationMaxIdleDuration: 2 * time.Minute,
			SellEvaluationMaxRetry:        3,
		},
	}
}

// Validate rejects thresholds and sizing that are outside their sane ranges.
func (c *Config) Validate() error {
	if err := c.Trading.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Trading.Sell.Validate(); err != nil {
		return err
	}
	if c.Trading.MaxStocksToBuy < 0 {
		return &trading.ConfigurationError{Field: "trading.max_stocks_to_buy", Value: c.Trading.MaxStocksToBuy, Reason: "must be non-negative"}
	}
	if c.Trading.MaxAmountPerStock <= 0 {
		return &trading.ConfigurationError{Field: "trading.max_amount_per_stock", Value: c.Trading.MaxAmountPerStock, Reason: "must be positive"}
	}
	switch c.Trading.SignalStore {
	case "postgres", "redis":
	default:
		return &trading.ConfigurationError{Field: "trading.signal_store", Value: c.Trading.SignalStore, Reason: "must be postgres or redis"}
	}
	for _, job := range c.Scheduler.Jobs {
		switch job.Type {
		case entity.JobTypeAutoBuy, entity.JobTypeSellMonitor, entity.JobTypeTechnicalRefresh:
		default:
			return fmt.Errorf("job %q has unknown type %q", job.Name, job.Type)
		}
	}
	return nil
}

// Load loads the trading service configuration from the given path and
// validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
