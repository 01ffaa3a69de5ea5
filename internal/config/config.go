// Package config handles configuration loading for the news impact analyzer.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Analysis  AnalysisConfig  `mapstructure:"analysis"  yaml:"analysis"  json:"analysis"`
	Sentiment SentimentConfig `mapstructure:"sentiment" yaml:"sentiment" json:"sentiment"`
	News      NewsConfig      `mapstructure:"news"      yaml:"news"      json:"news"`
	Prices    PricesConfig    `mapstructure:"prices"    yaml:"prices"    json:"prices"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"   json:"storage"`
	Output    OutputConfig    `mapstructure:"output"    yaml:"output"    json:"output"`
	Monitor   MonitorConfig   `mapstructure:"monitor"   yaml:"monitor"   json:"monitor"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"       json:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"   json:"logging"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-" yaml:"-" json:"-"`
}

// AnalysisConfig holds correlation run settings.
type AnalysisConfig struct {
	Tickers           []string `mapstructure:"tickers"            yaml:"tickers"            json:"tickers"`
	LookbackDays      int      `mapstructure:"lookback_days"      yaml:"lookback_days"      json:"lookback_days"`
	Lag               int      `mapstructure:"lag"                yaml:"lag"                json:"lag"`     // trading sessions between news and return
	MaxLag            int      `mapstructure:"max_lag"            yaml:"max_lag"            json:"max_lag"` // lag sweep upper bound, 0 disables
	Method            string   `mapstructure:"method"             yaml:"method"             json:"method"`  // "pearson" or "spearman"
	MinSamples        int      `mapstructure:"min_samples"        yaml:"min_samples"        json:"min_samples"`
	RollWeekendNews   bool     `mapstructure:"roll_weekend_news"  yaml:"roll_weekend_news"  json:"roll_weekend_news"`
	CacheTTL          int      `mapstructure:"cache_ttl"          yaml:"cache_ttl"          json:"cache_ttl"` // seconds
	ConcurrentFetches int      `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches" json:"concurrent_fetches"`
}

// SentimentConfig holds scorer settings.
type SentimentConfig struct {
	Threshold   float64 `mapstructure:"threshold"    yaml:"threshold"    json:"threshold"`
	LexiconFile string  `mapstructure:"lexicon_file" yaml:"lexicon_file" json:"lexicon_file"`
}

// NewsConfig selects and configures the news provider.
type NewsConfig struct {
	Provider   string   `mapstructure:"provider"    yaml:"provider"    json:"provider"` // "rss", "newsapi", "sample"
	NewsAPIKey string   `mapstructure:"newsapi_key" yaml:"newsapi_key" json:"-"`
	NewsAPIURL string   `mapstructure:"newsapi_url" yaml:"newsapi_url" json:"newsapi_url"`
	Feeds      []string `mapstructure:"feeds"       yaml:"feeds"       json:"feeds"`
	PageSize   int      `mapstructure:"page_size"   yaml:"page_size"   json:"page_size"`
}

// PricesConfig selects and configures the price provider.
type PricesConfig struct {
	Provider string       `mapstructure:"provider" yaml:"provider" json:"provider"` // "yahoo" or "alpaca"
	Alpaca   AlpacaConfig `mapstructure:"alpaca"   yaml:"alpaca"   json:"alpaca"`
}

// AlpacaConfig holds Alpaca market data credentials.
type AlpacaConfig struct {
	APIKey    string `mapstructure:"api_key"    yaml:"api_key"    json:"-"`
	APISecret string `mapstructure:"api_secret" yaml:"api_secret" json:"-"`
	Feed      string `mapstructure:"feed"       yaml:"feed"       json:"feed"` // "iex" or "sip"
}

// StorageConfig selects where analysis runs are kept.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"       yaml:"driver"       json:"driver"` // "memory" or "postgres"
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn" json:"-"`
	MaxConns    int32  `mapstructure:"max_conns"    yaml:"max_conns"    json:"max_conns"`
}

// OutputConfig controls artifact generation.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"        yaml:"dir"        json:"dir"`
	SaveData  bool   `mapstructure:"save_data"  yaml:"save_data"  json:"save_data"`
	Visualize bool   `mapstructure:"visualize"  yaml:"visualize"  json:"visualize"`
	PDF       bool   `mapstructure:"pdf"        yaml:"pdf"        json:"pdf"`
}

// MonitorConfig holds monitor mode settings.
type MonitorConfig struct {
	Interval   time.Duration `mapstructure:"interval"    yaml:"interval"    json:"interval"`
	Duration   time.Duration `mapstructure:"duration"    yaml:"duration"    json:"duration"` // 0 runs until interrupted
	WindowDays int           `mapstructure:"window_days" yaml:"window_days" json:"window_days"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.newsimpact/config.yaml (home directory)
//  3. /etc/newsimpact/config.yaml (system)
//
// Environment variables override config file values.
// Format: NEWSIMPACT_<SECTION>_<KEY>, e.g., NEWSIMPACT_NEWS_NEWSAPI_KEY
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newsimpact"))
	v.AddConfigPath("/etc/newsimpact")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("NEWSIMPACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Analysis.Method {
	case "pearson", "spearman":
	default:
		return fmt.Errorf("analysis.method: unsupported %q (want pearson or spearman)", c.Analysis.Method)
	}
	if c.Analysis.Lag < 0 || c.Analysis.MaxLag < 0 {
		return fmt.Errorf("analysis.lag: must not be negative")
	}
	if c.Sentiment.Threshold < 0 || c.Sentiment.Threshold >= 1 {
		return fmt.Errorf("sentiment.threshold: %v out of range [0,1)", c.Sentiment.Threshold)
	}
	switch c.News.Provider {
	case "rss", "newsapi", "sample":
	default:
		return fmt.Errorf("news.provider: unsupported %q", c.News.Provider)
	}
	switch c.Prices.Provider {
	case "yahoo", "alpaca":
	default:
		return fmt.Errorf("prices.provider: unsupported %q", c.Prices.Provider)
	}
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("storage.driver: unsupported %q", c.Storage.Driver)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Analysis defaults
	v.SetDefault("analysis.tickers", []string{"AAPL", "MSFT", "GOOGL"})
	v.SetDefault("analysis.lookback_days", 30)
	v.SetDefault("analysis.lag", 1) // next-session return
	v.SetDefault("analysis.max_lag", 3)
	v.SetDefault("analysis.method", "pearson")
	v.SetDefault("analysis.min_samples", 3)
	v.SetDefault("analysis.roll_weekend_news", true)
	v.SetDefault("analysis.cache_ttl", 300) // 5 minutes
	v.SetDefault("analysis.concurrent_fetches", 5)

	// Sentiment defaults
	v.SetDefault("sentiment.threshold", 0.2)

	// News defaults
	v.SetDefault("news.provider", "rss")
	v.SetDefault("news.newsapi_url", "https://newsapi.org/v2/everything")
	v.SetDefault("news.page_size", 100)

	// Price defaults
	v.SetDefault("prices.provider", "yahoo")
	v.SetDefault("prices.alpaca.feed", "iex")

	// Storage defaults
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.max_conns", 4)

	// Output defaults
	v.SetDefault("output.dir", "results")
	v.SetDefault("output.save_data", false)
	v.SetDefault("output.visualize", true)

	// Monitor defaults
	v.SetDefault("monitor.interval", time.Hour)
	v.SetDefault("monitor.window_days", 7)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// NEWS_API_KEY is honoured for setups that predate the prefixed name.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("NEWS_API_KEY"); key != "" && cfg.News.NewsAPIKey == "" {
		cfg.News.NewsAPIKey = key
	}
	if key := os.Getenv("NEWSIMPACT_NEWS_NEWSAPI_KEY"); key != "" {
		cfg.News.NewsAPIKey = key
	}
	if key := os.Getenv("NEWSIMPACT_PRICES_ALPACA_API_KEY"); key != "" {
		cfg.Prices.Alpaca.APIKey = key
	}
	if key := os.Getenv("NEWSIMPACT_PRICES_ALPACA_API_SECRET"); key != "" {
		cfg.Prices.Alpaca.APISecret = key
	}
	if dsn := os.Getenv("NEWSIMPACT_STORAGE_POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
