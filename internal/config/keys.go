package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "abc...xyz"
}

// CheckAPIKeys returns the status of the credentials the providers may need.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("NewsAPI Key", cfg.News.NewsAPIKey, "NEWSIMPACT_NEWS_NEWSAPI_KEY", "NEWS_API_KEY"),
		checkKey("Alpaca API Key", cfg.Prices.Alpaca.APIKey, "NEWSIMPACT_PRICES_ALPACA_API_KEY"),
		checkKey("Alpaca API Secret", cfg.Prices.Alpaca.APISecret, "NEWSIMPACT_PRICES_ALPACA_API_SECRET"),
		checkKey("Postgres DSN", cfg.Storage.PostgresDSN, "NEWSIMPACT_STORAGE_POSTGRES_DSN"),
	}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		status.Source = KeySourceConfig
		for _, e := range envVars {
			if os.Getenv(e) != "" {
				status.Source = KeySourceEnv
				break
			}
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = KeySourceNone
	}

	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}

// HasNewsAPIKey reports whether the NewsAPI provider can be used.
func (c *Config) HasNewsAPIKey() bool {
	return c.News.NewsAPIKey != ""
}

// HasAlpacaKeys reports whether both Alpaca credentials are present.
func (c *Config) HasAlpacaKeys() bool {
	return c.Prices.Alpaca.APIKey != "" && c.Prices.Alpaca.APISecret != ""
}
