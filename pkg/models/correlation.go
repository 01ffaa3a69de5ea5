package models

import "time"

// PooledTicker is the ticker name used for results computed across every ticker.
const PooledTicker = "ALL"

// Method selects the correlation statistic.
type Method string

const (
	MethodPearson  Method = "pearson"
	MethodSpearman Method = "spearman"
)

// Valid reports whether m names a supported statistic.
func (m Method) Valid() bool {
	return m == MethodPearson || m == MethodSpearman
}

// Status describes how a correlation result was reached.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusNoVariance       Status = "no_variance"
	StatusDataUnavailable  Status = "data_unavailable"
	StatusFetchFailed      Status = "fetch_failed"
)

// AlignedPoint pairs one day's sentiment with the return realized lag sessions later.
type AlignedPoint struct {
	Ticker        string    `json:"ticker"`
	SentimentDate time.Time `json:"sentiment_date"`
	ReturnDate    time.Time `json:"return_date"`
	Sentiment     float64   `json:"sentiment"`
	Return        float64   `json:"return"` // percent
	ArticleCount  int       `json:"article_count"`
}

// CorrelationResult is the association between sentiment and returns for one
// ticker (or PooledTicker). Coefficient and PValue are never NaN.
type CorrelationResult struct {
	Ticker       string    `json:"ticker"`
	Method       Method    `json:"method"`
	Lag          int       `json:"lag"`
	Coefficient  float64   `json:"coefficient"`
	PValue       float64   `json:"p_value"`
	SampleSize   int       `json:"sample_size"`
	Start        time.Time `json:"start,omitzero"`
	End          time.Time `json:"end,omitzero"`
	AvgSentiment float64   `json:"avg_sentiment"`
	ArticleCount int       `json:"article_count"`
	Status       Status    `json:"status"`
	Message      string    `json:"message,omitempty"`
}

// Significant reports whether the result is usable and below the given p-value.
func (r CorrelationResult) Significant(alpha float64) bool {
	return r.Status == StatusOK && r.PValue < alpha
}

// VolatilityBucket is the mean intraday range observed on days with a given article count.
type VolatilityBucket struct {
	ArticleCount int     `json:"article_count"`
	Days         int     `json:"days"`
	MeanRange    float64 `json:"mean_range"` // percent of open
}
