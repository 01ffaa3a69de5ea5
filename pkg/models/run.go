package models

import "time"

// Mode identifies which command produced a run.
type Mode string

const (
	ModeAnalyze Mode = "analyze"
	ModeCompare Mode = "compare"
	ModeMonitor Mode = "monitor"
)

// RunRequest captures the parameters of one analysis.
type RunRequest struct {
	Tickers []string  `json:"tickers"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Lag     int       `json:"lag"`
	Method  Method    `json:"method"`
	Sectors []string  `json:"sectors,omitempty"`
}

// TickerReport bundles everything computed for one ticker during a run.
type TickerReport struct {
	Ticker     string              `json:"ticker"`
	Articles   []ArticleSentiment  `json:"articles"`
	Daily      []SentimentScore    `json:"daily"`
	Bars       []PriceBar          `json:"bars"`
	Points     []AlignedPoint      `json:"points"`
	Result     CorrelationResult   `json:"result"`
	LagSweep   []CorrelationResult `json:"lag_sweep,omitempty"`
	Volatility []VolatilityBucket  `json:"volatility,omitempty"`
	NewsError  string              `json:"news_error,omitempty"`
	PriceError string              `json:"price_error,omitempty"`
}

// AnalysisRun is the full output of one pipeline invocation.
type AnalysisRun struct {
	ID         string            `json:"id"`
	Mode       Mode              `json:"mode"`
	Request    RunRequest        `json:"request"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Tickers    []TickerReport    `json:"tickers"`
	Pooled     CorrelationResult `json:"pooled"`
}

// Results returns the per-ticker results in run order.
func (r *AnalysisRun) Results() []CorrelationResult {
	out := make([]CorrelationResult, 0, len(r.Tickers))
	for _, t := range r.Tickers {
		out = append(out, t.Result)
	}
	return out
}

// Ticker returns the report for ticker, or nil.
func (r *AnalysisRun) Ticker(ticker string) *TickerReport {
	for i := range r.Tickers {
		if r.Tickers[i].Ticker == ticker {
			return &r.Tickers[i]
		}
	}
	return nil
}

// Summary condenses the run for listings.
func (r *AnalysisRun) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		Mode:       r.Mode,
		Tickers:    append([]string(nil), r.Request.Tickers...),
		From:       r.Request.From,
		To:         r.Request.To,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Pooled:     r.Pooled,
	}
}

// RunSummary is the listing view of an AnalysisRun.
type RunSummary struct {
	ID         string            `json:"id"`
	Mode       Mode              `json:"mode"`
	Tickers    []string          `json:"tickers"`
	From       time.Time         `json:"from"`
	To         time.Time         `json:"to"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Pooled     CorrelationResult `json:"pooled"`
}
