// Package pipeline runs the collect, score and correlate stages for a set of
// tickers and assembles the result into a models.AnalysisRun.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/analysis/correlation"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/analysis/sentiment"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/datasource"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/observability"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

var (
	// ErrNoTickers is returned when a request resolves to no tickers.
	ErrNoTickers = errors.New("no tickers to analyze")

	// ErrInvalidMethod is returned for an unknown correlation method.
	ErrInvalidMethod = errors.New("unsupported correlation method")
)

// Settings are the analysis defaults and tuning knobs.
type Settings struct {
	Tickers         []string
	LookbackDays    int
	Lag             int
	MaxLag          int // 0 disables the lag sweep
	Method          models.Method
	MinSamples      int
	RollWeekendNews bool
}

// DefaultSettings mirrors the config defaults.
func DefaultSettings() Settings {
	return Settings{
		Tickers:         []string{"AAPL", "MSFT", "GOOGL"},
		LookbackDays:    30,
		Lag:             1,
		MaxLag:          3,
		Method:          models.MethodPearson,
		MinSamples:      correlation.DefaultMinSamples,
		RollWeekendNews: true,
	}
}

// Analyzer orchestrates one or more analysis runs.
type Analyzer struct {
	agg      *datasource.Aggregator
	scorer   *sentiment.Scorer
	store    store.RunStore
	metrics  *observability.Metrics
	logger   *slog.Logger
	settings Settings
	now      func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStore saves every completed run.
func WithStore(s store.RunStore) Option {
	return func(a *Analyzer) { a.store = s }
}

// WithMetrics records run and result metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(a *Analyzer) { a.settings = s }
}

// WithClock overrides time.Now for run timestamps and default date ranges.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// New creates an Analyzer.
func New(agg *datasource.Aggregator, scorer *sentiment.Scorer, opts ...Option) *Analyzer {
	a := &Analyzer{
		agg:      agg,
		scorer:   scorer,
		logger:   slog.Default(),
		settings: DefaultSettings(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	if a.scorer == nil {
		a.scorer = sentiment.NewScorer()
	}
	return a
}

// Settings returns the analyzer's settings.
func (a *Analyzer) Settings() Settings { return a.settings }

// Store returns the configured run store, or nil.
func (a *Analyzer) Store() store.RunStore { return a.store }

// DefaultRequest returns a request populated from the settings.
func (a *Analyzer) DefaultRequest() models.RunRequest {
	return models.RunRequest{
		Tickers: append([]string(nil), a.settings.Tickers...),
		Lag:     a.settings.Lag,
		Method:  a.settings.Method,
	}
}

// normalize fills defaults and validates req.
func (a *Analyzer) normalize(req models.RunRequest) (models.RunRequest, error) {
	req.Tickers = utils.ParseTickers(req.Tickers...)
	if len(req.Tickers) == 0 {
		req.Tickers = utils.ParseTickers(a.settings.Tickers...)
	}
	if len(req.Tickers) == 0 {
		return req, ErrNoTickers
	}
	if req.Method == "" {
		req.Method = a.settings.Method
	}
	if !req.Method.Valid() {
		return req, fmt.Errorf("%w: %q", ErrInvalidMethod, req.Method)
	}
	if req.Lag < 0 {
		return req, correlation.ErrInvalidLag
	}

	to := req.To
	if to.IsZero() {
		to = utils.DateOnly(a.now().UTC())
	}
	lookback := a.settings.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}
	from, to, err := utils.DateRange(req.From, to, lookback)
	if err != nil {
		return req, err
	}
	req.From, req.To = from, to
	return req, nil
}

// Run executes an analysis for req.
func (a *Analyzer) Run(ctx context.Context, req models.RunRequest) (*models.AnalysisRun, error) {
	return a.run(ctx, models.ModeAnalyze, req)
}

func (a *Analyzer) run(ctx context.Context, mode models.Mode, req models.RunRequest) (run *models.AnalysisRun, err error) {
	started := a.now()
	defer func() {
		a.metrics.RecordRun(string(mode), a.now().Sub(started), err)
	}()

	req, err = a.normalize(req)
	if err != nil {
		return nil, err
	}

	a.logger.Info("analysis started",
		"mode", mode,
		"tickers", req.Tickers,
		"from", utils.FormatDate(req.From),
		"to", utils.FormatDate(req.To),
		"lag", req.Lag,
		"method", req.Method,
	)

	data, err := a.agg.Collect(ctx, req.Tickers, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	opts := correlation.Options{Method: req.Method, MinSamples: a.settings.MinSamples, Lag: req.Lag}
	run = &models.AnalysisRun{
		ID:        uuid.NewString(),
		Mode:      mode,
		Request:   req,
		StartedAt: started.UTC(),
		Tickers:   make([]models.TickerReport, 0, len(data)),
	}

	var pooled [][]models.AlignedPoint
	for _, d := range data {
		rep := a.analyzeTicker(d, req, opts)
		a.metrics.RecordResult(string(rep.Result.Status))
		pooled = append(pooled, rep.Points)
		run.Tickers = append(run.Tickers, rep)
	}
	run.Pooled = correlation.Pooled(opts, pooled...)
	var all []models.ArticleSentiment
	for _, r := range run.Tickers {
		all = append(all, r.Articles...)
	}
	overall := sentiment.Summarize(models.PooledTicker, all)
	run.Pooled.AvgSentiment = overall.Mean
	run.Pooled.ArticleCount = overall.ArticleCount
	run.FinishedAt = a.now().UTC()

	for _, r := range run.Tickers {
		a.logger.Info("ticker result",
			"ticker", r.Ticker,
			"status", r.Result.Status,
			"coefficient", r.Result.Coefficient,
			"p_value", r.Result.PValue,
			"samples", r.Result.SampleSize,
			"articles", len(r.Articles),
		)
	}

	if a.store != nil {
		if serr := a.store.Save(ctx, run); serr != nil {
			a.logger.Warn("failed to save run", "id", run.ID, "error", serr)
		}
	}

	a.logger.Info("analysis complete",
		"id", run.ID,
		"pooled", run.Pooled.Coefficient,
		"pooled_status", run.Pooled.Status,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, nil
}

// analyzeTicker scores and correlates one ticker's collected data. Missing
// inputs are reported through the result status, never as an error.
func (a *Analyzer) analyzeTicker(d datasource.TickerData, req models.RunRequest, opts correlation.Options) models.TickerReport {
	rep := models.TickerReport{Ticker: d.Ticker, Bars: d.Bars}
	if d.NewsErr != nil {
		rep.NewsError = d.NewsErr.Error()
	}
	if d.PriceErr != nil {
		rep.PriceError = d.PriceErr.Error()
	}

	rep.Articles = a.scorer.ScoreArticles(d.Articles)
	a.metrics.RecordScored(len(rep.Articles))
	rep.Daily = sentiment.DailyScores(d.Ticker, rep.Articles, a.settings.RollWeekendNews)

	points, err := correlation.Align(rep.Daily, d.Bars, req.Lag)
	if err != nil {
		// lag was validated by normalize
		points = nil
	}
	rep.Points = points
	rep.Result = correlation.Correlate(d.Ticker, points, opts)

	summary := sentiment.Summarize(d.Ticker, rep.Articles)
	rep.Result.AvgSentiment = summary.Mean
	rep.Result.ArticleCount = summary.ArticleCount

	switch {
	case d.NewsErr != nil && !errors.Is(d.NewsErr, datasource.ErrNoData):
		rep.Result.Status = models.StatusFetchFailed
		rep.Result.Message = "news fetch failed: " + rep.NewsError
	case len(d.Articles) == 0:
		rep.Result.Status = models.StatusDataUnavailable
		rep.Result.Message = "no news articles in range"
		if rep.NewsError != "" {
			rep.Result.Message += ": " + rep.NewsError
		}
	case d.PriceErr != nil && !errors.Is(d.PriceErr, datasource.ErrNoData):
		rep.Result.Status = models.StatusFetchFailed
		rep.Result.Message = "price fetch failed: " + rep.PriceError
	case len(d.Bars) == 0:
		rep.Result.Status = models.StatusDataUnavailable
		rep.Result.Message = "no price data in range"
	case rep.Result.Status == models.StatusInsufficientData:
		sessions := utils.TradingDaysBetween(req.From, req.To.AddDate(0, 0, 1))
		rep.Result.Message += fmt.Sprintf(" (%d news days over %d trading days)", len(rep.Daily), sessions)
	}
	if rep.Result.Status == models.StatusDataUnavailable || rep.Result.Status == models.StatusFetchFailed {
		rep.Result.Coefficient = 0
		rep.Result.PValue = 1
		return rep
	}

	if a.settings.MaxLag > 0 {
		sweep, err := correlation.LagSweep(d.Ticker, rep.Daily, d.Bars, a.settings.MaxLag, opts)
		if err == nil {
			rep.LagSweep = sweep
		}
	}
	rep.Volatility = correlation.VolatilityByNewsCount(d.Bars, rep.Daily)
	return rep
}
