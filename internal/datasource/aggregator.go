package datasource

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/observability"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// TickerData is everything collected for one ticker. A failed fetch leaves
// the corresponding slice empty and records the error.
type TickerData struct {
	Ticker   string
	Articles []models.Article
	Bars     []models.PriceBar
	NewsErr  error
	PriceErr error
}

// Failed reports whether either fetch failed for a reason other than an empty range.
func (d TickerData) Failed() bool {
	return isHardError(d.NewsErr) || isHardError(d.PriceErr)
}

func isHardError(err error) bool {
	return err != nil && !errors.Is(err, ErrNoData)
}

// Aggregator fetches news and prices for many tickers concurrently.
type Aggregator struct {
	news        NewsSource
	prices      PriceSource
	concurrency int
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithConcurrency bounds the number of tickers fetched at once.
func WithConcurrency(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithMetrics records fetch counts and failures.
func WithMetrics(m *observability.Metrics) AggregatorOption {
	return func(a *Aggregator) { a.metrics = m }
}

// WithLogger sets the logger used for per-ticker failures.
func WithLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator creates an aggregator over one news and one price source.
func NewAggregator(news NewsSource, prices PriceSource, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		news:        news,
		prices:      prices,
		concurrency: 5,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// NewsSource returns the configured news source.
func (a *Aggregator) NewsSource() NewsSource { return a.news }

// PriceSource returns the configured price source.
func (a *Aggregator) PriceSource() PriceSource { return a.prices }

// Collect fetches news and bars for every ticker. Per-ticker failures are
// recorded on the result and never abort the batch; only cancellation of ctx
// returns an error. Results follow the input order.
func (a *Aggregator) Collect(ctx context.Context, tickers []string, from, to time.Time) ([]TickerData, error) {
	out := make([]TickerData, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, t := range tickers {
		symbol := utils.NormalizeTicker(t)
		out[i].Ticker = symbol

		// Each goroutine owns out[i]; no lock needed.
		g.Go(func() error {
			d := &out[i]

			start := time.Now()
			articles, err := a.news.FetchNews(gctx, symbol, from, to)
			a.metrics.ObserveFetch("news", a.news.Name(), len(articles), time.Since(start), err)
			if err != nil {
				d.NewsErr = err
				a.logger.Warn("news fetch failed", "ticker", symbol, "source", a.news.Name(), "error", err)
			} else {
				d.Articles = models.DedupArticles(articles)
			}

			start = time.Now()
			bars, err := a.prices.FetchDailyBars(gctx, symbol, from, to)
			a.metrics.ObserveFetch("prices", a.prices.Name(), len(bars), time.Since(start), err)
			if err != nil {
				d.PriceErr = err
				a.logger.Warn("price fetch failed", "ticker", symbol, "source", a.prices.Name(), "error", err)
			} else {
				d.Bars = models.DedupBars(bars)
			}

			a.logger.Debug("collected", "ticker", symbol, "articles", len(d.Articles), "bars", len(d.Bars))
			return nil // non-fatal
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
