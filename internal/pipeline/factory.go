package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/analysis/sentiment"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/config"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/datasource"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/observability"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store/memory"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store/postgres"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// SettingsFromConfig extracts analysis settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Tickers:         cfg.Analysis.Tickers,
		LookbackDays:    cfg.Analysis.LookbackDays,
		Lag:             cfg.Analysis.Lag,
		MaxLag:          cfg.Analysis.MaxLag,
		Method:          models.Method(cfg.Analysis.Method),
		MinSamples:      cfg.Analysis.MinSamples,
		RollWeekendNews: cfg.Analysis.RollWeekendNews,
	}
}

// NewsSourceFromConfig builds the configured news source. The newsapi
// provider without a key falls back to generated sample news.
func NewsSourceFromConfig(cfg *config.Config, logger *slog.Logger) (datasource.NewsSource, error) {
	ttl := time.Duration(cfg.Analysis.CacheTTL) * time.Second
	switch cfg.News.Provider {
	case "sample":
		return datasource.NewSample(), nil
	case "newsapi":
		if !cfg.HasNewsAPIKey() {
			logger.Warn("no NewsAPI key configured, using sample news")
			return datasource.NewSample(), nil
		}
		src, err := datasource.NewNewsAPI(cfg.News.NewsAPIURL, cfg.News.NewsAPIKey, cfg.News.PageSize, ttl)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "rss", "":
		return datasource.NewRSS(datasource.FeedsFromURLs(cfg.News.Feeds), ttl), nil
	default:
		return nil, fmt.Errorf("%w: news provider %q", datasource.ErrNotSupported, cfg.News.Provider)
	}
}

// PriceSourceFromConfig builds the configured price source.
func PriceSourceFromConfig(cfg *config.Config) (datasource.PriceSource, error) {
	ttl := time.Duration(cfg.Analysis.CacheTTL) * time.Second
	switch cfg.Prices.Provider {
	case "yahoo", "":
		return datasource.NewYFinance(ttl), nil
	case "alpaca":
		src, err := datasource.NewAlpaca(cfg.Prices.Alpaca.APIKey, cfg.Prices.Alpaca.APISecret, cfg.Prices.Alpaca.Feed, ttl)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: price provider %q", datasource.ErrNotSupported, cfg.Prices.Provider)
	}
}

// OpenStore opens the configured run store.
func OpenStore(ctx context.Context, cfg *config.Config) (store.RunStore, error) {
	switch cfg.Storage.Driver {
	case "memory", "":
		return memory.NewRunStore(), nil
	case "postgres":
		s, err := postgres.Open(ctx, cfg.Storage.PostgresDSN, cfg.Storage.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// NewScorerFromConfig builds a scorer, merging the optional lexicon file.
func NewScorerFromConfig(cfg *config.Config) (*sentiment.Scorer, error) {
	opts := []sentiment.Option{sentiment.WithThreshold(cfg.Sentiment.Threshold)}
	if cfg.Sentiment.LexiconFile != "" {
		lex, err := sentiment.LoadLexiconFile(cfg.Sentiment.LexiconFile)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		opts = append(opts, sentiment.WithLexicon(lex))
	}
	return sentiment.NewScorer(opts...), nil
}

// NewFromConfig wires sources, scorer and store into an Analyzer. The
// returned store, if any, is owned by the caller.
func NewFromConfig(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*Analyzer, store.RunStore, error) {
	news, err := NewsSourceFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	prices, err := PriceSourceFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	scorer, err := NewScorerFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	runs, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	agg := datasource.NewAggregator(news, prices,
		datasource.WithConcurrency(cfg.Analysis.ConcurrentFetches),
		datasource.WithMetrics(metrics),
		datasource.WithLogger(logger),
	)
	a := New(agg, scorer,
		WithStore(runs),
		WithMetrics(metrics),
		WithLogger(logger),
		WithSettings(SettingsFromConfig(cfg)),
	)
	return a, runs, nil
}
