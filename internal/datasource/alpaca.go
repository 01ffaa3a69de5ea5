package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// alpacaBarsClient is the subset of *marketdata.Client used here.
type alpacaBarsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Alpaca implements PriceSource using the Alpaca market data API.
type Alpaca struct {
	client  alpacaBarsClient
	feed    string
	cache   *Cache[[]models.PriceBar]
	limiter *RateLimiter
}

// NewAlpaca creates an Alpaca price source. feed is "iex" (free tier) or "sip".
func NewAlpaca(apiKey, apiSecret, feed string, cacheTTL time.Duration) (*Alpaca, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("alpaca: %w", ErrMissingCredentials)
	}
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
	return newAlpacaWithClient(client, feed, cacheTTL), nil
}

func newAlpacaWithClient(client alpacaBarsClient, feed string, cacheTTL time.Duration) *Alpaca {
	if feed == "" {
		feed = "iex"
	}
	return &Alpaca{
		client:  client,
		feed:    strings.ToLower(feed),
		cache:   NewCache[[]models.PriceBar](cacheTTL),
		limiter: NewRateLimiter(3, time.Second), // free plan allows 200/min
	}
}

// Name returns the data source name.
func (a *Alpaca) Name() string { return "Alpaca" }

// FetchDailyBars returns daily bars for ticker from Alpaca.
func (a *Alpaca) FetchDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	symbol := utils.NormalizeTicker(ticker)
	from, to = models.Day(from), models.Day(to)

	cacheKey := fmt.Sprintf("bars:%s:%d:%d", symbol, from.Unix(), to.Unix())
	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached, nil
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	raw, err := a.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Feed:      marketdata.Feed(a.feed),
		Start:     from,
		End:       to.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars := make([]models.PriceBar, 0, len(raw))
	for _, b := range raw {
		date := utils.DateOnly(b.Timestamp.In(utils.NewYork))
		if !inRange(date, from, to) {
			continue
		}
		bars = append(bars, models.PriceBar{
			Ticker: symbol,
			Date:   date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	bars = models.DedupBars(bars)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s %s..%s", ErrNoData, symbol, utils.FormatDate(from), utils.FormatDate(to))
	}

	a.cache.Set(cacheKey, bars)
	return bars, nil
}
