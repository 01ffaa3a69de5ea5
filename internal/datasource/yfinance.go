package datasource

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// DefaultYahooBaseURL is the Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YFinance implements PriceSource using the Yahoo Finance chart API.
type YFinance struct {
	baseURL string
	cache   *Cache[[]models.PriceBar]
	limiter *RateLimiter
}

// NewYFinance creates a new Yahoo Finance price source.
func NewYFinance(cacheTTL time.Duration) *YFinance {
	return NewYFinanceWithURL(DefaultYahooBaseURL, cacheTTL)
}

// NewYFinanceWithURL creates a Yahoo Finance source against a custom host.
func NewYFinanceWithURL(baseURL string, cacheTTL time.Duration) *YFinance {
	return &YFinance{
		baseURL: baseURL,
		cache:   NewCache[[]models.PriceBar](cacheTTL),
		limiter: NewRateLimiter(5, time.Second), // 5 req/s
	}
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v8 API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol           string `json:"symbol"`
	Currency         string `json:"currency"`
	ExchangeTimezone string `json:"exchangeTimezoneName"`
}

type yfIndicators struct {
	Quote    []yfOHLCV    `json:"quote"`
	AdjClose []yfAdjClose `json:"adjclose"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// FetchDailyBars returns daily bars from the Yahoo Finance chart API.
func (y *YFinance) FetchDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	symbol := utils.NormalizeTicker(ticker)
	from, to = models.Day(from), models.Day(to)

	cacheKey := fmt.Sprintf("bars:%s:%d:%d", symbol, from.Unix(), to.Unix())
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached, nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// period2 is exclusive on Yahoo's side.
	u := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		y.baseURL, url.PathEscape(symbol), from.Unix(), to.AddDate(0, 0, 1).Unix(),
	)

	var resp yfChartResponse
	if err := getJSON(ctx, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	bars := parseYFBars(symbol, resp.Chart.Result[0], from, to)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s %s..%s", ErrNoData, symbol, utils.FormatDate(from), utils.FormatDate(to))
	}

	y.cache.Set(cacheKey, bars)
	return bars, nil
}

// --- Helpers ---

// parseYFBars converts the columnar chart payload into bars. Sessions without a
// close (halts, partial rows) are skipped.
func parseYFBars(symbol string, result yfChartResult, from, to time.Time) []models.PriceBar {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	loc := utils.NewYork
	if result.Meta.ExchangeTimezone != "" {
		if l, err := time.LoadLocation(result.Meta.ExchangeTimezone); err == nil {
			loc = l
		}
	}

	q := result.Indicators.Quote[0]
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		date := utils.DateOnly(time.Unix(ts, 0).In(loc))
		if !inRange(date, from, to) {
			continue
		}
		b := models.PriceBar{
			Ticker: symbol,
			Date:   date,
			Close:  *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			b.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			b.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			b.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		if i < len(adjCloses) && adjCloses[i] != nil {
			b.AdjClose = *adjCloses[i]
		}
		bars = append(bars, b)
	}
	return models.DedupBars(bars)
}
