package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/analysis/sentiment"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// ErrUnknownChart is returned by RenderChart for a name it cannot build.
var ErrUnknownChart = errors.New("unknown chart")

// Chart names accepted by RenderChart. Per-ticker price charts use
// PricePrefix followed by the ticker, e.g. "price_AAPL".
const (
	ChartSentimentTrend   = "sentiment_trend"
	ChartDistribution     = "sentiment_distribution"
	ChartCorrelation      = "correlation"
	ChartAverageSentiment = "average_sentiment"
	ChartSentimentBox     = "sentiment_box"
	ChartScatter          = "sentiment_vs_return"
	ChartHeatmap          = "sentiment_heatmap"
	ChartVolatility       = "volatility_by_news"
	PricePrefix           = "price_"
)

// Chart is one rendered SVG.
type Chart struct {
	Name  string
	Title string
	SVG   string
}

// ChartNames lists every chart Charts produces for run, in display order.
func ChartNames(run *models.AnalysisRun) []string {
	names := []string{
		ChartSentimentTrend,
		ChartDistribution,
		ChartCorrelation,
		ChartAverageSentiment,
		ChartSentimentBox,
		ChartScatter,
		ChartHeatmap,
		ChartVolatility,
	}
	for _, t := range run.Tickers {
		names = append(names, PricePrefix+t.Ticker)
	}
	return names
}

// Charts renders every chart for run. Charts without data come back as
// placeholders.
func Charts(run *models.AnalysisRun) []Chart {
	names := ChartNames(run)
	out := make([]Chart, 0, len(names))
	for _, name := range names {
		c, err := RenderChart(run, name)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

// RenderChart builds a single named chart from run.
func RenderChart(run *models.AnalysisRun, name string) (Chart, error) {
	cfg := DefaultChartConfig()
	var (
		title string
		svg   string
	)
	switch {
	case name == ChartSentimentTrend:
		title = "Average Daily Sentiment"
		cfg.Title = title
		svg = sentimentTrend(run, cfg)
	case name == ChartDistribution:
		title = "Sentiment Distribution"
		cfg.Title = title
		svg = distribution(run, cfg)
	case name == ChartCorrelation:
		title = "Sentiment / Return Correlation by Ticker"
		cfg.Title = title
		svg = correlationBars(run, cfg)
	case name == ChartAverageSentiment:
		title = "Average Sentiment by Ticker"
		cfg.Title = title
		svg = averageSentiment(run, cfg)
	case name == ChartSentimentBox:
		title = "Compound Score Spread by Ticker"
		cfg.Title = title
		svg = BoxChart(sentimentBoxes(run), cfg)
	case name == ChartScatter:
		title = "Sentiment vs Return (%)"
		cfg.Title = title
		svg = ScatterChart(scatterPoints(run), "Sentiment", "Return (%)", cfg)
	case name == ChartHeatmap:
		title = "Daily Sentiment Heatmap"
		cfg.Title = title
		cfg.Height = max(200, 80+40*len(run.Tickers))
		rows, cols, vals := heatmapGrid(run)
		svg = HeatmapChart(rows, cols, vals, cfg)
	case name == ChartVolatility:
		title = "Intraday Range by Article Count"
		cfg.Title = title
		svg = volatility(run, cfg)
	case strings.HasPrefix(name, PricePrefix):
		ticker := strings.TrimPrefix(name, PricePrefix)
		tr := run.Ticker(ticker)
		if tr == nil {
			return Chart{}, fmt.Errorf("%w: %s", ErrUnknownChart, name)
		}
		title = ticker + " Price and Sentiment"
		cfg.Title = title
		svg = PriceSentimentChart(tr.Bars, tr.Daily, cfg)
	default:
		return Chart{}, fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
	return Chart{Name: name, Title: title, SVG: svg}, nil
}

// ════════════════════════════════════════════════════════════════════
// Builders
// ════════════════════════════════════════════════════════════════════

func sentimentTrend(run *models.AnalysisRun, cfg ChartConfig) string {
	type acc struct {
		sum float64
		n   int
	}
	byDay := make(map[time.Time]*acc)
	for _, t := range run.Tickers {
		for _, d := range t.Daily {
			k := models.Day(d.Date)
			a := byDay[k]
			if a == nil {
				a = &acc{}
				byDay[k] = a
			}
			a.sum += d.Value
			a.n++
		}
	}
	if len(byDay) == 0 {
		return emptySVG(cfg, NoDataMessage)
	}
	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	values := make([]float64, len(days))
	labels := make([]string, len(days))
	for i, d := range days {
		a := byDay[d]
		values[i] = a.sum / float64(a.n)
		labels[i] = d.Format("Jan 02")
	}
	return LineChart([]LineChartSeries{{Name: "Mean compound", Values: values}}, labels, cfg)
}

func distribution(run *models.AnalysisRun, cfg ChartConfig) string {
	var all []models.ArticleSentiment
	for _, t := range run.Tickers {
		all = append(all, t.Articles...)
	}
	if len(all) == 0 {
		return emptySVG(cfg, NoDataMessage)
	}
	dist := sentiment.Distribution(all)
	items := []BarItem{
		{Label: string(models.CategoryPositive), Value: float64(dist[models.CategoryPositive]), Color: "#4caf50"},
		{Label: string(models.CategoryNeutral), Value: float64(dist[models.CategoryNeutral]), Color: "#9e9e9e"},
		{Label: string(models.CategoryNegative), Value: float64(dist[models.CategoryNegative]), Color: "#ef5350"},
	}
	return HorizontalBarChart(items, "%.0f", cfg)
}

func correlationBars(run *models.AnalysisRun, cfg ChartConfig) string {
	var items []BarItem
	for _, r := range run.Results() {
		if r.Status != models.StatusOK {
			continue
		}
		items = append(items, BarItem{Label: r.Ticker, Value: r.Coefficient})
	}
	return HorizontalBarChart(items, "%+.3f", cfg)
}

func averageSentiment(run *models.AnalysisRun, cfg ChartConfig) string {
	var items []BarItem
	for _, t := range run.Tickers {
		if len(t.Articles) == 0 {
			continue
		}
		s := sentiment.Summarize(t.Ticker, t.Articles)
		items = append(items, BarItem{Label: t.Ticker, Value: s.Mean})
	}
	return HorizontalBarChart(items, "%+.3f", cfg)
}

func sentimentBoxes(run *models.AnalysisRun) []BoxStats {
	var boxes []BoxStats
	for _, t := range run.Tickers {
		compounds := make([]float64, len(t.Articles))
		for i, a := range t.Articles {
			compounds[i] = a.Compound
		}
		if b, ok := NewBoxStats(t.Ticker, compounds); ok {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

func scatterPoints(run *models.AnalysisRun) []XY {
	var pts []XY
	for _, t := range run.Tickers {
		for _, p := range t.Points {
			pts = append(pts, XY{
				X:     p.Sentiment,
				Y:     p.Return,
				Label: fmt.Sprintf("%s %s", p.Ticker, p.SentimentDate.Format("2006-01-02")),
			})
		}
	}
	return pts
}

// heatmapGrid lays out daily sentiment as tickers × dates. Days without news
// are NaN.
func heatmapGrid(run *models.AnalysisRun) (rows, cols []string, vals [][]float64) {
	daySet := make(map[time.Time]bool)
	for _, t := range run.Tickers {
		for _, d := range t.Daily {
			daySet[models.Day(d.Date)] = true
		}
	}
	if len(daySet) == 0 {
		return nil, nil, nil
	}
	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	index := make(map[time.Time]int, len(days))
	for i, d := range days {
		index[d] = i
		cols = append(cols, d.Format("01-02"))
	}

	for _, t := range run.Tickers {
		row := make([]float64, len(days))
		for i := range row {
			row[i] = math.NaN()
		}
		for _, d := range t.Daily {
			row[index[models.Day(d.Date)]] = d.Value
		}
		rows = append(rows, t.Ticker)
		vals = append(vals, row)
	}
	return rows, cols, vals
}

func volatility(run *models.AnalysisRun, cfg ChartConfig) string {
	type acc struct {
		sum  float64
		days int
	}
	merged := make(map[int]*acc)
	for _, t := range run.Tickers {
		for _, b := range t.Volatility {
			a := merged[b.ArticleCount]
			if a == nil {
				a = &acc{}
				merged[b.ArticleCount] = a
			}
			a.sum += b.MeanRange * float64(b.Days)
			a.days += b.Days
		}
	}
	counts := make([]int, 0, len(merged))
	for c := range merged {
		counts = append(counts, c)
	}
	sort.Ints(counts)

	items := make([]BarItem, 0, len(counts))
	for _, c := range counts {
		a := merged[c]
		if a.days == 0 {
			continue
		}
		items = append(items, BarItem{
			Label: fmt.Sprintf("%d articles", c),
			Value: a.sum / float64(a.days),
			Color: "#2196f3",
		})
	}
	return HorizontalBarChart(items, "%.2f%%", cfg)
}
