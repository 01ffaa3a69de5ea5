package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// CSV Data Files
// ════════════════════════════════════════════════════════════════════

// Base names of the CSV data files. See FileName for the per-mode suffix.
const (
	NewsFile        = "news_data"
	SentimentFile   = "sentiment_data"
	CorrelationFile = "correlation_data"
)

var (
	newsHeader        = []string{"date", "ticker", "title", "description", "source", "url", "compound", "positive", "negative", "neutral", "category"}
	sentimentHeader   = []string{"date", "ticker", "sentiment", "article_count"}
	correlationHeader = []string{"ticker", "method", "lag", "correlation", "p_value", "sample_size", "start", "end", "avg_sentiment", "article_count", "status", "message"}
)

// FileName returns the artifact file name for base and ext in run's mode:
// compare runs get a "_comparison" suffix and monitor runs a start timestamp.
func FileName(base, ext string, run *models.AnalysisRun) string {
	switch run.Mode {
	case models.ModeCompare:
		return base + "_comparison" + ext
	case models.ModeMonitor:
		return base + "_" + run.StartedAt.UTC().Format("20060102_150405") + ext
	default:
		return base + ext
	}
}

// WriteNewsCSV writes every scored article in run, one row per article.
func WriteNewsCSV(w io.Writer, run *models.AnalysisRun) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(newsHeader); err != nil {
		return err
	}
	for _, t := range run.Tickers {
		for _, a := range t.Articles {
			rec := []string{
				utils.FormatDate(a.PublishedAt),
				a.Ticker,
				a.Title,
				a.Description,
				a.Source,
				a.URL,
				fixed(a.Compound, 4),
				fixed(a.Positive, 3),
				fixed(a.Negative, 3),
				fixed(a.Neutral, 3),
				string(a.Category),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSentimentCSV writes the daily sentiment series of every ticker.
func WriteSentimentCSV(w io.Writer, run *models.AnalysisRun) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sentimentHeader); err != nil {
		return err
	}
	for _, t := range run.Tickers {
		for _, d := range t.Daily {
			rec := []string{
				utils.FormatDate(d.Date),
				d.Ticker,
				fixed(d.Value, 4),
				strconv.Itoa(d.ArticleCount),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCorrelationCSV writes one row per ticker followed by the pooled result.
func WriteCorrelationCSV(w io.Writer, run *models.AnalysisRun) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(correlationHeader); err != nil {
		return err
	}
	for _, r := range append(run.Results(), run.Pooled) {
		if r.Ticker == "" {
			continue
		}
		if err := cw.Write(correlationRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func correlationRecord(r models.CorrelationResult) []string {
	var start, end string
	if !r.Start.IsZero() {
		start = utils.FormatDate(r.Start)
	}
	if !r.End.IsZero() {
		end = utils.FormatDate(r.End)
	}
	return []string{
		r.Ticker,
		string(r.Method),
		strconv.Itoa(r.Lag),
		fixed(r.Coefficient, 4),
		fixed(r.PValue, 6),
		strconv.Itoa(r.SampleSize),
		start,
		end,
		fixed(r.AvgSentiment, 4),
		strconv.Itoa(r.ArticleCount),
		string(r.Status),
		r.Message,
	}
}

// fixed renders v with exactly places decimals, avoiding float artefacts
// such as "0.30000000000000004".
func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// ParseFixed reads a value written by the CSV writers.
func ParseFixed(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}
