package datasource

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

var (
	samplePositive = []string{
		"reports record profits",
		"exceeds expectations",
		"announces new product",
		"expands into new markets",
		"increases dividend",
	}
	sampleNegative = []string{
		"misses earnings expectations",
		"announces layoffs",
		"faces regulatory issues",
		"product recall affects sales",
		"stock downgraded",
	}
	sampleNeutral = []string{
		"appoints new board member",
		"to present at conference",
		"releases annual report",
		"announces earnings date",
		"updates corporate policies",
	}
	sampleSources = []string{"MarketWatch", "Bloomberg", "CNBC", "Reuters"}
)

// Sample generates synthetic headlines for offline runs. Output is a pure
// function of (ticker, from, to) so repeated runs agree.
type Sample struct {
	// PerDay is the expected number of articles per calendar day.
	PerDay float64
}

// NewSample creates a sample news source at one article every five days.
func NewSample() *Sample {
	return &Sample{PerDay: 0.2}
}

// Name returns the data source name.
func (s *Sample) Name() string { return "Sample" }

// FetchNews returns generated articles for ticker within [from, to].
func (s *Sample) FetchNews(ctx context.Context, ticker string, from, to time.Time) ([]models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol := utils.NormalizeTicker(ticker)
	from, to = models.Day(from), models.Day(to)
	days := int(to.Sub(from).Hours()/24) + 1
	if days <= 0 {
		return nil, nil
	}

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d", symbol, from.Unix(), to.Unix())
	rng := rand.New(rand.NewPCG(h.Sum64(), 0x9e3779b97f4a7c15))

	n := int(float64(days) * s.PerDay)
	articles := make([]models.Article, 0, n)
	for i := 0; i < n; i++ {
		published := from.AddDate(0, 0, rng.IntN(days)).Add(time.Duration(13+rng.IntN(8)) * time.Hour)

		var phrases []string
		switch p := rng.Float64(); {
		case p < 0.4:
			phrases = samplePositive
		case p < 0.8:
			phrases = sampleNegative
		default:
			phrases = sampleNeutral
		}

		articles = append(articles, models.Article{
			Ticker:      symbol,
			Title:       symbol + " " + phrases[rng.IntN(len(phrases))],
			Description: "The company " + phrases[rng.IntN(len(phrases))] + ".",
			Source:      sampleSources[rng.IntN(len(sampleSources))],
			URL:         fmt.Sprintf("https://example.com/news/%s-%d", strings.ToLower(symbol), i),
			PublishedAt: published,
		})
	}
	return models.DedupArticles(articles), nil
}
