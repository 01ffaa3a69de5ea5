// Package correlation relates daily news sentiment to stock returns. All
// functions operate on models.PriceBar and models.SentimentScore slices and
// are pure: no I/O, no shared state.
package correlation

import (
	"errors"
	"sort"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// ErrInvalidLag is returned for negative lags.
var ErrInvalidLag = errors.New("lag must be zero or positive")

// DailyReturn is the close-to-close percentage change ending on Date.
type DailyReturn struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"` // percent
}

// Returns computes daily percentage returns from bars. The first bar has no
// prior close and produces no return. Bars with a non-positive prior price
// are skipped.
func Returns(bars []models.PriceBar) []DailyReturn {
	bars = models.DedupBars(bars)
	if len(bars) < 2 {
		return nil
	}
	out := make([]DailyReturn, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Price()
		if prev <= 0 {
			continue
		}
		out = append(out, DailyReturn{
			Date:  bars[i].Date,
			Value: (bars[i].Price() - prev) / prev * 100,
		})
	}
	return out
}

// Align pairs each day's sentiment with the return realized lag trading
// sessions later. Lag 0 pairs news with the same session's return, lag 1 with
// the next session's. Sentiment dates that are not trading sessions, and
// sessions whose return is unknown, are dropped. Each sentiment date appears
// at most once; the first score for a date wins.
func Align(scores []models.SentimentScore, bars []models.PriceBar, lag int) ([]models.AlignedPoint, error) {
	if lag < 0 {
		return nil, ErrInvalidLag
	}
	bars = models.DedupBars(bars)
	index := make(map[int64]int, len(bars))
	for i, b := range bars {
		index[b.Date.Unix()] = i
	}

	sorted := make([]models.SentimentScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	seen := make(map[int64]bool, len(sorted))
	var points []models.AlignedPoint
	for _, s := range sorted {
		d := models.Day(s.Date)
		k := d.Unix()
		if seen[k] {
			continue
		}
		seen[k] = true

		i, ok := index[k]
		if !ok {
			continue
		}
		j := i + lag
		if j < 1 || j >= len(bars) {
			continue
		}
		prev := bars[j-1].Price()
		if prev <= 0 {
			continue
		}
		points = append(points, models.AlignedPoint{
			Ticker:        s.Ticker,
			SentimentDate: d,
			ReturnDate:    bars[j].Date,
			Sentiment:     s.Value,
			Return:        (bars[j].Price() - prev) / prev * 100,
			ArticleCount:  s.ArticleCount,
		})
	}
	return points, nil
}

// VolatilityByNewsCount groups trading days by how many articles were
// published for them and reports the mean intraday range per group.
func VolatilityByNewsCount(bars []models.PriceBar, scores []models.SentimentScore) []models.VolatilityBucket {
	counts := make(map[int64]int, len(scores))
	for _, s := range scores {
		counts[models.Day(s.Date).Unix()] += s.ArticleCount
	}

	type acc struct {
		sum  float64
		days int
	}
	groups := make(map[int]*acc)
	for _, b := range models.DedupBars(bars) {
		if b.Open <= 0 {
			continue
		}
		n := counts[b.Date.Unix()]
		if groups[n] == nil {
			groups[n] = &acc{}
		}
		groups[n].sum += b.Range()
		groups[n].days++
	}

	out := make([]models.VolatilityBucket, 0, len(groups))
	for n, a := range groups {
		out = append(out, models.VolatilityBucket{
			ArticleCount: n,
			Days:         a.days,
			MeanRange:    a.sum / float64(a.days),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArticleCount < out[j].ArticleCount })
	return out
}
