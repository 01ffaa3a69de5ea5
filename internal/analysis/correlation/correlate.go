package correlation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// DefaultMinSamples is the smallest sample Correlate will report on.
const DefaultMinSamples = 3

// Options controls how a coefficient is computed.
type Options struct {
	Method     models.Method
	MinSamples int
	Lag        int // recorded on the result only
}

func (o Options) normalized() Options {
	if !o.Method.Valid() {
		o.Method = models.MethodPearson
	}
	if o.MinSamples <= 0 {
		o.MinSamples = DefaultMinSamples
	}
	// Two points always lie on a line; never report on fewer.
	if o.MinSamples < 2 {
		o.MinSamples = 2
	}
	return o
}

// Correlate computes the association between sentiment and return across
// points. Insufficient or constant inputs produce a zero coefficient with a
// descriptive status instead of NaN.
func Correlate(ticker string, points []models.AlignedPoint, opts Options) models.CorrelationResult {
	opts = opts.normalized()
	res := models.CorrelationResult{
		Ticker:     ticker,
		Method:     opts.Method,
		Lag:        opts.Lag,
		SampleSize: len(points),
		PValue:     1,
		Status:     models.StatusOK,
	}
	if len(points) > 0 {
		res.Start = points[0].SentimentDate
		res.End = points[0].SentimentDate
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	sum := 0.0
	for i, p := range points {
		xs[i], ys[i] = p.Sentiment, p.Return
		sum += p.Sentiment
		res.ArticleCount += p.ArticleCount
		if p.SentimentDate.Before(res.Start) {
			res.Start = p.SentimentDate
		}
		if p.SentimentDate.After(res.End) {
			res.End = p.SentimentDate
		}
	}
	if len(points) > 0 {
		res.AvgSentiment = sum / float64(len(points))
	}

	if len(points) < opts.MinSamples {
		res.Status = models.StatusInsufficientData
		res.Message = fmt.Sprintf("need at least %d aligned days, have %d", opts.MinSamples, len(points))
		return res
	}
	if constant(xs) || constant(ys) {
		res.Status = models.StatusNoVariance
		if constant(xs) {
			res.Message = "sentiment is constant over the window"
		} else {
			res.Message = "returns are constant over the window"
		}
		return res
	}

	if opts.Method == models.MethodSpearman {
		xs, ys = Rank(xs), Rank(ys)
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		res.Status = models.StatusNoVariance
		res.Message = "coefficient undefined"
		return res
	}
	res.Coefficient = math.Max(-1, math.Min(1, r))
	res.PValue = PValue(res.Coefficient, len(points))
	return res
}

// PValue is the two-sided p-value for coefficient r over n samples using a
// Student's t distribution with n-2 degrees of freedom.
func PValue(r float64, n int) float64 {
	if n <= 2 || math.IsNaN(r) {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Max(0, math.Min(1, p))
}

// Rank returns fractional ranks (1-based) with ties sharing their average rank.
func Rank(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, len(xs))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// LagSweep correlates sentiment against returns for every lag in 0..maxLag.
func LagSweep(ticker string, scores []models.SentimentScore, bars []models.PriceBar, maxLag int, opts Options) ([]models.CorrelationResult, error) {
	if maxLag < 0 {
		return nil, ErrInvalidLag
	}
	out := make([]models.CorrelationResult, 0, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		points, err := Align(scores, bars, lag)
		if err != nil {
			return nil, err
		}
		opts.Lag = lag
		out = append(out, Correlate(ticker, points, opts))
	}
	return out, nil
}

// Pooled correlates the aligned points of every ticker together.
func Pooled(opts Options, sets ...[]models.AlignedPoint) models.CorrelationResult {
	var all []models.AlignedPoint
	for _, s := range sets {
		all = append(all, s...)
	}
	return Correlate(models.PooledTicker, all, opts)
}

// Best returns the ok result with the largest absolute coefficient.
func Best(results []models.CorrelationResult) (models.CorrelationResult, bool) {
	var best models.CorrelationResult
	found := false
	for _, r := range results {
		if r.Status != models.StatusOK {
			continue
		}
		if !found || math.Abs(r.Coefficient) > math.Abs(best.Coefficient) {
			best, found = r, true
		}
	}
	return best, found
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
