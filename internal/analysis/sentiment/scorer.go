// Package sentiment scores news text with a valence-aware lexicon model.
// Scores are deterministic and need no network access.
package sentiment

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// DefaultThreshold separates Neutral from Positive/Negative compound scores.
const DefaultThreshold = 0.2

// Scores is the full output for one text.
type Scores struct {
	Compound float64 `json:"compound"` // -1.0 (very negative) to +1.0 (very positive)
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// neutralScores is returned for text that carries no sentiment signal.
var neutralScores = Scores{Neutral: 1}

// Scorer scores text against a lexicon.
type Scorer struct {
	lex       Lexicon
	maxPhrase int
	threshold float64
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithThreshold sets the category threshold.
func WithThreshold(t float64) Option {
	return func(s *Scorer) {
		if t >= 0 && t < 1 {
			s.threshold = t
		}
	}
}

// WithLexicon adds or overrides lexicon entries.
func WithLexicon(extra Lexicon) Option {
	return func(s *Scorer) { s.lex.Merge(extra) }
}

// NewScorer creates a scorer over the built-in lexicon.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{lex: DefaultLexicon(), threshold: DefaultThreshold}
	for _, o := range opts {
		o(s)
	}
	s.maxPhrase = s.lex.maxPhraseLen()
	return s
}

// Threshold returns the category threshold in use.
func (s *Scorer) Threshold() float64 { return s.threshold }

type token struct {
	raw   string
	lower string
}

// Score returns the sentiment of text. Empty or non-textual input yields a
// neutral zero compound. Compound is always within [-1, 1].
func (s *Scorer) Score(text string) Scores {
	text = strings.ToValidUTF8(text, " ")
	tokens := s.tokenize(text)
	if len(tokens) == 0 {
		return neutralScores
	}
	capDiff := hasCapDifferential(tokens)

	sentiments := make([]float64, len(tokens))
	for i, tok := range tokens {
		if _, ok := boosters[tok.lower]; ok {
			continue
		}
		v, ok := s.lex[tok.lower]
		if !ok {
			continue
		}
		if capDiff && isUpper(tok.raw) {
			v += math.Copysign(capsIncr, v)
		}
		// Look back up to three tokens for boosters and negations.
		for back := 1; back <= 3 && i-back >= 0; back++ {
			prev := tokens[i-back]
			if _, inLex := s.lex[prev.lower]; inLex {
				continue
			}
			inc := scalarIncDec(prev, v, capDiff)
			switch back {
			case 2:
				inc *= 0.95
			case 3:
				inc *= 0.9
			}
			v += inc
			if isNegation(prev.lower) {
				v *= negationScale
			}
		}
		sentiments[i] = v
	}

	applyButShift(tokens, sentiments)

	sum := 0.0
	for _, v := range sentiments {
		sum += v
	}
	amp := punctuationEmphasis(text)
	switch {
	case sum > 0:
		sum += amp
	case sum < 0:
		sum -= amp
	}

	out := siftScores(sentiments, amp)
	out.Compound = normalize(sum)
	return out
}

// tokenize splits on whitespace, trims edge punctuation and merges
// multi-word lexicon phrases into single tokens.
func (s *Scorer) tokenize(text string) []token {
	var words []token
	for _, f := range strings.Fields(text) {
		w := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && r != '\'' || unicode.IsSymbol(r)
		})
		w = strings.Trim(w, "'")
		if w == "" || !strings.ContainsFunc(w, unicode.IsLetter) {
			continue
		}
		words = append(words, token{raw: w, lower: strings.ToLower(w)})
	}
	if s.maxPhrase < 2 {
		return words
	}

	merged := make([]token, 0, len(words))
	for i := 0; i < len(words); {
		matched := false
		for k := min(s.maxPhrase, len(words)-i); k >= 2; k-- {
			parts := make([]string, k)
			raws := make([]string, k)
			for j := 0; j < k; j++ {
				parts[j] = words[i+j].lower
				raws[j] = words[i+j].raw
			}
			phrase := strings.Join(parts, " ")
			if _, ok := s.lex[phrase]; ok {
				merged = append(merged, token{raw: strings.Join(raws, " "), lower: phrase})
				i += k
				matched = true
				break
			}
		}
		if !matched {
			merged = append(merged, words[i])
			i++
		}
	}
	return merged
}

func scalarIncDec(tok token, valence float64, capDiff bool) float64 {
	scalar, ok := boosters[tok.lower]
	if !ok {
		return 0
	}
	if valence < 0 {
		scalar = -scalar
	}
	if capDiff && isUpper(tok.raw) {
		scalar += math.Copysign(capsIncr, valence)
	}
	return scalar
}

// applyButShift down-weights sentiment before the first "but" and
// up-weights what follows it.
func applyButShift(tokens []token, sentiments []float64) {
	bi := -1
	for i, t := range tokens {
		if t.lower == "but" {
			bi = i
			break
		}
	}
	if bi < 0 {
		return
	}
	for i := range sentiments {
		switch {
		case i < bi:
			sentiments[i] *= 0.5
		case i > bi:
			sentiments[i] *= 1.5
		}
	}
}

func punctuationEmphasis(text string) float64 {
	ep := float64(min(strings.Count(text, "!"), 4)) * exclaimIncr
	qm := 0.0
	if n := strings.Count(text, "?"); n > 1 {
		if n <= 3 {
			qm = float64(n) * questionIncr
		} else {
			qm = 0.96
		}
	}
	return ep + qm
}

func siftScores(sentiments []float64, amp float64) Scores {
	var pos, neg, neu float64
	for _, v := range sentiments {
		switch {
		case v > 0:
			pos += v + 1
		case v < 0:
			neg += v - 1
		default:
			neu++
		}
	}
	switch {
	case pos > math.Abs(neg):
		pos += amp
	case pos < math.Abs(neg):
		neg -= amp
	}
	total := pos + math.Abs(neg) + neu
	if total == 0 {
		return neutralScores
	}
	return Scores{
		Positive: math.Abs(pos / total),
		Negative: math.Abs(neg / total),
		Neutral:  math.Abs(neu / total),
	}
}

// normalize maps an unbounded valence sum into [-1, 1].
func normalize(sum float64) float64 {
	if math.IsNaN(sum) {
		return 0
	}
	if math.IsInf(sum, 0) {
		return math.Copysign(1, sum)
	}
	c := sum / math.Sqrt(sum*sum+normAlpha)
	return math.Max(-1, math.Min(1, c))
}

func isUpper(s string) bool {
	return strings.ContainsFunc(s, unicode.IsLetter) && strings.ToUpper(s) == s
}

// hasCapDifferential reports whether some but not all tokens are upper case.
func hasCapDifferential(tokens []token) bool {
	upper := 0
	for _, t := range tokens {
		if isUpper(t.raw) {
			upper++
		}
	}
	return upper > 0 && upper < len(tokens)
}

// Categorize buckets a compound score: (t, 1] is Positive, [-1, -t] is
// Negative and everything in between is Neutral.
func Categorize(compound, threshold float64) models.Category {
	switch {
	case compound > threshold:
		return models.CategoryPositive
	case compound <= -threshold:
		return models.CategoryNegative
	default:
		return models.CategoryNeutral
	}
}

// ScoreArticle scores the cleaned title and description of an article.
func (s *Scorer) ScoreArticle(a models.Article) models.ArticleSentiment {
	sc := s.Score(utils.CleanText(a.Content()))
	return models.ArticleSentiment{
		Article:  a,
		Compound: sc.Compound,
		Positive: sc.Positive,
		Negative: sc.Negative,
		Neutral:  sc.Neutral,
		Category: Categorize(sc.Compound, s.threshold),
	}
}

// ScoreArticles scores every article, keeping input order.
func (s *Scorer) ScoreArticles(articles []models.Article) []models.ArticleSentiment {
	out := make([]models.ArticleSentiment, len(articles))
	for i, a := range articles {
		out[i] = s.ScoreArticle(a)
	}
	return out
}

// DailyScores averages compound scores per day for one ticker. With
// rollToSession, articles published on weekends or holidays count toward the
// next trading session; otherwise the UTC calendar day is used.
func DailyScores(ticker string, items []models.ArticleSentiment, rollToSession bool) []models.SentimentScore {
	type acc struct {
		sum float64
		n   int
	}
	byDay := make(map[int64]*acc)
	for _, it := range items {
		var d = utils.DateOnly(it.PublishedAt.UTC())
		if rollToSession {
			d = utils.SessionDate(it.PublishedAt)
		}
		k := d.Unix()
		if byDay[k] == nil {
			byDay[k] = &acc{}
		}
		byDay[k].sum += it.Compound
		byDay[k].n++
	}

	out := make([]models.SentimentScore, 0, len(byDay))
	for k, a := range byDay {
		out = append(out, models.SentimentScore{
			Ticker:       ticker,
			Date:         utils.DateOnly(unixUTC(k)),
			Value:        math.Max(-1, math.Min(1, a.sum/float64(a.n))),
			ArticleCount: a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
