package sentiment

import (
	"sort"
	"strings"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// Summary condenses a set of scored articles.
type Summary struct {
	Ticker       string  `json:"ticker"`
	Mean         float64 `json:"mean"`
	ArticleCount int     `json:"article_count"`
	Positive     int     `json:"positive"`
	Neutral      int     `json:"neutral"`
	Negative     int     `json:"negative"`
	Label        string  `json:"label"` // "Bullish", "Slightly Bullish", "Neutral", ...
}

// Summarize computes the mean compound and category counts.
func Summarize(ticker string, items []models.ArticleSentiment) Summary {
	s := Summary{Ticker: ticker, ArticleCount: len(items), Label: "Neutral"}
	if len(items) == 0 {
		return s
	}
	sum := 0.0
	for _, it := range items {
		sum += it.Compound
		switch it.Category {
		case models.CategoryPositive:
			s.Positive++
		case models.CategoryNegative:
			s.Negative++
		default:
			s.Neutral++
		}
	}
	s.Mean = sum / float64(len(items))

	switch {
	case s.Mean > 0.3:
		s.Label = "Bullish"
	case s.Mean > 0.1:
		s.Label = "Slightly Bullish"
	case s.Mean < -0.3:
		s.Label = "Bearish"
	case s.Mean < -0.1:
		s.Label = "Slightly Bearish"
	}
	return s
}

// Distribution counts articles per category.
func Distribution(items []models.ArticleSentiment) map[models.Category]int {
	out := map[models.Category]int{
		models.CategoryPositive: 0,
		models.CategoryNeutral:  0,
		models.CategoryNegative: 0,
	}
	for _, it := range items {
		out[it.Category]++
	}
	return out
}

// TermCount is a lexicon term and how often it appeared.
type TermCount struct {
	Term    string  `json:"term"`
	Count   int     `json:"count"`
	Valence float64 `json:"valence"`
}

// TopTerms returns the n most frequent lexicon terms in articles of the given
// category, most frequent first (ties broken alphabetically).
func (s *Scorer) TopTerms(items []models.ArticleSentiment, cat models.Category, n int) []TermCount {
	counts := make(map[string]int)
	for _, it := range items {
		if it.Category != cat {
			continue
		}
		for _, tok := range s.tokenize(it.Content()) {
			if _, ok := s.lex[tok.lower]; ok {
				counts[tok.lower]++
			}
		}
	}
	out := make([]TermCount, 0, len(counts))
	for term, c := range counts {
		out = append(out, TermCount{Term: term, Count: c, Valence: s.lex[term]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.Compare(out[i].Term, out[j].Term) < 0
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
