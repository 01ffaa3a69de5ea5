package models

import (
	"sort"
	"strings"
	"time"
)

// Article represents a single news article collected for a ticker.
type Article struct {
	Ticker      string    `json:"ticker"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Key returns the identity used to drop duplicate articles.
func (a Article) Key() string {
	if a.URL != "" {
		return a.Ticker + "|" + a.URL
	}
	return a.Ticker + "|" + strings.ToLower(strings.TrimSpace(a.Title)) + "|" + Day(a.PublishedAt).Format("2006-01-02")
}

// Content is the text handed to the sentiment scorer.
func (a Article) Content() string {
	return strings.TrimSpace(a.Title + " " + a.Description)
}

// DedupArticles drops repeated articles (first occurrence wins) and sorts the
// rest newest first.
func DedupArticles(articles []Article) []Article {
	seen := make(map[string]bool, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		k := a.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

// Category buckets a compound score.
type Category string

const (
	CategoryPositive Category = "Positive"
	CategoryNeutral  Category = "Neutral"
	CategoryNegative Category = "Negative"
)

// ArticleSentiment is an article together with its lexicon scores.
type ArticleSentiment struct {
	Article
	Compound float64  `json:"compound"` // -1.0 (very negative) to +1.0 (very positive)
	Positive float64  `json:"positive"`
	Negative float64  `json:"negative"`
	Neutral  float64  `json:"neutral"`
	Category Category `json:"category"`
}

// SentimentScore is the mean compound score of one ticker's articles on one day.
type SentimentScore struct {
	Ticker       string    `json:"ticker"`
	Date         time.Time `json:"date"`
	Value        float64   `json:"value"`
	ArticleCount int       `json:"article_count"`
}
