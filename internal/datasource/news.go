package datasource

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// Feed is an RSS or Atom feed. A URL containing "{ticker}" is queried once
// per ticker and its items are attributed to that ticker without filtering;
// other feeds are market-wide and filtered by ticker mentions.
type Feed struct {
	Name string
	URL  string
}

// PerTicker reports whether the feed URL is templated on the ticker.
func (f Feed) PerTicker() bool {
	return strings.Contains(f.URL, "{ticker}")
}

// DefaultFeeds lists the feeds used when none are configured.
var DefaultFeeds = []Feed{
	{Name: "Yahoo Finance", URL: "https://feeds.finance.yahoo.com/rss/2.0/headline?s={ticker}&region=US&lang=en-US"},
	{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
	{Name: "CNBC", URL: "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=10001147"},
	{Name: "Nasdaq", URL: "https://www.nasdaq.com/feed/rssoutbound?category=Stocks"},
}

// FeedsFromURLs builds feeds from configured URLs, naming each after its host.
func FeedsFromURLs(urls []string) []Feed {
	feeds := make([]Feed, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		name := u
		if i := strings.Index(u, "://"); i >= 0 {
			name = u[i+3:]
		}
		if i := strings.IndexByte(name, '/'); i >= 0 {
			name = name[:i]
		}
		feeds = append(feeds, Feed{Name: name, URL: u})
	}
	return feeds
}

// RSS implements NewsSource over a set of RSS/Atom feeds.
type RSS struct {
	feeds   []Feed
	cache   *Cache[[]models.Article]
	limiter *RateLimiter
	parser  *gofeed.Parser
}

// NewRSS creates an RSS news source. An empty feed list selects DefaultFeeds.
func NewRSS(feeds []Feed, cacheTTL time.Duration) *RSS {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	parser := gofeed.NewParser()
	parser.Client = HTTPClient
	parser.UserAgent = DefaultUserAgent
	return &RSS{
		feeds:   feeds,
		cache:   NewCache[[]models.Article](cacheTTL),
		limiter: NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  parser,
	}
}

// Name returns the data source name.
func (n *RSS) Name() string { return "RSS" }

// FetchNews returns articles about ticker from every feed. Feeds that fail are
// skipped; an error is returned only when every feed failed.
func (n *RSS) FetchNews(ctx context.Context, ticker string, from, to time.Time) ([]models.Article, error) {
	symbol := utils.NormalizeTicker(ticker)
	keywords := utils.TickerKeywords(symbol)

	var (
		articles []models.Article
		failures []string
	)
	for _, f := range n.feeds {
		items, err := n.fetchFeed(ctx, f, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures = append(failures, err.Error())
			continue
		}
		for _, a := range items {
			if !inRange(a.PublishedAt, from, to) {
				continue
			}
			if !f.PerTicker() && !matchesAny(a.Title+" "+a.Description, keywords) {
				continue
			}
			a.Ticker = symbol
			articles = append(articles, a)
		}
	}

	if len(failures) == len(n.feeds) && len(n.feeds) > 0 {
		return nil, fmt.Errorf("all feeds failed: %s", strings.Join(failures, "; "))
	}
	return models.DedupArticles(articles), nil
}

// fetchFeed parses one feed, caching market-wide feeds across tickers.
func (n *RSS) fetchFeed(ctx context.Context, f Feed, symbol string) ([]models.Article, error) {
	url := strings.ReplaceAll(f.URL, "{ticker}", symbol)
	if cached, ok := n.cache.Get(url); ok {
		return cached, nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", f.Name, err)
	}

	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.Article{
			Title:       strings.TrimSpace(utils.StripHTML(item.Title)),
			URL:         item.Link,
			Source:      f.Name,
			Description: utils.StripHTML(item.Description),
		}
		switch {
		case item.PublishedParsed != nil:
			a.PublishedAt = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			a.PublishedAt = item.UpdatedParsed.UTC()
		default:
			// Undated items cannot be placed on a session.
			continue
		}
		if a.Title == "" {
			continue
		}
		articles = append(articles, a)
	}

	n.cache.Set(url, articles)
	return articles, nil
}

var keywordPatterns = NewCache[*regexp.Regexp](24 * time.Hour)

// matchesAny checks if text mentions any of the keywords as whole words (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" || !strings.Contains(lower, kw) {
			continue
		}
		re, ok := keywordPatterns.Get(kw)
		if !ok {
			re = regexp.MustCompile(`(^|[^\p{L}\p{N}$])` + regexp.QuoteMeta(kw) + `($|[^\p{L}\p{N}])`)
			keywordPatterns.Set(kw, re)
		}
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
