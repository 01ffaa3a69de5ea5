package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// DefaultNewsAPIURL is the NewsAPI "everything" endpoint.
const DefaultNewsAPIURL = "https://newsapi.org/v2/everything"

// NewsAPI implements NewsSource over newsapi.org.
type NewsAPI struct {
	endpoint string
	apiKey   string
	pageSize int
	cache    *Cache[[]models.Article]
	limiter  *RateLimiter
}

// NewNewsAPI creates a NewsAPI source. An empty endpoint selects DefaultNewsAPIURL.
func NewNewsAPI(endpoint, apiKey string, pageSize int, cacheTTL time.Duration) (*NewsAPI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("newsapi: %w", ErrMissingCredentials)
	}
	if endpoint == "" {
		endpoint = DefaultNewsAPIURL
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	return &NewsAPI{
		endpoint: endpoint,
		apiKey:   apiKey,
		pageSize: pageSize,
		cache:    NewCache[[]models.Article](cacheTTL),
		limiter:  NewRateLimiter(1, time.Second),
	}, nil
}

// Name returns the data source name.
func (n *NewsAPI) Name() string { return "NewsAPI" }

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// FetchNews queries NewsAPI for English articles mentioning ticker.
func (n *NewsAPI) FetchNews(ctx context.Context, ticker string, from, to time.Time) ([]models.Article, error) {
	symbol := utils.NormalizeTicker(ticker)

	q := url.Values{}
	q.Set("q", symbol)
	q.Set("from", utils.FormatDate(from))
	q.Set("to", utils.FormatDate(to))
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(n.pageSize))
	u := n.endpoint + "?" + q.Encode()

	if cached, ok := n.cache.Get(u); ok {
		return cached, nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp newsAPIResponse
	if err := getJSON(ctx, u, map[string]string{"X-Api-Key": n.apiKey}, &resp); err != nil {
		return nil, fmt.Errorf("newsapi %s: %w", symbol, err)
	}
	if resp.Status != "ok" {
		if resp.Code == "rateLimited" {
			return nil, fmt.Errorf("newsapi %s: %w", symbol, ErrRateLimited)
		}
		return nil, fmt.Errorf("newsapi %s: %s: %s", symbol, resp.Code, resp.Message)
	}

	articles := make([]models.Article, 0, len(resp.Articles))
	for _, item := range resp.Articles {
		published, err := time.Parse(time.RFC3339, item.PublishedAt)
		if err != nil || item.Title == "" || item.Title == "[Removed]" {
			continue
		}
		if !inRange(published, from, to) {
			continue
		}
		articles = append(articles, models.Article{
			Ticker:      symbol,
			Title:       item.Title,
			Description: utils.StripHTML(item.Description),
			Source:      item.Source.Name,
			URL:         item.URL,
			PublishedAt: published.UTC(),
		})
	}

	articles = models.DedupArticles(articles)
	n.cache.Set(u, articles)
	return articles, nil
}
