package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const newsAPIFixture = `{"status":"ok","totalResults":3,"articles":[
{"source":{"id":null,"name":"Reuters"},"title":"Microsoft beats expectations","description":"Cloud <b>growth</b>.","url":"https://r.test/1","publishedAt":"2024-01-03T14:00:00Z"},
{"source":{"id":null,"name":"Reuters"},"title":"Microsoft beats expectations","description":"dup","url":"https://r.test/1","publishedAt":"2024-01-03T14:00:00Z"},
{"source":{"id":null,"name":"Removed"},"title":"[Removed]","description":"","url":"https://removed.test","publishedAt":"2024-01-03T14:00:00Z"},
{"source":{"id":null,"name":"Bloomberg"},"title":"Microsoft guidance","description":"","url":"https://b.test/2","publishedAt":"bad-date"}
]}`

func TestNewsAPIFetchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("X-Api-Key header = %q", r.Header.Get("X-Api-Key"))
		}
		q := r.URL.Query()
		if q.Get("q") != "MSFT" || q.Get("from") != "2024-01-01" || q.Get("to") != "2024-01-31" || q.Get("language") != "en" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(newsAPIFixture))
	}))
	defer srv.Close()

	src, err := NewNewsAPI(srv.URL, "test-key", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewNewsAPI error: %v", err)
	}
	articles, err := src.FetchNews(context.Background(), "msft", day("2024-01-01"), day("2024-01-31"))
	if err != nil {
		t.Fatalf("FetchNews error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article after dedup and filtering, got %d", len(articles))
	}
	a := articles[0]
	if a.Source != "Reuters" || a.Ticker != "MSFT" || a.Description != "Cloud growth." {
		t.Errorf("article mismatch: %+v", a)
	}
}

func TestNewsAPIErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","code":"rateLimited","message":"too many requests"}`))
	}))
	defer srv.Close()

	src, _ := NewNewsAPI(srv.URL, "test-key", 20, time.Minute)
	if _, err := src.FetchNews(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-31")); !errors.Is(err, ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}

func TestNewsAPIUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"error","code":"apiKeyInvalid"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	src, _ := NewNewsAPI(srv.URL, "bad-key", 20, time.Minute)
	_, err := src.FetchNews(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-31"))
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("got %v, want ErrHTTP 401", err)
	}
}

func TestNewNewsAPIRequiresKey(t *testing.T) {
	if _, err := NewNewsAPI("", "", 0, time.Minute); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("got %v, want ErrMissingCredentials", err)
	}
}
