package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/analysis/sentiment"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/config"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/datasource"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/observability"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/pipeline"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store/memory"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

// flatPrices returns a gently rising close for every weekday in range.
type flatPrices struct{}

func (flatPrices) Name() string { return "flat" }

func (flatPrices) FetchDailyBars(_ context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	var bars []models.PriceBar
	price := 50.0
	for d := models.Day(from); !d.After(models.Day(to)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		price += float64(d.Day()%3) - 0.9
		bars = append(bars, models.PriceBar{Ticker: ticker, Date: d, Open: price, High: price + 1, Low: price - 1, Close: price})
	}
	return bars, nil
}

type testEnv struct {
	srv   *Server
	store *memory.RunStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	runs := memory.NewRunStore()
	logger := observability.DiscardLogger()
	agg := datasource.NewAggregator(datasource.NewSample(), flatPrices{}, datasource.WithLogger(logger))
	analyzer := pipeline.New(agg, sentiment.NewScorer(),
		pipeline.WithStore(runs),
		pipeline.WithLogger(logger),
		pipeline.WithClock(func() time.Time { return time.Date(2025, 3, 29, 12, 0, 0, 0, time.UTC) }),
	)
	cfg := &config.Config{}
	cfg.Storage.Driver = "memory"

	srv := NewServer(cfg, Deps{
		Analyzer: analyzer,
		Store:    runs,
		Metrics:  observability.NewMetrics("test"),
		Logger:   logger,
		Version:  "test",
	})
	return &testEnv{srv: srv, store: runs}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

// analyze runs one analysis through the API and returns the stored run.
func (e *testEnv) analyze(t *testing.T) *models.AnalysisRun {
	t.Helper()
	rec := e.do(t, "POST", "/api/v1/analyze", `{"tickers":["aapl","MSFT"],"from":"2025-03-03","to":"2025-03-28"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool                `json:"success"`
		Data    *models.AnalysisRun `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if !resp.Success || resp.Data == nil || resp.Data.ID == "" {
		t.Fatalf("unexpected analyze response: %+v", resp)
	}
	return resp.Data
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// ════════════════════════════════════════════════════════════════════
// Health and metrics
// ════════════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("expected success=true")
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatal("data should be a map")
	}
	if data["status"] != "ok" {
		t.Errorf("status: got %v", data["status"])
	}
	if data["version"] != "test" {
		t.Errorf("version: got %v", data["version"])
	}
	if data["store"] != "memory" {
		t.Errorf("store: got %v", data["store"])
	}
	for _, key := range []string{"ws_clients", "time"} {
		if _, ok := data[key]; !ok {
			t.Errorf("missing %s", key)
		}
	}
}

func TestHandleHealth_NoStore(t *testing.T) {
	srv := NewServer(nil, Deps{Logger: observability.DiscardLogger()})
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	data := decodeResponse(t, rec).Data.(map[string]interface{})
	if data["store"] != "none" {
		t.Errorf("store: got %v, want none", data["store"])
	}
	if data["version"] != "dev" {
		t.Errorf("version: got %v, want dev", data["version"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.analyze(t)

	rec := env.do(t, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_") {
		t.Error("expected namespaced metrics in output")
	}
}

// ════════════════════════════════════════════════════════════════════
// Analyze / compare
// ════════════════════════════════════════════════════════════════════

func TestHandleAnalyze_Success(t *testing.T) {
	env := newTestEnv(t)
	run := env.analyze(t)

	if run.Mode != models.ModeAnalyze {
		t.Errorf("mode: got %s", run.Mode)
	}
	if len(run.Tickers) != 2 || run.Tickers[0].Ticker != "AAPL" {
		t.Errorf("tickers not normalized: %+v", run.Request.Tickers)
	}
	if run.Request.Lag != 1 || run.Request.Method != models.MethodPearson {
		t.Errorf("defaults not applied: lag=%d method=%s", run.Request.Lag, run.Request.Method)
	}
	if env.store.Len() != 1 {
		t.Errorf("expected run to be stored, store has %d", env.store.Len())
	}
}

func TestHandleAnalyze_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"invalid JSON", "{invalid", "invalid request body"},
		{"bad method", `{"tickers":["AAPL"],"method":"kendall"}`, "method"},
		{"negative lag", `{"tickers":["AAPL"],"lag":-1}`, "lag"},
		{"bad date", `{"tickers":["AAPL"],"from":"2025-13-45"}`, "from"},
		{"from after to", `{"tickers":["AAPL"],"from":"2025-03-10","to":"2025-03-01"}`, "after"},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/api/v1/analyze", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
			}
			resp := decodeResponse(t, rec)
			if resp.Success {
				t.Error("expected success=false")
			}
			if !strings.Contains(resp.Error, tt.wantErr) {
				t.Errorf("error %q should mention %q", resp.Error, tt.wantErr)
			}
		})
	}
	if env.store.Len() != 0 {
		t.Errorf("rejected requests must not store runs, got %d", env.store.Len())
	}
}

func TestHandleAnalyze_NoAnalyzer(t *testing.T) {
	srv := NewServer(&config.Config{}, Deps{Logger: observability.DiscardLogger()})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(`{"tickers":["AAPL"]}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHandleCompare(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "POST", "/api/v1/compare", `{"sectors":["tech","bogus"],"from":"2025-03-03","to":"2025-03-28"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data models.AnalysisRun `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Mode != models.ModeCompare {
		t.Errorf("mode: got %s", resp.Data.Mode)
	}
	if len(resp.Data.Tickers) != 5 {
		t.Errorf("expected the 5 tech tickers, got %d", len(resp.Data.Tickers))
	}
}

func TestHandleCompare_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/v1/compare", `{"tickers":["AAPL"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing sectors: got %d", rec.Code)
	}

	rec = env.do(t, "POST", "/api/v1/compare", `{"sectors":["bogus"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown sector: got %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); !strings.Contains(resp.Error, "no tickers") {
		t.Errorf("error should wrap ErrNoTickers: %q", resp.Error)
	}
}

// ════════════════════════════════════════════════════════════════════
// Stored runs
// ════════════════════════════════════════════════════════════════════

func TestHandleListRuns(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/v1/runs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if data, ok := decodeResponse(t, rec).Data.([]interface{}); !ok || len(data) != 0 {
		t.Errorf("empty store should list [], got %v", data)
	}

	env.analyze(t)
	env.analyze(t)

	rec = env.do(t, "GET", "/api/v1/runs?limit=1", "")
	var resp struct {
		Data []models.RunSummary `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("limit=1: got %d runs", len(resp.Data))
	}

	rec = env.do(t, "GET", "/api/v1/runs?limit=zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid limit: got %d", rec.Code)
	}
}

func TestHandleGetRun(t *testing.T) {
	env := newTestEnv(t)
	run := env.analyze(t)

	rec := env.do(t, "GET", "/api/v1/runs/"+run.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp struct {
		Data models.AnalysisRun `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.ID != run.ID {
		t.Errorf("id: got %q, want %q", resp.Data.ID, run.ID)
	}

	rec = env.do(t, "GET", "/api/v1/runs/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing run: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRunEndpoints_NoStore(t *testing.T) {
	srv := NewServer(&config.Config{}, Deps{Logger: observability.DiscardLogger()})
	for _, path := range []string{"/api/v1/runs", "/api/v1/runs/x", "/api/v1/history/AAPL"} {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: got %d, want %d", path, rec.Code, http.StatusServiceUnavailable)
		}
	}
}

func TestHandleRunReport(t *testing.T) {
	env := newTestEnv(t)
	run := env.analyze(t)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"", "text/html", "<html"},
		{"html", "text/html", "AAPL"},
		{"markdown", "text/markdown", "| AAPL"},
		{"md", "text/markdown", "| MSFT"},
		{"text", "text/plain", "AAPL"},
	}
	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			rec := env.do(t, "GET", "/api/v1/runs/"+run.ID+"/report?format="+tt.format, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type: got %q, want %q", ct, tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body should contain %q", tt.contains)
			}
		})
	}

	rec := env.do(t, "GET", "/api/v1/runs/"+run.ID+"/report?format=docx", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported format: got %d", rec.Code)
	}
}

func TestHandleCharts(t *testing.T) {
	env := newTestEnv(t)
	run := env.analyze(t)

	rec := env.do(t, "GET", "/api/v1/runs/"+run.ID+"/charts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	names, ok := decodeResponse(t, rec).Data.([]interface{})
	if !ok || len(names) != 10 {
		t.Fatalf("expected 8 run charts plus 2 price charts, got %v", names)
	}

	rec = env.do(t, "GET", "/api/v1/runs/"+run.ID+"/charts/sentiment_trend.svg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("chart status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "<svg") {
		t.Error("expected SVG body")
	}

	rec = env.do(t, "GET", "/api/v1/runs/"+run.ID+"/charts/price_AAPL", "")
	if rec.Code != http.StatusOK {
		t.Errorf("price chart: got %d", rec.Code)
	}

	rec = env.do(t, "GET", "/api/v1/runs/"+run.ID+"/charts/pie", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown chart: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleHistory(t *testing.T) {
	env := newTestEnv(t)
	env.analyze(t)
	env.analyze(t)

	rec := env.do(t, "GET", "/api/v1/history/aapl", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp struct {
		Data []models.CorrelationResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Data))
	}
	for _, r := range resp.Data {
		if r.Ticker != "AAPL" {
			t.Errorf("unexpected ticker %q", r.Ticker)
		}
	}

	rec = env.do(t, "GET", "/api/v1/history/TSLA", "")
	if data, ok := decodeResponse(t, rec).Data.([]interface{}); !ok || len(data) != 0 {
		t.Errorf("unknown ticker should return [], got %v", data)
	}
}

// ════════════════════════════════════════════════════════════════════
// Reference data and configuration
// ════════════════════════════════════════════════════════════════════

func TestHandleSectors(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/api/v1/sectors", "")
	data, ok := decodeResponse(t, rec).Data.(map[string]interface{})
	if !ok {
		t.Fatal("data should be a map")
	}
	if _, ok := data["tech"]; !ok {
		t.Error("missing tech sector")
	}
}

func TestHandleGetConfig(t *testing.T) {
	env := newTestEnv(t)
	env.srv.cfg.News.NewsAPIKey = "super-secret-key"
	env.srv.cfg.File = "/etc/newsimpact/config.yaml"

	rec := env.do(t, "GET", "/api/v1/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "super-secret-key") {
		t.Error("config response leaked the NewsAPI key")
	}
	if !strings.Contains(body, `"config_file":"/etc/newsimpact/config.yaml"`) {
		t.Errorf("config_file missing from %s", body)
	}
}

func TestHandleGetConfigKeys(t *testing.T) {
	env := newTestEnv(t)
	env.srv.cfg.News.NewsAPIKey = "abcdef123456"

	rec := env.do(t, "GET", "/api/v1/config/keys", "")
	var resp struct {
		Data []config.KeyStatus `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) == 0 {
		t.Fatal("expected key statuses")
	}
	news := resp.Data[0]
	if !news.IsSet || news.Masked != "abc...456" {
		t.Errorf("unexpected NewsAPI key status: %+v", news)
	}
	if strings.Contains(rec.Body.String(), "abcdef123456") {
		t.Error("key statuses leaked the raw key")
	}
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", defaultListLimit, false},
		{"5", 5, false},
		{"100000", maxListLimit, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLimit(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLimit(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestServeUI(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<html") {
		t.Error("expected dashboard page")
	}

	rec = env.do(t, "GET", "/some/client/route", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<html") {
		t.Errorf("unknown paths should fall back to index.html, got %d", rec.Code)
	}

	env.srv.SetServeUI(false)
	rec = env.do(t, "GET", "/", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("UI disabled: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// ════════════════════════════════════════════════════════════════════
// WebSocket
// ════════════════════════════════════════════════════════════════════

func TestWSHub_RegisterBroadcast(t *testing.T) {
	hub := NewWSHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := hub.NewClient()
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(WSMessage{Type: "run", Data: "x"})
	select {
	case msg := <-client.send:
		if msg.Type != "run" {
			t.Errorf("type: got %q", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast not delivered")
	}

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	cancel()
	// After shutdown registration closes the client instead of blocking.
	late := hub.NewClient()
	done := make(chan struct{})
	go func() {
		hub.Register(late)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Register blocked after hub shutdown")
	}
	if _, ok := <-late.send; ok {
		t.Error("late client channel should be closed")
	}
}

func TestWebSocket_ReceivesRunEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.srv.Hub().Run(ctx)

	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return env.srv.Hub().ClientCount() == 1 })

	run := env.analyze(t)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Type string   `json:"type"`
		Data RunEvent `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "run" {
		t.Errorf("type: got %q", msg.Type)
	}
	if msg.Data.ID != run.ID {
		t.Errorf("event id: got %q, want %q", msg.Data.ID, run.ID)
	}
	if len(msg.Data.Results) != 2 {
		t.Errorf("expected 2 results in event, got %d", len(msg.Data.Results))
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
