package report

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func sampleBars(ticker string) []models.PriceBar {
	closes := []float64{100, 101, 99, 102, 104}
	days := []int{10, 11, 12, 13, 14}
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Ticker: ticker,
			Date:   day(days[i]),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: int64(1_000_000 + i*1000),
		}
	}
	return bars
}

func sampleArticle(ticker, title string, d int, compound float64, cat models.Category) models.ArticleSentiment {
	return models.ArticleSentiment{
		Article: models.Article{
			Ticker:      ticker,
			Title:       title,
			Source:      "Reuters",
			URL:         "https://example.com/" + strings.ToLower(ticker) + "/" + title,
			PublishedAt: day(d).Add(14 * time.Hour),
		},
		Compound: compound,
		Category: cat,
	}
}

func sampleRun() *models.AnalysisRun {
	aapl := models.TickerReport{
		Ticker: "AAPL",
		Articles: []models.ArticleSentiment{
			sampleArticle("AAPL", "Apple beats estimates with strong growth", 10, 0.76, models.CategoryPositive),
			sampleArticle("AAPL", "Apple faces weak demand", 12, -0.44, models.CategoryNegative),
			sampleArticle("AAPL", "<script>alert(1)</script> Apple announces event", 13, 0.0, models.CategoryNeutral),
		},
		Daily: []models.SentimentScore{
			{Ticker: "AAPL", Date: day(10), Value: 0.76, ArticleCount: 1},
			{Ticker: "AAPL", Date: day(12), Value: -0.44, ArticleCount: 1},
			{Ticker: "AAPL", Date: day(13), Value: 0.0, ArticleCount: 1},
		},
		Bars: sampleBars("AAPL"),
		Points: []models.AlignedPoint{
			{Ticker: "AAPL", SentimentDate: day(10), ReturnDate: day(11), Sentiment: 0.76, Return: 1.0, ArticleCount: 1},
			{Ticker: "AAPL", SentimentDate: day(12), ReturnDate: day(13), Sentiment: -0.44, Return: 3.03, ArticleCount: 1},
			{Ticker: "AAPL", SentimentDate: day(13), ReturnDate: day(14), Sentiment: 0.0, Return: 1.96, ArticleCount: 1},
		},
		Result: models.CorrelationResult{
			Ticker: "AAPL", Method: models.MethodPearson, Lag: 1,
			Coefficient: 0.8123, PValue: 0.01, SampleSize: 8,
			Start: day(10), End: day(14), AvgSentiment: 0.1067, ArticleCount: 3,
			Status: models.StatusOK,
		},
		LagSweep: []models.CorrelationResult{
			{Ticker: "AAPL", Lag: 0, Coefficient: 0.2, PValue: 0.5, SampleSize: 3, Status: models.StatusOK},
			{Ticker: "AAPL", Lag: 1, Coefficient: 0.8123, PValue: 0.01, SampleSize: 8, Status: models.StatusOK},
		},
		Volatility: []models.VolatilityBucket{
			{ArticleCount: 0, Days: 2, MeanRange: 1.9},
			{ArticleCount: 1, Days: 3, MeanRange: 2.1},
		},
	}
	msft := models.TickerReport{
		Ticker: "MSFT",
		Bars:   sampleBars("MSFT"),
		Result: models.CorrelationResult{
			Ticker: "MSFT", Method: models.MethodPearson, Lag: 1,
			PValue: 1, Status: models.StatusDataUnavailable,
			Message: "no articles collected",
		},
	}
	return &models.AnalysisRun{
		ID:   "run-1",
		Mode: models.ModeAnalyze,
		Request: models.RunRequest{
			Tickers: []string{"AAPL", "MSFT"},
			From:    day(1),
			To:      day(15),
			Lag:     1,
			Method:  models.MethodPearson,
		},
		StartedAt:  time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 3, 15, 12, 0, 3, 0, time.UTC),
		Tickers:    []models.TickerReport{aapl, msft},
		Pooled: models.CorrelationResult{
			Ticker: models.PooledTicker, Method: models.MethodPearson, Lag: 1,
			Coefficient: 0.6, PValue: 0.03, SampleSize: 8, Status: models.StatusOK,
		},
	}
}

func fixedConfig() ReportConfig {
	cfg := DefaultReportConfig()
	cfg.Generated = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	return cfg
}

// ════════════════════════════════════════════════════════════════════
// Chart Tests
// ════════════════════════════════════════════════════════════════════

func TestLineChart_Basic(t *testing.T) {
	series := []LineChartSeries{
		{Name: "Mean compound", Values: []float64{0.1, -0.2, 0.4, 0.3}},
	}
	svg := LineChart(series, []string{"a", "b", "c", "d"}, DefaultChartConfig())

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Error("expected a complete svg document")
	}
	if !strings.Contains(svg, "<path") {
		t.Error("expected line path")
	}
	if !strings.Contains(svg, "Mean compound") {
		t.Error("expected series legend")
	}
}

func TestLineChart_Empty(t *testing.T) {
	svg := LineChart(nil, nil, DefaultChartConfig())
	if !strings.Contains(svg, NoDataMessage) {
		t.Error("expected placeholder")
	}
}

func TestLineChart_AllNaN(t *testing.T) {
	series := []LineChartSeries{{Name: "gaps", Values: []float64{math.NaN(), math.NaN()}}}
	svg := LineChart(series, nil, ChartConfig{})
	if !strings.Contains(svg, NoDataMessage) {
		t.Error("expected placeholder when every value is NaN")
	}
}

func TestLineChart_SinglePoint(t *testing.T) {
	svg := LineChart([]LineChartSeries{{Name: "one", Values: []float64{0.5}}}, nil, DefaultChartConfig())
	if !strings.Contains(svg, "<circle") {
		t.Error("expected a point marker")
	}
}

func TestHorizontalBarChart_WithNegative(t *testing.T) {
	items := []BarItem{
		{Label: "AAPL", Value: 0.7},
		{Label: "MSFT", Value: -0.4},
	}
	svg := HorizontalBarChart(items, "%+.2f", DefaultChartConfig())
	if !strings.Contains(svg, "#4caf50") || !strings.Contains(svg, "#ef5350") {
		t.Error("expected sign colors for positive and negative bars")
	}
	if !strings.Contains(svg, "-0.40") {
		t.Error("expected formatted value label")
	}
}

func TestHorizontalBarChart_Empty(t *testing.T) {
	svg := HorizontalBarChart(nil, "", DefaultChartConfig())
	if !strings.Contains(svg, NoDataMessage) {
		t.Error("expected placeholder")
	}
}

func TestLinearFit(t *testing.T) {
	pts := []XY{{X: 0, Y: 1}, {X: 1, Y: 3}, {X: 2, Y: 5}, {X: 3, Y: 7}}
	slope, intercept, ok := LinearFit(pts)
	if !ok {
		t.Fatal("expected a fit")
	}
	if math.Abs(slope-2) > 1e-9 || math.Abs(intercept-1) > 1e-9 {
		t.Errorf("fit = %v, %v; want 2, 1", slope, intercept)
	}

	if _, _, ok := LinearFit([]XY{{X: 1, Y: 1}, {X: 1, Y: 2}}); ok {
		t.Error("expected no fit without X variance")
	}
	if _, _, ok := LinearFit([]XY{{X: 1, Y: 1}}); ok {
		t.Error("expected no fit for a single point")
	}
}

func TestScatterChart_RegressionLine(t *testing.T) {
	pts := []XY{{X: -0.5, Y: -1}, {X: 0, Y: 0.2}, {X: 0.5, Y: 1.1}}
	svg := ScatterChart(pts, "Sentiment", "Return (%)", DefaultChartConfig())
	if strings.Count(svg, "<circle") != 3 {
		t.Errorf("expected 3 points, got %d", strings.Count(svg, "<circle"))
	}
	if !strings.Contains(svg, `stroke-dasharray="6,3"`) {
		t.Error("expected regression line")
	}
	if !strings.Contains(svg, "Return (%)") {
		t.Error("expected axis name")
	}
}

func TestScatterChart_SinglePointNoLine(t *testing.T) {
	svg := ScatterChart([]XY{{X: 0.1, Y: 0.2}}, "x", "y", DefaultChartConfig())
	if strings.Contains(svg, `stroke-dasharray="6,3"`) {
		t.Error("did not expect a regression line for one point")
	}
}

func TestHeatColor(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{1, "#4caf50"},
		{-1, "#ef5350"},
		{0, "#ffffff"},
		{5, "#4caf50"},
		{math.NaN(), "#eeeeee"},
	}
	for _, tt := range tests {
		if got := heatColor(tt.v); got != tt.want {
			t.Errorf("heatColor(%v) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestHeatmapChart(t *testing.T) {
	svg := HeatmapChart(
		[]string{"AAPL", "MSFT"},
		[]string{"03-10", "03-11"},
		[][]float64{{0.5, math.NaN()}, {-0.5, 0.1}},
		DefaultChartConfig(),
	)
	if strings.Count(svg, "<rect") != 5 { // background + 4 cells
		t.Errorf("expected 5 rects, got %d", strings.Count(svg, "<rect"))
	}
	if !strings.Contains(svg, "n/a") {
		t.Error("expected missing cell tooltip")
	}
}

func TestPriceSentimentChart(t *testing.T) {
	bars := sampleBars("AAPL")
	daily := []models.SentimentScore{
		{Ticker: "AAPL", Date: day(10), Value: 0.6, ArticleCount: 2},
		{Ticker: "AAPL", Date: day(12), Value: -0.3, ArticleCount: 1},
	}
	svg := PriceSentimentChart(bars, daily, DefaultChartConfig())
	if !strings.Contains(svg, "2025-03-10 sentiment 0.600 (2 articles)") {
		t.Error("expected positive marker tooltip")
	}
	if !strings.Contains(svg, `fill="#ef5350"`) {
		t.Error("expected red marker for negative day")
	}

	if svg := PriceSentimentChart(nil, daily, DefaultChartConfig()); !strings.Contains(svg, NoDataMessage) {
		t.Error("expected placeholder without bars")
	}
}

func TestGaugeChart_Values(t *testing.T) {
	tests := []struct {
		value float64
		want  string
		color string
	}{
		{0.5, "+0.50", "#4caf50"},
		{0, "+0.00", "#ffc107"},
		{-0.8, "-0.80", "#ef5350"},
		{-3, "-1.00", "#ef5350"},
	}
	for _, tt := range tests {
		svg := GaugeChart(tt.value, "pooled", 200)
		if !strings.Contains(svg, tt.want) {
			t.Errorf("GaugeChart(%v): expected label %s", tt.value, tt.want)
		}
		if !strings.Contains(svg, tt.color) {
			t.Errorf("GaugeChart(%v): expected color %s", tt.value, tt.color)
		}
	}
}

func TestGaugeChart_ZeroWidth(t *testing.T) {
	svg := GaugeChart(0.1, "r", 0)
	if !strings.Contains(svg, `width="200"`) {
		t.Error("expected default width")
	}
}

// ════════════════════════════════════════════════════════════════════
// Run Chart Tests
// ════════════════════════════════════════════════════════════════════

func TestChartNames(t *testing.T) {
	names := ChartNames(sampleRun())
	if len(names) != 10 {
		t.Fatalf("expected 10 charts, got %d", len(names))
	}
	if names[len(names)-1] != "price_MSFT" {
		t.Errorf("last chart = %s, want price_MSFT", names[len(names)-1])
	}
}

func TestNewBoxStats(t *testing.T) {
	b, ok := NewBoxStats("AAPL", []float64{0.5, -0.4, 0.1, 0.9, 0})
	if !ok {
		t.Fatal("expected stats for a non-empty group")
	}
	want := BoxStats{Label: "AAPL", Min: -0.4, Q1: 0, Median: 0.1, Q3: 0.5, Max: 0.9, N: 5}
	if b != want {
		t.Errorf("got %+v, want %+v", b, want)
	}

	b, _ = NewBoxStats("MSFT", []float64{0, 1})
	if math.Abs(b.Q1-0.25) > 1e-12 || math.Abs(b.Median-0.5) > 1e-12 || math.Abs(b.Q3-0.75) > 1e-12 {
		t.Errorf("interpolated quartiles: got %+v", b)
	}

	if _, ok := NewBoxStats("EMPTY", nil); ok {
		t.Error("empty group should not produce stats")
	}
}

func TestSentimentBoxChart(t *testing.T) {
	c, err := RenderChart(sampleRun(), ChartSentimentBox)
	if err != nil {
		t.Fatalf("RenderChart error: %v", err)
	}
	// MSFT has no articles, so only AAPL gets a box.
	if n := strings.Count(c.SVG, `class="box"`); n != 1 {
		t.Errorf("expected 1 box, got %d", n)
	}
	if !strings.Contains(c.SVG, "AAPL n=3 min -0.440 q1 -0.220 median 0.000 q3 0.380 max 0.760") {
		t.Errorf("missing AAPL five-number summary in %s", c.SVG)
	}

	empty := BoxChart(nil, ChartConfig{Title: "Spread"})
	if !strings.Contains(empty, NoDataMessage) {
		t.Error("empty box chart should show the placeholder")
	}
}

func TestCharts_AllRendered(t *testing.T) {
	run := sampleRun()
	charts := Charts(run)
	if len(charts) != len(ChartNames(run)) {
		t.Fatalf("expected %d charts, got %d", len(ChartNames(run)), len(charts))
	}
	for _, c := range charts {
		if !strings.HasPrefix(c.SVG, "<svg") {
			t.Errorf("%s: not an svg", c.Name)
		}
		if c.Title == "" {
			t.Errorf("%s: missing title", c.Name)
		}
	}
}

func TestCharts_EmptyRunPlaceholders(t *testing.T) {
	charts := Charts(&models.AnalysisRun{})
	if len(charts) != 8 {
		t.Fatalf("expected 8 charts, got %d", len(charts))
	}
	for _, c := range charts {
		if !strings.Contains(c.SVG, NoDataMessage) {
			t.Errorf("%s: expected placeholder", c.Name)
		}
	}
}

func TestRenderChart_Unknown(t *testing.T) {
	run := sampleRun()
	if _, err := RenderChart(run, "pie"); !errors.Is(err, ErrUnknownChart) {
		t.Errorf("expected ErrUnknownChart, got %v", err)
	}
	if _, err := RenderChart(run, "price_TSLA"); !errors.Is(err, ErrUnknownChart) {
		t.Errorf("expected ErrUnknownChart for unknown ticker, got %v", err)
	}
}

func TestRenderChart_Heatmap(t *testing.T) {
	c, err := RenderChart(sampleRun(), ChartHeatmap)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.SVG, "AAPL") || !strings.Contains(c.SVG, "MSFT") {
		t.Error("expected a row per ticker")
	}
	if !strings.Contains(c.SVG, "03-12") {
		t.Error("expected date column")
	}
}

// ════════════════════════════════════════════════════════════════════
// Report Generator Tests
// ════════════════════════════════════════════════════════════════════

func TestGenerateHTML_Basic(t *testing.T) {
	html, err := GenerateHTML(sampleRun(), fixedConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		"News Sentiment Impact Report",
		"run-1",
		"AAPL",
		"+0.812",
		"strong positive",
		"data_unavailable",
		"Lag Sweep",
		"<svg",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in HTML", want)
		}
	}
}

func TestGenerateHTML_EscapesHeadlines(t *testing.T) {
	html, err := GenerateHTML(sampleRun(), fixedConfig())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("headline markup must be escaped")
	}
}

func TestGenerateHTML_NilRun(t *testing.T) {
	if _, err := GenerateHTML(nil, DefaultReportConfig()); err == nil {
		t.Error("expected error for nil run")
	}
}

func TestGenerateHTML_NoCharts(t *testing.T) {
	cfg := fixedConfig()
	cfg.Charts = false
	cfg.Title = "Custom"
	html, err := GenerateHTML(sampleRun(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, `class="chart"`) {
		t.Error("did not expect chart blocks")
	}
	if !strings.Contains(html, "<title>Custom</title>") {
		t.Error("expected custom title")
	}
}

func TestGenerateMarkdown(t *testing.T) {
	md, err := GenerateMarkdown(sampleRun(), fixedConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# News Sentiment Impact Report",
		"| AAPL | +0.812 * | 0.0100 | 8 |",
		"| ALL |",
		"> MSFT: no articles collected",
		"## Lag sweep",
		"| AAPL | 1 | +0.812 ← |",
		"## Strongest headlines",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in markdown", want)
		}
	}
}

func TestGenerateText_Basic(t *testing.T) {
	text, err := GenerateText(sampleRun(), fixedConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "TICKER") || !strings.Contains(text, "MSFT") {
		t.Error("expected results table")
	}
	if _, err := GenerateText(nil, fixedConfig()); err == nil {
		t.Error("expected error for nil run")
	}
}

func TestBuildReportData(t *testing.T) {
	d := BuildReportData(sampleRun(), fixedConfig())
	if d.Period != "2025-03-01 to 2025-03-15" {
		t.Errorf("period = %q", d.Period)
	}
	if d.Duration != "3.0s" {
		t.Errorf("duration = %q", d.Duration)
	}
	if len(d.Results) != 2 || d.Results[1].StatusClass != "warn" {
		t.Errorf("unexpected results %+v", d.Results)
	}
	if !d.Results[0].Significant {
		t.Error("AAPL should be significant at 0.05")
	}
	if len(d.Headlines) != 3 || d.Headlines[0].Compound != "+0.760" {
		t.Errorf("expected headlines sorted by strength, got %+v", d.Headlines)
	}
	best := 0
	for _, l := range d.LagRows {
		if l.Best {
			best++
			if l.Lag != 1 {
				t.Errorf("best lag = %d, want 1", l.Lag)
			}
		}
	}
	if best != 1 {
		t.Errorf("expected one best lag, got %d", best)
	}
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		r    float64
		want string
	}{
		{0.85, "strong positive"},
		{-0.72, "strong negative"},
		{0.5, "moderate positive"},
		{-0.25, "weak negative"},
		{0.1, "negligible"},
		{-0.05, "negligible"},
	}
	for _, tt := range tests {
		if got := Interpret(tt.r); got != tt.want {
			t.Errorf("Interpret(%v) = %q, want %q", tt.r, got, tt.want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// CSV Tests
// ════════════════════════════════════════════════════════════════════

func TestFixed(t *testing.T) {
	if got := fixed(0.1+0.2, 4); got != "0.3000" {
		t.Errorf("fixed = %s, want 0.3000", got)
	}
	if got := fixed(-0.81234, 3); got != "-0.812" {
		t.Errorf("fixed = %s, want -0.812", got)
	}
	v, err := ParseFixed("0.8123")
	if err != nil || v != 0.8123 {
		t.Errorf("ParseFixed = %v, %v", v, err)
	}
	if _, err := ParseFixed("abc"); err == nil {
		t.Error("expected parse error")
	}
}

func TestWriteCorrelationCSV(t *testing.T) {
	var sb strings.Builder
	if err := WriteCorrelationCSV(&sb, sampleRun()); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	if records[0][3] != "correlation" {
		t.Errorf("header = %v", records[0])
	}
	aapl := records[1]
	if aapl[0] != "AAPL" || aapl[3] != "0.8123" || aapl[4] != "0.010000" || aapl[6] != "2025-03-10" {
		t.Errorf("AAPL row = %v", aapl)
	}
	if records[2][6] != "" {
		t.Errorf("expected empty start for unavailable ticker, got %q", records[2][6])
	}
	if records[3][0] != models.PooledTicker {
		t.Errorf("last row = %v, want pooled", records[3])
	}
}

func TestWriteNewsAndSentimentCSV(t *testing.T) {
	run := sampleRun()

	var news strings.Builder
	if err := WriteNewsCSV(&news, run); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(strings.NewReader(news.String())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 articles, got %d", len(rows))
	}
	if rows[1][0] != "2025-03-10" || rows[1][6] != "0.7600" || rows[1][10] != "Positive" {
		t.Errorf("first article row = %v", rows[1])
	}

	var sent strings.Builder
	if err := WriteSentimentCSV(&sent, run); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sent.String(), "2025-03-12,AAPL,-0.4400,1") {
		t.Errorf("unexpected sentiment csv:\n%s", sent.String())
	}
}

func TestFileName(t *testing.T) {
	run := sampleRun()
	if got := FileName(NewsFile, ".csv", run); got != "news_data.csv" {
		t.Errorf("analyze = %s", got)
	}
	run.Mode = models.ModeCompare
	if got := FileName(CorrelationFile, ".csv", run); got != "correlation_data_comparison.csv" {
		t.Errorf("compare = %s", got)
	}
	run.Mode = models.ModeMonitor
	if got := FileName(SentimentFile, ".csv", run); got != "sentiment_data_20250315_120000.csv" {
		t.Errorf("monitor = %s", got)
	}
}

// ════════════════════════════════════════════════════════════════════
// Console Tests
// ════════════════════════════════════════════════════════════════════

func TestResultsTable(t *testing.T) {
	out := ResultsTable(sampleRun(), 0.05)
	for _, want := range []string{"TICKER", "AAPL", "MSFT", "ALL", "data_unavailable", "+0.812*"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table", want)
		}
	}
}

func TestPrintResults(t *testing.T) {
	var sb strings.Builder
	PrintResults(&sb, sampleRun(), 0.05)
	if !strings.Contains(sb.String(), "MSFT: no articles collected") {
		t.Error("expected ticker message")
	}
}

// ════════════════════════════════════════════════════════════════════
// PDF Tests
// ════════════════════════════════════════════════════════════════════

func TestDetectPDFEngine(t *testing.T) {
	engine := DetectPDFEngine()
	switch engine {
	case EngineWKHTML, EngineChromium, EngineNone:
	default:
		t.Errorf("unexpected engine: %s", engine)
	}
	if IsPDFSupported() != (engine != EngineNone) {
		t.Error("IsPDFSupported disagrees with DetectPDFEngine")
	}
}

func TestGeneratePDF_NoOutputPath(t *testing.T) {
	if _, err := GeneratePDF(context.Background(), "<html></html>", PDFConfig{}); err == nil {
		t.Error("expected error without output path")
	}
}

func TestGeneratePDF_HTMLFallback(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultPDFConfig()
	cfg.Engine = EngineNone
	cfg.OutputPath = filepath.Join(dir, "out", "report.pdf")

	path, err := GeneratePDF(context.Background(), "<html>hi</html>", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "report.html" {
		t.Errorf("path = %s, want report.html", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<html>hi</html>" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestGeneratePDF_UnsupportedEngine(t *testing.T) {
	cfg := DefaultPDFConfig()
	cfg.Engine = "weasyprint"
	cfg.OutputPath = filepath.Join(t.TempDir(), "r.pdf")
	if _, err := GeneratePDF(context.Background(), "", cfg); err == nil {
		t.Error("expected unsupported engine error")
	}
}

// ════════════════════════════════════════════════════════════════════
// Writer Tests
// ════════════════════════════════════════════════════════════════════

func TestWriter_AllArtifacts(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, true, true, false, nil)
	w.Report = fixedConfig()

	paths, err := w.Write(context.Background(), sampleRun())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		"summary.md",
		"news_data.csv",
		"sentiment_data.csv",
		"correlation_data.csv",
		"run.json",
		"report.html",
		filepath.Join("charts", "sentiment_vs_return.svg"),
		filepath.Join("charts", "price_AAPL.svg"),
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	// summary + 3 csv + json + 10 charts + html
	if len(paths) != 16 {
		t.Errorf("expected 16 paths, got %d", len(paths))
	}
}

func TestWriter_SummaryOnly(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false, false, false, nil)

	paths, err := w.Write(context.Background(), sampleRun())
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "summary.md" {
		t.Errorf("paths = %v", paths)
	}
}

func TestWriter_PDFFallback(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false, false, true, nil)
	w.PDFConfig.Engine = EngineNone

	run := sampleRun()
	run.Mode = models.ModeCompare
	paths, err := w.Write(context.Background(), run)
	if err != nil {
		t.Fatal(err)
	}
	last := paths[len(paths)-1]
	if filepath.Base(last) != "report_comparison.html" {
		t.Errorf("last path = %s", last)
	}
}

func TestWriter_NilRun(t *testing.T) {
	w := NewWriter(t.TempDir(), true, true, false, nil)
	if _, err := w.Write(context.Background(), nil); err == nil {
		t.Error("expected error for nil run")
	}
}

// ════════════════════════════════════════════════════════════════════
// Utility Tests
// ════════════════════════════════════════════════════════════════════

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "0.5s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "1.5m"},
		{2 * time.Hour, "2.0h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

func TestEscapeXML(t *testing.T) {
	got := escapeXML(`<a href="x">&</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;&amp;&lt;/a&gt;"
	if got != want {
		t.Errorf("escapeXML = %s, want %s", got, want)
	}
}

func TestPlotArea(t *testing.T) {
	x, y, w, h := DefaultChartConfig().plotArea()
	if x != 70 || y != 40 || w != 670 || h != 310 {
		t.Errorf("plotArea = %d,%d,%d,%d", x, y, w, h)
	}
}
