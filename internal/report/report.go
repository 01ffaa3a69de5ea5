package report

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/analysis/correlation"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/analysis/sentiment"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator: orchestrates chart + template rendering
// ════════════════════════════════════════════════════════════════════

// ReportFormat specifies the output format.
type ReportFormat string

const (
	FormatHTML     ReportFormat = "html"
	FormatPDF      ReportFormat = "pdf"
	FormatMarkdown ReportFormat = "markdown"
	FormatText     ReportFormat = "text"
)

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Title     string  // custom report title (optional)
	Alpha     float64 // significance level (default: 0.05)
	Charts    bool    // embed SVG charts in HTML
	Headlines int     // strongest headlines listed (default: 10)
	TopTerms  int     // lexicon terms listed per category (default: 8)
	Generated time.Time
	Scorer    *sentiment.Scorer // lexicon used for term counts (optional)
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Alpha:     0.05,
		Charts:    true,
		Headlines: 10,
		TopTerms:  8,
	}
}

func (rc ReportConfig) withDefaults() ReportConfig {
	if rc.Alpha <= 0 || rc.Alpha >= 1 {
		rc.Alpha = 0.05
	}
	if rc.Headlines <= 0 {
		rc.Headlines = 10
	}
	if rc.TopTerms <= 0 {
		rc.TopTerms = 8
	}
	if rc.Generated.IsZero() {
		rc.Generated = time.Now().UTC()
	}
	return rc
}

// ════════════════════════════════════════════════════════════════════
// Report Data: flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model passed to the HTML and Markdown renderers.
type ReportData struct {
	Title       string
	RunID       string
	Mode        string
	Tickers     string
	Sectors     string
	Period      string
	Method      string
	Lag         int
	GeneratedAt string
	Duration    string
	Alpha       string

	Pooled    ResultRow
	Results   []ResultRow
	Sentiment []SentimentRow
	LagRows   []LagRow
	Headlines []HeadlineRow
	Terms     []TermRow
	Gauge     template.HTML
	Charts    []ChartBlock
}

// ResultRow is one correlation result formatted for display.
type ResultRow struct {
	Ticker         string
	Coefficient    string
	PValue         string
	SampleSize     int
	AvgSentiment   string
	Articles       int
	Status         string
	StatusClass    string // CSS class: ok, warn, fail
	Significant    bool
	Interpretation string
	Message        string
}

// SentimentRow summarizes one ticker's article sentiment.
type SentimentRow struct {
	Ticker   string
	Mean     string
	Label    string
	Positive int
	Neutral  int
	Negative int
	Articles int
}

// LagRow is one entry of a lag sweep.
type LagRow struct {
	Ticker      string
	Lag         int
	Coefficient string
	PValue      string
	SampleSize  int
	Best        bool
}

// HeadlineRow is one scored headline.
type HeadlineRow struct {
	Date     string
	Ticker   string
	Title    string
	Source   string
	URL      string
	Compound string
	Category string
}

// TermRow lists the lexicon terms driving one category.
type TermRow struct {
	Category string
	Terms    string
}

// ChartBlock is an embedded chart.
type ChartBlock struct {
	Name  string
	Title string
	SVG   template.HTML
}

// ════════════════════════════════════════════════════════════════════
// Generate Report
// ════════════════════════════════════════════════════════════════════

// GenerateHTML renders run as a standalone HTML page.
func GenerateHTML(run *models.AnalysisRun, cfg ReportConfig) (string, error) {
	if run == nil {
		return "", fmt.Errorf("run is nil")
	}
	data := BuildReportData(run, cfg)

	tmpl, err := template.New("report").Funcs(templateFuncs).Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// GenerateMarkdown renders run as a Markdown summary.
func GenerateMarkdown(run *models.AnalysisRun, cfg ReportConfig) (string, error) {
	if run == nil {
		return "", fmt.Errorf("run is nil")
	}
	return renderMarkdown(BuildReportData(run, cfg)), nil
}

// GenerateText renders run as a plain-text report for terminals and logs.
func GenerateText(run *models.AnalysisRun, cfg ReportConfig) (string, error) {
	if run == nil {
		return "", fmt.Errorf("run is nil")
	}
	return renderTextReport(BuildReportData(run, cfg)), nil
}

// BuildReportData flattens run into display strings.
func BuildReportData(run *models.AnalysisRun, cfg ReportConfig) ReportData {
	cfg = cfg.withDefaults()

	d := ReportData{
		Title:       cfg.Title,
		RunID:       run.ID,
		Mode:        string(run.Mode),
		Tickers:     strings.Join(run.Request.Tickers, ", "),
		Sectors:     strings.Join(run.Request.Sectors, ", "),
		Period:      utils.FormatDate(run.Request.From) + " to " + utils.FormatDate(run.Request.To),
		Method:      string(run.Request.Method),
		Lag:         run.Request.Lag,
		GeneratedAt: cfg.Generated.Format("02 Jan 2006, 15:04 MST"),
		Alpha:       fmt.Sprintf("%.2f", cfg.Alpha),
	}
	if d.Title == "" {
		d.Title = "News Sentiment Impact Report"
	}
	if !run.FinishedAt.IsZero() && !run.StartedAt.IsZero() {
		d.Duration = FormatDuration(run.FinishedAt.Sub(run.StartedAt))
	}

	d.Pooled = resultRow(run.Pooled, cfg.Alpha)
	for _, t := range run.Tickers {
		d.Results = append(d.Results, resultRow(t.Result, cfg.Alpha))

		s := sentiment.Summarize(t.Ticker, t.Articles)
		d.Sentiment = append(d.Sentiment, SentimentRow{
			Ticker:   t.Ticker,
			Mean:     fmt.Sprintf("%+.3f", s.Mean),
			Label:    s.Label,
			Positive: s.Positive,
			Neutral:  s.Neutral,
			Negative: s.Negative,
			Articles: s.ArticleCount,
		})

		best, ok := correlation.Best(t.LagSweep)
		for _, r := range t.LagSweep {
			d.LagRows = append(d.LagRows, LagRow{
				Ticker:      t.Ticker,
				Lag:         r.Lag,
				Coefficient: fmt.Sprintf("%+.3f", r.Coefficient),
				PValue:      fmt.Sprintf("%.4f", r.PValue),
				SampleSize:  r.SampleSize,
				Best:        ok && r.Lag == best.Lag,
			})
		}
	}

	d.Headlines = headlineRows(run, cfg.Headlines)
	d.Terms = termRows(run, cfg)
	d.Gauge = template.HTML(GaugeChart(run.Pooled.Coefficient, "pooled "+string(run.Pooled.Method), 220))

	if cfg.Charts {
		for _, c := range Charts(run) {
			d.Charts = append(d.Charts, ChartBlock{Name: c.Name, Title: c.Title, SVG: template.HTML(c.SVG)})
		}
	}
	return d
}

func resultRow(r models.CorrelationResult, alpha float64) ResultRow {
	row := ResultRow{
		Ticker:       r.Ticker,
		Coefficient:  fmt.Sprintf("%+.3f", r.Coefficient),
		PValue:       fmt.Sprintf("%.4f", r.PValue),
		SampleSize:   r.SampleSize,
		AvgSentiment: fmt.Sprintf("%+.3f", r.AvgSentiment),
		Articles:     r.ArticleCount,
		Status:       string(r.Status),
		Significant:  r.Significant(alpha),
		Message:      r.Message,
	}
	switch r.Status {
	case models.StatusOK:
		row.StatusClass = "ok"
		row.Interpretation = Interpret(r.Coefficient)
	case models.StatusFetchFailed:
		row.StatusClass = "fail"
		row.Interpretation = "n/a"
	default:
		row.StatusClass = "warn"
		row.Interpretation = "n/a"
	}
	return row
}

// Interpret describes the strength and direction of a correlation coefficient.
func Interpret(r float64) string {
	a := math.Abs(r)
	var strength string
	switch {
	case a >= 0.7:
		strength = "strong"
	case a >= 0.4:
		strength = "moderate"
	case a >= 0.2:
		strength = "weak"
	default:
		return "negligible"
	}
	if r < 0 {
		return strength + " negative"
	}
	return strength + " positive"
}

// headlineRows returns the n articles with the largest absolute compound.
func headlineRows(run *models.AnalysisRun, n int) []HeadlineRow {
	var all []models.ArticleSentiment
	for _, t := range run.Tickers {
		all = append(all, t.Articles...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return math.Abs(all[i].Compound) > math.Abs(all[j].Compound)
	})
	if len(all) > n {
		all = all[:n]
	}
	rows := make([]HeadlineRow, 0, len(all))
	for _, a := range all {
		rows = append(rows, HeadlineRow{
			Date:     utils.FormatDate(a.PublishedAt),
			Ticker:   a.Ticker,
			Title:    utils.Truncate(a.Title, 120),
			Source:   a.Source,
			URL:      a.URL,
			Compound: fmt.Sprintf("%+.3f", a.Compound),
			Category: string(a.Category),
		})
	}
	return rows
}

func termRows(run *models.AnalysisRun, cfg ReportConfig) []TermRow {
	var all []models.ArticleSentiment
	for _, t := range run.Tickers {
		all = append(all, t.Articles...)
	}
	if len(all) == 0 {
		return nil
	}
	scorer := cfg.Scorer
	if scorer == nil {
		scorer = sentiment.NewScorer()
	}
	var rows []TermRow
	for _, cat := range []models.Category{models.CategoryPositive, models.CategoryNegative} {
		terms := scorer.TopTerms(all, cat, cfg.TopTerms)
		if len(terms) == 0 {
			continue
		}
		parts := make([]string, len(terms))
		for i, t := range terms {
			parts[i] = fmt.Sprintf("%s (%d)", t.Term, t.Count)
		}
		rows = append(rows, TermRow{Category: string(cat), Terms: strings.Join(parts, ", ")})
	}
	return rows
}

var templateFuncs = template.FuncMap{
	"upper": strings.ToUpper,
}

// ════════════════════════════════════════════════════════════════════
// Markdown renderer
// ════════════════════════════════════════════════════════════════════

func renderMarkdown(d ReportData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", d.Title))
	sb.WriteString(fmt.Sprintf("- **Run:** `%s` (%s)\n", d.RunID, d.Mode))
	sb.WriteString(fmt.Sprintf("- **Tickers:** %s\n", d.Tickers))
	if d.Sectors != "" {
		sb.WriteString(fmt.Sprintf("- **Sectors:** %s\n", d.Sectors))
	}
	sb.WriteString(fmt.Sprintf("- **Period:** %s\n", d.Period))
	sb.WriteString(fmt.Sprintf("- **Method:** %s, lag %d session(s)\n", d.Method, d.Lag))
	sb.WriteString(fmt.Sprintf("- **Generated:** %s\n", d.GeneratedAt))
	if d.Duration != "" {
		sb.WriteString(fmt.Sprintf("- **Duration:** %s\n", d.Duration))
	}

	sb.WriteString("\n## Correlation\n\n")
	sb.WriteString("| Ticker | r | p-value | n | Avg sentiment | Articles | Status | Reading |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---:|---|---|\n")
	writeRow := func(r ResultRow) {
		sig := ""
		if r.Significant {
			sig = " *"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s%s | %s | %d | %s | %d | %s | %s |\n",
			r.Ticker, r.Coefficient, sig, r.PValue, r.SampleSize, r.AvgSentiment, r.Articles, r.Status, r.Interpretation))
	}
	for _, r := range d.Results {
		writeRow(r)
	}
	writeRow(d.Pooled)
	sb.WriteString(fmt.Sprintf("\n\\* significant at p < %s\n", d.Alpha))

	for _, r := range d.Results {
		if r.Message != "" {
			sb.WriteString(fmt.Sprintf("\n> %s: %s\n", r.Ticker, r.Message))
		}
	}

	if len(d.Sentiment) > 0 {
		sb.WriteString("\n## Sentiment\n\n")
		sb.WriteString("| Ticker | Mean | Label | Positive | Neutral | Negative |\n")
		sb.WriteString("|---|---:|---|---:|---:|---:|\n")
		for _, s := range d.Sentiment {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %d |\n",
				s.Ticker, s.Mean, s.Label, s.Positive, s.Neutral, s.Negative))
		}
	}

	if len(d.LagRows) > 0 {
		sb.WriteString("\n## Lag sweep\n\n")
		sb.WriteString("| Ticker | Lag | r | p-value | n |\n")
		sb.WriteString("|---|---:|---:|---:|---:|\n")
		for _, l := range d.LagRows {
			mark := ""
			if l.Best {
				mark = " ←"
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %s%s | %s | %d |\n",
				l.Ticker, l.Lag, l.Coefficient, mark, l.PValue, l.SampleSize))
		}
	}

	if len(d.Headlines) > 0 {
		sb.WriteString("\n## Strongest headlines\n\n")
		for _, h := range d.Headlines {
			sb.WriteString(fmt.Sprintf("- %s **%s** %s (%s, %s)\n", h.Date, h.Ticker, h.Title, h.Category, h.Compound))
		}
	}

	for _, t := range d.Terms {
		sb.WriteString(fmt.Sprintf("\n**%s terms:** %s\n", t.Category, t.Terms))
	}
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 72)
	thinLine := strings.Repeat("─", 72)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  Run %s | %s | %s\n", d.RunID, d.Mode, d.GeneratedAt))
	sb.WriteString(line + "\n\n")

	sb.WriteString(fmt.Sprintf("  Tickers: %s\n", d.Tickers))
	sb.WriteString(fmt.Sprintf("  Period:  %s | Method: %s | Lag: %d\n", d.Period, d.Method, d.Lag))
	sb.WriteString(thinLine + "\n")

	sb.WriteString(fmt.Sprintf("  %-8s %8s %9s %5s %9s %8s  %s\n", "TICKER", "r", "p", "n", "avg sent", "articles", "status"))
	for _, r := range append(append([]ResultRow(nil), d.Results...), d.Pooled) {
		sb.WriteString(fmt.Sprintf("  %-8s %8s %9s %5d %9s %8d  %s\n",
			r.Ticker, r.Coefficient, r.PValue, r.SampleSize, r.AvgSentiment, r.Articles, r.Status))
	}
	sb.WriteString(thinLine + "\n")

	for _, s := range d.Sentiment {
		sb.WriteString(fmt.Sprintf("  ■ %-8s %s (%s) +%d / =%d / -%d\n",
			s.Ticker, s.Label, s.Mean, s.Positive, s.Neutral, s.Negative))
	}

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  Correlation is not causation. Not investment advice.\n")
	sb.WriteString(line + "\n")

	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Utility
// ════════════════════════════════════════════════════════════════════

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
