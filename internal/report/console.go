package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// Terminal palette.
var (
	PositiveColor = lipgloss.Color("#10B981")
	NegativeColor = lipgloss.Color("#EF4444")
	WarnColor     = lipgloss.Color("#F59E0B")
	MutedColor    = lipgloss.Color("#6B7280")
	AccentColor   = lipgloss.Color("#7C3AED")

	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9CA3AF"))
	MutedStyle    = lipgloss.NewStyle().Foreground(MutedColor)
	PositiveStyle = lipgloss.NewStyle().Foreground(PositiveColor)
	NegativeStyle = lipgloss.NewStyle().Foreground(NegativeColor)
	WarnStyle     = lipgloss.NewStyle().Foreground(WarnColor)
	BoxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)
)

// column widths for the results table
var resultCols = []struct {
	title string
	width int
	right bool
}{
	{"TICKER", 8, false},
	{"r", 8, true},
	{"p-value", 9, true},
	{"n", 5, true},
	{"sentiment", 10, true},
	{"articles", 9, true},
	{"status", 18, false},
}

// ResultsTable renders the per-ticker and pooled results of run as a styled
// terminal table.
func ResultsTable(run *models.AnalysisRun, alpha float64) string {
	var rows []string

	header := make([]string, len(resultCols))
	for i, c := range resultCols {
		header[i] = cell(c.title, c.width, c.right, HeaderStyle)
	}
	rows = append(rows, strings.Join(header, " "))

	results := run.Results()
	if run.Pooled.Ticker != "" {
		results = append(results, run.Pooled)
	}
	for _, r := range results {
		rows = append(rows, resultLine(r, alpha))
	}

	title := TitleStyle.Render(fmt.Sprintf("%s  %s → %s  (%s, lag %d)",
		strings.ToUpper(string(run.Mode)),
		utils.FormatDate(run.Request.From), utils.FormatDate(run.Request.To),
		run.Request.Method, run.Request.Lag))

	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{title, ""}, rows...)...)
	return BoxStyle.Render(body)
}

func resultLine(r models.CorrelationResult, alpha float64) string {
	coefStyle := MutedStyle
	if r.Status == models.StatusOK {
		coefStyle = PositiveStyle
		if r.Coefficient < 0 {
			coefStyle = NegativeStyle
		}
	}
	coef := fmt.Sprintf("%+.3f", r.Coefficient)
	if r.Significant(alpha) {
		coef += "*"
	}

	statusStyle := PositiveStyle
	switch r.Status {
	case models.StatusOK:
	case models.StatusFetchFailed:
		statusStyle = NegativeStyle
	default:
		statusStyle = WarnStyle
	}

	plain := lipgloss.NewStyle()
	cells := []string{
		cell(r.Ticker, resultCols[0].width, false, plain.Bold(r.Ticker == models.PooledTicker)),
		cell(coef, resultCols[1].width, true, coefStyle),
		cell(fmt.Sprintf("%.4f", r.PValue), resultCols[2].width, true, plain),
		cell(fmt.Sprintf("%d", r.SampleSize), resultCols[3].width, true, plain),
		cell(fmt.Sprintf("%+.3f", r.AvgSentiment), resultCols[4].width, true, plain),
		cell(fmt.Sprintf("%d", r.ArticleCount), resultCols[5].width, true, plain),
		cell(string(r.Status), resultCols[6].width, false, statusStyle),
	}
	return strings.Join(cells, " ")
}

func cell(s string, width int, right bool, style lipgloss.Style) string {
	align := lipgloss.Left
	if right {
		align = lipgloss.Right
	}
	return style.Width(width).Align(align).Render(s)
}

// PrintResults writes the results table and any per-ticker messages to w.
func PrintResults(w io.Writer, run *models.AnalysisRun, alpha float64) {
	fmt.Fprintln(w, ResultsTable(run, alpha))
	for _, t := range run.Tickers {
		if t.Result.Message != "" {
			fmt.Fprintln(w, MutedStyle.Render(fmt.Sprintf("  %s: %s", t.Ticker, t.Result.Message)))
		}
	}
	fmt.Fprintln(w, MutedStyle.Render(fmt.Sprintf("  * significant at p < %.2f", alpha)))
}
