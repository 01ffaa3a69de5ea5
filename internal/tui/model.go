// Package tui is the terminal dashboard for monitor mode. It shows the
// latest run's per-ticker results and updates as new runs arrive.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/report"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// historySize is how many pooled coefficients the trend line keeps.
const historySize = 12

// RunMsg delivers a finished run to the model.
type RunMsg struct {
	Run *models.AnalysisRun
}

// doneMsg is sent when the run channel closes.
type doneMsg struct{}

var columns = []table.Column{
	{Title: "Ticker", Width: 8},
	{Title: "r", Width: 8},
	{Title: "p-value", Width: 9},
	{Title: "n", Width: 5},
	{Title: "Sentiment", Width: 10},
	{Title: "Articles", Width: 9},
	{Title: "Status", Width: 18},
}

// Model is the bubbletea model of the monitor dashboard.
type Model struct {
	runs    <-chan *models.AnalysisRun
	table   table.Model
	spinner spinner.Model
	alpha   float64

	latest  *models.AnalysisRun
	count   int
	history []float64
	done    bool
	width   int
}

// NewModel returns a dashboard fed by runs. The model stops listening when
// runs is closed.
func NewModel(runs <-chan *models.AnalysisRun) *Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#374151")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#F9FAFB")).
		Background(lipgloss.Color("#7C3AED"))
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(report.AccentColor)

	return &Model{
		runs:    runs,
		table:   t,
		spinner: sp,
		alpha:   0.05,
	}
}

// Init starts the spinner and waits for the first run.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case RunMsg:
		m.apply(msg.Run)
		return m, m.listen()
	case doneMsg:
		m.done = true
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// apply replaces the table contents with run's results.
func (m *Model) apply(run *models.AnalysisRun) {
	if run == nil {
		return
	}
	m.latest = run
	m.count++

	rows := make([]table.Row, 0, len(run.Tickers)+1)
	results := run.Results()
	if run.Pooled.Ticker != "" {
		results = append(results, run.Pooled)
	}
	for _, r := range results {
		coef := fmt.Sprintf("%+.3f", r.Coefficient)
		if r.Significant(m.alpha) {
			coef += "*"
		}
		rows = append(rows, table.Row{
			r.Ticker,
			coef,
			fmt.Sprintf("%.4f", r.PValue),
			fmt.Sprintf("%d", r.SampleSize),
			fmt.Sprintf("%+.3f", r.AvgSentiment),
			fmt.Sprintf("%d", r.ArticleCount),
			string(r.Status),
		})
	}
	m.table.SetRows(rows)

	if run.Pooled.Status == models.StatusOK {
		m.history = append(m.history, run.Pooled.Coefficient)
		if len(m.history) > historySize {
			m.history = m.history[len(m.history)-historySize:]
		}
	}
}

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(report.TitleStyle.Render("News Sentiment Monitor"))
	b.WriteString("\n\n")

	if m.latest == nil {
		if m.done {
			b.WriteString(report.MutedStyle.Render("monitor finished without results"))
		} else {
			b.WriteString(m.spinner.View() + " waiting for first run...")
		}
		b.WriteString("\n\n" + report.MutedStyle.Render("q: quit"))
		return b.String()
	}

	req := m.latest.Request
	b.WriteString(report.MutedStyle.Render(fmt.Sprintf("run %d · %s → %s · %s · lag %d",
		m.count, utils.FormatDate(req.From), utils.FormatDate(req.To), req.Method, req.Lag)))
	b.WriteString("\n")
	b.WriteString(report.BoxStyle.Render(m.table.View()))
	b.WriteString("\n")

	if len(m.history) > 0 {
		b.WriteString("pooled r: " + Sparkline(m.history) + fmt.Sprintf("  %+.3f", m.history[len(m.history)-1]))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("last update %s", m.latest.FinishedAt.Local().Format(time.Kitchen))
	if m.done {
		status += " · monitor finished"
	} else {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(report.MutedStyle.Render(status + " · ↑/↓: select · q: quit"))
	return b.String()
}

// listen waits for the next run on the channel.
func (m *Model) listen() tea.Cmd {
	runs := m.runs
	return func() tea.Msg {
		run, ok := <-runs
		if !ok {
			return doneMsg{}
		}
		return RunMsg{Run: run}
	}
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders coefficients in [-1, 1] as block characters.
func Sparkline(values []float64) string {
	out := make([]rune, len(values))
	for i, v := range values {
		v = max(-1, min(1, v))
		idx := int((v + 1) / 2 * float64(len(sparkLevels)-1))
		out[i] = sparkLevels[idx]
	}
	return string(out)
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, runs <-chan *models.AnalysisRun) error {
	p := tea.NewProgram(NewModel(runs), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
