package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// Writer persists the artifacts of a run under Dir.
type Writer struct {
	Dir       string
	SaveData  bool // CSV files and run JSON
	Visualize bool // SVG charts and the HTML report
	PDF       bool // PDF export of the HTML report
	Report    ReportConfig
	PDFConfig PDFConfig
	Logger    *slog.Logger
}

// NewWriter returns a Writer with default report settings.
func NewWriter(dir string, saveData, visualize, pdf bool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		Dir:       dir,
		SaveData:  saveData,
		Visualize: visualize,
		PDF:       pdf,
		Report:    DefaultReportConfig(),
		PDFConfig: DefaultPDFConfig(),
		Logger:    logger,
	}
}

// Write renders run into w.Dir and returns the paths written. The Markdown
// summary is always written; the rest depends on the Writer flags.
func (w *Writer) Write(ctx context.Context, run *models.AnalysisRun) ([]string, error) {
	if run == nil {
		return nil, fmt.Errorf("run is nil")
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var paths []string
	add := func(name string, render func(io.Writer) error) error {
		p := filepath.Join(w.Dir, name)
		if err := writeFile(p, render); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		paths = append(paths, p)
		return nil
	}

	md, err := GenerateMarkdown(run, w.Report)
	if err != nil {
		return nil, err
	}
	if err := add(FileName("summary", ".md", run), stringWriter(md)); err != nil {
		return paths, err
	}

	if w.SaveData {
		files := []struct {
			base   string
			render func(io.Writer, *models.AnalysisRun) error
		}{
			{NewsFile, WriteNewsCSV},
			{SentimentFile, WriteSentimentCSV},
			{CorrelationFile, WriteCorrelationCSV},
		}
		for _, f := range files {
			render := f.render
			if err := add(FileName(f.base, ".csv", run), func(out io.Writer) error { return render(out, run) }); err != nil {
				return paths, err
			}
		}
		if err := add(FileName("run", ".json", run), func(out io.Writer) error {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}); err != nil {
			return paths, err
		}
	}

	if !w.Visualize && !w.PDF {
		return paths, nil
	}

	html, err := GenerateHTML(run, w.Report)
	if err != nil {
		return paths, err
	}

	if w.Visualize {
		chartDir := filepath.Join(w.Dir, "charts")
		if err := os.MkdirAll(chartDir, 0o755); err != nil {
			return paths, fmt.Errorf("creating chart directory: %w", err)
		}
		for _, c := range Charts(run) {
			if err := add(filepath.Join("charts", FileName(c.Name, ".svg", run)), stringWriter(c.SVG)); err != nil {
				return paths, err
			}
		}
		if err := add(FileName("report", ".html", run), stringWriter(html)); err != nil {
			return paths, err
		}
	}

	if w.PDF {
		pcfg := w.PDFConfig
		pcfg.OutputPath = filepath.Join(w.Dir, FileName("report", ".pdf", run))
		out, err := GeneratePDF(ctx, html, pcfg)
		if err != nil {
			// non-fatal
			w.Logger.Warn("pdf export failed", "error", err)
		} else {
			if filepath.Ext(out) != ".pdf" {
				w.Logger.Info("no PDF engine found, wrote HTML instead", "path", out)
			}
			paths = append(paths, out)
		}
	}

	w.Logger.Debug("artifacts written", "run_id", run.ID, "count", len(paths), "dir", w.Dir)
	return paths, nil
}

func stringWriter(s string) func(io.Writer) error {
	return func(out io.Writer) error {
		_, err := io.WriteString(out, s)
		return err
	}
}

// writeFile renders into memory first so a failed render leaves no partial file.
func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
