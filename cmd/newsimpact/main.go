// newsimpact measures how financial news sentiment relates to stock returns.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/api"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/config"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/observability"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/pipeline"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/report"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/tui"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set up in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newsimpact",
	Short: "Financial news sentiment vs. stock price correlation",
	Long: `newsimpact collects financial news for a set of tickers, scores each
headline with a finance-tuned sentiment lexicon, fetches daily prices and
correlates daily sentiment with the return realized on the following
trading sessions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger = observability.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Shared flags ---

// addRunFlags registers the flags shared by analyze, compare and monitor.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("stocks", nil, "tickers to analyze, comma separated (default from config)")
	cmd.Flags().String("start-date", "", "first news day, YYYY-MM-DD (default: end date - lookback)")
	cmd.Flags().String("end-date", "", "last news day, YYYY-MM-DD (default: today)")
	cmd.Flags().Int("lag-days", 0, "trading sessions between news and the measured return (default from config)")
	cmd.Flags().String("method", "", "correlation statistic: pearson or spearman (default from config)")
	addOutputFlags(cmd)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-dir", "", "directory for reports and data (default from config)")
	cmd.Flags().Bool("save-data", false, "write news, sentiment and correlation CSV files")
	cmd.Flags().Bool("no-visualize", false, "skip charts and the HTML report")
	cmd.Flags().Bool("pdf", false, "export the report as PDF")
}

// requestFromFlags builds a run request from the shared flags on top of the
// analyzer defaults.
func requestFromFlags(cmd *cobra.Command, def models.RunRequest) (models.RunRequest, error) {
	req := def
	flags := cmd.Flags()

	if stocks, _ := flags.GetStringSlice("stocks"); len(stocks) > 0 {
		req.Tickers = utils.ParseTickers(stocks...)
	}
	if flags.Changed("lag-days") {
		req.Lag, _ = flags.GetInt("lag-days")
		if req.Lag < 0 {
			return req, fmt.Errorf("--lag-days must not be negative")
		}
	}
	if m, _ := flags.GetString("method"); m != "" {
		req.Method = models.Method(strings.ToLower(m))
		if !req.Method.Valid() {
			return req, fmt.Errorf("--method must be %q or %q", models.MethodPearson, models.MethodSpearman)
		}
	}

	var err error
	if s, _ := flags.GetString("start-date"); s != "" {
		if req.From, err = utils.ParseDate(s); err != nil {
			return req, fmt.Errorf("--start-date: %w", err)
		}
	}
	if s, _ := flags.GetString("end-date"); s != "" {
		if req.To, err = utils.ParseDate(s); err != nil {
			return req, fmt.Errorf("--end-date: %w", err)
		}
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.From.After(req.To) {
		return req, fmt.Errorf("--start-date %s is after --end-date %s", utils.FormatDate(req.From), utils.FormatDate(req.To))
	}
	return req, nil
}

// writerFromFlags combines the output flags with the output config.
func writerFromFlags(cmd *cobra.Command) *report.Writer {
	flags := cmd.Flags()
	dir, _ := flags.GetString("output-dir")
	if dir == "" {
		dir = cfg.Output.Dir
	}
	saveData := cfg.Output.SaveData
	if flags.Changed("save-data") {
		saveData, _ = flags.GetBool("save-data")
	}
	visualize := cfg.Output.Visualize
	if noVis, _ := flags.GetBool("no-visualize"); noVis {
		visualize = false
	}
	pdf := cfg.Output.PDF
	if flags.Changed("pdf") {
		pdf, _ = flags.GetBool("pdf")
	}
	return report.NewWriter(dir, saveData, visualize, pdf, logger)
}

// setup wires the analyzer from the loaded config. The caller closes the store.
func setup(ctx context.Context, metrics *observability.Metrics) (*pipeline.Analyzer, store.RunStore, error) {
	a, runs, err := pipeline.NewFromConfig(ctx, cfg, metrics, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing pipeline: %w", err)
	}
	return a, runs, nil
}

// finish prints the results and writes the run artifacts.
func finish(ctx context.Context, cmd *cobra.Command, w *report.Writer, run *models.AnalysisRun) error {
	out := cmd.OutOrStdout()
	report.PrintResults(out, run, w.Report.Alpha)

	paths, err := w.Write(ctx, run)
	if err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	fmt.Fprintln(out)
	for _, p := range paths {
		fmt.Fprintln(out, report.MutedStyle.Render("  wrote "+p))
	}
	return nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newsimpact %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Correlate news sentiment with returns for a set of tickers",
	Example: `  newsimpact analyze --stocks AAPL,MSFT --start-date 2024-01-01 --end-date 2024-03-01
  newsimpact analyze --lag-days 2 --method spearman --save-data --pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, runs, err := setup(ctx, nil)
		if err != nil {
			return err
		}
		defer runs.Close()

		req, err := requestFromFlags(cmd, a.DefaultRequest())
		if err != nil {
			return err
		}
		run, err := a.Run(ctx, req)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		return finish(ctx, cmd, writerFromFlags(cmd), run)
	},
}

func init() {
	addRunFlags(analyzeCmd)
}

// --- Compare Command ---

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare sentiment impact across sectors",
	Long: `Run one analysis over the tickers of the given sectors and report each
ticker next to the pooled result. Known sectors: ` + strings.Join(utils.SectorNames(), ", ") + `.
Without --sectors the --stocks list is compared as given.`,
	Example: `  newsimpact compare --sectors tech,energy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, runs, err := setup(ctx, nil)
		if err != nil {
			return err
		}
		defer runs.Close()

		req, err := requestFromFlags(cmd, a.DefaultRequest())
		if err != nil {
			return err
		}
		sectors, _ := cmd.Flags().GetStringSlice("sectors")
		run, err := a.Compare(ctx, sectors, req)
		if err != nil {
			return fmt.Errorf("comparison failed: %w", err)
		}
		return finish(ctx, cmd, writerFromFlags(cmd), run)
	},
}

func init() {
	addRunFlags(compareCmd)
	compareCmd.Flags().StringSlice("sectors", nil, "sectors to compare, comma separated")
}

// --- Monitor Command ---

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Re-run the analysis on a sliding window at a fixed interval",
	Example: `  newsimpact monitor --interval 1h --duration 6h
  newsimpact monitor --stocks NVDA,AMD --interval 15m --tui`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		useTUI, _ := cmd.Flags().GetBool("tui")
		if useTUI {
			// The dashboard owns the terminal.
			logger = observability.DiscardLogger()
		}
		a, runs, err := setup(ctx, nil)
		if err != nil {
			return err
		}
		defer runs.Close()

		req, err := requestFromFlags(cmd, a.DefaultRequest())
		if err != nil {
			return err
		}
		opts := monitorOptions(cmd)
		w := writerFromFlags(cmd)

		if !useTUI {
			fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s every %s\n", strings.Join(req.Tickers, ", "), opts.Interval)
			return a.Monitor(ctx, opts, req, func(run *models.AnalysisRun) {
				if err := finish(ctx, cmd, w, run); err != nil {
					logger.Error("monitor output failed", "run_id", run.ID, "error", err)
				}
			})
		}

		ch := make(chan *models.AnalysisRun, 1)
		monErr := make(chan error, 1)
		go func() {
			defer close(ch)
			monErr <- a.Monitor(ctx, opts, req, func(run *models.AnalysisRun) {
				if _, err := w.Write(ctx, run); err != nil {
					logger.Error("monitor output failed", "run_id", run.ID, "error", err)
				}
				select {
				case ch <- run:
				case <-ctx.Done():
				}
			})
		}()

		if err := tui.Run(ctx, ch); err != nil {
			return err
		}
		cancel()
		return <-monErr
	},
}

func init() {
	addRunFlags(monitorCmd)
	monitorCmd.Flags().Duration("interval", 0, "time between iterations (default from config)")
	monitorCmd.Flags().Duration("duration", 0, "stop after this long, 0 runs until interrupted")
	monitorCmd.Flags().Int("window-days", 0, "sliding window length in days (default from config)")
	monitorCmd.Flags().Bool("tui", false, "show a live terminal dashboard")
}

func monitorOptions(cmd *cobra.Command) pipeline.MonitorOptions {
	opts := pipeline.MonitorOptions{
		Interval:   cfg.Monitor.Interval,
		Duration:   cfg.Monitor.Duration,
		WindowDays: cfg.Monitor.WindowDays,
	}
	flags := cmd.Flags()
	if flags.Changed("interval") {
		opts.Interval, _ = flags.GetDuration("interval")
	}
	if flags.Changed("duration") {
		opts.Duration, _ = flags.GetDuration("duration")
	}
	if flags.Changed("window-days") {
		opts.WindowDays, _ = flags.GetInt("window-days")
	}
	return opts
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		metrics := observability.NewMetrics("newsimpact")
		a, runs, err := setup(ctx, metrics)
		if err != nil {
			return err
		}
		defer runs.Close()

		srv := api.NewServer(cfg, api.Deps{
			Analyzer: a,
			Store:    runs,
			Metrics:  metrics,
			Logger:   logger,
			Version:  version,
		})
		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			srv.SetServeUI(false)
		}

		if withMonitor, _ := cmd.Flags().GetBool("monitor"); withMonitor {
			go func() {
				err := a.Monitor(ctx, monitorOptions(cmd), a.DefaultRequest(), srv.Publish)
				if err != nil {
					logger.Error("background monitor stopped", "error", err)
				}
			}()
		}

		host := cfg.API.Host
		if h, _ := cmd.Flags().GetString("host"); h != "" {
			host = h
		}
		port := cfg.API.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		addr := fmt.Sprintf("%s:%d", host, port)
		fmt.Fprintf(cmd.OutOrStdout(), "Serving API and dashboard on http://%s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (default from config)")
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	serveCmd.Flags().Bool("no-ui", false, "serve the API only")
	serveCmd.Flags().Bool("monitor", false, "run the monitor loop in the background and push runs to websocket clients")
	serveCmd.Flags().Duration("interval", 0, "background monitor interval (default from config)")
	serveCmd.Flags().Duration("duration", 0, "background monitor duration, 0 runs until shutdown")
	serveCmd.Flags().Int("window-days", 0, "background monitor window in days (default from config)")
}

// --- Runs Command ---

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse stored analysis runs",
	Long:  "Browse stored analysis runs. Only useful with storage.driver=postgres; the memory store starts empty.",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runs, err := pipeline.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer runs.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		list, err := runs.List(ctx, limit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No runs stored.")
			return nil
		}
		fmt.Fprintln(out, report.HeaderStyle.Render(fmt.Sprintf("%-36s  %-8s  %-21s  %-8s  %s", "ID", "MODE", "RANGE", "POOLED r", "TICKERS")))
		for _, s := range list {
			fmt.Fprintf(out, "%-36s  %-8s  %s..%s  %+8.3f  %s\n",
				s.ID, s.Mode, utils.FormatDate(s.From), utils.FormatDate(s.To), s.Pooled.Coefficient,
				utils.Truncate(strings.Join(s.Tickers, ","), 40))
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runs, err := pipeline.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer runs.Close()

		run, err := runs.Get(ctx, args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("run %q not found", args[0])
			}
			return err
		}

		out := cmd.OutOrStdout()
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "table", "":
			report.PrintResults(out, run, report.DefaultReportConfig().Alpha)
		case "markdown", "md":
			md, err := report.GenerateMarkdown(run, report.DefaultReportConfig())
			if err != nil {
				return err
			}
			fmt.Fprint(out, md)
		case "text":
			txt, err := report.GenerateText(run, report.DefaultReportConfig())
			if err != nil {
				return err
			}
			fmt.Fprint(out, txt)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		default:
			return fmt.Errorf("unsupported format %q (table, markdown, text, json)", format)
		}
		return nil
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "maximum runs to list")
	runsShowCmd.Flags().String("format", "table", "output format: table, markdown, text, json")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and credential status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  newsimpact System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  Time (NY):     %s\n", time.Now().In(utils.NewYork).Format(time.DateTime))
		if cfg.File != "" {
			fmt.Fprintf(out, "  Config file:   %s\n", cfg.File)
		} else {
			fmt.Fprintln(out, "  Config file:   (defaults)")
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Tickers:       %s\n", strings.Join(cfg.Analysis.Tickers, ", "))
		fmt.Fprintf(out, "    Method / lag:  %s / %d session(s), lookback %d days\n", cfg.Analysis.Method, cfg.Analysis.Lag, cfg.Analysis.LookbackDays)
		fmt.Fprintf(out, "    News:          %s\n", cfg.News.Provider)
		fmt.Fprintf(out, "    Prices:        %s\n", cfg.Prices.Provider)
		fmt.Fprintf(out, "    Storage:       %s\n", cfg.Storage.Driver)
		fmt.Fprintf(out, "    Output dir:    %s\n", cfg.Output.Dir)
		fmt.Fprintf(out, "    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Fprintf(out, "    PDF engine:    %v\n", report.IsPDFSupported())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}
		if cfg.News.Provider == "newsapi" && !cfg.HasNewsAPIKey() {
			fmt.Fprintln(out, report.WarnStyle.Render("    NewsAPI selected without a key: sample news will be used"))
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}
