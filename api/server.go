// Package api provides the HTTP REST API server for the news impact analyzer.
//
// It exposes endpoints to run analyses, browse stored runs and their charts,
// inspect configuration, scrape metrics, and follow new runs over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/analysis/correlation"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/config"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/observability"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/pipeline"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/report"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/web"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
	analyzeTimeout   = 5 * time.Minute
)

// Deps are the collaborators the server needs. Only Analyzer is required
// for the analyze endpoints; run browsing needs Store.
type Deps struct {
	Analyzer *pipeline.Analyzer
	Store    store.RunStore
	Metrics  *observability.Metrics
	Logger   *slog.Logger
	Version  string
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	analyzer *pipeline.Analyzer
	store    store.RunStore
	metrics  *observability.Metrics
	logger   *slog.Logger
	version  string
	wsHub    *WSHub
	serveUI  bool // when true, serve the embedded dashboard at /
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	srv := &Server{
		cfg:      cfg,
		analyzer: deps.Analyzer,
		store:    deps.Store,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		version:  deps.Version,
		wsHub:    NewWSHub(deps.Metrics),
		serveUI:  true,
	}
	srv.router = srv.buildRouter()
	return srv
}

// SetServeUI controls whether the embedded dashboard is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// Publish broadcasts a finished run to WebSocket clients.
func (s *Server) Publish(run *models.AnalysisRun) {
	if run == nil {
		return
	}
	s.wsHub.Broadcast(WSMessage{Type: "run", Data: NewRunEvent(run)})
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: analyzeTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Analysis runs fetch remote data for every ticker.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(analyzeTimeout))
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/compare", s.handleCompare)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			// Stored runs
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{id}", s.handleGetRun)
			r.Get("/runs/{id}/report", s.handleRunReport)
			r.Get("/runs/{id}/charts", s.handleListCharts)
			r.Get("/runs/{id}/charts/{name}", s.handleChart)
			r.Get("/history/{ticker}", s.handleHistory)

			// Reference data
			r.Get("/sectors", s.handleSectors)

			// Configuration
			r.Get("/config", s.handleGetConfig)
			r.Get("/config/keys", s.handleGetConfigKeys)
		})

		r.Get("/ws", s.handleWebSocket)
	})

	if s.serveUI {
		s.mountUI(r, web.DistFS())
	}

	return r
}

// mountUI serves the embedded dashboard. Unknown paths fall back to
// index.html.
func (s *Server) mountUI(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, distFS)
			return
		}
		f.Close()

		w.Header().Set("Cache-Control", "no-cache")
		fileServer.ServeHTTP(w, r)
	})
}

// serveIndexHTML reads and serves the embedded index.html.
func serveIndexHTML(w http.ResponseWriter, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Tickers []string `json:"tickers,omitempty"`
	From    string   `json:"from,omitempty"` // YYYY-MM-DD, default to - lookback
	To      string   `json:"to,omitempty"`   // YYYY-MM-DD, default today
	Lag     *int     `json:"lag,omitempty"`  // trading sessions, default from config
	Method  string   `json:"method,omitempty"`
}

// CompareRequest is the body for POST /api/v1/compare.
type CompareRequest struct {
	AnalyzeRequest
	Sectors []string `json:"sectors"`
}

// RunEvent is the WebSocket payload announcing a finished run.
type RunEvent struct {
	models.RunSummary
	Results []models.CorrelationResult `json:"results"`
}

// NewRunEvent condenses run for broadcasting.
func NewRunEvent(run *models.AnalysisRun) RunEvent {
	return RunEvent{RunSummary: run.Summary(), Results: run.Results()}
}

// toRunRequest validates the body and converts it to a pipeline request.
func (s *Server) toRunRequest(req AnalyzeRequest) (models.RunRequest, error) {
	out := models.RunRequest{
		Tickers: utils.ParseTickers(req.Tickers...),
		Method:  models.Method(strings.ToLower(strings.TrimSpace(req.Method))),
	}
	if s.analyzer != nil {
		def := s.analyzer.DefaultRequest()
		out.Lag = def.Lag
		if out.Method == "" {
			out.Method = def.Method
		}
	}
	if req.Lag != nil {
		out.Lag = *req.Lag
	}
	if out.Lag < 0 {
		return out, fmt.Errorf("lag must not be negative")
	}
	if out.Method != "" && !out.Method.Valid() {
		return out, fmt.Errorf("method must be %q or %q", models.MethodPearson, models.MethodSpearman)
	}

	var err error
	if req.From != "" {
		if out.From, err = utils.ParseDate(req.From); err != nil {
			return out, fmt.Errorf("from: %w", err)
		}
	}
	if req.To != "" {
		if out.To, err = utils.ParseDate(req.To); err != nil {
			return out, fmt.Errorf("to: %w", err)
		}
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return out, fmt.Errorf("from %s is after to %s", req.From, req.To)
	}
	return out, nil
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	driver := "none"
	if s.store != nil {
		driver = s.cfg.Storage.Driver
		if driver == "" {
			driver = "memory"
		}
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    s.version,
			"store":      driver,
			"ws_clients": s.wsHub.ClientCount(),
			"time":       time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := s.toRunRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analyzer not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	run, err := s.analyzer.Run(ctx, req)
	s.respondRun(w, run, err)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Sectors) == 0 {
		writeError(w, http.StatusBadRequest, "sectors are required")
		return
	}
	req, err := s.toRunRequest(body.AnalyzeRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analyzer not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	run, err := s.analyzer.Compare(ctx, body.Sectors, req)
	s.respondRun(w, run, err)
}

func (s *Server) respondRun(w http.ResponseWriter, run *models.AnalysisRun, err error) {
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNoTickers),
			errors.Is(err, pipeline.ErrInvalidMethod),
			errors.Is(err, correlation.ErrInvalidLag):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, "analysis timed out")
		default:
			s.logger.Error("analysis failed", "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	s.Publish(run)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: run})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []models.RunSummary{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: run})
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	format := report.ReportFormat(strings.ToLower(r.URL.Query().Get("format")))
	var (
		out         string
		err         error
		contentType string
	)
	switch format {
	case "", report.FormatHTML:
		out, err = report.GenerateHTML(run, report.DefaultReportConfig())
		contentType = "text/html; charset=utf-8"
	case report.FormatMarkdown, "md":
		out, err = report.GenerateMarkdown(run, report.DefaultReportConfig())
		contentType = "text/markdown; charset=utf-8"
	case report.FormatText:
		out, err = report.GenerateText(run, report.DefaultReportConfig())
		contentType = "text/plain; charset=utf-8"
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out)) //nolint:errcheck
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: report.ChartNames(run)})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	name := strings.TrimSuffix(chi.URLParam(r, "name"), ".svg")
	chart, err := report.RenderChart(run, name)
	if err != nil {
		if errors.Is(err, report.ErrUnknownChart) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(chart.SVG)) //nolint:errcheck
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := s.store.History(r.Context(), ticker, limit)
	if err != nil {
		s.logger.Error("loading history failed", "ticker", ticker, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if results == nil {
		results = []models.CorrelationResult{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: results})
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: utils.Sectors})
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return false
	}
	return true
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*models.AnalysisRun, bool) {
	if !s.requireStore(w) {
		return nil, false
	}
	id := chi.URLParam(r, "id")
	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("run %q not found", id))
			return nil, false
		}
		s.logger.Error("loading run failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return nil, false
	}
	return run, true
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return min(n, maxListLimit), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
