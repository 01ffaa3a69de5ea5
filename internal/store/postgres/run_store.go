package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// RunStore implements store.RunStore using PostgreSQL. The full run is kept
// as JSONB; correlation results are also written as rows so they can be
// queried per ticker.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Open connects, migrates and returns a ready store.
func Open(ctx context.Context, dsn string, maxConns int32) (*RunStore, error) {
	pool, err := NewPool(ctx, dsn, maxConns)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewRunStore(pool), nil
}

// Compile-time interface check.
var _ store.RunStore = (*RunStore)(nil)

// Save inserts the run and its results in one transaction. Returns
// ErrDuplicateKey if run.ID exists.
func (s *RunStore) Save(ctx context.Context, run *models.AnalysisRun) error {
	if err := store.Validate(run); err != nil {
		return err
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO analysis_runs (
			id, mode, tickers, from_date, to_date, lag, method, started_at, finished_at, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, query,
		run.ID,
		string(run.Mode),
		run.Request.Tickers,
		run.Request.From,
		run.Request.To,
		run.Request.Lag,
		string(run.Request.Method),
		run.StartedAt,
		run.FinishedAt,
		payload,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	results := append(run.Results(), run.Pooled)
	for _, r := range results {
		if r.Ticker == "" {
			continue
		}
		batch.Queue(`
			INSERT INTO correlation_results (
				run_id, ticker, method, lag, coefficient, p_value, sample_size,
				avg_sentiment, article_count, status, message, window_start, window_end
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (run_id, ticker) DO NOTHING
		`,
			run.ID, r.Ticker, string(r.Method), r.Lag, r.Coefficient, r.PValue,
			r.SampleSize, r.AvgSentiment, r.ArticleCount, string(r.Status), r.Message,
			r.Start, r.End,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *RunStore) Get(ctx context.Context, id string) (*models.AnalysisRun, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM analysis_runs WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}

	var run models.AnalysisRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

// List returns run summaries, newest first.
func (s *RunStore) List(ctx context.Context, limit int) ([]models.RunSummary, error) {
	query := `
		SELECT r.id, r.mode, r.tickers, r.from_date, r.to_date, r.started_at, r.finished_at,
		       COALESCE(c.method, ''), COALESCE(c.lag, 0), COALESCE(c.coefficient, 0), COALESCE(c.p_value, 1),
		       COALESCE(c.sample_size, 0), COALESCE(c.avg_sentiment, 0), COALESCE(c.article_count, 0),
		       COALESCE(c.status, ''), COALESCE(c.message, '')
		FROM analysis_runs r
		LEFT JOIN correlation_results c ON c.run_id = r.id AND c.ticker = $1
		ORDER BY r.started_at DESC, r.id ASC
	`
	args := []any{models.PooledTicker}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []models.RunSummary
	for rows.Next() {
		var (
			sum          models.RunSummary
			mode, method string
			status       string
		)
		err := rows.Scan(
			&sum.ID, &mode, &sum.Tickers, &sum.From, &sum.To, &sum.StartedAt, &sum.FinishedAt,
			&method, &sum.Pooled.Lag, &sum.Pooled.Coefficient, &sum.Pooled.PValue,
			&sum.Pooled.SampleSize, &sum.Pooled.AvgSentiment, &sum.Pooled.ArticleCount,
			&status, &sum.Pooled.Message,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.Mode = models.Mode(mode)
		sum.Pooled.Ticker = models.PooledTicker
		sum.Pooled.Method = models.Method(method)
		sum.Pooled.Status = models.Status(status)
		result = append(result, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

// History returns the stored results for one ticker across runs, newest
// run first.
func (s *RunStore) History(ctx context.Context, ticker string, limit int) ([]models.CorrelationResult, error) {
	query := `
		SELECT c.ticker, c.method, c.lag, c.coefficient, c.p_value, c.sample_size,
		       c.avg_sentiment, c.article_count, c.status, c.message, c.window_start, c.window_end
		FROM correlation_results c
		JOIN analysis_runs r ON r.id = c.run_id
		WHERE c.ticker = $1
		ORDER BY r.started_at DESC, r.id ASC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	var result []models.CorrelationResult
	for rows.Next() {
		var (
			r              models.CorrelationResult
			method, status string
		)
		if err := rows.Scan(&r.Ticker, &method, &r.Lag, &r.Coefficient, &r.PValue, &r.SampleSize,
			&r.AvgSentiment, &r.ArticleCount, &status, &r.Message, &r.Start, &r.End); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Method = models.Method(method)
		r.Status = models.Status(status)
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the connection pool.
func (s *RunStore) Close() {
	s.pool.Close()
}
