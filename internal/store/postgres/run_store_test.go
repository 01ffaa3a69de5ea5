package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

func testRun(id string, started time.Time) *models.AnalysisRun {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	return &models.AnalysisRun{
		ID:   id,
		Mode: models.ModeCompare,
		Request: models.RunRequest{
			Tickers: []string{"AAPL", "MSFT"},
			From:    from,
			To:      to,
			Lag:     1,
			Method:  models.MethodSpearman,
			Sectors: []string{"tech"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Tickers: []models.TickerReport{
			{
				Ticker: "AAPL",
				Daily:  []models.SentimentScore{{Ticker: "AAPL", Date: from, Value: 0.4, ArticleCount: 2}},
				Result: models.CorrelationResult{
					Ticker: "AAPL", Method: models.MethodSpearman, Lag: 1, Coefficient: 0.42, PValue: 0.03,
					SampleSize: 12, Start: from, End: to, AvgSentiment: 0.1, ArticleCount: 20, Status: models.StatusOK,
				},
			},
			{
				Ticker:    "MSFT",
				NewsError: "rate limited",
				Result: models.CorrelationResult{
					Ticker: "MSFT", Method: models.MethodSpearman, Lag: 1, PValue: 1,
					Status: models.StatusFetchFailed, Message: "rate limited",
				},
			},
		},
		Pooled: models.CorrelationResult{
			Ticker: models.PooledTicker, Method: models.MethodSpearman, Lag: 1, Coefficient: 0.3,
			PValue: 0.2, SampleSize: 12, Start: from, End: to, Status: models.StatusOK,
		},
	}
}

func TestRunStore_SaveAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	s := NewRunStore(pool)
	ctx := context.Background()
	run := testRun("run-001", time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, "run-001")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Mode, got.Mode)
	assert.Equal(t, run.Request.Sectors, got.Request.Sectors)
	require.Len(t, got.Tickers, 2)
	assert.Equal(t, "rate limited", got.Tickers[1].NewsError)
	require.Len(t, got.Tickers[0].Daily, 1)
	assert.InDelta(t, 0.4, got.Tickers[0].Daily[0].Value, 1e-12)
}

func TestRunStore_SaveDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	s := NewRunStore(pool)
	ctx := context.Background()
	run := testRun("run-dup", time.Now().UTC())

	require.NoError(t, s.Save(ctx, run))
	assert.ErrorIs(t, s.Save(ctx, run), store.ErrDuplicateKey)
}

func TestRunStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewRunStore(pool).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunStore_ListAndHistory(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	s := NewRunStore(pool)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := testRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))
		run.Tickers[0].Result.Coefficient = float64(i) / 10
		require.NoError(t, s.Save(ctx, run))
	}

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-2", list[0].ID)
	assert.Equal(t, []string{"AAPL", "MSFT"}, list[0].Tickers)
	assert.Equal(t, models.PooledTicker, list[0].Pooled.Ticker)
	assert.Equal(t, models.StatusOK, list[0].Pooled.Status)
	assert.InDelta(t, 0.3, list[0].Pooled.Coefficient, 1e-12)

	hist, err := s.History(ctx, "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.InDelta(t, 0.2, hist[0].Coefficient, 1e-12)
	assert.Equal(t, models.MethodSpearman, hist[0].Method)

	failed, err := s.History(ctx, "MSFT", 1)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, models.StatusFetchFailed, failed[0].Status)
}
