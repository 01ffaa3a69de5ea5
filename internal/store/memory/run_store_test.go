package memory

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
	return &models.AnalysisRun{
		ID:   id,
		Mode: models.ModeAnalyze,
		Request: models.RunRequest{
			Tickers: []string{"AAPL", "MSFT"},
			From:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			To:      time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			Lag:     1,
			Method:  models.MethodPearson,
		},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Tickers: []models.TickerReport{
			{Ticker: "AAPL", Result: models.CorrelationResult{Ticker: "AAPL", Coefficient: 0.42, SampleSize: 12, Status: models.StatusOK}},
			{Ticker: "MSFT", Result: models.CorrelationResult{Ticker: "MSFT", Status: models.StatusInsufficientData}},
		},
		Pooled: models.CorrelationResult{Ticker: models.PooledTicker, Coefficient: 0.3, SampleSize: 14, Status: models.StatusOK},
	}
}

func TestRunStore_SaveAndGet(t *testing.T) {
	s := NewRunStore()
	ctx := context.Background()
	run := testRun("run-001", time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, "run-001")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Request.Tickers, got.Request.Tickers)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
	require.Len(t, got.Tickers, 2)
	assert.InDelta(t, 0.42, got.Tickers[0].Result.Coefficient, 1e-12)
	assert.Equal(t, models.StatusInsufficientData, got.Tickers[1].Result.Status)
}

func TestRunStore_SaveDuplicate(t *testing.T) {
	s := NewRunStore()
	ctx := context.Background()
	run := testRun("run-dup", time.Now())

	require.NoError(t, s.Save(ctx, run))
	err := s.Save(ctx, run)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestRunStore_SaveInvalid(t *testing.T) {
	s := NewRunStore()
	assert.ErrorIs(t, s.Save(context.Background(), nil), store.ErrInvalidInput)
	assert.ErrorIs(t, s.Save(context.Background(), &models.AnalysisRun{}), store.ErrInvalidInput)
}

func TestRunStore_GetNotFound(t *testing.T) {
	s := NewRunStore()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunStore_Isolation(t *testing.T) {
	s := NewRunStore()
	ctx := context.Background()
	run := testRun("run-iso", time.Now())
	require.NoError(t, s.Save(ctx, run))

	// Mutating the original after save must not leak into the store.
	run.Tickers[0].Result.Coefficient = -1
	run.Request.Tickers[0] = "ZZZ"

	got, err := s.Get(ctx, "run-iso")
	require.NoError(t, err)
	assert.InDelta(t, 0.42, got.Tickers[0].Result.Coefficient, 1e-12)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", list[0].Tickers[0])

	// Nor does mutating a returned copy.
	got.Tickers[0].Ticker = "CHANGED"
	again, err := s.Get(ctx, "run-iso")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", again.Tickers[0].Ticker)
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	s := NewRunStore()
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, testRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "run-4", all[0].ID)
	assert.Equal(t, "run-0", all[4].ID)
	assert.Equal(t, models.PooledTicker, all[0].Pooled.Ticker)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, 5, s.Len())
}

func TestRunStore_History(t *testing.T) {
	s := NewRunStore()
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := testRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))
		run.Tickers[0].Result.Coefficient = float64(i) / 10
		require.NoError(t, s.Save(ctx, run))
	}

	hist, err := s.History(ctx, "AAPL", 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.InDelta(t, 0.2, hist[0].Coefficient, 1e-12)
	assert.InDelta(t, 0.1, hist[1].Coefficient, 1e-12)

	pooled, err := s.History(ctx, models.PooledTicker, 0)
	require.NoError(t, err)
	assert.Len(t, pooled, 3)

	none, err := s.History(ctx, "TSLA", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
