// Package memory provides an in-process RunStore used by tests and by the CLI
// when no database is configured.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/internal/store"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// RunStore is an in-memory implementation of store.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string][]byte // keyed by run ID, JSON encoded
	runs map[string]models.RunSummary
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string][]byte),
		runs: make(map[string]models.RunSummary),
	}
}

// Compile-time interface check.
var _ store.RunStore = (*RunStore)(nil)

// Save stores an encoded copy so later mutation by the caller has no effect.
func (s *RunStore) Save(_ context.Context, run *models.AnalysisRun) error {
	if err := store.Validate(run); err != nil {
		return err
	}
	blob, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.ID]; exists {
		return store.ErrDuplicateKey
	}
	s.data[run.ID] = blob
	s.runs[run.ID] = run.Summary()
	return nil
}

// Get retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *RunStore) Get(_ context.Context, id string) (*models.AnalysisRun, error) {
	s.mu.RLock()
	blob, exists := s.data[id]
	s.mu.RUnlock()
	if !exists {
		return nil, store.ErrNotFound
	}

	var run models.AnalysisRun
	if err := json.Unmarshal(blob, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

// List returns summaries sorted by start time, newest first.
func (s *RunStore) List(_ context.Context, limit int) ([]models.RunSummary, error) {
	s.mu.RLock()
	result := make([]models.RunSummary, 0, len(s.runs))
	for _, r := range s.runs {
		r.Tickers = append([]string(nil), r.Tickers...)
		result = append(result, r)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.After(result[j].StartedAt)
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// History returns one ticker's results across runs, newest run first.
func (s *RunStore) History(ctx context.Context, ticker string, limit int) ([]models.CorrelationResult, error) {
	summaries, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	var result []models.CorrelationResult
	for _, sum := range summaries {
		if len(result) >= limit {
			break
		}
		if ticker == models.PooledTicker {
			result = append(result, sum.Pooled)
			continue
		}
		run, err := s.Get(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		if tr := run.Ticker(ticker); tr != nil {
			result = append(result, tr.Result)
		}
	}
	return result, nil
}

// Close is a no-op.
func (s *RunStore) Close() {}

// Len returns the number of stored runs.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
