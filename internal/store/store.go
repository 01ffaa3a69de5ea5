// Package store persists analysis runs so they can be listed and replayed by
// the CLI and the HTTP API.
package store

import (
	"context"
	"errors"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

var (
	// ErrNotFound is returned when a requested run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when saving a run whose ID already exists.
	// Runs are immutable once saved.
	ErrDuplicateKey = errors.New("duplicate key: runs cannot be overwritten")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// RunStore stores analysis runs.
type RunStore interface {
	// Save persists a run. Returns ErrDuplicateKey if run.ID exists.
	Save(ctx context.Context, run *models.AnalysisRun) error

	// Get retrieves a run by ID. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*models.AnalysisRun, error)

	// List returns run summaries, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]models.RunSummary, error)

	// History returns one ticker's stored results across runs, newest run
	// first. Pass models.PooledTicker for the pooled results.
	History(ctx context.Context, ticker string, limit int) ([]models.CorrelationResult, error)

	// Close releases any underlying resources.
	Close()
}

// Validate checks the fields every store requires.
func Validate(run *models.AnalysisRun) error {
	if run == nil || run.ID == "" {
		return ErrInvalidInput
	}
	return nil
}
