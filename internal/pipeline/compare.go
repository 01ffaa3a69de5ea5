package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// ResolveSectors expands sector names into tickers, preserving sector order
// and dropping repeats. Unknown sector names are returned separately.
func ResolveSectors(sectors []string) (tickers, unknown []string) {
	seen := make(map[string]bool)
	for _, raw := range utils.ParseTickers(sectors...) {
		name := strings.ToLower(raw)
		members, ok := utils.Sectors[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		for _, t := range members {
			if !seen[t] {
				seen[t] = true
				tickers = append(tickers, t)
			}
		}
	}
	return tickers, unknown
}

// Compare runs one analysis across the tickers of the given sectors. Unknown
// sectors are logged and skipped; it fails only when none resolve. With no
// sectors, req.Tickers are compared as given.
func (a *Analyzer) Compare(ctx context.Context, sectors []string, req models.RunRequest) (*models.AnalysisRun, error) {
	if len(sectors) > 0 {
		tickers, unknown := ResolveSectors(sectors)
		for _, u := range unknown {
			a.logger.Warn("unknown sector", "sector", u, "available", strings.Join(utils.SectorNames(), ", "))
		}
		if len(tickers) == 0 {
			return nil, fmt.Errorf("%w: no valid sectors in %v", ErrNoTickers, sectors)
		}
		req.Tickers = tickers
		req.Sectors = sectors
	}
	return a.run(ctx, models.ModeCompare, req)
}
