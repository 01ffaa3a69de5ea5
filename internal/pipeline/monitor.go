package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/utils"
)

// MonitorOptions controls the monitor loop.
type MonitorOptions struct {
	Interval   time.Duration // time between iterations
	Duration   time.Duration // 0 runs until ctx is cancelled
	WindowDays int           // sliding window ending today
}

func (o MonitorOptions) withDefaults() MonitorOptions {
	if o.Interval <= 0 {
		o.Interval = time.Hour
	}
	if o.WindowDays <= 0 {
		o.WindowDays = 7
	}
	return o
}

// Monitor repeatedly analyzes a sliding window ending today. Each completed
// run is passed to onRun. A failed iteration is logged and the loop goes on.
// Monitor returns nil when the duration elapses or ctx is cancelled, and an
// error only when base is invalid.
func (a *Analyzer) Monitor(ctx context.Context, opts MonitorOptions, base models.RunRequest, onRun func(*models.AnalysisRun)) error {
	opts = opts.withDefaults()
	if _, err := a.normalize(base); err != nil {
		return err
	}
	start := time.Now()

	a.logger.Info("monitor started",
		"tickers", base.Tickers,
		"interval", opts.Interval,
		"duration", opts.Duration,
		"window_days", opts.WindowDays,
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for iteration := 1; ; iteration++ {
		select {
		case <-ctx.Done():
			a.logger.Info("monitor stopped", "iterations", iteration-1)
			return nil
		case <-timer.C:
		}

		to := utils.DateOnly(a.now().UTC())
		req := base
		req.To = to
		req.From = to.AddDate(0, 0, -opts.WindowDays)

		a.logger.Info("monitor iteration", "iteration", iteration)
		run, err := a.run(ctx, models.ModeMonitor, req)
		switch {
		case err == nil:
			if onRun != nil {
				onRun(run)
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			a.logger.Info("monitor stopped", "iterations", iteration)
			return nil
		default:
			a.logger.Error("monitor iteration failed", "iteration", iteration, "error", err)
		}

		if opts.Duration > 0 && time.Since(start) >= opts.Duration {
			a.logger.Info("monitor duration reached", "duration", opts.Duration, "iterations", iteration)
			return nil
		}
		a.logger.Info("next update", "at", time.Now().Add(opts.Interval).Format(time.DateTime))
		timer.Reset(opts.Interval)
	}
}
