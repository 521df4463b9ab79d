package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loandash/internal/domain/loan"
)

// CacheRefreshJob walks every stored loan, re-runs the simulation and
// rewrites the schedule cache. Simulations are deterministic, so the only
// staleness this heals is cache eviction and out-of-band database edits.
type CacheRefreshJob struct {
	loanService loan.LoanService
	cache       loan.ScheduleCache
	logger      *slog.Logger
}

func NewCacheRefreshJob(loanSvc loan.LoanService, cache loan.ScheduleCache, logger *slog.Logger) *CacheRefreshJob {
	if loanSvc == nil || cache == nil || logger == nil {
		panic("CacheRefreshJob dependencies cannot be nil")
	}
	return &CacheRefreshJob{
		loanService: loanSvc,
		cache:       cache,
		logger:      logger.With("job", "CacheRefresh"),
	}
}

func (j *CacheRefreshJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting schedule cache refresh job.")

	loans, err := j.loanService.ListLoans(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list loans, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list loans: %w", err)
	}

	var refreshed, failed int
	for _, l := range loans {
		if ctx.Err() != nil {
			j.logger.WarnContext(ctx, "Cache refresh job cancelled.", slog.Any("error", ctx.Err()))
			return ctx.Err()
		}

		sim := j.loanService.SimulateAdhoc(ctx, l.Input, l.Rules)
		if err := j.cache.Set(ctx, l.ID, sim); err != nil {
			j.logger.ErrorContext(ctx, "Failed to refresh cached schedule", slog.Int64("loanID", l.ID), slog.Any("error", err))
			failed++
			continue
		}
		refreshed++
	}

	j.logger.InfoContext(ctx, "Schedule cache refresh job finished.",
		slog.Int("refreshed", refreshed),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(startTime)))
	if failed > 0 {
		return fmt.Errorf("cache refresh completed with %d failures", failed)
	}
	return nil
}
