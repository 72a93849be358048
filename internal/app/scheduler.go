package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"bwf-news-parser/internal/config"
	"bwf-news-parser/internal/observability"
)

// Job один прогон
type Job func(ctx context.Context) error

// RunScheduled запускает job по режиму scheduler.mode.
// oneshot возвращает ошибку прогона; interval и cron работают до отмены ctx
// и только логируют ошибки отдельных прогонов.
func RunScheduled(ctx context.Context, cfg *config.Config, logger *observability.Logger, job Job) error {
	switch cfg.Scheduler.Mode {
	case "", "oneshot":
		return job(ctx)
	case "interval":
		return runInterval(ctx, cfg.GetSchedulerInterval(), logger, job)
	case "cron":
		return runCron(ctx, cfg.Scheduler.CronExpr, logger, job)
	default:
		return fmt.Errorf("unknown scheduler mode: %s", cfg.Scheduler.Mode)
	}
}

func runInterval(ctx context.Context, interval time.Duration, logger *observability.Logger, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler interval must be > 0")
	}

	logger.Info("Scheduler started", "mode", "interval", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := job(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Scheduled run failed", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func runCron(ctx context.Context, expr string, logger *observability.Logger, job Job) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(expr, func() {
		if ctx.Err() != nil {
			return
		}
		if err := job(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Scheduled run failed", "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	logger.Info("Scheduler started", "mode", "cron", "cron_expr", expr)
	c.Start()

	<-ctx.Done()
	// Stop ждёт завершения уже запущенного прогона
	<-c.Stop().Done()

	logger.Info("Scheduler stopped")
	return nil
}
