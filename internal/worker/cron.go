package worker

import (
	"context"
	"log/slog"
	"time"

	"go-order-pipeline/internal/metrics"

	"github.com/robfig/cron/v3"
)

// StuckCounter is the reconciliation slice of the data layer.
type StuckCounter interface {
	CountStuckPaymentPending(ctx context.Context, age string) (int64, error)
}

// stuckAge is how long an order may sit in PAYMENT_PENDING before the sweep
// counts it as stranded. A crash between the pending advance and the
// terminal commit leaves orders here permanently — redelivery cannot rescue
// them, so they must surface on a dashboard instead.
const stuckAge = "5 minutes"

// StartCronJobs schedules the worker's periodic jobs and starts the
// scheduler: the counters snapshot on the metrics interval, and the stuck
// PAYMENT_PENDING sweep every minute.
//
// The returned *cron.Cron must be stopped on shutdown:
//
//	c := StartCronJobs(counters, db, cfg.MetricsInterval)
//	defer c.Stop()  // waits for any running job to finish before returning
func StartCronJobs(counters *Counters, db StuckCounter, metricsInterval time.Duration) *cron.Cron {
	c := cron.New()

	c.Schedule(cron.Every(metricsInterval), cron.FuncJob(counters.Snapshot))

	c.Schedule(cron.Every(time.Minute), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := db.CountStuckPaymentPending(ctx, stuckAge)
		if err != nil {
			slog.Error("stuck order sweep failed", "component", "cron", "error", err)
			return
		}
		metrics.StuckPaymentPending.Set(float64(n))
		if n > 0 {
			slog.Warn("orders stuck in payment_pending",
				"component", "cron",
				"count", n,
				"older_than", stuckAge,
			)
		}
	}))

	c.Start()
	slog.Info("cron scheduler started", "component", "cron", "metrics_interval", metricsInterval)
	return c
}
