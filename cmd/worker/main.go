package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go-order-pipeline/internal/broker"
	"go-order-pipeline/internal/config"
	"go-order-pipeline/internal/database"
	"go-order-pipeline/internal/logging"
	"go-order-pipeline/internal/payment"
	"go-order-pipeline/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logging.Setup("worker")
	cfg := config.Load()

	// ── Infrastructure ─────────────────────────────────────────────────────────

	db, err := database.Connect(cfg.PostgresDSN)
	if err != nil {
		slog.Error("postgres connect failed", "component", "worker", "error", err)
		os.Exit(1)
	}

	consumer := broker.NewConsumer(cfg.BrokerAddr, broker.GroupPayment)

	payments := &payment.MockProvider{
		SuccessRate:   cfg.PaymentSuccessRate,
		TransientRate: cfg.PaymentTransientRate,
	}

	// ── Background cron + metrics endpoint ─────────────────────────────────────

	counters := &worker.Counters{}
	cronScheduler := worker.StartCronJobs(counters, db, cfg.MetricsInterval)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		slog.Info("metrics listening", "component", "worker", "port", cfg.MetricsPort)
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			slog.Error("metrics server error", "component", "worker", "error", err)
		}
	}()

	// ── Run ────────────────────────────────────────────────────────────────────
	//
	// ctx is cancelled on SIGINT/SIGTERM, which causes Run to drain the
	// in-flight message (including interrupting a retry backoff) and return
	// cleanly before we close connections.

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := worker.NewHandler(db, payments, counters)
	w := worker.New(consumer, handler, counters, cfg.MaxRetries, cfg.RetryBackoff)
	if err := w.Run(ctx); err != nil {
		slog.Error("worker error", "component", "worker", "error", err)
	}

	// ── Graceful shutdown ──────────────────────────────────────────────────────
	//
	// Run() has returned — the consume loop is done.
	// cron.Stop() blocks until the currently-running job (if any) finishes.

	<-cronScheduler.Stop().Done()
	consumer.Close()
	db.Close()

	slog.Info("worker stopped", "component", "worker")
}
