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
	"go-order-pipeline/internal/relay"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logging.Setup("relay")
	cfg := config.Load()

	// ── Infrastructure ─────────────────────────────────────────────────────────

	db, err := database.Connect(cfg.PostgresDSN)
	if err != nil {
		slog.Error("postgres connect failed", "component", "relay", "error", err)
		os.Exit(1)
	}

	publisher := broker.NewPublisher(cfg.BrokerAddr)

	// ── Metrics endpoint ───────────────────────────────────────────────────────

	go func() {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		slog.Info("metrics listening", "component", "relay", "port", cfg.MetricsPort)
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			slog.Error("metrics server error", "component", "relay", "error", err)
		}
	}()

	// ── Run ────────────────────────────────────────────────────────────────────
	//
	// ctx is cancelled on SIGINT/SIGTERM; the poll loop finishes the current
	// batch step and returns before connections are closed below.

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := relay.New(db, publisher, cfg.BatchSize, cfg.PollInterval)
	if err := r.Run(ctx); err != nil {
		slog.Error("relay error", "component", "relay", "error", err)
	}

	// ── Graceful shutdown ──────────────────────────────────────────────────────

	publisher.Close()
	db.Close()

	slog.Info("relay stopped", "component", "relay")
}
