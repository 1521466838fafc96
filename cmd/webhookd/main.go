package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealfynd/settlement/internal/config"
	idemredis "github.com/dealfynd/settlement/internal/idem/redis"
	ordersqlite "github.com/dealfynd/settlement/internal/order/sqlite"
	"github.com/dealfynd/settlement/internal/payments"
	"github.com/dealfynd/settlement/internal/pkg/telemetry"
	settlelogsqlite "github.com/dealfynd/settlement/internal/settlelog/sqlite"
	"github.com/dealfynd/settlement/internal/settlement"
	"github.com/dealfynd/settlement/internal/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	telemetry.InitLogger(cfg.ServiceName)

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	orders, err := ordersqlite.Open(cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to open order store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer orders.Close()

	audit, err := settlelogsqlite.Open(cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to open settlement log", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer audit.Close()

	events := idemredis.NewStore(cfg.RedisAddr, "settlement")
	defer events.Close()

	provider := payments.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey)
	settler := settlement.NewSettler(orders, provider, audit, cfg.FeeTable)
	handler := webhook.NewHandler(orders, settler, events, cfg.WebhookSecret)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           webhook.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("settlement webhook service running", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
}
