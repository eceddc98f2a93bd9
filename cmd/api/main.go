package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brenda87/tswap/internal/config"
	"github.com/brenda87/tswap/internal/custody"
	"github.com/brenda87/tswap/internal/events"
	"github.com/brenda87/tswap/internal/handler"
	"github.com/brenda87/tswap/internal/logging"
	"github.com/brenda87/tswap/internal/metrics"
	"github.com/brenda87/tswap/internal/registry"
	"github.com/brenda87/tswap/internal/service"
	"github.com/brenda87/tswap/internal/storage"
	"github.com/brenda87/tswap/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	ledger := custody.NewMemoryLedger()
	reg := registry.New(cfg.QuoteAsset)

	emitters := events.MultiEmitter{events.NewSlogEmitter(logger)}
	if cfg.EventsPath != "" {
		emitters = append(emitters, events.NewSinkEmitter(storage.NewJsonlSink(cfg.EventsPath), logger))
	}
	var svcOpts []service.Option
	if cfg.PostgresDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		emitters = append(emitters, events.NewSinkEmitter(pgStore, logger))
		svcOpts = append(svcOpts, service.WithSnapshotStore(pgStore))
	}

	poolService, err := service.NewPoolService(logger, reg, ledger, emitters, m, svcOpts...)
	if err != nil {
		return err
	}
	poolHandler := handler.NewPoolHandler(logger, poolService)

	app := fiber.New()
	app.Post("/pools", poolHandler.CreatePool())
	app.Get("/pools", poolHandler.ListPools())
	app.Get("/quote", poolHandler.Quote())
	app.Post("/deposit", poolHandler.Deposit())
	app.Post("/withdraw", poolHandler.Withdraw())
	app.Post("/swap/exact-in", poolHandler.SwapExactIn())
	app.Post("/swap/exact-out", poolHandler.SwapExactOut())
	app.Post("/sell", poolHandler.Sell())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	logger.Info("starting pool service", "addr", cfg.Addr, "quote", cfg.QuoteAsset.Hex())

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = app.Shutdown()
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}

	return nil
}
