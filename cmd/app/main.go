package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amm_sim/internal/app"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	flag.Parse()

	// Optional .env feeds the AMM_SIM_* overrides
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env", slog.Any("error", err))
	}

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.NewMux(bootstrap),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// 4. Sequencer (single writer for HTTP commands)
	g.Go(func() error {
		bootstrap.Sequencer.Run(gctx)
		return nil
	})

	// 5. HTTP / WebSocket server
	g.Go(func() error {
		slog.Info("✅ HTTP server listening", slog.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// 6. Scenario replay
	if cfg.Scenario.Enabled {
		g.Go(func() error {
			err := bootstrap.RunScenario(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				// A halted scenario leaves the engine queryable; keep serving.
				slog.Error("Scenario halted", slog.Any("error", err))
			}
			return nil
		})
	}

	slog.InfoContext(ctx, "✨ AMM simulator fully operational. Press Ctrl+C to exit.")

	if err := g.Wait(); err != nil {
		slog.Error("Stopped with error", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("👋 Shut down gracefully")
}
