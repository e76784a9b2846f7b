// Package main is the entrypoint for the projectlens webhook server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/projectlens/internal/api"
	"github.com/kiranshivaraju/projectlens/internal/api/handler"
	mw "github.com/kiranshivaraju/projectlens/internal/api/middleware"
	"github.com/kiranshivaraju/projectlens/internal/api/response"
	"github.com/kiranshivaraju/projectlens/internal/cache"
	"github.com/kiranshivaraju/projectlens/internal/config"
	"github.com/kiranshivaraju/projectlens/internal/pipeline"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	orch, err := pipeline.FromConfig(cfg)
	if err != nil {
		return err
	}

	runs := handler.NewRuns(orch, redisCache, cfg.Webhook.RunTimeout, cfg.Webhook.SummaryTTL)

	router := api.NewRouter(api.Dependencies{
		Auth:           mw.NewAuth(cfg.Webhook.TokenHashes),
		RateLimit:      mw.NewRateLimit(redisCache, cfg.Webhook.RequestsPerMinute),
		HealthHandler:  healthHandler(redisCache),
		TriggerHandler: runs.Trigger,
		GetRunHandler:  runs.Get,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Sync runs answer only after the write-back.
		WriteTimeout: cfg.Webhook.RunTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := runs.Wait(shutdownCtx); err != nil {
		slog.Warn("background runs still in flight at shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks cache connectivity. The record store and the AI
// provider are only reached during runs.
func healthHandler(c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"cache": "ok"}

		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
			response.Status(w, http.StatusServiceUnavailable, map[string]any{
				"status":   "DEGRADED",
				"services": checks,
			})
			return
		}

		response.JSON(w, map[string]any{
			"status":   "OK",
			"services": checks,
		})
	}
}
