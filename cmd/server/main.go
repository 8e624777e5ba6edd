// Package main is the entrypoint for the error relay server.
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

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"errorrelay/internal/analysis"
	"errorrelay/internal/api"
	"errorrelay/internal/api/handler"
	"errorrelay/internal/api/response"
	"errorrelay/internal/broker"
	"errorrelay/internal/config"
	"errorrelay/internal/notify"
	"errorrelay/internal/store"
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
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "port", cfg.Server.Port, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Construct the shared components. The store is the only
	// cross-request mutable state and is passed explicitly everywhere.
	st := store.NewMemoryStore()
	notifier := notify.NewWebhookNotifier(cfg.Webhook.BaseURL, cfg.Webhook.Timeout)
	gateway := analysis.NewHTTPGateway(cfg.AI.BaseURL, cfg.AI.Timeout)

	// 3. Bind the messaging fabric. A bind failure aborts startup.
	bk := broker.New(broker.Config{
		BindHost:    cfg.Broker.BindHost,
		BasePort:    cfg.Server.Port,
		NotifyDelay: cfg.Broker.NotifyDelay,
	}, st, notifier, gateway)
	if err := bk.Start(ctx); err != nil {
		return fmt.Errorf("start broker: %w", err)
	}
	defer bk.Close()

	// 4. Schedule the periodic store eviction sweep.
	sched := cron.New()
	if _, err := sched.AddFunc(fmt.Sprintf("@every %s", cfg.Store.CleanupInterval), func() {
		if removed := st.Cleanup(cfg.Store.MaxAge); removed > 0 {
			slog.Info("store cleanup", "removed", removed, "remaining", st.Len())
		}
	}); err != nil {
		return fmt.Errorf("schedule store cleanup: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 5. Build router with dependencies
	deps := api.Dependencies{
		HealthHandler:      healthHandler(),
		ErrorsHandler:      handler.NewErrorsHandler(st, bk),
		WebhookHandler:     handler.NewWebhookHandler(st, bk, bk),
		TickHandler:        handler.NewTickHandler(st, notifier),
		IntegrationHandler: handler.NewIntegrationHandler(cfg.Server.PublicURL),
	}
	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Run the HTTP server and the broker loop until a shutdown signal.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return bk.Serve(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, draining connections...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{
			"status":    "running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
