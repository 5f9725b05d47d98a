package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"drawcheck/internal/analyzer"
	"drawcheck/internal/intent"
	"drawcheck/internal/orchestrator"
	"drawcheck/internal/platform/config"
	"drawcheck/internal/platform/httpserver"
	"drawcheck/internal/platform/logger"
	"drawcheck/internal/platform/metrics"
	"drawcheck/internal/session"
	"drawcheck/internal/standards"
	"drawcheck/internal/validation/handler"
	"drawcheck/internal/validator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the validation HTTP service",
	RunE:  runServe,
}

// runServe wires high-level dependencies and keeps the server lifecycle
// small. Business logic lives in the internal packages.
func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	store, err := standards.Load()
	if err != nil {
		return fmt.Errorf("load standards tables: %w", err)
	}

	m := metrics.New()

	sessions, err := session.NewManager(cfg.SessionDir, log,
		session.WithTTL(cfg.SessionTTL),
		session.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("init session manager: %w", err)
	}

	an, err := analyzer.New(sessions, log,
		analyzer.WithMinDensity(cfg.OCRMinDensity),
		analyzer.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}

	orch, err := orchestrator.New(an, validator.DefaultRegistry(), store, sessions, log,
		orchestrator.WithValidatorTimeout(cfg.ValidatorTimeout),
		orchestrator.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	h := handler.New(orch, sessions, intent.NewResolver(), log, m, cfg.MaxUploadBytes)

	router := chi.NewRouter()
	h.Register(router)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := sessions.Run(ctx, cfg.SweepInterval); err != nil && ctx.Err() == nil {
			log.Error("session sweeper stopped", "error", err)
		}
	}()

	log.Info("starting drawcheck", "addr", cfg.Addr, "standards_version", store.Version())
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
