package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/api"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/config"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/engine"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve level computations over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, root.cfgPath, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	return cmd
}

func serve(cmd *cobra.Command, cfgPath, addr string) error {
	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := loadConfig(cmd, cfgPath)
	if err != nil {
		return err
	}
	cfg := loader.Config()

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	eng := engine.New(ctx, cfg.Engine, slog.Default())
	slog.Info("engine started",
		"run_workers", cfg.Engine.RunWorkers,
		"queue_depth", cfg.Engine.QueueDepth,
		"max_nodes", cfg.Engine.MaxNodes,
	)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// Reload only fires callbacks for configs that pass Validate.
	loader.OnChange(func(newCfg *config.Config) {
		eng.SwapConf(newCfg.Engine)
		slog.Info("engine config hot-reloaded", "max_nodes", newCfg.Engine.MaxNodes)
	})
	if cfgPath != "" {
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.New(eng, loader),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errC <- err
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case <-sigCtx.Done():
	case err := <-errC:
		slog.Error("server error", "err", err)
		cancel()
		eng.Shutdown()
		return err
	}
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pool
	eng.Shutdown()
	slog.Info("goodbye")
	return nil
}
