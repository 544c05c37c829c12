package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/designorch/internal/config"
	httpserver "github.com/fyrsmithlabs/designorch/internal/http"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the orchestration HTTP API",
		Long: `Serve the orchestration HTTP API.

Endpoints:
  GET  /health
  GET  /metrics
  GET  /api/v1/providers
  POST /api/v1/providers/probe
  POST /api/v1/orchestrate

With --watch and --config, edits to the providers section of the config
file are applied without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, root, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "reload providers when the config file changes")
	return cmd
}

func serve(ctx context.Context, root *rootFlags, watch bool) error {
	a, err := bootstrap(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	server, err := httpserver.NewServer(a.orch, a.logger.Named("http"), &httpserver.Config{
		Host:        a.cfg.Server.Host,
		Port:        a.cfg.Server.Port,
		Version:     version,
		DefaultMode: task.ExecutionMode(a.cfg.Orchestrator.Mode),
		Gatherer:    a.registry,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if watch && root.configPath != "" {
		watcher, err := config.NewWatcher(root.configPath)
		if err != nil {
			a.logger.Warn(ctx, "Config watch disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			g.Go(func() error {
				return watcher.Run(ctx,
					func(cfg *config.Config) {
						if err := reloadProviders(ctx, a.orch, cfg, a.logger); err != nil {
							a.logger.Error(ctx, "Provider reload failed", zap.Error(err))
							return
						}
						a.logger.Info(ctx, "Providers reloaded", zap.Int("providers", len(cfg.Providers)))
					},
					func(err error) {
						a.logger.Warn(ctx, "Config reload rejected", zap.Error(err))
					})
			})
		}
	}

	return g.Wait()
}
