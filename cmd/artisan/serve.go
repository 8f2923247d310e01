package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		cfgFile   string
		hotReload bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve schemas and constructions over HTTP",
		Long: `Start an HTTP server exposing the types of a declaration file.

Endpoints:
  GET  /healthz
  GET  /metrics
  GET  /targets
  GET  /targets/{name}/schema[?form=list|dict]
  POST /targets/{name}

The types file is reloaded when it changes on disk or on SIGHUP.

Environment variables:
  ARTISAN_LISTEN  - listen address, overrides the config file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, hotReload)
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "artisan.yaml", "config file path")
	cmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload the types file when it changes")
	return cmd
}

func runServe(ctx context.Context, cfg *Config, hotReload bool) error {
	logger := newLogger(cfg.Log, os.Stderr)

	holder, err := NewScopeHolder(cfg.Types, logger)
	if err != nil {
		return err
	}
	defer holder.Stop()
	if hotReload {
		if err := holder.WatchFile(); err != nil {
			return err
		}
		holder.WatchSignals()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           newRouter(holder, cfg, logger, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("types", cfg.Types).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
