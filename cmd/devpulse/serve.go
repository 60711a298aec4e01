package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/devpulse/internal/config"
	"github.com/rohankatakam/devpulse/internal/server"
	"github.com/rohankatakam/devpulse/internal/storage"
)

var (
	serveAddr string
	serveRepo string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve summaries and time grids over HTTP",
	Long: `Start the JSON API:

  GET  /health
  GET  /api/v1/summary?period=last_30_days   (or from=&to=)
  GET  /api/v1/timeseries?period=all&granularity=week
  GET  /api/v1/overview?periods=last_7_days,last_30_days
  GET  /api/v1/report                        data-quality report
  GET  /api/v1/periods
  POST /api/v1/reload                        re-read the commit store
  GET  /metrics                              Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
	serveCmd.Flags().StringVar(&serveRepo, "repo", "", "restrict to one repository (owner/name)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := cfg.Validate(config.ValidationContextServe).Err(); err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(engine, datasetLoader(engine, store, serveRepo), logger)
	if err := srv.Reload(ctx); err != nil {
		return err
	}
	return srv.Run(ctx, cfg.Server.Addr)
}
