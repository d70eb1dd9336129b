package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/biomarker-engine/internal/convert"
	"github.com/pdiddy/biomarker-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept report uploads over HTTP",
	Long: `Serve starts an HTTP server that extracts biomarkers from uploaded
reports.

  POST /upload               multipart field "pdf"; returns every biomarker
  POST /extract/:biomarker   same upload; returns one biomarker (e.g. /extract/ki67)
  GET  /biomarkers           tracked biomarker names
  GET  /health               liveness
  GET  /metrics              Prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "listen address (default 0.0.0.0)")
	serveCmd.Flags().Int("port", 0, "listen port (default 8085)")
	serveCmd.Flags().String("temp-dir", "", "directory for uploads in flight (default: OS temp dir)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srvCfg := cfg.Server
	overrideString(cmd, "host", &srvCfg.Host)
	overrideString(cmd, "temp-dir", &srvCfg.TempDir)
	if cmd.Flags().Changed("port") {
		srvCfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if srvCfg.TempDir != "" {
		if err := os.MkdirAll(srvCfg.TempDir, 0o700); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := newEngine(cfg.Extraction.Table)
	if err != nil {
		return err
	}
	provider, err := convert.NewProvider(ctx, cfg.Extraction.ProviderConfig, detectRuntime(ctx, cfg.Extraction.Backend))
	if err != nil {
		return err
	}

	srv, err := server.NewServer(srvCfg, engine, provider, logger, server.WithVersion(version))
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"backend":    provider.Name(),
		"biomarkers": len(engine.Names()),
		"auth":       srvCfg.APIKey != "",
	}).Info("starting biomarker server")
	return srv.Start(ctx)
}
