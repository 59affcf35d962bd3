package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/GridTray/internal/mesh"
	"github.com/piwi3910/GridTray/internal/metrics"
	"github.com/piwi3910/GridTray/internal/project"
	"github.com/piwi3910/GridTray/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web form and download endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		path, err := presetsPath()
		if err != nil {
			return err
		}
		presets, err := project.LoadWithBuiltins(path)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		renderer := mesh.NewOpenSCAD(cfg.Mesh, logger)
		if renderer.Available() {
			logger.Info("mesh tool found", zap.String("path", renderer.Path()))
			renderer.CheckVersion(ctx, cfg.Mesh.ExpectedVersion)
		} else {
			logger.Warn("mesh tool not found, STL export disabled", zap.String("binary", cfg.Mesh.Binary))
		}

		var collector *metrics.Collector
		if cfg.Server.EnableMetrics {
			collector = metrics.NewCollector("gridtray", logger)
		}

		srv := server.New(server.Options{
			Config:   cfg,
			Renderer: renderer,
			Metrics:  collector,
			Presets:  presets,
			Logger:   logger,
		})

		manager := server.NewManager(srv.Handler(ctx), server.ManagerConfigFrom(cfg.Server), logger)
		if err := manager.Start(); err != nil {
			return err
		}
		manager.WaitForShutdown(ctx)
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
