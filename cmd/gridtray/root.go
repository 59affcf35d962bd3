package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/GridTray/internal/config"
	"github.com/piwi3910/GridTray/internal/logging"
	"github.com/piwi3910/GridTray/internal/project"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gridtray",
	Short: "Gridfinity tray generator",
	Long: `GridTray lays out a grid of rectangular cells and emits an OpenSCAD script,
an SVG preview, DXF and PDF drawings and, through the OpenSCAD CLI, an STL mesh.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded
		logger = logging.New(cfg.Log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the log level (debug, info, warn, error)")
}

// presetsPath returns the configured preset store location.
func presetsPath() (string, error) {
	if cfg.Presets.Path != "" {
		return cfg.Presets.Path, nil
	}
	return project.DefaultPresetsPath()
}
