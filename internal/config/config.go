// Package config loads GridTray settings.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("gridtray.yaml").
//	    WithEnvPrefix("GRIDTRAY").
//	    Load()
//
// Precedence: defaults, then the YAML file, then environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/piwi3910/GridTray/internal/mesh"
	"github.com/piwi3910/GridTray/internal/model"
)

// Config is the complete GridTray configuration.
type Config struct {
	Server   ServerConfig     `yaml:"server" env:"SERVER"`
	Mesh     mesh.Config      `yaml:"mesh" env:"MESH"`
	Log      LogConfig        `yaml:"log" env:"LOG"`
	Print    PrintConfig      `yaml:"print" env:"PRINT"`
	Presets  PresetsConfig    `yaml:"presets" env:"PRESETS"`
	Defaults model.TrayConfig `yaml:"defaults"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// MeshRateLimit is the sustained number of mesh exports per second.
	MeshRateLimit float64 `yaml:"mesh_rate_limit" env:"MESH_RATE_LIMIT"`
	MeshBurst     int     `yaml:"mesh_burst" env:"MESH_BURST"`
	EnableMetrics bool    `yaml:"enable_metrics" env:"ENABLE_METRICS"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format      string   `yaml:"format" env:"FORMAT"`
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// PrintConfig feeds the filament estimate.
type PrintConfig struct {
	Density    float64   `yaml:"density" env:"DENSITY"`
	PricePerKg float64   `yaml:"price_per_kg" env:"PRICE_PER_KG"`
	Bed        model.Bed `yaml:"bed" env:"BED"`
}

// PresetsConfig locates the preset store. An empty path means
// ~/.gridtray/presets.json.
type PresetsConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MeshRateLimit:   1,
			MeshBurst:       4,
			EnableMetrics:   true,
		},
		Mesh: mesh.DefaultConfig(),
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stdout"},
		},
		Print: PrintConfig{
			Density:    model.DefaultDensity,
			PricePerKg: 20,
			Bed:        model.DefaultBed(),
		},
		Defaults: model.DefaultTrayConfig(),
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Mesh.Timeout {
		errs = append(errs, "server.write_timeout must exceed mesh.timeout")
	}
	if c.Server.MeshRateLimit < 0 {
		errs = append(errs, "server.mesh_rate_limit must not be negative")
	}
	if c.Server.MeshRateLimit > 0 && c.Server.MeshBurst < 1 {
		errs = append(errs, "server.mesh_burst must be at least 1")
	}
	if c.Mesh.Timeout <= 0 {
		errs = append(errs, "mesh.timeout must be positive")
	}
	if c.Mesh.MaxConcurrent < 1 {
		errs = append(errs, "mesh.max_concurrent must be at least 1")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not one of json, console", c.Log.Format))
	}
	if c.Print.Density <= 0 {
		errs = append(errs, "print.density must be positive")
	}
	if c.Print.PricePerKg < 0 {
		errs = append(errs, "print.price_per_kg must not be negative")
	}
	if c.Print.Bed.Width <= 0 || c.Print.Bed.Depth <= 0 {
		errs = append(errs, "print.bed width and depth must be positive")
	}
	if c.Print.Bed.Spacing < 0 {
		errs = append(errs, "print.bed.spacing must not be negative")
	}
	if err := c.Defaults.Validate(); err != nil {
		errs = append(errs, "defaults: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
