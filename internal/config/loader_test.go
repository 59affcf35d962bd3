package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "openscad", cfg.Mesh.Binary)
	assert.Equal(t, 30*time.Second, cfg.Mesh.Timeout)
	assert.Equal(t, 2, cfg.Mesh.MaxConcurrent)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Defaults.Columns)
	assert.Equal(t, 42.0, cfg.Defaults.CellSize)
	require.NoError(t, cfg.Validate())
}

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoader_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridtray.yaml")
	yamlContent := `
server:
  addr: ":9000"
  mesh_rate_limit: 0.5
mesh:
  path: /opt/openscad/bin/openscad
  timeout: 45s
  expected_version: "2021.01"
log:
  level: debug
  format: console
defaults:
  columns: 4
  rows: 1
  cell_size: 42
  wall_thickness: 1.5
  height: 21
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 0.5, cfg.Server.MeshRateLimit)
	assert.Equal(t, 4, cfg.Server.MeshBurst, "unset keys keep defaults")
	assert.Equal(t, "/opt/openscad/bin/openscad", cfg.Mesh.Path)
	assert.Equal(t, 45*time.Second, cfg.Mesh.Timeout)
	assert.Equal(t, "2021.01", cfg.Mesh.ExpectedVersion)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Defaults.Columns)
	assert.Equal(t, 1.5, cfg.Defaults.WallThickness)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "none.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridtray.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0644))

	t.Setenv("GRIDTRAY_SERVER_ADDR", ":7000")
	t.Setenv("GRIDTRAY_MESH_TIMEOUT", "5s")
	t.Setenv("GRIDTRAY_MESH_MAX_CONCURRENT", "8")
	t.Setenv("GRIDTRAY_LOG_OUTPUT_PATHS", "stdout, /tmp/gridtray.log")
	t.Setenv("GRIDTRAY_PRINT_DENSITY", "1.27")
	t.Setenv("GRIDTRAY_SERVER_ENABLE_METRICS", "false")
	t.Setenv("GRIDTRAY_PRINT_BED_WIDTH", "256")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Mesh.Timeout)
	assert.Equal(t, 8, cfg.Mesh.MaxConcurrent)
	assert.Equal(t, []string{"stdout", "/tmp/gridtray.log"}, cfg.Log.OutputPaths)
	assert.Equal(t, 1.27, cfg.Print.Density)
	assert.False(t, cfg.Server.EnableMetrics)
	assert.Equal(t, 256.0, cfg.Print.Bed.Width)
	assert.Equal(t, 220.0, cfg.Print.Bed.Depth)
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("TRAYS_SERVER_ADDR", ":6000")
	cfg, err := NewLoader().WithEnvPrefix("TRAYS").Load()
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Server.Addr)
}

func TestLoader_BadEnvValue(t *testing.T) {
	t.Setenv("GRIDTRAY_MESH_TIMEOUT", "soon")
	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRIDTRAY_MESH_TIMEOUT")
}

func TestApplyEnv_Kinds(t *testing.T) {
	type nested struct {
		Ratio float64 `env:"RATIO"`
	}
	type target struct {
		Name    string        `env:"NAME"`
		Count   int           `env:"COUNT"`
		Wait    time.Duration `env:"WAIT"`
		On      bool          `env:"ON"`
		Tags    []string      `env:"TAGS"`
		Inner   nested        `env:"INNER"`
		Ignored string
	}
	env := map[string]string{
		"X_NAME":        "tray",
		"X_COUNT":       "3",
		"X_WAIT":        "250ms",
		"X_ON":          "true",
		"X_TAGS":        "a, b",
		"X_INNER_RATIO": "0.5",
		"X_IGNORED":     "nope",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var got target
	require.NoError(t, applyEnv(reflect.ValueOf(&got).Elem(), "X", lookup))
	assert.Equal(t, target{
		Name:  "tray",
		Count: 3,
		Wait:  250 * time.Millisecond,
		On:    true,
		Tags:  []string{"a", "b"},
		Inner: nested{Ratio: 0.5},
	}, got)
}

func TestApplyEnv_UnsupportedKind(t *testing.T) {
	var got struct {
		Size uint `env:"SIZE"`
	}
	lookup := func(string) (string, bool) { return "1", true }
	err := applyEnv(reflect.ValueOf(&got).Elem(), "X", lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X_SIZE")
}

func TestLoad_RunsValidation(t *testing.T) {
	t.Setenv("GRIDTRAY_LOG_LEVEL", "verbose")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"write timeout too short", func(c *Config) { c.Server.WriteTimeout = 10 * time.Second }, "server.write_timeout"},
		{"zero burst", func(c *Config) { c.Server.MeshBurst = 0 }, "server.mesh_burst"},
		{"no mesh slots", func(c *Config) { c.Mesh.MaxConcurrent = 0 }, "mesh.max_concurrent"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"zero density", func(c *Config) { c.Print.Density = 0 }, "print.density"},
		{"bad defaults", func(c *Config) { c.Defaults.Rows = 0 }, "defaults: invalid dimension rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
