// Package mesh turns modeling scripts into printable meshes by running an
// external solid modeling tool.
package mesh

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/piwi3910/GridTray/internal/scad"
)

// Renderer produces binary mesh bytes from a modeling script.
type Renderer interface {
	Render(ctx context.Context, script string) ([]byte, error)
}

// ErrToolUnavailable is returned when the modeling tool cannot be found.
var ErrToolUnavailable = errors.New("external tool unavailable")

// ErrToolFailed is matched by every *ToolFailedError.
var ErrToolFailed = errors.New("external tool failed")

// ToolFailedError carries the tool's combined output verbatim.
type ToolFailedError struct {
	ExitCode int
	Output   string
	Reason   string
}

func (e *ToolFailedError) Error() string {
	msg := e.Reason
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s (exit code %d)", msg, e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ToolFailedError) Unwrap() error { return ErrToolFailed }

// Config controls how the modeling tool is located and run.
type Config struct {
	// Path is an explicit binary location; empty searches PATH for Binary.
	Path            string        `yaml:"path" env:"PATH"`
	Binary          string        `yaml:"binary" env:"BINARY"`
	Timeout         time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxConcurrent   int           `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	ExpectedVersion string        `yaml:"expected_version" env:"EXPECTED_VERSION"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Binary:        "openscad",
		Timeout:       30 * time.Second,
		MaxConcurrent: 2,
	}
}

// File names used inside the per-render work directory.
const (
	scriptName = "model.scad"
	meshName   = "model.stl"
)

// OpenSCAD renders scripts with the openscad command line tool.
type OpenSCAD struct {
	path    string
	timeout time.Duration
	sem     *semaphore.Weighted
	logger  *zap.Logger
}

// NewOpenSCAD resolves the tool binary. A missing binary is not an error:
// the renderer is still returned and every Render reports ErrToolUnavailable.
func NewOpenSCAD(cfg Config, logger *zap.Logger) *OpenSCAD {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.Binary == "" {
		cfg.Binary = defaults.Binary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaults.MaxConcurrent
	}

	path := cfg.Path
	if path == "" {
		path, _ = exec.LookPath(cfg.Binary)
	} else {
		path = resolveConfigured(path, logger)
	}

	return &OpenSCAD{
		path:    path,
		timeout: cfg.Timeout,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		logger:  logger.With(zap.String("component", "mesh")),
	}
}

// resolveConfigured makes an explicit tool path absolute, since renders run
// inside a temp dir, and returns "" unless it names an executable file.
func resolveConfigured(path string, logger *zap.Logger) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		logger.Warn("invalid mesh tool path", zap.String("path", path), zap.Error(err))
		return ""
	}
	found, err := exec.LookPath(abs)
	if err != nil {
		logger.Warn("configured mesh tool is not executable", zap.String("path", abs), zap.Error(err))
		return ""
	}
	return found
}

// launchFailed reports whether err means the tool could not be started at
// all, as opposed to running and failing.
func launchFailed(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

// Available reports whether the tool binary was found.
func (o *OpenSCAD) Available() bool { return o.path != "" }

// Path returns the resolved binary, or "" when unavailable.
func (o *OpenSCAD) Path() string { return o.path }

// Render writes script to a temporary directory, runs the tool and returns
// the mesh it produced. Success requires a zero exit status and a non-empty
// output file. Callers waiting for a free slot give up when ctx is done.
func (o *OpenSCAD) Render(ctx context.Context, script string) ([]byte, error) {
	if !o.Available() {
		return nil, ErrToolUnavailable
	}
	if err := scad.Check(script); err != nil {
		return nil, &ToolFailedError{Reason: "invalid script", Output: err.Error()}
	}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for render slot: %w", err)
	}
	defer o.sem.Release(1)

	dir, err := os.MkdirTemp("", "gridtray-mesh-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, scriptName), []byte(script), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write script: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	cmd := o.command(runCtx, "--export-format", "binstl", "-o", meshName, scriptName)
	cmd.Dir = dir
	out, runErr := cmd.CombinedOutput()
	elapsed := time.Since(start)

	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			o.logger.Warn("mesh render timed out", zap.Duration("timeout", o.timeout))
			return nil, &ToolFailedError{Reason: "timed out", Output: string(out)}
		}
		if launchFailed(runErr) {
			o.logger.Warn("mesh tool cannot be started", zap.String("path", o.path), zap.Error(runErr))
			return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, runErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			o.logger.Warn("mesh render failed",
				zap.Int("exit_code", exitErr.ExitCode()),
				zap.Duration("elapsed", elapsed))
			return nil, &ToolFailedError{ExitCode: exitErr.ExitCode(), Output: string(out), Reason: "render failed"}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ToolFailedError{Reason: runErr.Error(), Output: string(out)}
	}

	data, err := os.ReadFile(filepath.Join(dir, meshName))
	if err != nil || len(data) == 0 {
		return nil, &ToolFailedError{Reason: "no mesh produced", Output: string(out)}
	}

	o.logger.Debug("mesh rendered", zap.Int("bytes", len(data)), zap.Duration("elapsed", elapsed))
	return data, nil
}

// Version runs the tool with --version and returns its trimmed output.
func (o *OpenSCAD) Version(ctx context.Context) (string, error) {
	if !o.Available() {
		return "", ErrToolUnavailable
	}
	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.command(runCtx, "--version").CombinedOutput()
	if err != nil && launchFailed(err) {
		return "", fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	if err != nil {
		return "", &ToolFailedError{Reason: "version query failed", Output: string(out)}
	}
	return strings.TrimSpace(string(out)), nil
}

// CheckVersion logs a warning when the installed tool does not report the
// expected version. An empty expectation disables the check.
func (o *OpenSCAD) CheckVersion(ctx context.Context, expected string) {
	if expected == "" || !o.Available() {
		return
	}
	got, err := o.Version(ctx)
	if err != nil {
		o.logger.Warn("cannot determine mesh tool version", zap.Error(err))
		return
	}
	if !strings.Contains(got, expected) {
		o.logger.Warn("unexpected mesh tool version",
			zap.String("expected", expected), zap.String("found", got))
	}
}

func (o *OpenSCAD) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, o.path, args...)
	// Children of a killed tool may hold the output pipe open.
	cmd.WaitDelay = time.Second
	return cmd
}
