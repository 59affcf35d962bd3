// Package artifact writes the generated files of one or more trays to disk.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/GridTray/internal/engine"
	"github.com/piwi3910/GridTray/internal/export"
	"github.com/piwi3910/GridTray/internal/mesh"
	"github.com/piwi3910/GridTray/internal/model"
	"github.com/piwi3910/GridTray/internal/scad"
)

// DefaultConcurrency bounds how many trays a batch processes at once.
const DefaultConcurrency = 4

// Options selects the optional outputs. The script and the SVG preview are
// always written.
type Options struct {
	STL    bool
	DXF    bool
	PDF    bool
	Labels bool

	Density    float64
	PricePerKg float64

	// Concurrency limits parallel trays in WriteBatch; zero means
	// DefaultConcurrency.
	Concurrency int
}

// Result lists the files written for one tray.
type Result struct {
	Name  string
	Stem  string
	Files []string
}

// Writer generates tray artifacts into a directory.
type Writer struct {
	renderer  mesh.Renderer
	generator *scad.Generator
	logger    *zap.Logger

	// OnArtifact, when set, is called once per written file with its format.
	OnArtifact func(format string)
}

// NewWriter creates a Writer. renderer may be nil when no STL is requested.
func NewWriter(renderer mesh.Renderer, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		renderer:  renderer,
		generator: scad.New(),
		logger:    logger.With(zap.String("component", "artifact")),
	}
}

// Write generates the files of a single tray into dir, named after the tray's
// file stem.
func (w *Writer) Write(ctx context.Context, dir string, tray model.NamedTray, opts Options) (Result, error) {
	return w.write(ctx, dir, tray, tray.Config.FileStem(), opts)
}

// WriteBatch generates every tray concurrently. Files are named after the tray
// name, falling back to the file stem; duplicates get a numeric suffix. The
// first failure cancels the remaining trays. With opts.Labels a single label
// sheet for the whole batch is written as labels.pdf.
func (w *Writer) WriteBatch(ctx context.Context, dir string, trays []model.NamedTray, opts Options) ([]Result, error) {
	if len(trays) == 0 {
		return nil, fmt.Errorf("no trays to generate")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stems := uniqueStems(trays)
	results := make([]Result, len(trays))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	single := opts
	single.Labels = false
	for i, tray := range trays {
		g.Go(func() error {
			res, err := w.write(gctx, dir, tray, stems[i], single)
			if err != nil {
				return fmt.Errorf("tray %q: %w", displayName(tray), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Labels {
		path := filepath.Join(dir, "labels.pdf")
		if err := export.ExportLabels(path, trays); err != nil {
			return nil, fmt.Errorf("failed to write labels: %w", err)
		}
		w.record("labels")
	}

	w.logger.Info("batch written", zap.String("dir", dir), zap.Int("trays", len(trays)))
	return results, nil
}

func (w *Writer) write(ctx context.Context, dir string, tray model.NamedTray, stem string, opts Options) (Result, error) {
	g, err := engine.ComputeGeometry(tray.Config)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := Result{Name: displayName(tray), Stem: stem}
	base := filepath.Join(dir, stem)

	script := w.generator.Script(g)
	if err := w.save(&res, base+".scad", "scad", []byte(script)); err != nil {
		return Result{}, err
	}
	if err := w.save(&res, base+".svg", "svg", []byte(export.SVG(g))); err != nil {
		return Result{}, err
	}

	if opts.DXF {
		if err := export.WriteDXF(base+".dxf", g); err != nil {
			return Result{}, fmt.Errorf("failed to write DXF: %w", err)
		}
		res.Files = append(res.Files, base+".dxf")
		w.record("dxf")
	}

	if opts.PDF {
		density := opts.Density
		if density <= 0 {
			density = model.DefaultDensity
		}
		est := model.EstimatePrint(g, density, opts.PricePerKg)
		if err := export.ExportPDF(base+".pdf", g, est); err != nil {
			return Result{}, fmt.Errorf("failed to write PDF: %w", err)
		}
		res.Files = append(res.Files, base+".pdf")
		w.record("pdf")
	}

	if opts.Labels {
		if err := export.ExportLabels(base+"_labels.pdf", []model.NamedTray{{Name: res.Name, Config: tray.Config}}); err != nil {
			return Result{}, fmt.Errorf("failed to write labels: %w", err)
		}
		res.Files = append(res.Files, base+"_labels.pdf")
		w.record("labels")
	}

	if opts.STL {
		if w.renderer == nil {
			return Result{}, mesh.ErrToolUnavailable
		}
		data, err := w.renderer.Render(ctx, script)
		if err != nil {
			return Result{}, err
		}
		if err := w.save(&res, base+".stl", "stl", data); err != nil {
			return Result{}, err
		}
	}

	w.logger.Debug("tray written", zap.String("name", res.Name), zap.Strings("files", res.Files))
	return res, nil
}

func (w *Writer) save(res *Result, path, format string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	res.Files = append(res.Files, path)
	w.record(format)
	return nil
}

func (w *Writer) record(format string) {
	if w.OnArtifact != nil {
		w.OnArtifact(format)
	}
}

func displayName(t model.NamedTray) string {
	if t.Name != "" {
		return t.Name
	}
	return t.Config.FileStem()
}

// Stems of files written for a whole batch next to the per-tray files.
var batchStems = []string{"labels", "plates"}

// uniqueStems derives a file-safe base name per tray. A taken stem gets the
// lowest free numeric suffix, so no two trays share output files.
func uniqueStems(trays []model.NamedTray) []string {
	used := make(map[string]bool, len(trays)+len(batchStems))
	for _, s := range batchStems {
		used[s] = true
	}
	stems := make([]string, len(trays))
	for i, t := range trays {
		base := Slug(t.Name)
		if base == "" {
			base = t.Config.FileStem()
		}
		stem := base
		for n := 2; used[stem]; n++ {
			stem = fmt.Sprintf("%s_%d", base, n)
		}
		used[stem] = true
		stems[i] = stem
	}
	return stems
}

// Slug lowercases name and replaces everything outside [a-z0-9._-] with an
// underscore, collapsing runs. Leading dots are dropped, so "." and ".."
// slug to "".
func Slug(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(strings.TrimLeft(b.String(), "._"), "_")
}
