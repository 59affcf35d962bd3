// Package scad renders tray geometry as an OpenSCAD script.
package scad

import (
	"fmt"
	"strings"

	"github.com/piwi3910/GridTray/internal/engine"
	"github.com/piwi3910/GridTray/internal/model"
)

// DefaultSegments is the $fn used for round features.
const DefaultSegments = 32

// Generator produces OpenSCAD source from a tray layout.
type Generator struct {
	// Segments is the facet count of cylinders; zero means DefaultSegments.
	Segments int
	// Header toggles the leading comment block.
	Header bool
}

// New returns a generator with DefaultSegments and the header enabled.
func New() *Generator {
	return &Generator{Segments: DefaultSegments, Header: true}
}

// Generate validates cfg, lays it out and renders the script. No text is
// produced when cfg is invalid.
func (g *Generator) Generate(cfg model.TrayConfig) (string, error) {
	geom, err := engine.ComputeGeometry(cfg)
	if err != nil {
		return "", err
	}
	return g.Script(geom), nil
}

// Script renders an already computed geometry. The body is a single
// difference: the outer block minus the union of all cell cavities. Floor
// ribs and posts, when present, are unioned with that difference.
func (g *Generator) Script(geom model.TrayGeometry) string {
	var w writer

	if g.Header {
		g.writeHeader(&w, geom)
	}

	extras := len(geom.Ribs) > 0 || len(geom.Posts) > 0
	if extras {
		w.open("union()")
	}

	g.writeBody(&w, geom)

	if len(geom.Ribs) > 0 {
		g.writeRibs(&w, geom)
	}
	if len(geom.Posts) > 0 {
		g.writePosts(&w, geom)
	}

	if extras {
		w.close()
	}
	return w.String()
}

func (g *Generator) writeHeader(w *writer, geom model.TrayGeometry) {
	cfg := geom.Config
	w.line("// GridTray OpenSCAD model")
	w.line("// Grid: %d x %d cells of %s mm, wall %s mm, height %s mm",
		cfg.Columns, cfg.Rows, f(cfg.CellSize), f(cfg.WallThickness), f(cfg.Height))
	w.line("// Outer footprint: %s x %s mm, floor %s mm",
		f(geom.OuterWidth), f(geom.OuterHeight), f(geom.FloorThickness))
	if cfg.Divider > 0 {
		w.line("// Dividers: %s mm", f(cfg.Divider))
	}
	w.blank()
}

func (g *Generator) writeBody(w *writer, geom model.TrayGeometry) {
	w.open("difference()")

	w.open("union()")
	w.line("cube([%s, %s, %s]);", f(geom.OuterWidth), f(geom.OuterHeight), f(geom.Height))
	w.close()

	depth := geom.CavityDepth()
	w.open("union()")
	for _, c := range geom.Cells {
		cav := geom.Cavity(c)
		w.line("// cell %d (column %d, row %d)", c.Index+1, c.Column+1, c.Row+1)
		w.line("translate([%s, %s, %s]) cube([%s, %s, %s]);",
			f(cav.X), f(cav.Y), f(geom.FloorThickness),
			f(cav.Width), f(cav.Height), f(depth))
	}
	w.close()

	w.close()
}

func (g *Generator) writeRibs(w *writer, geom model.TrayGeometry) {
	h := geom.Config.FloorGrid.Height
	w.line("// floor grid")
	for _, r := range geom.Ribs {
		w.line("translate([%s, %s, %s]) cube([%s, %s, %s]);",
			f(r.X), f(r.Y), f(geom.FloorThickness), f(r.Width), f(r.Height), f(h))
	}
}

func (g *Generator) writePosts(w *writer, geom model.TrayGeometry) {
	segments := g.Segments
	if segments <= 0 {
		segments = DefaultSegments
	}
	h := geom.Config.Posts.Height
	w.line("// posts")
	for _, p := range geom.Posts {
		w.line("translate([%s, %s, %s]) cylinder(h=%s, r=%s, $fn=%d);",
			f(p.Center.X), f(p.Center.Y), f(geom.FloorThickness), f(h), f(p.Radius), segments)
	}
}

// f formats a coordinate for the script.
func f(v float64) string {
	return model.FormatMM(v)
}

// writer accumulates indented script lines.
type writer struct {
	b     strings.Builder
	depth int
}

func (w *writer) line(format string, args ...any) {
	w.b.WriteString(strings.Repeat("  ", w.depth))
	if len(args) == 0 {
		w.b.WriteString(format)
	} else {
		w.b.WriteString(fmt.Sprintf(format, args...))
	}
	w.b.WriteString("\n")
}

func (w *writer) blank() {
	w.b.WriteString("\n")
}

func (w *writer) open(stmt string) {
	w.line("%s {", stmt)
	w.depth++
}

func (w *writer) close() {
	w.depth--
	w.line("}")
}

func (w *writer) String() string {
	return w.b.String()
}
