package model

import (
	"fmt"
	"math"
	"strconv"
)

// FloorFraction is the share of the tray height kept as a solid floor under
// every cavity. The modeling script, the preview annotations and the mesh all
// derive the floor from this value.
const FloorFraction = 0.1

// MaxGridCells caps the number of columns and rows accepted for a tray.
const MaxGridCells = 80

// MinGridPitch is the smallest accepted floor rib spacing in mm.
const MinGridPitch = 1.0

// MaxRibsPerAxis caps the floor ribs laid across one cavity in each direction.
const MaxRibsPerAxis = 32

// geomEpsilon absorbs floating point noise when comparing edges that should
// coincide (adjacent cells, cells against the interior boundary).
const geomEpsilon = 1e-9

// Point2D represents a 2D coordinate in mm.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in mm. X and Y locate the corner with the
// smallest coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the largest X coordinate covered by the rectangle.
func (r Rect) Right() float64 { return r.X + r.Width }

// Top returns the largest Y coordinate covered by the rectangle.
func (r Rect) Top() float64 { return r.Y + r.Height }

// Area returns Width * Height.
func (r Rect) Area() float64 { return r.Width * r.Height }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point2D {
	return Point2D{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Inset shrinks the rectangle by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, Width: r.Width - 2*d, Height: r.Height - 2*d}
}

// Contains reports whether o lies entirely within r. Shared edges count as
// contained.
func (r Rect) Contains(o Rect) bool {
	tol := geomEpsilon * math.Max(1, math.Max(math.Abs(r.Right()), math.Abs(r.Top())))
	return o.X >= r.X-tol && o.Y >= r.Y-tol &&
		o.Right() <= r.Right()+tol && o.Top() <= r.Top()+tol
}

// Overlaps reports whether r and o share interior area. Rectangles that only
// touch along an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	tol := geomEpsilon * math.Max(1, math.Max(math.Abs(r.Right()), math.Abs(r.Top())))
	return r.X < o.Right()-tol && o.X < r.Right()-tol &&
		r.Y < o.Top()-tol && o.Y < r.Top()-tol
}

// FloorGrid describes optional ribs standing on the floor of every cavity.
type FloorGrid struct {
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	Pitch     float64 `json:"pitch" yaml:"pitch"`         // Rib spacing in mm
	Thickness float64 `json:"thickness" yaml:"thickness"` // Rib width in mm
	Height    float64 `json:"height" yaml:"height"`       // Rib height above the floor in mm
}

// Posts describes an optional cylinder at the center of every cell.
type Posts struct {
	Enabled  bool    `json:"enabled" yaml:"enabled"`
	Diameter float64 `json:"diameter" yaml:"diameter"` // mm
	Height   float64 `json:"height" yaml:"height"`     // mm above the floor
}

// TrayConfig holds the inputs of a single tray generation request.
type TrayConfig struct {
	Columns       int     `json:"columns" yaml:"columns"`
	Rows          int     `json:"rows" yaml:"rows"`
	CellSize      float64 `json:"cell_size" yaml:"cell_size"`           // mm
	WallThickness float64 `json:"wall_thickness" yaml:"wall_thickness"` // mm
	Height        float64 `json:"height" yaml:"height"`                 // mm

	// Divider is the thickness of the internal walls between cells. Each
	// cavity is inset by Divider/2 on every side; zero leaves a single open
	// compartment spanning the whole interior.
	Divider float64 `json:"divider,omitempty" yaml:"divider"`

	FloorGrid FloorGrid `json:"floor_grid" yaml:"floor_grid"`
	Posts     Posts     `json:"posts" yaml:"posts"`
}

// DefaultTrayConfig returns the configuration shown on a fresh form: a 3x2
// tray of standard 42 mm Gridfinity cells.
func DefaultTrayConfig() TrayConfig {
	return TrayConfig{
		Columns:       3,
		Rows:          2,
		CellSize:      42.0,
		WallThickness: 2.0,
		Height:        12.0,
		Divider:       0,
		FloorGrid: FloorGrid{
			Enabled:   false,
			Pitch:     6.0,
			Thickness: 1.5,
			Height:    2.5,
		},
		Posts: Posts{
			Enabled:  false,
			Diameter: 6.0,
			Height:   4.0,
		},
	}
}

// FloorThickness returns the solid floor kept under every cavity.
func (c TrayConfig) FloorThickness() float64 {
	return c.Height * FloorFraction
}

// CavityDepth returns the depth of each pocket measured from the top face.
func (c TrayConfig) CavityDepth() float64 {
	return c.Height - c.FloorThickness()
}

// FileStem returns the base name used for downloaded artifacts,
// e.g. "gridfinity_3x2_42mm".
func (c TrayConfig) FileStem() string {
	return fmt.Sprintf("gridfinity_%dx%d_%smm", c.Columns, c.Rows, FormatMM(c.CellSize))
}

// Validate checks every dimension and returns a *DimensionError naming the
// first offending field.
func (c TrayConfig) Validate() error {
	if c.Columns < 1 || c.Columns > MaxGridCells {
		return &DimensionError{Field: "columns", Value: strconv.Itoa(c.Columns),
			Reason: fmt.Sprintf("must be between 1 and %d", MaxGridCells)}
	}
	if c.Rows < 1 || c.Rows > MaxGridCells {
		return &DimensionError{Field: "rows", Value: strconv.Itoa(c.Rows),
			Reason: fmt.Sprintf("must be between 1 and %d", MaxGridCells)}
	}
	if err := positive("cell_size", c.CellSize); err != nil {
		return err
	}
	if err := nonNegative("wall_thickness", c.WallThickness); err != nil {
		return err
	}
	if err := positive("height", c.Height); err != nil {
		return err
	}
	if err := nonNegative("divider", c.Divider); err != nil {
		return err
	}
	if c.Divider >= c.CellSize {
		return &DimensionError{Field: "divider", Value: FormatMM(c.Divider),
			Reason: "must be smaller than cell_size"}
	}

	depth := c.CavityDepth()
	if c.FloorGrid.Enabled {
		if err := positive("grid_pitch", c.FloorGrid.Pitch); err != nil {
			return err
		}
		if err := positive("grid_thickness", c.FloorGrid.Thickness); err != nil {
			return err
		}
		if err := positive("grid_height", c.FloorGrid.Height); err != nil {
			return err
		}
		if c.FloorGrid.Pitch < MinGridPitch || c.FloorGrid.Pitch <= c.FloorGrid.Thickness {
			return &DimensionError{Field: "grid_pitch", Value: FormatMM(c.FloorGrid.Pitch),
				Reason: fmt.Sprintf("must be at least %s mm and wider than grid_thickness", FormatMM(MinGridPitch))}
		}
		if (c.CellSize-c.Divider)/c.FloorGrid.Pitch > MaxRibsPerAxis {
			return &DimensionError{Field: "grid_pitch", Value: FormatMM(c.FloorGrid.Pitch),
				Reason: fmt.Sprintf("would place more than %d ribs across a cavity", MaxRibsPerAxis)}
		}
		if c.FloorGrid.Height > depth {
			return &DimensionError{Field: "grid_height", Value: FormatMM(c.FloorGrid.Height),
				Reason: "must not exceed the cavity depth"}
		}
	}
	if c.Posts.Enabled {
		if err := positive("post_diameter", c.Posts.Diameter); err != nil {
			return err
		}
		if err := positive("post_height", c.Posts.Height); err != nil {
			return err
		}
		if c.Posts.Diameter > c.CellSize-c.Divider {
			return &DimensionError{Field: "post_diameter", Value: FormatMM(c.Posts.Diameter),
				Reason: "must fit inside the cavity"}
		}
		if c.Posts.Height > depth {
			return &DimensionError{Field: "post_height", Value: FormatMM(c.Posts.Height),
				Reason: "must not exceed the cavity depth"}
		}
	}
	return nil
}

func positive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &DimensionError{Field: field, Value: FormatMM(v), Reason: "must be a positive number"}
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return &DimensionError{Field: field, Value: FormatMM(v), Reason: "must be zero or a positive number"}
	}
	return nil
}

// FormatMM renders a length rounded to a nanometre with the shortest decimal
// representation, so 12 * 0.1 prints as 1.2 and identical inputs always
// produce identical text.
func FormatMM(v float64) string {
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		return "0" // avoid "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Cell is one interior compartment of the tray.
type Cell struct {
	Index  int `json:"index"` // Row-major position, starting at 0
	Column int `json:"column"`
	Row    int `json:"row"`
	Rect
}

// Circle is a round feature seen from above.
type Circle struct {
	Center Point2D `json:"center"`
	Radius float64 `json:"radius"`
}

// TrayGeometry is the layout derived from a TrayConfig.
type TrayGeometry struct {
	Config         TrayConfig `json:"config"`
	OuterWidth     float64    `json:"outer_width"`
	OuterHeight    float64    `json:"outer_height"`
	Height         float64    `json:"height"`
	FloorThickness float64    `json:"floor_thickness"`
	Cells          []Cell     `json:"cells"`
	Ribs           []Rect     `json:"ribs,omitempty"`
	Posts          []Circle   `json:"posts,omitempty"`
}

// Outer returns the outer footprint, anchored at the origin.
func (g TrayGeometry) Outer() Rect {
	return Rect{Width: g.OuterWidth, Height: g.OuterHeight}
}

// Interior returns the region enclosed by the outer walls.
func (g TrayGeometry) Interior() Rect {
	w := g.Config.WallThickness
	return Rect{
		X:      w,
		Y:      w,
		Width:  float64(g.Config.Columns) * g.Config.CellSize,
		Height: float64(g.Config.Rows) * g.Config.CellSize,
	}
}

// Cavity returns the pocket cut out of the given cell.
func (g TrayGeometry) Cavity(c Cell) Rect {
	if g.Config.Divider == 0 {
		return c.Rect
	}
	return c.Rect.Inset(g.Config.Divider / 2)
}

// CavityDepth returns the depth of every pocket.
func (g TrayGeometry) CavityDepth() float64 {
	return g.Height - g.FloorThickness
}

// NamedTray pairs a configuration with a display name, used for batch jobs
// and label sheets.
type NamedTray struct {
	Name   string     `json:"name"`
	Config TrayConfig `json:"config"`
}
