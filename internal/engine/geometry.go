// Package engine lays out the cells of a Gridfinity-style tray.
package engine

import (
	"github.com/piwi3910/GridTray/internal/model"
)

// ComputeGeometry validates cfg and derives the outer footprint and the cell
// rectangles in row-major order (all columns of row 0, then row 1, ...).
// It has no side effects; invalid input returns a *model.DimensionError and a
// zero geometry.
func ComputeGeometry(cfg model.TrayConfig) (model.TrayGeometry, error) {
	if err := cfg.Validate(); err != nil {
		return model.TrayGeometry{}, err
	}

	s := cfg.CellSize
	w := cfg.WallThickness

	g := model.TrayGeometry{
		Config:         cfg,
		OuterWidth:     float64(cfg.Columns)*s + 2*w,
		OuterHeight:    float64(cfg.Rows)*s + 2*w,
		Height:         cfg.Height,
		FloorThickness: cfg.FloorThickness(),
		Cells:          make([]model.Cell, 0, cfg.Columns*cfg.Rows),
	}

	for j := 0; j < cfg.Rows; j++ {
		for i := 0; i < cfg.Columns; i++ {
			g.Cells = append(g.Cells, model.Cell{
				Index:  len(g.Cells),
				Column: i,
				Row:    j,
				Rect: model.Rect{
					X:      w + float64(i)*s,
					Y:      w + float64(j)*s,
					Width:  s,
					Height: s,
				},
			})
		}
	}

	if cfg.FloorGrid.Enabled {
		g.Ribs = layoutRibs(g)
	}
	if cfg.Posts.Enabled {
		g.Posts = layoutPosts(g)
	}
	return g, nil
}

// layoutRibs places floor ribs inside every cavity, parallel to both axes,
// one pitch apart. Ribs start one pitch from the cavity edge so they never
// merge with the surrounding walls.
func layoutRibs(g model.TrayGeometry) []model.Rect {
	grid := g.Config.FloorGrid
	half := grid.Thickness / 2

	var ribs []model.Rect
	for _, c := range g.Cells {
		cav := g.Cavity(c)
		for _, off := range ribOffsets(cav.Width, grid.Pitch, half) {
			ribs = append(ribs, model.Rect{X: cav.X + off - half, Y: cav.Y, Width: grid.Thickness, Height: cav.Height})
		}
		for _, off := range ribOffsets(cav.Height, grid.Pitch, half) {
			ribs = append(ribs, model.Rect{X: cav.X, Y: cav.Y + off - half, Width: cav.Width, Height: grid.Thickness})
		}
	}
	return ribs
}

// ribOffsets returns the rib centre lines measured from the cavity edge,
// at most model.MaxRibsPerAxis of them.
func ribOffsets(span, pitch, half float64) []float64 {
	var offs []float64
	for k := 1; k <= model.MaxRibsPerAxis; k++ {
		off := float64(k) * pitch
		if off+half >= span {
			break
		}
		offs = append(offs, off)
	}
	return offs
}

// layoutPosts centers one post in every cell.
func layoutPosts(g model.TrayGeometry) []model.Circle {
	r := g.Config.Posts.Diameter / 2
	posts := make([]model.Circle, 0, len(g.Cells))
	for _, c := range g.Cells {
		posts = append(posts, model.Circle{Center: c.Center(), Radius: r})
	}
	return posts
}
