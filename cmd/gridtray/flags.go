package main

import (
	"github.com/spf13/pflag"

	"github.com/piwi3910/GridTray/internal/model"
)

// trayFlags binds the tray dimensions to a flag set. Only flags the user
// sets override the base configuration.
type trayFlags struct {
	cfg model.TrayConfig
}

func (t *trayFlags) register(fs *pflag.FlagSet) {
	d := model.DefaultTrayConfig()
	fs.IntVar(&t.cfg.Columns, "cols", d.Columns, "number of columns")
	fs.IntVar(&t.cfg.Rows, "rows", d.Rows, "number of rows")
	fs.Float64Var(&t.cfg.CellSize, "cell", d.CellSize, "cell size in mm")
	fs.Float64Var(&t.cfg.WallThickness, "wall", d.WallThickness, "outer wall thickness in mm")
	fs.Float64Var(&t.cfg.Height, "height", d.Height, "tray height in mm")
	fs.Float64Var(&t.cfg.Divider, "divider", d.Divider, "divider wall thickness in mm (0 for one open cavity)")
	fs.BoolVar(&t.cfg.FloorGrid.Enabled, "grid", false, "add a rib grid on the cavity floor")
	fs.Float64Var(&t.cfg.FloorGrid.Pitch, "grid-pitch", d.FloorGrid.Pitch, "floor rib spacing in mm")
	fs.Float64Var(&t.cfg.FloorGrid.Thickness, "grid-thick", d.FloorGrid.Thickness, "floor rib thickness in mm")
	fs.Float64Var(&t.cfg.FloorGrid.Height, "grid-h", d.FloorGrid.Height, "floor rib height in mm")
	fs.BoolVar(&t.cfg.Posts.Enabled, "posts", false, "add a magnet post in each cell")
	fs.Float64Var(&t.cfg.Posts.Diameter, "post-d", d.Posts.Diameter, "post diameter in mm")
	fs.Float64Var(&t.cfg.Posts.Height, "post-h", d.Posts.Height, "post height in mm")
}

// apply copies every flag the user set onto base.
func (t *trayFlags) apply(fs *pflag.FlagSet, base model.TrayConfig) model.TrayConfig {
	out := base
	set := map[string]func(){
		"cols":       func() { out.Columns = t.cfg.Columns },
		"rows":       func() { out.Rows = t.cfg.Rows },
		"cell":       func() { out.CellSize = t.cfg.CellSize },
		"wall":       func() { out.WallThickness = t.cfg.WallThickness },
		"height":     func() { out.Height = t.cfg.Height },
		"divider":    func() { out.Divider = t.cfg.Divider },
		"grid":       func() { out.FloorGrid.Enabled = t.cfg.FloorGrid.Enabled },
		"grid-pitch": func() { out.FloorGrid.Pitch = t.cfg.FloorGrid.Pitch },
		"grid-thick": func() { out.FloorGrid.Thickness = t.cfg.FloorGrid.Thickness },
		"grid-h":     func() { out.FloorGrid.Height = t.cfg.FloorGrid.Height },
		"posts":      func() { out.Posts.Enabled = t.cfg.Posts.Enabled },
		"post-d":     func() { out.Posts.Diameter = t.cfg.Posts.Diameter },
		"post-h":     func() { out.Posts.Height = t.cfg.Posts.Height },
	}
	fs.Visit(func(f *pflag.Flag) {
		if fn, ok := set[f.Name]; ok {
			fn()
		}
	})
	return out
}
