package server

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/piwi3910/GridTray/internal/model"
)

// paramNames maps validation field names to the query parameters that feed them.
var paramNames = map[string]string{
	"columns":        "cols",
	"rows":           "rows",
	"cell_size":      "cell",
	"wall_thickness": "wall",
	"height":         "height",
	"divider":        "divider",
	"grid_pitch":     "grid_pitch",
	"grid_thickness": "grid_thick",
	"grid_height":    "grid_h",
	"post_diameter":  "post_d",
	"post_height":    "post_h",
}

// ParseTrayConfig reads a tray configuration from query parameters.
//
// cols, rows, cell, wall and height are required unless preset names a known
// preset, in which case the preset supplies them and the query overrides
// individual values. The optional feature parameters fall back to defaults.
// Every failure is a *model.DimensionError whose Field is the parameter name.
func ParseTrayConfig(q url.Values, defaults model.TrayConfig, presets *model.PresetStore) (model.TrayConfig, error) {
	cfg := defaults
	required := true

	if key := strings.TrimSpace(q.Get("preset")); key != "" {
		var p *model.Preset
		if presets != nil {
			p = presets.Lookup(key)
		}
		if p == nil {
			return model.TrayConfig{}, &model.DimensionError{Field: "preset", Value: key, Reason: "unknown preset"}
		}
		cfg = p.Config
		required = false
	}

	p := parser{q: q, required: required}
	p.intField("cols", &cfg.Columns)
	p.intField("rows", &cfg.Rows)
	p.floatField("cell", &cfg.CellSize)
	p.floatField("wall", &cfg.WallThickness)
	p.floatField("height", &cfg.Height)

	p.required = false
	p.floatField("divider", &cfg.Divider)
	p.boolField("grid", &cfg.FloorGrid.Enabled)
	p.floatField("grid_pitch", &cfg.FloorGrid.Pitch)
	p.floatField("grid_thick", &cfg.FloorGrid.Thickness)
	p.floatField("grid_h", &cfg.FloorGrid.Height)
	p.boolField("posts", &cfg.Posts.Enabled)
	p.floatField("post_d", &cfg.Posts.Diameter)
	p.floatField("post_h", &cfg.Posts.Height)

	if p.err != nil {
		return model.TrayConfig{}, p.err
	}

	if err := cfg.Validate(); err != nil {
		var dimErr *model.DimensionError
		if errors.As(err, &dimErr) {
			if name, ok := paramNames[dimErr.Field]; ok {
				return model.TrayConfig{}, &model.DimensionError{Field: name, Value: dimErr.Value, Reason: dimErr.Reason}
			}
		}
		return model.TrayConfig{}, err
	}
	return cfg, nil
}

// EncodeTrayConfig is the inverse of ParseTrayConfig, used to build links.
// Optional features are only written when enabled.
func EncodeTrayConfig(cfg model.TrayConfig) url.Values {
	q := url.Values{}
	q.Set("cols", strconv.Itoa(cfg.Columns))
	q.Set("rows", strconv.Itoa(cfg.Rows))
	q.Set("cell", model.FormatMM(cfg.CellSize))
	q.Set("wall", model.FormatMM(cfg.WallThickness))
	q.Set("height", model.FormatMM(cfg.Height))
	if cfg.Divider > 0 {
		q.Set("divider", model.FormatMM(cfg.Divider))
	}
	if cfg.FloorGrid.Enabled {
		q.Set("grid", "1")
		q.Set("grid_pitch", model.FormatMM(cfg.FloorGrid.Pitch))
		q.Set("grid_thick", model.FormatMM(cfg.FloorGrid.Thickness))
		q.Set("grid_h", model.FormatMM(cfg.FloorGrid.Height))
	}
	if cfg.Posts.Enabled {
		q.Set("posts", "1")
		q.Set("post_d", model.FormatMM(cfg.Posts.Diameter))
		q.Set("post_h", model.FormatMM(cfg.Posts.Height))
	}
	return q
}

// parser records the first failure and ignores later fields.
type parser struct {
	q        url.Values
	required bool
	err      error
}

func (p *parser) value(name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v := strings.TrimSpace(p.q.Get(name))
	if v == "" {
		if p.required {
			p.err = &model.DimensionError{Field: name, Reason: "missing"}
		}
		return "", false
	}
	return v, true
}

func (p *parser) intField(name string, dst *int) {
	v, ok := p.value(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = &model.DimensionError{Field: name, Value: v, Reason: "not an integer"}
		return
	}
	*dst = n
}

func (p *parser) floatField(name string, dst *float64) {
	v, ok := p.value(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = &model.DimensionError{Field: name, Value: v, Reason: "not a number"}
		return
	}
	*dst = f
}

func (p *parser) boolField(name string, dst *bool) {
	v, ok := p.value(name)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "on", "yes":
		*dst = true
		return
	case "off", "no":
		*dst = false
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = &model.DimensionError{Field: name, Value: v, Reason: "not a boolean"}
		return
	}
	*dst = b
}
