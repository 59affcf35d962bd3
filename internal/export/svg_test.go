package export

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/piwi3910/GridTray/internal/engine"
	"github.com/piwi3910/GridTray/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type svgDoc struct {
	Width   string    `xml:"width,attr"`
	Height  string    `xml:"height,attr"`
	ViewBox string    `xml:"viewBox,attr"`
	Rects   []svgRect `xml:"rect"`
	Groups  []struct {
		ID      string    `xml:"id,attr"`
		Rects   []svgRect `xml:"rect"`
		Circles []struct {
			CX string `xml:"cx,attr"`
			CY string `xml:"cy,attr"`
			R  string `xml:"r,attr"`
		} `xml:"circle"`
	} `xml:"g"`
}

type svgRect struct {
	X      string `xml:"x,attr"`
	Y      string `xml:"y,attr"`
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
	Fill   string `xml:"fill,attr"`
}

func geometryFor(t *testing.T, cols, rows int, cell, wall, height float64) model.TrayGeometry {
	t.Helper()
	cfg := model.DefaultTrayConfig()
	cfg.Columns, cfg.Rows = cols, rows
	cfg.CellSize, cfg.WallThickness, cfg.Height = cell, wall, height
	g, err := engine.ComputeGeometry(cfg)
	require.NoError(t, err)
	return g
}

func TestSVG_TwoByOne(t *testing.T) {
	out := SVG(geometryFor(t, 2, 1, 42, 2, 20))

	var doc svgDoc
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "98mm", doc.Width)
	assert.Equal(t, "56mm", doc.Height)
	assert.Equal(t, "-5 -5 98 56", doc.ViewBox)

	require.Len(t, doc.Rects, 1)
	assert.Equal(t, svgRect{X: "0", Y: "0", Width: "88", Height: "46", Fill: "none"}, doc.Rects[0])

	require.Len(t, doc.Groups, 1)
	cells := doc.Groups[0].Rects
	require.Len(t, cells, 2)
	assert.Equal(t, svgRect{X: "2", Y: "2", Width: "42", Height: "42"}, cells[0])
	assert.Equal(t, svgRect{X: "44", Y: "2", Width: "42", Height: "42"}, cells[1])
}

func TestSVG_Idempotent(t *testing.T) {
	g := geometryFor(t, 4, 3, 41.5, 1.25, 18)
	assert.Equal(t, SVG(g), SVG(g))
}

func TestSVG_Posts(t *testing.T) {
	cfg := model.DefaultTrayConfig()
	cfg.Columns, cfg.Rows = 1, 1
	cfg.Posts.Enabled = true
	g, err := engine.ComputeGeometry(cfg)
	require.NoError(t, err)

	var doc svgDoc
	require.NoError(t, xml.Unmarshal([]byte(SVG(g)), &doc))
	require.Len(t, doc.Groups, 2)
	assert.Equal(t, "posts", doc.Groups[1].ID)
	require.Len(t, doc.Groups[1].Circles, 1)
	assert.Equal(t, "23", doc.Groups[1].Circles[0].CX)
	assert.Equal(t, "3", doc.Groups[1].Circles[0].R)
}

func TestSVG_NoPostsGroupByDefault(t *testing.T) {
	out := SVG(geometryFor(t, 1, 1, 42, 2, 12))
	assert.False(t, strings.Contains(out, "<circle"))
}

func TestPlatesSVG(t *testing.T) {
	tray := func(name string, cols int) model.NamedTray {
		cfg := model.DefaultTrayConfig()
		cfg.Columns, cfg.Rows = cols, 3
		return model.NamedTray{Name: name, Config: cfg}
	}
	plan, err := engine.PlanPlates([]model.NamedTray{tray("Big <1>", 5), tray("Next", 5)}, model.DefaultBed())
	require.NoError(t, err)
	require.Len(t, plan.Plates, 2)

	out := PlatesSVG(plan)
	var doc svgDoc
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))

	// Two 220 mm beds, one 20 mm gap and the margin on both sides.
	assert.Equal(t, "470mm", doc.Width)
	assert.Equal(t, "230mm", doc.Height)
	require.Len(t, doc.Groups, 2)
	assert.Equal(t, "plate-1", doc.Groups[0].ID)
	assert.Len(t, doc.Groups[0].Rects, 2)
	assert.Contains(t, out, "Big &lt;1&gt;")
}
