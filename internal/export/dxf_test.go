package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/piwi3910/GridTray/internal/engine"
	"github.com/piwi3910/GridTray/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

func TestWriteDXF_RoundTrip(t *testing.T) {
	g := buildTestGeometry(t)
	path := filepath.Join(t.TempDir(), "tray.dxf")

	require.NoError(t, WriteDXF(path, g))

	drawing, err := dxf.Open(path)
	require.NoError(t, err)

	var polylines []*entity.LwPolyline
	var circles []*entity.Circle
	for _, ent := range drawing.Entities() {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			polylines = append(polylines, e)
		case *entity.Circle:
			circles = append(circles, e)
		}
	}

	require.Len(t, polylines, 1+len(g.Cells), "outline plus one polyline per cell")
	require.Len(t, circles, len(g.Posts))

	outline := polylines[0]
	require.Len(t, outline.Vertices, 4)
	assert.InDelta(t, g.OuterWidth, outline.Vertices[2][0], 1e-6)
	assert.InDelta(t, g.OuterHeight, outline.Vertices[2][1], 1e-6)

	second := polylines[2]
	assert.InDelta(t, 44, second.Vertices[0][0], 1e-6)
	assert.InDelta(t, 2, second.Vertices[0][1], 1e-6)

	assert.InDelta(t, 3, circles[0].Radius, 1e-6)
}

func TestDXFBytes(t *testing.T) {
	g := buildTestGeometry(t)
	data, err := DXFBytes(g)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("LWPOLYLINE")))
}

func TestWriteDXF_EmptyGeometry(t *testing.T) {
	err := WriteDXF(filepath.Join(t.TempDir(), "x.dxf"), model.TrayGeometry{})
	assert.Error(t, err)
}

func TestRectVertices(t *testing.T) {
	g, err := engine.ComputeGeometry(model.DefaultTrayConfig())
	require.NoError(t, err)
	v := rectVertices(g.Outer())
	assert.Equal(t, [][]float64{{0, 0}, {130, 0}, {130, 88}, {0, 88}}, v)
}
