package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/GridTray/internal/model"
	"github.com/yofu/dxf"
)

// WriteDXF saves the tray footprint as a DXF drawing: the outer rectangle and
// every cavity as closed LWPOLYLINEs, post centres as circles. Units are mm.
func WriteDXF(path string, g model.TrayGeometry) error {
	if len(g.Cells) == 0 {
		return fmt.Errorf("no cells to export")
	}

	d := dxf.NewDrawing()

	if _, err := d.LwPolyline(true, rectVertices(g.Outer())...); err != nil {
		return fmt.Errorf("failed to add outline: %w", err)
	}
	for _, c := range g.Cells {
		if _, err := d.LwPolyline(true, rectVertices(g.Cavity(c))...); err != nil {
			return fmt.Errorf("failed to add cell %d: %w", c.Index+1, err)
		}
	}
	for _, p := range g.Posts {
		if _, err := d.Circle(p.Center.X, p.Center.Y, 0, p.Radius); err != nil {
			return fmt.Errorf("failed to add post: %w", err)
		}
	}

	return d.SaveAs(path)
}

// DXFBytes renders the drawing to memory for HTTP downloads. The DXF writer
// only saves to files, so the drawing goes through a temporary directory.
func DXFBytes(g model.TrayGeometry) ([]byte, error) {
	dir, err := os.MkdirTemp("", "gridtray-dxf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "tray.dxf")
	if err := WriteDXF(path, g); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// rectVertices lists the corners counter-clockwise from (X, Y).
func rectVertices(r model.Rect) [][]float64 {
	return [][]float64{
		{r.X, r.Y},
		{r.Right(), r.Y},
		{r.Right(), r.Top()},
		{r.X, r.Top()},
	}
}
