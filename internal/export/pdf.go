// Package export renders tray geometry to preview, drawing and print formats:
// SVG, DXF, a PDF plan and PDF label sheets.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/GridTray/internal/model"
)

// cellColor represents an RGB color for a cavity.
type cellColor struct {
	R, G, B int
}

// cellColors alternate across cavities so neighbours are easy to tell apart.
var cellColors = []cellColor{
	{R: 200, G: 230, B: 201}, // green
	{R: 187, G: 222, B: 251}, // blue
	{R: 255, G: 224, B: 178}, // orange
	{R: 225, G: 190, B: 231}, // purple
	{R: 178, G: 235, B: 242}, // cyan
	{R: 255, G: 205, B: 210}, // red
}

// Page layout constants (A4 in mm, portrait). Landscape swaps the sides.
const (
	a4Short      = 210.0
	a4Long       = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	tableHeight  = 62.0
	drawAreaTop  = marginTop + headerHeight + 8.0
)

// WritePDF writes a printable plan of the tray to w: a top view drawn 1:1
// when it fits on the page (scaled down otherwise) followed by a dimensions
// and print estimate table.
func WritePDF(w io.Writer, g model.TrayGeometry, est model.PrintEstimate) error {
	pdf, err := buildPlan(g, est)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

// ExportPDF saves the plan to path.
func ExportPDF(path string, g model.TrayGeometry, est model.PrintEstimate) error {
	pdf, err := buildPlan(g, est)
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

func buildPlan(g model.TrayGeometry, est model.PrintEstimate) (*fpdf.Fpdf, error) {
	if len(g.Cells) == 0 {
		return nil, fmt.Errorf("no cells to export")
	}

	orientation, pageWidth, pageHeight := "P", a4Short, a4Long
	if g.OuterWidth > g.OuterHeight {
		orientation, pageWidth, pageHeight = "L", a4Long, a4Short
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AddPage()

	// Title
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Gridfinity tray %d x %d (%s mm cells)",
		g.Config.Columns, g.Config.Rows, model.FormatMM(g.Config.CellSize))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - tableHeight

	// 1:1 unless the tray is larger than the drawing area.
	scale := math.Min(1, math.Min(drawWidth/g.OuterWidth, drawHeight/g.OuterHeight))

	// Stats line
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Cells: %d | Outer: %.1f x %.1f x %.1f mm | Scale: %s",
		len(g.Cells), g.OuterWidth, g.OuterHeight, g.Height, scaleLabel(scale))
	pdf.CellFormat(drawWidth, 5, stats, "", 0, "L", false, 0, "")

	canvasW := g.OuterWidth * scale
	canvasH := g.OuterHeight * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Walls
	pdf.SetFillColor(190, 190, 190)
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.4)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	// Cavities, drawn with Y flipped so row 0 sits at the bottom like the
	// model seen from above.
	for _, c := range g.Cells {
		col := cellColors[(c.Column+c.Row)%len(cellColors)]
		cav := g.Cavity(c)
		cx := offsetX + cav.X*scale
		cy := offsetY + (g.OuterHeight-cav.Top())*scale
		cw := cav.Width * scale
		ch := cav.Height * scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.2)
		pdf.Rect(cx, cy, cw, ch, "FD")

		if cw > 12 && ch > 8 {
			pdf.SetFont("Helvetica", "", labelFontSize(cw, ch))
			pdf.SetTextColor(0, 0, 0)
			label := fmt.Sprintf("%d", c.Index+1)
			lw := pdf.GetStringWidth(label)
			pdf.SetXY(cx+(cw-lw)/2, cy+ch/2-2)
			pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
		}
	}

	pdf.SetDrawColor(255, 152, 0)
	pdf.SetLineWidth(0.3)
	for _, p := range g.Posts {
		pdf.Circle(offsetX+p.Center.X*scale, offsetY+(g.OuterHeight-p.Center.Y)*scale, p.Radius*scale, "D")
	}

	drawDimensionAnnotations(pdf, g, offsetX, offsetY, canvasW, canvasH)
	drawSummaryTable(pdf, g, est, pageHeight-marginBottom-tableHeight+4)

	// Footer
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(drawWidth, 4, "Generated by GridTray - Gridfinity Tray Generator", "", 0, "C", false, 0, "")

	return pdf, pdf.Error()
}

// drawDimensionAnnotations adds width and depth labels outside the outline.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, g model.TrayGeometry, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	// Width annotation (below the tray)
	widthLabel := fmt.Sprintf("%s mm", model.FormatMM(g.OuterWidth))
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	// Depth annotation (left of the tray, rotated)
	heightLabel := fmt.Sprintf("%s mm", model.FormatMM(g.OuterHeight))
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawSummaryTable renders the dimensions and print estimate side by side.
func drawSummaryTable(pdf *fpdf.Fpdf, g model.TrayGeometry, est model.PrintEstimate, y float64) {
	cfg := g.Config
	dims := []struct {
		label string
		value string
	}{
		{"Grid", fmt.Sprintf("%d x %d", cfg.Columns, cfg.Rows)},
		{"Cell size", fmt.Sprintf("%s mm", model.FormatMM(cfg.CellSize))},
		{"Wall thickness", fmt.Sprintf("%s mm", model.FormatMM(cfg.WallThickness))},
		{"Height", fmt.Sprintf("%s mm", model.FormatMM(g.Height))},
		{"Floor", fmt.Sprintf("%.2f mm", g.FloorThickness)},
		{"Divider", fmt.Sprintf("%s mm", model.FormatMM(cfg.Divider))},
	}
	estimate := []struct {
		label string
		value string
	}{
		{"Volume", fmt.Sprintf("%.1f cm3", est.Volume/1000)},
		{"Mass", fmt.Sprintf("%.1f g", est.MassGrams)},
		{"Density", fmt.Sprintf("%.2f g/cm3", est.Density)},
		{"Filament cost", fmt.Sprintf("%.2f", est.EstimatedCost)},
		{"Floor ribs", fmt.Sprintf("%d", len(g.Ribs))},
		{"Posts", fmt.Sprintf("%d", len(g.Posts))},
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(90, 7, "Dimensions", "", 0, "L", false, 0, "")
	pdf.SetXY(marginLeft+95, y)
	pdf.CellFormat(90, 7, "Print estimate", "", 0, "L", false, 0, "")
	y += 8

	pdf.SetFont("Helvetica", "", 9)
	for i := range dims {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(45, 6, dims[i].label, "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 6, dims[i].value, "1", 0, "R", true, 0, "")
		pdf.SetXY(marginLeft+95, y)
		pdf.CellFormat(45, 6, estimate[i].label, "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 6, estimate[i].value, "1", 0, "R", true, 0, "")
		y += 6
	}
}

func scaleLabel(scale float64) string {
	if scale >= 1 {
		return "1:1"
	}
	return fmt.Sprintf("1:%.2f", 1/scale)
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 10
	case minDim > 20:
		return 8
	default:
		return 6
	}
}
