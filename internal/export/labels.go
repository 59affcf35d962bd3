package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/GridTray/internal/engine"
	"github.com/piwi3910/GridTray/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each tray label's QR code. Scanning
// the code yields enough to regenerate the tray.
type LabelInfo struct {
	Name        string           `json:"name"`
	Config      model.TrayConfig `json:"config"`
	OuterWidth  float64          `json:"outer_width_mm"`
	OuterHeight float64          `json:"outer_height_mm"`
	Height      float64          `json:"height_mm"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// WriteLabels writes a PDF sheet with one QR-coded label per tray to w.
// Every tray must be valid; the first invalid one aborts the sheet.
func WriteLabels(w io.Writer, trays []model.NamedTray) error {
	pdf, err := buildLabels(trays)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

// ExportLabels saves the label sheet to path.
func ExportLabels(path string, trays []model.NamedTray) error {
	pdf, err := buildLabels(trays)
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

func buildLabels(trays []model.NamedTray) (*fpdf.Fpdf, error) {
	labels, err := CollectLabelInfos(trays)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no trays to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return nil, fmt.Errorf("failed to render label for %q: %w", label.Name, err)
		}
	}
	return pdf, pdf.Error()
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, idx int, info LabelInfo) error {
	// Draw light border for cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", idx)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	// QR code on the right side of the label
	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	pdf.CellFormat(textW, 4.5, truncateToWidth(info.Name, textW, pdf.GetStringWidth), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	grid := fmt.Sprintf("%d x %d @ %s mm", info.Config.Columns, info.Config.Rows, model.FormatMM(info.Config.CellSize))
	pdf.CellFormat(textW, 3.5, grid, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	outer := fmt.Sprintf("%.1f x %.1f x %.1f mm", info.OuterWidth, info.OuterHeight, info.Height)
	pdf.CellFormat(textW, 3, outer, "", 1, "L", false, 0, "")

	if info.Config.Divider > 0 {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, fmt.Sprintf("Dividers %s mm", model.FormatMM(info.Config.Divider)), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncateToWidth shortens s rune by rune and appends "..." until it fits
// in maxW as measured by width.
func truncateToWidth(s string, maxW float64, width func(string) float64) string {
	if width(s) <= maxW {
		return s
	}
	for s != "" && width(s+"...") > maxW {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s + "..."
}

// CollectLabelInfos validates every tray and returns the label contents in
// input order.
func CollectLabelInfos(trays []model.NamedTray) ([]LabelInfo, error) {
	labels := make([]LabelInfo, 0, len(trays))
	for _, t := range trays {
		g, err := engine.ComputeGeometry(t.Config)
		if err != nil {
			return nil, fmt.Errorf("tray %q: %w", t.Name, err)
		}
		name := t.Name
		if name == "" {
			name = t.Config.FileStem()
		}
		labels = append(labels, LabelInfo{
			Name:        name,
			Config:      t.Config,
			OuterWidth:  g.OuterWidth,
			OuterHeight: g.OuterHeight,
			Height:      g.Height,
		})
	}
	return labels, nil
}
