package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/piwi3910/GridTray/internal/model"
)

func buildLabelTrays() []model.NamedTray {
	small := model.DefaultTrayConfig()
	small.Columns, small.Rows = 1, 1

	divided := model.DefaultTrayConfig()
	divided.Divider = 1.2

	return []model.NamedTray{
		{Name: "Screws", Config: small},
		{Name: "Bits and drivers with a very long name that gets truncated", Config: divided},
		{Config: model.DefaultTrayConfig()},
	}
}

func TestExportLabels_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.pdf")

	if err := ExportLabels(path, buildLabelTrays()); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
}

func TestWriteLabels_MultiplePages(t *testing.T) {
	var trays []model.NamedTray
	for i := 0; i < labelsPerPage+5; i++ {
		trays = append(trays, model.NamedTray{Name: "Tray", Config: model.DefaultTrayConfig()})
	}

	var buf bytes.Buffer
	if err := WriteLabels(&buf, trays); err != nil {
		t.Fatalf("WriteLabels returned error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("expected PDF output")
	}
}

func TestExportLabels_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLabels(&buf, nil); err == nil {
		t.Fatal("expected error for empty tray list, got nil")
	}
}

func TestExportLabels_InvalidTray(t *testing.T) {
	bad := model.DefaultTrayConfig()
	bad.CellSize = 0

	var buf bytes.Buffer
	err := WriteLabels(&buf, []model.NamedTray{{Name: "Bad", Config: bad}})
	if !errors.Is(err, model.ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestCollectLabelInfos(t *testing.T) {
	labels, err := CollectLabelInfos(buildLabelTrays())
	if err != nil {
		t.Fatalf("CollectLabelInfos returned error: %v", err)
	}
	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(labels))
	}

	if labels[0].Name != "Screws" {
		t.Errorf("expected first label to be 'Screws', got %q", labels[0].Name)
	}
	if labels[0].OuterWidth != 46 || labels[0].OuterHeight != 46 {
		t.Errorf("wrong outer size: got %.1fx%.1f, want 46x46", labels[0].OuterWidth, labels[0].OuterHeight)
	}
	if labels[2].Name != "gridfinity_3x2_42mm" {
		t.Errorf("unnamed tray should fall back to the file stem, got %q", labels[2].Name)
	}
}

func TestLabelInfo_QRPayloadRoundTrips(t *testing.T) {
	labels, err := CollectLabelInfos(buildLabelTrays()[1:2])
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(labels[0])
	if err != nil {
		t.Fatal(err)
	}
	var decoded LabelInfo
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Config != labels[0].Config {
		t.Errorf("config lost in QR payload: got %+v", decoded.Config)
	}
}

func TestTruncateToWidth_KeepsRunesWhole(t *testing.T) {
	runes := func(s string) float64 { return float64(utf8.RuneCountInString(s)) }

	tests := []struct {
		in   string
		maxW float64
		want string
	}{
		{"Schrauben", 20, "Schrauben"},
		{"Größenmuster", 8, "Größe..."},
		{"ネジとナット", 5, "ネジ..."},
		{"ab", 1, "..."},
	}
	for _, tt := range tests {
		got := truncateToWidth(tt.in, tt.maxW, runes)
		if got != tt.want {
			t.Errorf("truncateToWidth(%q, %v) = %q, want %q", tt.in, tt.maxW, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncateToWidth(%q) produced invalid UTF-8 %q", tt.in, got)
		}
	}
}

func TestWriteLabels_LongNonASCIIName(t *testing.T) {
	trays := []model.NamedTray{{Name: "Überlange Beschriftung für Kleinteile äöü", Config: model.DefaultTrayConfig()}}
	var buf bytes.Buffer
	if err := WriteLabels(&buf, trays); err != nil {
		t.Fatalf("WriteLabels failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected PDF output")
	}
}
