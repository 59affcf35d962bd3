package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("Name,Cols,Rows\nScrews,2,1\nBits,3,2\n")
	if got := DetectCSVDelimiter(data); got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("Name;Cols;Rows\nScrews;2;1\nBits;3;2\n")
	if got := DetectCSVDelimiter(data); got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("Name\tCols\tRows\nScrews\t2\t1\nBits\t3\t2\n")
	if got := DetectCSVDelimiter(data); got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Pipe(t *testing.T) {
	data := []byte("Name|Cols|Rows\nScrews|2|1\nBits|3|2\n")
	if got := DetectCSVDelimiter(data); got != '|' {
		t.Errorf("expected pipe delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	row := []string{"Name", "Columns", "Rows", "Cell", "Wall", "Height", "Divider"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Name: 0, Columns: 1, Rows: 2, Cell: 3, Wall: 4, Height: 5, Divider: 6}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_AliasesAndOrder(t *testing.T) {
	row := []string{"HEIGHT", "x", "y", "Label", "Cell Size"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Height != 0 || mapping.Columns != 1 || mapping.Rows != 2 || mapping.Name != 3 || mapping.Cell != 4 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
	if mapping.Wall != -1 || mapping.Divider != -1 {
		t.Errorf("expected unmapped optional columns, got %+v", mapping)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Screws", "2", "1"})
	if isHeader {
		t.Error("numeric row should not be treated as header")
	}
	if mapping.Columns != 1 || mapping.Rows != 2 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── Import Tests ──────────────────────────────────────────

func TestImportCSVFromReader_WithHeader(t *testing.T) {
	input := "Name,Cols,Rows,Cell,Wall,Height\nScrews,2,1,42,2,20\nBits,3,2,,,\n"
	result := ImportCSVFromReader(strings.NewReader(input), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Trays) != 2 {
		t.Fatalf("expected 2 trays, got %d", len(result.Trays))
	}

	first := result.Trays[0]
	if first.Name != "Screws" || first.Config.Columns != 2 || first.Config.Rows != 1 || first.Config.Height != 20 {
		t.Errorf("unexpected first tray %+v", first)
	}

	// Blank optional cells keep the defaults.
	second := result.Trays[1].Config
	if second.CellSize != 42 || second.WallThickness != 2 || second.Height != 12 {
		t.Errorf("expected default dimensions, got %+v", second)
	}
}

func TestImportCSVFromReader_Positional(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Drawer,4,3,42,1.5,21,1.2\n"), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Trays) != 1 {
		t.Fatalf("expected 1 tray, got %d", len(result.Trays))
	}
	cfg := result.Trays[0].Config
	if cfg.Columns != 4 || cfg.Rows != 3 || cfg.WallThickness != 1.5 || cfg.Height != 21 || cfg.Divider != 1.2 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestImportCSVFromReader_RowErrorsReferenceLine(t *testing.T) {
	input := "Name,Cols,Rows,Cell\nGood,2,2,42\nNoCols,,2,42\nBad,abc,2,42\nZero,0,2,42\nHuge,2,2,-5\n"
	result := ImportCSVFromReader(strings.NewReader(input), ',')

	if len(result.Trays) != 1 {
		t.Errorf("expected 1 valid tray, got %d", len(result.Trays))
	}
	if len(result.Errors) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(result.Errors), result.Errors)
	}

	wants := []string{
		"Line 3: Missing columns value",
		"Line 4: Invalid columns 'abc'",
		"Line 5: columns must be between 1 and 80",
		"Line 6: cell_size must be a positive number",
	}
	for i, want := range wants {
		if result.Errors[i] != want {
			t.Errorf("error %d: expected %q, got %q", i, want, result.Errors[i])
		}
	}
}

func TestImportCSVFromReader_MissingRequiredHeader(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Name,Cols,Height\nA,2,20\n"), ',')
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Rows") {
		t.Errorf("expected missing Rows error, got %v", result.Errors)
	}
}

func TestImportCSVFromReader_UnnamedTrayUsesFileStem(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Cols,Rows\n2,1\n"), ',')
	if len(result.Trays) != 1 {
		t.Fatalf("expected 1 tray, got %d (%v)", len(result.Trays), result.Errors)
	}
	if result.Trays[0].Name != "gridfinity_2x1_42mm" {
		t.Errorf("expected file stem name, got %q", result.Trays[0].Name)
	}
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trays.csv")
	if err := os.WriteFile(path, []byte("Name;Cols;Rows\nA;2;1\n\nB;1;1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result := ImportCSV(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Trays) != 2 {
		t.Errorf("expected 2 trays, got %d", len(result.Trays))
	}

	found := false
	for _, w := range result.Warnings {
		if w == "Detected semicolon delimiter" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected delimiter warning, got %v", result.Warnings)
	}
}

func TestImportCSV_EmptyAndMissing(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}

	if r := ImportCSV(empty); len(r.Errors) != 1 || r.Errors[0] != "File is empty" {
		t.Errorf("expected empty file error, got %v", r.Errors)
	}
	if r := ImportCSV(filepath.Join(dir, "nope.csv")); len(r.Errors) != 1 {
		t.Errorf("expected open error, got %v", r.Errors)
	}
}

func TestImportExcel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trays.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Tray", "Columns", "Rows", "Height"},
		{"Screws", 2, 1, 20},
		{"Bits", 3, 2, 30},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	result := ImportExcel(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Trays) != 2 {
		t.Fatalf("expected 2 trays, got %d", len(result.Trays))
	}
	if result.Trays[1].Name != "Bits" || result.Trays[1].Config.Height != 30 {
		t.Errorf("unexpected tray %+v", result.Trays[1])
	}
}

func TestImportExcel_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	if r := ImportExcel(path); len(r.Errors) == 0 {
		t.Error("expected error for invalid Excel file")
	}
}

func TestWriteTemplate_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"batch.csv", "batch.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := WriteTemplate(path); err != nil {
				t.Fatalf("WriteTemplate returned error: %v", err)
			}

			result := ImportFile(path)
			if len(result.Errors) > 0 {
				t.Fatalf("template did not import cleanly: %v", result.Errors)
			}
			if len(result.Trays) != 1 || result.Trays[0].Name != "Example" {
				t.Errorf("unexpected trays %+v", result.Trays)
			}
		})
	}
}
