// Package importer reads batches of tray configurations from CSV and Excel
// files. It supports automatic delimiter detection, flexible column mapping,
// and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/GridTray/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Trays    []model.NamedTray
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Name    int
	Columns int
	Rows    int
	Cell    int
	Wall    int
	Height  int
	Divider int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":    {"name", "label", "tray", "description", "desc", "item"},
	"columns": {"columns", "cols", "col", "x", "grid x"},
	"rows":    {"rows", "row", "y", "grid y"},
	"cell":    {"cell", "cell_size", "cell size", "cellsize", "pitch"},
	"wall":    {"wall", "wall_thickness", "wall thickness", "walls"},
	"height":  {"height", "h", "z", "tray height"},
	"divider": {"divider", "dividers", "divider thickness"},
}

// templateHeader is written by WriteTemplate and matches the positional order.
var templateHeader = []string{"Name", "Columns", "Rows", "Cell", "Wall", "Height", "Divider"}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Only consider delimiters that produce more than 1 column
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping (name, columns, rows, cell, wall, height, divider) and false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Name: -1, Columns: -1, Rows: -1, Cell: -1, Wall: -1, Height: -1, Divider: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				target := mapping.slot(role)
				if *target == -1 {
					*target = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Name: 0, Columns: 1, Rows: 2, Cell: 3, Wall: 4, Height: 5, Divider: 6}, false
	}
	return mapping, true
}

func (m *ColumnMapping) slot(role string) *int {
	switch role {
	case "name":
		return &m.Name
	case "columns":
		return &m.Columns
	case "rows":
		return &m.Rows
	case "cell":
		return &m.Cell
	case "wall":
		return &m.Wall
	case "height":
		return &m.Height
	default:
		return &m.Divider
	}
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts a tray from a row. Columns and rows are required; the
// other dimensions fall back to the defaults when the cell is blank.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, defaults model.TrayConfig) (model.NamedTray, string) {
	cfg := defaults

	for _, f := range []struct {
		name string
		idx  int
		dst  *int
	}{
		{"columns", mapping.Columns, &cfg.Columns},
		{"rows", mapping.Rows, &cfg.Rows},
	} {
		s := getCell(row, f.idx)
		if s == "" {
			return model.NamedTray{}, fmt.Sprintf("%s: Missing %s value", rowLabel, f.name)
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return model.NamedTray{}, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, f.name, s)
		}
		*f.dst = v
	}

	for _, f := range []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"cell size", mapping.Cell, &cfg.CellSize},
		{"wall", mapping.Wall, &cfg.WallThickness},
		{"height", mapping.Height, &cfg.Height},
		{"divider", mapping.Divider, &cfg.Divider},
	} {
		s := getCell(row, f.idx)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.NamedTray{}, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, f.name, s)
		}
		*f.dst = v
	}

	if err := cfg.Validate(); err != nil {
		var dimErr *model.DimensionError
		if errors.As(err, &dimErr) {
			return model.NamedTray{}, fmt.Sprintf("%s: %s %s", rowLabel, dimErr.Field, dimErr.Reason)
		}
		return model.NamedTray{}, fmt.Sprintf("%s: %v", rowLabel, err)
	}

	name := getCell(row, mapping.Name)
	if name == "" {
		name = cfg.FileStem()
	}
	return model.NamedTray{Name: name, Config: cfg}, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports trays from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports trays from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports trays from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// ImportFile dispatches on the file extension.
func ImportFile(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(path)
	default:
		return ImportCSV(path)
	}
}

// WriteTemplate writes an empty batch sheet with the expected header and one
// example row. The format follows the extension: .xlsx or CSV.
func WriteTemplate(path string) error {
	example := []string{"Example", "3", "2", "42", "2", "12", "0"}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)
		for r, row := range [][]string{templateHeader, example} {
			for c, v := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
		}
		return f.SaveAs(path)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll([][]string{templateHeader, example}); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into trays.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Columns == -1 {
			missing = append(missing, "Columns")
		}
		if mapping.Rows == -1 {
			missing = append(missing, "Rows")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		// A non-numeric columns field means an unrecognized header.
		if _, err := strconv.Atoi(strings.TrimSpace(rows[0][1])); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	defaults := model.DefaultTrayConfig()
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		tray, errMsg := parseRow(row, mapping, rowLabel, defaults)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Trays = append(result.Trays, tray)
	}

	return result
}
