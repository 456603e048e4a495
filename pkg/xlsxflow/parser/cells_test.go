package parser

import (
	"path/filepath"
	"testing"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

func TestExtractCells(t *testing.T) {
	// Create a temporary Excel file for testing
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	f.SetCellValue(sheetName, "A1", "Header1")
	f.SetCellValue(sheetName, "B1", "Header2")
	f.SetCellValue(sheetName, "A2", 100)
	f.SetCellValue(sheetName, "B2", 200.5)
	f.SetCellValue(sheetName, "A3", "Text")
	f.SetCellFormula(sheetName, "B3", "A2*2")
	f.SetCellHyperLink(sheetName, "A3", "https://example.com", "External")

	// Save to temp file
	tmpFile := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(tmpFile); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}

	// Open and extract
	f2, err := excelize.OpenFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to open test file: %v", err)
	}
	defer f2.Close()

	rows, err := ExtractCells(f2, sheetName, CellOptions{IncludeLinks: true, IncludeFormulas: true})
	if err != nil {
		t.Fatalf("ExtractCells failed: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].R != 1 {
		t.Errorf("Expected row 1, got %d", rows[0].R)
	}
	if rows[0].C["1"] != "Header1" {
		t.Errorf("Expected 'Header1', got %v", rows[0].C["1"])
	}
	if rows[1].C["1"] != int64(100) {
		t.Errorf("Expected int64(100), got %v (type: %T)", rows[1].C["1"], rows[1].C["1"])
	}
	if rows[1].C["2"] != 200.5 {
		t.Errorf("Expected 200.5, got %v", rows[1].C["2"])
	}
	if rows[2].Links["1"] != "https://example.com" {
		t.Errorf("Expected link on A3, got %v", rows[2].Links)
	}
	if rows[2].F != nil && rows[2].F["2"] != "A2*2" {
		t.Errorf("Expected formula A2*2, got %v", rows[2].F)
	}
}

func TestReadCell(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Style: 2, Color: "FF0000"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	dateFmt := "yyyy-mm-dd"
	date, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		t.Fatal(err)
	}

	f.SetCellValue("Sheet1", "A1", "title")
	f.SetCellStyle("Sheet1", "A1", "A1", bold)
	f.SetCellValue("Sheet1", "B1", 45292)
	f.SetCellStyle("Sheet1", "B1", "B1", date)
	f.SetCellFormula("Sheet1", "C1", "B1+1")

	styles := NewStyleCache(f)

	a1, err := ReadCell(f, "Sheet1", 1, 1, styles)
	if err != nil {
		t.Fatal(err)
	}
	if a1.Type != models.CellTypeString || a1.Value != "title" {
		t.Errorf("A1 = %+v", a1)
	}
	if a1.Style == nil || !a1.Style.Font.Bold {
		t.Fatalf("A1 style not bold: %+v", a1.Style)
	}
	if a1.Style.Border.Bottom.Style != 2 {
		t.Errorf("A1 bottom border = %+v", a1.Style.Border.Bottom)
	}

	b1, err := ReadCell(f, "Sheet1", 2, 1, styles)
	if err != nil {
		t.Fatal(err)
	}
	if b1.Type != models.CellTypeDate {
		t.Errorf("B1 type = %s, want date", b1.Type)
	}

	c1, err := ReadCell(f, "Sheet1", 3, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c1.Type != models.CellTypeFormula || c1.Formula != "B1+1" {
		t.Errorf("C1 = %+v", c1)
	}

	empty, err := ReadCell(f, "Sheet1", 4, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !empty.IsEmpty() || empty.Type != models.CellTypeEmpty {
		t.Errorf("D4 = %+v", empty)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected interface{}
	}{
		{"123", int64(123)},
		{"123.45", 123.45},
		{"-100", int64(-100)},
		{"hello", "hello"},
		{"", ""},
	}

	for _, tt := range tests {
		result := parseValue(tt.input)
		if result != tt.expected {
			t.Errorf("parseValue(%q) = %v (type: %T), expected %v (type: %T)",
				tt.input, result, result, tt.expected, tt.expected)
		}
	}
}
