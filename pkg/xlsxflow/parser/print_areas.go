package parser

import (
	"strings"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

// ExtractPrintAreas extracts print areas from a workbook.
// Returns a map of sheet name to list of print areas.
func ExtractPrintAreas(f *excelize.File) (map[string][]models.Range, error) {
	result := make(map[string][]models.Range)

	for _, dn := range f.GetDefinedName() {
		if !strings.EqualFold(dn.Name, "_xlnm.Print_Area") {
			continue
		}
		sheetName, areas := parsePrintAreaReference(dn.RefersTo)
		// A sheet-scoped name may omit the sheet in its reference.
		if sheetName == "" && dn.Scope != "Workbook" {
			sheetName = dn.Scope
		}
		if sheetName != "" && len(areas) > 0 {
			result[sheetName] = append(result[sheetName], areas...)
		}
	}

	return result, nil
}

// parsePrintAreaReference parses a print area reference string.
// Format: 'SheetName'!$A$1:$D$10 or SheetName!$A$1:$D$10,SheetName!$F$1:$G$4
func parsePrintAreaReference(ref string) (string, []models.Range) {
	var areas []models.Range
	var sheetName string

	for _, part := range splitReferenceList(ref) {
		rangeStr := part
		if idx := strings.LastIndex(part, "!"); idx >= 0 {
			sheet := unquoteSheetName(part[:idx])
			if sheetName == "" {
				sheetName = sheet
			}
			rangeStr = part[idx+1:]
		}
		if area, err := models.ParseRange(rangeStr); err == nil {
			areas = append(areas, area)
		}
	}

	return sheetName, areas
}

// splitReferenceList splits a comma separated reference list, ignoring commas
// inside quoted sheet names.
func splitReferenceList(ref string) []string {
	var parts []string
	var b strings.Builder
	quoted := false
	for _, r := range ref {
		switch {
		case r == '\'':
			quoted = !quoted
			b.WriteRune(r)
		case r == ',' && !quoted:
			if s := strings.TrimSpace(b.String()); s != "" {
				parts = append(parts, s)
			}
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

// unquoteSheetName strips the quotes around a sheet name and collapses
// doubled apostrophes.
func unquoteSheetName(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}
