package models

// SheetData represents structured data for a single sheet.
type SheetData struct {
	// Name is the sheet name.
	Name string `json:"name"`
	// Dimension is the used range reported by the sheet, e.g. "A1:F20".
	Dimension string `json:"dimension,omitempty"`
	// Rows contains extracted rows with cell values and links.
	Rows []CellRow `json:"rows,omitempty"`
	// Merges contains merged regions on the sheet.
	Merges []MergedRegion `json:"merges,omitempty"`
	// TableCandidates contains cell ranges likely representing tables.
	TableCandidates []string `json:"table_candidates,omitempty"`
	// Shapes contains drawn shapes and connectors (standard and verbose modes).
	Shapes []Shape `json:"shapes,omitempty"`
	// Charts contains embedded charts (standard and verbose modes).
	Charts []Chart `json:"charts,omitempty"`
	// PrintAreas contains user-defined print areas.
	PrintAreas []Range `json:"print_areas,omitempty"`
	// ColWidths maps column letter to width in pixels for non-default widths.
	ColWidths map[string]int `json:"col_widths,omitempty"`
}
