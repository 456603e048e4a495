package models

// PrintAreaView represents a slice of a sheet restricted to a print area.
type PrintAreaView struct {
	// BookName is the workbook name owning the area.
	BookName string `json:"book_name"`
	// SheetName is the sheet name owning the area.
	SheetName string `json:"sheet_name"`
	// Area is the print area bounds.
	Area Range `json:"area"`
	// Rows contains rows within the area bounds, restricted to the area columns.
	Rows []CellRow `json:"rows,omitempty"`
	// Merges contains merged regions intersecting the area.
	Merges []MergedRegion `json:"merges,omitempty"`
	// Shapes contains shapes anchored on cells inside the area.
	Shapes []Shape `json:"shapes,omitempty"`
	// Charts contains charts anchored on cells inside the area.
	Charts []Chart `json:"charts,omitempty"`
	// TableCandidates contains table candidates intersecting the area.
	TableCandidates []string `json:"table_candidates,omitempty"`
}
