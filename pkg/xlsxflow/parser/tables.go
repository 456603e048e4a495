package parser

import (
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

// TableDetectionParams holds parameters for table detection.
type TableDetectionParams struct {
	// DensityMin is the minimum ratio of non-empty cells in a block.
	DensityMin float64
	// CoverageMin is the minimum ratio of non-empty rows in a block.
	CoverageMin float64
	// MinNonemptyCells is the minimum number of non-empty cells in a block.
	MinNonemptyCells int
	// MaxBlankRows is the number of consecutive blank rows that separates two blocks.
	MaxBlankRows int
}

// DefaultTableParams returns default table detection parameters.
func DefaultTableParams() TableDetectionParams {
	return TableDetectionParams{
		DensityMin:       0.04,
		CoverageMin:      0.2,
		MinNonemptyCells: 3,
		MaxBlankRows:     1,
	}
}

// DetectTables detects table-like regions in a sheet.
// Returns a list of cell ranges (e.g., "A1:D10") that likely represent tables.
func DetectTables(f *excelize.File, sheetName string, params TableDetectionParams) ([]string, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, r := range DetectTableRanges(rows, params) {
		out = append(out, r.String())
	}
	return out, nil
}

// DetectTableRanges finds table candidates in a row-major grid of cell text.
// Vertical blocks of rows separated by more than MaxBlankRows blank rows are
// evaluated independently.
func DetectTableRanges(rows [][]string, params TableDetectionParams) []models.Range {
	var out []models.Range
	for _, block := range splitBlocks(rows, params.MaxBlankRows) {
		minRow, maxRow, minCol, maxCol := findDataBounds(rows, block[0], block[1])
		if minRow < 0 {
			continue
		}

		totalCells := (maxRow - minRow + 1) * (maxCol - minCol + 1)
		nonEmptyCells, nonEmptyRows := countNonEmpty(rows, minRow, maxRow, minCol, maxCol)
		if nonEmptyCells < params.MinNonemptyCells {
			continue
		}
		if float64(nonEmptyCells)/float64(totalCells) < params.DensityMin {
			continue
		}
		if float64(nonEmptyRows)/float64(maxRow-minRow+1) < params.CoverageMin {
			continue
		}

		out = append(out, models.Range{R1: minRow + 1, C1: minCol + 1, R2: maxRow + 1, C2: maxCol + 1})
	}
	return out
}

// splitBlocks returns [start, end] row index pairs of runs of rows separated
// by more than maxBlank blank rows.
func splitBlocks(rows [][]string, maxBlank int) [][2]int {
	var blocks [][2]int
	start, last, blank := -1, -1, 0
	for i, row := range rows {
		if rowIsBlank(row) {
			blank++
			if start >= 0 && blank > maxBlank {
				blocks = append(blocks, [2]int{start, last})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
		last, blank = i, 0
	}
	if start >= 0 {
		blocks = append(blocks, [2]int{start, last})
	}
	return blocks
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// findDataBounds finds the bounding box of non-empty cells between two row indexes.
func findDataBounds(rows [][]string, fromRow, toRow int) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx := fromRow; rowIdx <= toRow && rowIdx < len(rows); rowIdx++ {
		for colIdx, cell := range rows[rowIdx] {
			if cell == "" {
				continue
			}
			if minRow < 0 || rowIdx < minRow {
				minRow = rowIdx
			}
			if maxRow < 0 || rowIdx > maxRow {
				maxRow = rowIdx
			}
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if maxCol < 0 || colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}

	return
}

// countNonEmpty counts non-empty cells and rows within bounds.
func countNonEmpty(rows [][]string, minRow, maxRow, minCol, maxCol int) (cells, nonEmptyRows int) {
	for rowIdx := minRow; rowIdx <= maxRow && rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		found := false
		for colIdx := minCol; colIdx <= maxCol && colIdx < len(row); colIdx++ {
			if row[colIdx] != "" {
				cells++
				found = true
			}
		}
		if found {
			nonEmptyRows++
		}
	}
	return
}
