package parser

import (
	"strconv"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/dates"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

// CellOptions selects the optional parts of cell extraction.
type CellOptions struct {
	IncludeLinks    bool
	IncludeFormulas bool
	// Styles resolves cell styles when non-nil.
	Styles *StyleCache
}

// ExtractCells extracts cell data from a sheet.
// It returns a slice of CellRow containing non-empty rows.
func ExtractCells(f *excelize.File, sheetName string, opts CellOptions) ([]models.CellRow, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var result []models.CellRow
	for rowIdx, row := range rows {
		rowNum := rowIdx + 1 // 1-based row index
		cellRow := models.CellRow{R: rowNum, C: make(map[string]interface{})}

		for colIdx, cellValue := range row {
			if cellValue == "" {
				continue
			}
			colStr := strconv.Itoa(colIdx + 1) // 1-based column index as string
			cellRow.C[colStr] = parseValue(cellValue)

			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			if err != nil {
				continue
			}

			if opts.IncludeFormulas {
				if formula, err := f.GetCellFormula(sheetName, cellName); err == nil && formula != "" {
					if cellRow.F == nil {
						cellRow.F = make(map[string]string)
					}
					cellRow.F[colStr] = formula
				}
			}

			if opts.IncludeLinks {
				hasLink, target, err := f.GetCellHyperLink(sheetName, cellName)
				if err == nil && hasLink && target != "" {
					if cellRow.Links == nil {
						cellRow.Links = make(map[string]string)
					}
					cellRow.Links[colStr] = target
				}
			}

			if opts.Styles != nil {
				styleID, err := f.GetCellStyle(sheetName, cellName)
				if err != nil || styleID == 0 {
					continue
				}
				if st, err := opts.Styles.Resolve(styleID); err == nil && st != nil {
					if cellRow.Styles == nil {
						cellRow.Styles = make(map[string]*models.CellStyle)
					}
					cellRow.Styles[colStr] = st
				}
			}
		}

		if len(cellRow.C) > 0 {
			result = append(result, cellRow)
		}
	}

	return result, nil
}

// ReadCell reads the stored value, formula, type and style of one cell.
// Style resolution is skipped when styles is nil.
func ReadCell(f *excelize.File, sheetName string, col, row int, styles *StyleCache) (models.Cell, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return models.Cell{}, err
	}
	cell := models.Cell{Ref: ref, Col: col, Row: row}

	if cell.Value, err = f.GetCellValue(sheetName, ref, excelize.Options{RawCellValue: true}); err != nil {
		return cell, err
	}
	if cell.Formula, err = f.GetCellFormula(sheetName, ref); err != nil {
		return cell, err
	}
	if cell.StyleID, err = f.GetCellStyle(sheetName, ref); err != nil {
		return cell, err
	}
	if styles != nil {
		if cell.Style, err = styles.Resolve(cell.StyleID); err != nil {
			return cell, err
		}
	}

	typ, err := f.GetCellType(sheetName, ref)
	if err != nil {
		return cell, err
	}
	cell.Type = classify(typ, cell)
	if cell.Type == models.CellTypeNumber && styles != nil {
		if dates.IsDateStyle(cell.Style.NumberFormat()) {
			cell.Type = models.CellTypeDate
		}
	}
	return cell, nil
}

func classify(typ excelize.CellType, cell models.Cell) models.CellType {
	if cell.Formula != "" {
		return models.CellTypeFormula
	}
	if cell.Value == "" {
		return models.CellTypeEmpty
	}
	switch typ {
	case excelize.CellTypeBool:
		return models.CellTypeBool
	case excelize.CellTypeDate:
		return models.CellTypeDate
	case excelize.CellTypeError:
		return models.CellTypeError
	case excelize.CellTypeInlineString, excelize.CellTypeSharedString, excelize.CellTypeFormula:
		return models.CellTypeString
	}
	if _, err := strconv.ParseFloat(cell.Value, 64); err == nil {
		return models.CellTypeNumber
	}
	return models.CellTypeString
}

// parseValue attempts to parse a string value as a number.
// Returns int64 for integers, float64 for decimals, or the original string.
func parseValue(s string) interface{} {
	// Try integer first
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// Try float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	// Return as string
	return s
}

// ParseValue is parseValue for callers outside the package.
func ParseValue(s string) interface{} {
	return parseValue(s)
}
