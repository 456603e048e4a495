package transform

import (
	"strconv"
	"strings"
	"time"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

// snapshot is the stored content of one cell, detached from the sheet so that
// overlapping copies read the source before it is overwritten.
type snapshot struct {
	value   string
	formula string
	typ     excelize.CellType
	style   int
}

func readSnapshot(f *excelize.File, sheet, ref string) (snapshot, error) {
	var s snapshot
	var err error
	if s.value, err = f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true}); err != nil {
		return s, err
	}
	if s.formula, err = f.GetCellFormula(sheet, ref); err != nil {
		return s, err
	}
	if s.typ, err = f.GetCellType(sheet, ref); err != nil {
		return s, err
	}
	if s.style, err = f.GetCellStyle(sheet, ref); err != nil {
		return s, err
	}
	return s, nil
}

// write stores the snapshot at ref. A non-empty formula replaces the
// snapshot's own formula, which lets callers pass a translated one.
func (s snapshot) write(f *excelize.File, sheet, ref, formula string) error {
	if formula != "" {
		if err := f.SetCellFormula(sheet, ref, formula); err != nil {
			return err
		}
	} else if err := writeValue(f, sheet, ref, s.value, s.typ); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, ref, ref, s.style)
}

// writeValue writes a raw stored value back with its original type.
func writeValue(f *excelize.File, sheet, ref, raw string, typ excelize.CellType) error {
	if err := f.SetCellFormula(sheet, ref, ""); err != nil {
		return err
	}
	if raw == "" {
		return f.SetCellValue(sheet, ref, nil)
	}
	switch typ {
	case excelize.CellTypeBool:
		return f.SetCellBool(sheet, ref, raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return f.SetCellStr(sheet, ref, raw)
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return f.SetCellValue(sheet, ref, t)
		}
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return f.SetCellFloat(sheet, ref, v, -1, 64)
	}
	return f.SetCellStr(sheet, ref, raw)
}

// clearCell removes the value and formula of a cell and, with style, resets
// its format.
func clearCell(f *excelize.File, sheet, ref string, style bool) error {
	if err := f.SetCellFormula(sheet, ref, ""); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, ref, nil); err != nil {
		return err
	}
	if style {
		return f.SetCellStyle(sheet, ref, ref, 0)
	}
	return nil
}

// target is one sheet region an op works on.
type target struct {
	sheet string
	rng   models.Range
}

// targets resolves optional sheet and range fields. An empty sheet means
// every sheet and an empty range means the sheet's used range; empty sheets
// are skipped.
func targets(wb *xlsxflow.Workbook, sheet, rng string) ([]target, error) {
	sheets := []string{sheet}
	if sheet == "" {
		sheets = wb.Sheets()
	} else if err := wb.RequireSheet(sheet); err != nil {
		return nil, err
	}

	var out []target
	for _, name := range sheets {
		if rng != "" {
			r, err := models.ParseRange(rng)
			if err != nil {
				return nil, err
			}
			out = append(out, target{sheet: name, rng: r})
			continue
		}
		r, ok, err := wb.UsedRange(name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, target{sheet: name, rng: r})
		}
	}
	return out, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
