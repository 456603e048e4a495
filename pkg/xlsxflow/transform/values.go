package transform

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/xuri/excelize/v2"
)

// replace rewrites text cells, and formulas when asked, with a regular
// expression. Numbers, dates and booleans are left alone.
func replace(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	re := s.re
	if re == nil {
		var err error
		if re, err = regexp.Compile(s.Pattern); err != nil {
			return StepResult{}, err
		}
	}
	tgts, err := targets(wb, s.Sheet, s.Range)
	if err != nil {
		return StepResult{}, err
	}

	f := wb.File
	changed := 0
	for _, t := range tgts {
		err := t.rng.Cells(func(col, row int) error {
			ref := cellName(col, row)
			cell, err := readSnapshot(f, t.sheet, ref)
			if err != nil {
				return err
			}
			if cell.formula != "" {
				if !s.Formulas {
					return nil
				}
				out := re.ReplaceAllString(cell.formula, s.Replacement)
				if out == cell.formula {
					return nil
				}
				changed++
				return f.SetCellFormula(t.sheet, ref, out)
			}
			if !isText(cell) {
				return nil
			}
			out := re.ReplaceAllString(cell.value, s.Replacement)
			if out == cell.value {
				return nil
			}
			changed++
			return f.SetCellStr(t.sheet, ref, out)
		})
		if err != nil {
			return StepResult{}, fmt.Errorf("sheet %q: %w", t.sheet, err)
		}
	}
	return StepResult{Cells: changed}, nil
}

func isText(c snapshot) bool {
	if c.value == "" {
		return false
	}
	switch c.typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return true
	case excelize.CellTypeUnset:
		_, err := strconv.ParseFloat(c.value, 64)
		return err != nil
	}
	return false
}

// setValue writes a literal. Strings starting with "=" become formulas and
// nil clears the cell. The cell style is kept.
func setValue(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := ensureSheet(wb, s.Sheet); err != nil {
		return StepResult{}, err
	}
	f := wb.File
	ref := s.Cell

	var err error
	switch v := s.Value.(type) {
	case nil:
		err = clearCell(f, s.Sheet, ref, false)
	case string:
		if strings.HasPrefix(v, "=") && len(v) > 1 {
			err = f.SetCellFormula(s.Sheet, ref, strings.TrimPrefix(v, "="))
			break
		}
		if err = f.SetCellFormula(s.Sheet, ref, ""); err == nil {
			err = f.SetCellStr(s.Sheet, ref, v)
		}
	case int, int64, float64, bool, time.Time:
		if err = f.SetCellFormula(s.Sheet, ref, ""); err == nil {
			err = f.SetCellValue(s.Sheet, ref, v)
		}
	default:
		err = fmt.Errorf("unsupported value %v (%T)", v, v)
	}
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Cells: 1}, nil
}

// freezeFormulas replaces formulas with their calculated results. Cells whose
// formula excelize cannot evaluate keep the formula and are reported.
func freezeFormulas(_ context.Context, wb *xlsxflow.Workbook, s *Step, env *Env) (StepResult, error) {
	tgts, err := targets(wb, s.Sheet, s.Range)
	if err != nil {
		return StepResult{}, err
	}

	type frozen struct {
		sheet, ref, value string
	}
	var (
		f       = wb.File
		results []frozen
		skipped int
	)
	// Evaluate everything before writing so dependent formulas still see
	// their precedents.
	for _, t := range tgts {
		err := t.rng.Cells(func(col, row int) error {
			ref := cellName(col, row)
			formula, err := f.GetCellFormula(t.sheet, ref)
			if err != nil || formula == "" {
				return err
			}
			value, err := f.CalcCellValue(t.sheet, ref, excelize.Options{RawCellValue: true})
			if err != nil {
				skipped++
				env.Logger.Warn().Err(err).Str("sheet", t.sheet).Str("cell", ref).Msg("formula not evaluated")
				return nil
			}
			results = append(results, frozen{t.sheet, ref, value})
			return nil
		})
		if err != nil {
			return StepResult{}, err
		}
	}

	for _, r := range results {
		if err := writeCalculated(f, r.sheet, r.ref, r.value); err != nil {
			return StepResult{}, err
		}
	}
	res := StepResult{Cells: len(results)}
	if skipped > 0 {
		res.Note = fmt.Sprintf("%d formula(s) could not be evaluated", skipped)
	}
	return res, nil
}

func writeCalculated(f *excelize.File, sheet, ref, value string) error {
	if err := f.SetCellFormula(sheet, ref, ""); err != nil {
		return err
	}
	switch {
	case value == "":
		return f.SetCellValue(sheet, ref, nil)
	case value == "TRUE" || value == "FALSE":
		return f.SetCellBool(sheet, ref, value == "TRUE")
	}
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return f.SetCellFloat(sheet, ref, v, -1, 64)
	}
	return f.SetCellStr(sheet, ref, value)
}
