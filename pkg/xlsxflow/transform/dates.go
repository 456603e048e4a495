package transform

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/dates"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/parser"
	"github.com/xuri/excelize/v2"
)

// DefaultDateFormat is the number format stamp_date applies when none is given.
const DefaultDateFormat = "yyyy-mm-dd"

// shiftDates moves every calendar date cell by the step's years, months and
// days. Formula cells are skipped; their results follow their inputs.
func shiftDates(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if s.Years == 0 && s.Months == 0 && s.Days == 0 {
		return StepResult{Note: "zero offset"}, nil
	}
	tgts, err := targets(wb, s.Sheet, s.Range)
	if err != nil {
		return StepResult{}, err
	}

	f := wb.File
	date1904 := wb.Date1904()
	changed := 0
	for _, t := range tgts {
		err := t.rng.Cells(func(col, row int) error {
			cell, err := parser.ReadCell(f, t.sheet, col, row, wb.Styles())
			if err != nil || cell.Type != models.CellTypeDate {
				return err
			}
			if serial, err := strconv.ParseFloat(cell.Value, 64); err == nil {
				// Times of day and durations are not moved.
				if !dates.IsCalendarStyle(cell.Style.NumberFormat()) {
					return nil
				}
				tm, err := dates.FromSerial(serial, date1904)
				if err != nil {
					return err
				}
				shifted := dates.AddDate(tm, s.Years, s.Months, s.Days)
				changed++
				return f.SetCellFloat(t.sheet, cell.Ref, dates.ToSerial(shifted, date1904), -1, 64)
			}
			// ISO 8601 date cells (t="d").
			tm, err := time.Parse(time.RFC3339Nano, cell.Value)
			if err != nil {
				return nil
			}
			changed++
			return f.SetCellValue(t.sheet, cell.Ref, dates.AddDate(tm, s.Years, s.Months, s.Days))
		})
		if err != nil {
			return StepResult{}, fmt.Errorf("sheet %q: %w", t.sheet, err)
		}
	}
	return StepResult{Cells: changed}, nil
}

// stampDate writes today's date, shifted by OffsetDays, with a date number
// format layered over the cell's existing style.
func stampDate(_ context.Context, wb *xlsxflow.Workbook, s *Step, env *Env) (StepResult, error) {
	if err := ensureSheet(wb, s.Sheet); err != nil {
		return StepResult{}, err
	}
	format := s.Format
	if format == "" {
		format = DefaultDateFormat
	}
	day := dates.Today(env.Clock).AddDate(0, 0, s.OffsetDays)

	f := wb.File
	if err := f.SetCellFormula(s.Sheet, s.Cell, ""); err != nil {
		return StepResult{}, err
	}
	if err := f.SetCellFloat(s.Sheet, s.Cell, dates.ToSerial(day, wb.Date1904()), -1, 64); err != nil {
		return StepResult{}, err
	}
	base, err := f.GetCellStyle(s.Sheet, s.Cell)
	if err != nil {
		return StepResult{}, err
	}
	style, err := wb.Styles().Derive(base, "numfmt:"+format, func(st *excelize.Style) {
		code := format
		st.NumFmt = 0
		st.CustomNumFmt = &code
	})
	if err != nil {
		return StepResult{}, err
	}
	if err := f.SetCellStyle(s.Sheet, s.Cell, s.Cell, style); err != nil {
		return StepResult{}, err
	}
	return StepResult{Cells: 1, Note: day.Format(time.DateOnly)}, nil
}
