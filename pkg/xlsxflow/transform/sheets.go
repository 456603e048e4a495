package transform

import (
	"context"
	"fmt"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
)

func count(s *Step) int {
	if s.Count == 0 {
		return 1
	}
	return s.Count
}

// usedSize returns the used width and height of a sheet, for reports.
func usedSize(wb *xlsxflow.Workbook, sheet string) (width, height int) {
	r, ok, err := wb.UsedRange(sheet)
	if err != nil || !ok {
		return 0, 0
	}
	return r.Width(), r.Height()
}

// Row and column steps delegate to excelize, which also moves merges,
// formulas, defined names and hyperlinks.

func insertRows(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	row, err := s.At.Row()
	if err != nil {
		return StepResult{}, err
	}
	n := count(s)
	if err := wb.File.InsertRows(s.Sheet, row, n); err != nil {
		return StepResult{}, err
	}
	width, _ := usedSize(wb, s.Sheet)
	return StepResult{Cells: n * width, Note: fmt.Sprintf("%d row(s) at %d", n, row)}, nil
}

func deleteRows(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	row, err := s.At.Row()
	if err != nil {
		return StepResult{}, err
	}
	width, _ := usedSize(wb, s.Sheet)
	n := count(s)
	for i := 0; i < n; i++ {
		if err := wb.File.RemoveRow(s.Sheet, row); err != nil {
			return StepResult{}, err
		}
	}
	return StepResult{Cells: n * width, Note: fmt.Sprintf("%d row(s) at %d", n, row)}, nil
}

func insertCols(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	col, err := s.At.Col()
	if err != nil {
		return StepResult{}, err
	}
	n := count(s)
	if err := wb.File.InsertCols(s.Sheet, col, n); err != nil {
		return StepResult{}, err
	}
	_, height := usedSize(wb, s.Sheet)
	return StepResult{Cells: n * height, Note: fmt.Sprintf("%d column(s) at %s", n, col)}, nil
}

func deleteCols(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	col, err := s.At.Col()
	if err != nil {
		return StepResult{}, err
	}
	_, height := usedSize(wb, s.Sheet)
	n := count(s)
	for i := 0; i < n; i++ {
		if err := wb.File.RemoveCol(s.Sheet, col); err != nil {
			return StepResult{}, err
		}
	}
	return StepResult{Cells: n * height, Note: fmt.Sprintf("%d column(s) at %s", n, col)}, nil
}

func renameSheet(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	if wb.HasSheet(s.To) {
		return StepResult{}, fmt.Errorf("%w: %q", ErrSheetExists, s.To)
	}
	if err := wb.File.SetSheetName(s.Sheet, s.To); err != nil {
		return StepResult{}, err
	}
	return StepResult{Note: fmt.Sprintf("%s -> %s", s.Sheet, s.To)}, nil
}

func duplicateSheet(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	if wb.HasSheet(s.To) {
		return StepResult{}, fmt.Errorf("%w: %q", ErrSheetExists, s.To)
	}
	from, err := wb.File.GetSheetIndex(s.Sheet)
	if err != nil {
		return StepResult{}, err
	}
	to, err := wb.File.NewSheet(s.To)
	if err != nil {
		return StepResult{}, err
	}
	if err := wb.File.CopySheet(from, to); err != nil {
		return StepResult{}, err
	}
	width, height := usedSize(wb, s.To)
	return StepResult{Cells: width * height, Note: fmt.Sprintf("%s -> %s", s.Sheet, s.To)}, nil
}

func deleteSheet(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	if len(wb.Sheets()) == 1 {
		return StepResult{}, ErrLastSheet
	}
	width, height := usedSize(wb, s.Sheet)
	if err := wb.File.DeleteSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	return StepResult{Cells: width * height}, nil
}
