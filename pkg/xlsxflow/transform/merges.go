package transform

import (
	"context"
	"fmt"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
)

// unmerge dissolves merged regions. With Fill every former placeholder
// receives the anchor's value and style, so the grid reads the same in
// tools that ignore merges.
func unmerge(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	index, err := wb.Merges(s.Sheet)
	if err != nil {
		return StepResult{}, err
	}
	regions := index.Regions()
	if s.Range != "" {
		rng, err := models.ParseRange(s.Range)
		if err != nil {
			return StepResult{}, err
		}
		regions = index.Intersecting(rng)
	}

	f := wb.File
	cells := 0
	for _, region := range regions {
		anchor, err := readSnapshot(f, s.Sheet, region.Anchor)
		if err != nil {
			return StepResult{}, err
		}
		if err := f.UnmergeCell(s.Sheet, region.Range.TopLeft(), region.Range.BottomRight()); err != nil {
			return StepResult{}, err
		}
		if !s.Fill {
			continue
		}
		err = region.Range.Cells(func(col, row int) error {
			if region.Role(col, row) != models.MergePlaceholder {
				return nil
			}
			cells++
			// Formulas are filled as values: the anchor's formula only makes
			// sense at the anchor.
			return anchor.write(f, s.Sheet, cellName(col, row), "")
		})
		if err != nil {
			return StepResult{}, err
		}
	}
	return StepResult{Cells: cells, Note: fmt.Sprintf("%d region(s)", len(regions))}, nil
}

// merge merges a range. The top-left cell keeps its content and every other
// cell is cleared; styles stay so borders still draw.
func merge(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	rng, err := models.ParseRange(s.Range)
	if err != nil {
		return StepResult{}, err
	}
	if rng.Width()*rng.Height() == 1 {
		return StepResult{}, fmt.Errorf("cannot merge a single cell %s", rng)
	}
	f := wb.File
	err = rng.Cells(func(col, row int) error {
		if col == rng.C1 && row == rng.R1 {
			return nil
		}
		return clearCell(f, s.Sheet, cellName(col, row), false)
	})
	if err != nil {
		return StepResult{}, err
	}
	if err := f.MergeCell(s.Sheet, rng.TopLeft(), rng.BottomRight()); err != nil {
		return StepResult{}, err
	}
	return StepResult{Cells: rng.Width() * rng.Height()}, nil
}
