package transform

import (
	"context"
	"fmt"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/formula"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

// Fallbacks when a sheet does not declare its own defaults.
const (
	defaultColWidth  = 9.140625
	defaultRowHeight = 15
)

// block is a detached copy of a sheet region.
type block struct {
	rng     models.Range
	cells   []snapshot
	merges  []models.Range
	widths  map[int]float64
	heights map[int]float64
}

func (b *block) at(col, row int) snapshot {
	return b.cells[(row-b.rng.R1)*b.rng.Width()+(col-b.rng.C1)]
}

// readBlock captures values, formulas, styles, merges fully inside rng and
// non-default column widths and row heights.
func readBlock(wb *xlsxflow.Workbook, sheet string, rng models.Range) (*block, error) {
	f := wb.File
	b := &block{
		rng:     rng,
		cells:   make([]snapshot, 0, rng.Width()*rng.Height()),
		widths:  make(map[int]float64),
		heights: make(map[int]float64),
	}
	err := rng.Cells(func(col, row int) error {
		s, err := readSnapshot(f, sheet, cellName(col, row))
		if err != nil {
			return err
		}
		b.cells = append(b.cells, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	merges, err := wb.Merges(sheet)
	if err != nil {
		return nil, err
	}
	for _, m := range merges.Intersecting(rng) {
		if rng.Contains(m.Range.C1, m.Range.R1) && rng.Contains(m.Range.C2, m.Range.R2) {
			b.merges = append(b.merges, m.Range)
		}
	}

	colDefault, rowDefault := sheetDefaults(f, sheet)
	for c := rng.C1; c <= rng.C2; c++ {
		name, _ := excelize.ColumnNumberToName(c)
		if w, err := f.GetColWidth(sheet, name); err == nil && w != colDefault {
			b.widths[c] = w
		}
	}
	for r := rng.R1; r <= rng.R2; r++ {
		if h, err := f.GetRowHeight(sheet, r); err == nil && h != rowDefault {
			b.heights[r] = h
		}
	}
	return b, nil
}

func sheetDefaults(f *excelize.File, sheet string) (colWidth, rowHeight float64) {
	colWidth, rowHeight = defaultColWidth, defaultRowHeight
	props, err := f.GetSheetProps(sheet)
	if err != nil {
		return
	}
	if props.DefaultColWidth != nil && *props.DefaultColWidth > 0 {
		colWidth = *props.DefaultColWidth
	}
	if props.DefaultRowHeight != nil && *props.DefaultRowHeight > 0 {
		rowHeight = *props.DefaultRowHeight
	}
	return
}

// writeBlock pastes b with its top-left corner at (col, row). Formulas are
// translated by the paste offset.
func writeBlock(f *excelize.File, sheet string, b *block, col, row int) (models.Range, error) {
	dc, dr := col-b.rng.C1, row-b.rng.R1
	dst := b.rng.Offset(dc, dr)
	if !dst.InGrid() {
		return dst, fmt.Errorf("destination %s is outside the sheet", dst)
	}

	err := b.rng.Cells(func(c, r int) error {
		s := b.at(c, r)
		translated := ""
		if s.formula != "" {
			translated = formula.Shift(s.formula, dc, dr)
		}
		return s.write(f, sheet, cellName(c+dc, r+dr), translated)
	})
	if err != nil {
		return dst, err
	}

	for _, m := range b.merges {
		m = m.Offset(dc, dr)
		if err := f.MergeCell(sheet, m.TopLeft(), m.BottomRight()); err != nil {
			return dst, err
		}
	}
	for c, w := range b.widths {
		name, _ := excelize.ColumnNumberToName(c + dc)
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return dst, err
		}
	}
	for r, h := range b.heights {
		if err := f.SetRowHeight(sheet, r+dr, h); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func ensureSheet(wb *xlsxflow.Workbook, name string) error {
	if wb.HasSheet(name) {
		return nil
	}
	_, err := wb.File.NewSheet(name)
	return err
}

type rangeMove struct {
	src, dst       models.Range
	sheet, toSheet string
	block          *block
}

func prepareMove(wb *xlsxflow.Workbook, s *Step) (*rangeMove, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return nil, err
	}
	src, err := models.ParseRange(s.Range)
	if err != nil {
		return nil, err
	}
	col, row, err := excelize.CellNameToCoordinates(s.To)
	if err != nil {
		return nil, err
	}
	toSheet := s.ToSheet
	if toSheet == "" {
		toSheet = s.Sheet
	}
	b, err := readBlock(wb, s.Sheet, src)
	if err != nil {
		return nil, err
	}
	return &rangeMove{
		src:     src,
		dst:     src.Offset(col-src.C1, row-src.R1),
		sheet:   s.Sheet,
		toSheet: toSheet,
		block:   b,
	}, nil
}

func (m *rangeMove) paste(wb *xlsxflow.Workbook) error {
	if err := ensureSheet(wb, m.toSheet); err != nil {
		return err
	}
	_, err := writeBlock(wb.File, m.toSheet, m.block, m.dst.C1, m.dst.R1)
	return err
}

func copyRange(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	m, err := prepareMove(wb, s)
	if err != nil {
		return StepResult{}, err
	}
	if err := m.paste(wb); err != nil {
		return StepResult{}, err
	}
	return StepResult{
		Cells: m.src.Width() * m.src.Height(),
		Note:  fmt.Sprintf("%s!%s -> %s!%s", m.sheet, m.src, m.toSheet, m.dst),
	}, nil
}

// moveRange copies and then clears the part of the source the paste did not
// overwrite. Source merges are dissolved before pasting.
func moveRange(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	m, err := prepareMove(wb, s)
	if err != nil {
		return StepResult{}, err
	}
	f := wb.File
	for _, mr := range m.block.merges {
		if err := f.UnmergeCell(m.sheet, mr.TopLeft(), mr.BottomRight()); err != nil {
			return StepResult{}, err
		}
	}
	if err := m.paste(wb); err != nil {
		return StepResult{}, err
	}
	sameSheet := m.toSheet == m.sheet
	err = m.src.Cells(func(col, row int) error {
		if sameSheet && m.dst.Contains(col, row) {
			return nil
		}
		return clearCell(f, m.sheet, cellName(col, row), true)
	})
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{
		Cells: 2 * m.src.Width() * m.src.Height(),
		Note:  fmt.Sprintf("%s!%s -> %s!%s", m.sheet, m.src, m.toSheet, m.dst),
	}, nil
}

// fillFormula copies the formula and style of one cell over a range,
// translating relative references for every destination.
func fillFormula(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.Sheet); err != nil {
		return StepResult{}, err
	}
	f := wb.File
	src, err := readSnapshot(f, s.Sheet, s.From)
	if err != nil {
		return StepResult{}, err
	}
	if src.formula == "" {
		return StepResult{}, fmt.Errorf("%s!%s holds no formula", s.Sheet, s.From)
	}
	rng, err := models.ParseRange(s.Range)
	if err != nil {
		return StepResult{}, err
	}

	n := 0
	err = rng.Cells(func(col, row int) error {
		ref := cellName(col, row)
		if ref == s.From {
			return nil
		}
		translated, err := formula.Translate(src.formula, s.From, ref)
		if err != nil {
			return err
		}
		n++
		return src.write(f, s.Sheet, ref, translated)
	})
	return StepResult{Cells: n}, err
}
