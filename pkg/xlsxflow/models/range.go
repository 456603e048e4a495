package models

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Grid limits of an xlsx worksheet.
const (
	MaxColumns = excelize.MaxColumns
	MaxRows    = excelize.TotalRows
)

// Range represents cell coordinate bounds.
type Range struct {
	// R1 is the start row (1-based).
	R1 int `json:"r1"`
	// C1 is the start column (1-based).
	C1 int `json:"c1"`
	// R2 is the end row (1-based, inclusive).
	R2 int `json:"r2"`
	// C2 is the end column (1-based, inclusive).
	C2 int `json:"c2"`
}

// ParseRange parses a range such as "A1:D10", "$A$1:$D$10" or a single cell "B2".
// Corners are normalized so that R1 <= R2 and C1 <= C2.
func ParseRange(s string) (Range, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "$", "")
	if s == "" {
		return Range{}, fmt.Errorf("empty range")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}
	c1, r1, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return Range{}, err
	}
	c2, r2 := c1, r1
	if len(parts) == 2 {
		if c2, r2, err = excelize.CellNameToCoordinates(parts[1]); err != nil {
			return Range{}, err
		}
	}
	return Range{R1: r1, C1: c1, R2: r2, C2: c2}.normalize(), nil
}

func (r Range) normalize() Range {
	if r.R1 > r.R2 {
		r.R1, r.R2 = r.R2, r.R1
	}
	if r.C1 > r.C2 {
		r.C1, r.C2 = r.C2, r.C1
	}
	return r
}

// String returns the range in A1 notation. Single cells have no colon.
func (r Range) String() string {
	start, _ := excelize.CoordinatesToCellName(r.C1, r.R1)
	if r.R1 == r.R2 && r.C1 == r.C2 {
		return start
	}
	end, _ := excelize.CoordinatesToCellName(r.C2, r.R2)
	return start + ":" + end
}

// TopLeft returns the anchor cell name.
func (r Range) TopLeft() string {
	name, _ := excelize.CoordinatesToCellName(r.C1, r.R1)
	return name
}

// BottomRight returns the last cell name.
func (r Range) BottomRight() string {
	name, _ := excelize.CoordinatesToCellName(r.C2, r.R2)
	return name
}

func (r Range) Width() int  { return r.C2 - r.C1 + 1 }
func (r Range) Height() int { return r.R2 - r.R1 + 1 }

// Contains reports whether the cell at (col, row) lies inside the range.
func (r Range) Contains(col, row int) bool {
	return col >= r.C1 && col <= r.C2 && row >= r.R1 && row <= r.R2
}

// Intersects reports whether two ranges share at least one cell.
func (r Range) Intersects(o Range) bool {
	return r.C1 <= o.C2 && o.C1 <= r.C2 && r.R1 <= o.R2 && o.R1 <= r.R2
}

// Offset moves the range by dc columns and dr rows.
func (r Range) Offset(dc, dr int) Range {
	return Range{R1: r.R1 + dr, C1: r.C1 + dc, R2: r.R2 + dr, C2: r.C2 + dc}
}

// InGrid reports whether the whole range fits the worksheet grid.
func (r Range) InGrid() bool {
	return r.C1 >= 1 && r.R1 >= 1 && r.C2 <= MaxColumns && r.R2 <= MaxRows
}

// Cells calls fn for every cell of the range in row-major order.
// Iteration stops at the first error.
func (r Range) Cells(fn func(col, row int) error) error {
	for row := r.R1; row <= r.R2; row++ {
		for col := r.C1; col <= r.C2; col++ {
			if err := fn(col, row); err != nil {
				return err
			}
		}
	}
	return nil
}
