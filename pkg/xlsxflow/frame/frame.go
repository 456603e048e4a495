// Package frame holds rectangular data with named columns, read from sheet
// regions, CSV or HTML tables and written back into workbooks.
package frame

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/parser"
	"github.com/xuri/excelize/v2"
)

// ErrNoTable is returned when no table-like region can be found.
var ErrNoTable = errors.New("no table found")

// Frame is rows x named columns.
type Frame struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// New builds a frame from a header row and raw rows. Header names are made
// unique and ragged rows are padded with nil to the header width.
func New(header []string, rows [][]interface{}) *Frame {
	width := len(header)
	for _, r := range rows {
		width = max(width, len(r))
	}
	fr := &Frame{Columns: uniqueHeaders(header, width), Rows: make([][]interface{}, 0, len(rows))}
	for _, r := range rows {
		row := make([]interface{}, width)
		copy(row, r)
		fr.Rows = append(fr.Rows, row)
	}
	return fr
}

// FromStrings builds a frame from text rows, converting numeric text to numbers.
// The first row is the header when header is true.
func FromStrings(records [][]string, header bool) *Frame {
	var head []string
	if header && len(records) > 0 {
		head, records = records[0], records[1:]
	}
	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		row := make([]interface{}, len(rec))
		for i, v := range rec {
			row[i] = typed(v)
		}
		rows = append(rows, row)
	}
	return New(head, rows)
}

func typed(s string) interface{} {
	if s == "" {
		return nil
	}
	return parser.ParseValue(strings.TrimSpace(s))
}

// uniqueHeaders fills blank names with the column letter and suffixes
// duplicates: name, name_2, name_3. A suffixed name never collides with a
// header that already carries that name.
func uniqueHeaders(header []string, width int) []string {
	out := make([]string, width)
	seen := make(map[string]bool, width)
	next := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			letter, _ := excelize.ColumnNumberToName(i + 1)
			name = "column_" + letter
		}
		if seen[name] {
			base, n := name, max(next[name], 1)
			for seen[name] {
				n++
				name = fmt.Sprintf("%s_%d", base, n)
			}
			next[base] = n
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// Len returns the number of data rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Head returns a frame with at most the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n < 0 || n >= len(f.Rows) {
		return f
	}
	return &Frame{Columns: f.Columns, Rows: f.Rows[:n]}
}

// Index returns the position of a named column, or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of a named column.
func (f *Frame) Column(name string) ([]interface{}, bool) {
	idx := f.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]interface{}, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// Select returns a frame with only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		if idx[i] = f.Index(n); idx[i] < 0 {
			return nil, fmt.Errorf("unknown column %q", n)
		}
	}
	out := &Frame{Columns: append([]string(nil), names...), Rows: make([][]interface{}, len(f.Rows))}
	for i, r := range f.Rows {
		row := make([]interface{}, len(idx))
		for j, k := range idx {
			row[j] = r[k]
		}
		out.Rows[i] = row
	}
	return out, nil
}

// FromSheet reads a sheet region into a frame. An empty rng selects the first
// detected table candidate. With header the first row names the columns.
func FromSheet(f *excelize.File, sheet, rng string, header bool) (*Frame, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	var bounds models.Range
	if rng == "" {
		candidates := parser.DetectTableRanges(rows, parser.DefaultTableParams())
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w in sheet %q", ErrNoTable, sheet)
		}
		bounds = candidates[0]
	} else if bounds, err = models.ParseRange(rng); err != nil {
		return nil, err
	}

	records := make([][]string, 0, bounds.Height())
	for r := bounds.R1; r <= bounds.R2; r++ {
		rec := make([]string, bounds.Width())
		if r-1 < len(rows) {
			src := rows[r-1]
			for c := bounds.C1; c <= bounds.C2 && c-1 < len(src); c++ {
				rec[c-bounds.C1] = src[c-1]
			}
		}
		records = append(records, rec)
	}
	return FromStrings(records, header), nil
}

// WriteOptions controls how a frame is written into a sheet.
type WriteOptions struct {
	// Header writes column names as the first row.
	Header bool
	// HeaderStyle is applied to the header row; nil uses bold text with a bottom border.
	HeaderStyle *models.CellStyle
}

// WriteTo writes the frame into sheet starting at anchor. The sheet is
// created when missing. It returns the written range.
func (f *Frame) WriteTo(file *excelize.File, sheet, anchor string, opts WriteOptions) (models.Range, error) {
	col, row, err := excelize.CellNameToCoordinates(anchor)
	if err != nil {
		return models.Range{}, err
	}
	if idx, err := file.GetSheetIndex(sheet); err != nil || idx < 0 {
		if _, err := file.NewSheet(sheet); err != nil {
			return models.Range{}, err
		}
	}

	width := max(len(f.Columns), 1)
	out := models.Range{R1: row, C1: col, R2: row, C2: col + width - 1}
	if opts.Header {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		header := make([]interface{}, len(f.Columns))
		for i, c := range f.Columns {
			header[i] = c
		}
		if err := file.SetSheetRow(sheet, cell, &header); err != nil {
			return out, err
		}
		style := opts.HeaderStyle
		if style == nil {
			style = &models.CellStyle{
				Font:   models.Font{Bold: true},
				Border: models.Border{Bottom: models.Side{Style: 1}},
			}
		}
		id, err := parser.WriteStyle(file, style)
		if err != nil {
			return out, err
		}
		end, _ := excelize.CoordinatesToCellName(col+width-1, row)
		if err := file.SetCellStyle(sheet, cell, end, id); err != nil {
			return out, err
		}
		row++
	}
	for _, r := range f.Rows {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		values := r
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return out, err
		}
		row++
	}
	out.R2 = max(row-1, out.R1)
	return out, nil
}

// Strings renders every value as text, for previews.
func (f *Frame) Strings() [][]string {
	out := make([][]string, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = make([]string, len(r))
		for j, v := range r {
			out[i][j] = format(v)
		}
	}
	return out
}

func format(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
