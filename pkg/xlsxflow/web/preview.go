package web

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/parser"
	"github.com/xuri/excelize/v2"
)

// maxPreviewCols bounds the rendered width of a preview.
const maxPreviewCols = 40

type previewCol struct {
	Name  string
	Width int // pixels
}

type previewCell struct {
	Ref     string
	Text    string
	Formula string
	ColSpan int
	RowSpan int
	Style   template.CSS
}

type previewRow struct {
	Num    int
	Height int // pixels, 0 for default
	Cells  []previewCell
}

type preview struct {
	Sheet     string
	Range     string
	Cols      []previewCol
	Rows      []previewRow
	Truncated bool
	Merges    int
}

// buildPreview renders the top-left part of a sheet: at most maxRows rows,
// merged regions as spans and styles as inline CSS.
func buildPreview(wb *xlsxflow.Workbook, sheet string, maxRows int) (*preview, error) {
	p := &preview{Sheet: sheet}
	used, ok, err := wb.UsedRange(sheet)
	if err != nil || !ok {
		return p, err
	}
	// Show the sheet from A1 so positions match what users see in a spreadsheet.
	used.R1, used.C1 = 1, 1

	merges, err := wb.Merges(sheet)
	if err != nil {
		return nil, err
	}
	regions := merges.Regions()
	p.Merges = len(regions)
	// The used range only counts values; a merge reaching past it is
	// still drawn whole.
	for grown := true; grown; {
		grown = false
		for _, region := range regions {
			rg := region.Range
			if !used.Intersects(rg) || (rg.C2 <= used.C2 && rg.R2 <= used.R2) {
				continue
			}
			used.C2, used.R2 = max(used.C2, rg.C2), max(used.R2, rg.R2)
			grown = true
		}
	}

	view := used
	if view.Height() > maxRows {
		view.R2 = view.R1 + maxRows - 1
		p.Truncated = true
	}
	if view.Width() > maxPreviewCols {
		view.C2 = view.C1 + maxPreviewCols - 1
		p.Truncated = true
	}
	p.Range = view.String()

	f := wb.File
	for c := view.C1; c <= view.C2; c++ {
		name, _ := excelize.ColumnNumberToName(c)
		width := parser.ColWidthToPixels(parser.DefaultColWidth)
		if w, err := f.GetColWidth(sheet, name); err == nil {
			width = parser.ColWidthToPixels(w)
		}
		p.Cols = append(p.Cols, previewCol{Name: name, Width: width})
	}

	for r := view.R1; r <= view.R2; r++ {
		row := previewRow{Num: r}
		if h, err := f.GetRowHeight(sheet, r); err == nil && h != 15 {
			row.Height = parser.PointsToPixels(h)
		}
		for c := view.C1; c <= view.C2; c++ {
			region, role := merges.Lookup(c, r)
			if role == models.MergePlaceholder {
				continue
			}
			cell, err := previewCellAt(wb, sheet, c, r)
			if err != nil {
				return nil, err
			}
			if role == models.MergeAnchor {
				// Clip spans to the visible window.
				cell.ColSpan = min(region.Range.C2, view.C2) - c + 1
				cell.RowSpan = min(region.Range.R2, view.R2) - r + 1
			}
			row.Cells = append(row.Cells, cell)
		}
		p.Rows = append(p.Rows, row)
	}
	return p, nil
}

func previewCellAt(wb *xlsxflow.Workbook, sheet string, col, row int) (previewCell, error) {
	cell, err := wb.Cell(sheet, col, row)
	if err != nil {
		return previewCell{}, err
	}
	text, err := wb.File.GetCellValue(sheet, cell.Ref)
	if err != nil {
		return previewCell{}, err
	}
	out := previewCell{Ref: cell.Ref, Text: text, Style: cellCSS(cell.Style)}
	if cell.Formula != "" {
		out.Formula = "=" + cell.Formula
	}
	return out, nil
}

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// cssColor accepts RGB and ARGB hex colors with or without '#'.
func cssColor(c string) (string, bool) {
	c = strings.TrimPrefix(c, "#")
	if len(c) == 8 {
		c = c[2:]
	}
	if !hexColor.MatchString(c) {
		return "", false
	}
	return "#" + c, true
}

var alignments = map[string]string{
	"left": "left", "center": "center", "right": "right", "justify": "justify",
	"centerContinuous": "center", "distributed": "justify",
}

var verticals = map[string]string{
	"top": "top", "center": "middle", "bottom": "bottom",
}

// borderCSS maps excelize border style ids to CSS borders.
func borderCSS(s models.Side) string {
	if s.IsZero() {
		return ""
	}
	kind := "1px solid"
	switch s.Style {
	case 2, 5, 8, 10, 12:
		kind = "2px solid"
	case 3, 9, 11, 13:
		kind = "1px dashed"
	case 4, 7:
		kind = "1px dotted"
	case 6:
		kind = "3px double"
	}
	color := "#000"
	if c, ok := cssColor(s.Color); ok {
		color = c
	}
	return kind + " " + color
}

// cellCSS converts a style into an inline style attribute. Only validated
// values reach the output.
func cellCSS(st *models.CellStyle) template.CSS {
	if st == nil {
		return ""
	}
	var parts []string
	add := func(prop, val string) {
		if val != "" {
			parts = append(parts, prop+":"+val)
		}
	}
	if st.Font.Bold {
		add("font-weight", "bold")
	}
	if st.Font.Italic {
		add("font-style", "italic")
	}
	var deco []string
	if st.Font.Underline != "" && st.Font.Underline != "none" {
		deco = append(deco, "underline")
	}
	if st.Font.Strike {
		deco = append(deco, "line-through")
	}
	add("text-decoration", strings.Join(deco, " "))
	if st.Font.Size > 0 && st.Font.Size < 100 {
		add("font-size", fmt.Sprintf("%gpt", st.Font.Size))
	}
	if c, ok := cssColor(st.Font.Color); ok {
		add("color", c)
	}
	if c, ok := cssColor(st.Fill.Color); ok && st.Fill.Pattern > 0 {
		add("background-color", c)
	}
	add("text-align", alignments[st.Alignment.Horizontal])
	add("vertical-align", verticals[st.Alignment.Vertical])
	if st.Alignment.WrapText {
		add("white-space", "pre-wrap")
	}
	add("border-left", borderCSS(st.Border.Left))
	add("border-right", borderCSS(st.Border.Right))
	add("border-top", borderCSS(st.Border.Top))
	add("border-bottom", borderCSS(st.Border.Bottom))
	return template.CSS(strings.Join(parts, ";"))
}
