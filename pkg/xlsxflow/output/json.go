// Package output serializes inspection results.
package output

import (
	"encoding/json"
	"strconv"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
)

func marshal(v interface{}, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// ToJSON serializes a workbook.
func ToJSON(wb *models.WorkbookData, pretty bool) ([]byte, error) {
	return marshal(wb, pretty)
}

// SheetToJSON serializes a single sheet.
func SheetToJSON(sheet *models.SheetData, pretty bool) ([]byte, error) {
	return marshal(sheet, pretty)
}

// PrintAreaViewToJSON serializes a print area view.
func PrintAreaViewToJSON(view *models.PrintAreaView, pretty bool) ([]byte, error) {
	return marshal(view, pretty)
}

// NewPrintAreaView restricts a sheet to a print area. Rows keep only the
// columns inside the area; merges, table candidates, shapes and charts are
// kept when they intersect it. Drawings without a cell anchor are dropped.
func NewPrintAreaView(bookName string, sheet models.SheetData, area models.Range) models.PrintAreaView {
	view := models.PrintAreaView{
		BookName:  bookName,
		SheetName: sheet.Name,
		Area:      area,
	}

	for _, row := range sheet.Rows {
		if row.R < area.R1 || row.R > area.R2 {
			continue
		}
		if clipped, ok := clipRow(row, area); ok {
			view.Rows = append(view.Rows, clipped)
		}
	}
	for _, m := range sheet.Merges {
		if m.Range.Intersects(area) {
			view.Merges = append(view.Merges, m)
		}
	}
	for _, ref := range sheet.TableCandidates {
		if r, err := models.ParseRange(ref); err == nil && r.Intersects(area) {
			view.TableCandidates = append(view.TableCandidates, ref)
		}
	}
	for _, s := range sheet.Shapes {
		if s.Anchor != nil && s.Anchor.Intersects(area) {
			view.Shapes = append(view.Shapes, s)
		}
	}
	for _, c := range sheet.Charts {
		if c.Anchor != nil && c.Anchor.Intersects(area) {
			view.Charts = append(view.Charts, c)
		}
	}
	return view
}

func clipRow(row models.CellRow, area models.Range) (models.CellRow, bool) {
	inside := func(key string) bool {
		c, err := strconv.Atoi(key)
		return err == nil && c >= area.C1 && c <= area.C2
	}
	out := models.CellRow{R: row.R, C: map[string]interface{}{}}
	for k, v := range row.C {
		if inside(k) {
			out.C[k] = v
		}
	}
	for k, v := range row.F {
		if inside(k) {
			if out.F == nil {
				out.F = map[string]string{}
			}
			out.F[k] = v
		}
	}
	for k, v := range row.Links {
		if inside(k) {
			if out.Links == nil {
				out.Links = map[string]string{}
			}
			out.Links[k] = v
		}
	}
	for k, v := range row.Styles {
		if inside(k) {
			if out.Styles == nil {
				out.Styles = map[string]*models.CellStyle{}
			}
			out.Styles[k] = v
		}
	}
	return out, len(out.C) > 0 || len(out.F) > 0
}
