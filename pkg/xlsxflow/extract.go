package xlsxflow

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/parser"
	"github.com/xuri/excelize/v2"
)

// Extract extracts structured data from an Excel file.
func Extract(path string, opts Options) (*models.WorkbookData, error) {
	wb, err := OpenFile(path, opts)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return ExtractWorkbook(context.Background(), wb, opts)
}

// ExtractWorkbook extracts structured data from an open workbook.
// Failures in one sheet component are logged and leave that component empty.
func ExtractWorkbook(ctx context.Context, wb *Workbook, opts Options) (*models.WorkbookData, error) {
	log := zerolog.Ctx(ctx)
	f := wb.File

	sheetList := f.GetSheetList()
	sheets := make(map[string]models.SheetData, len(sheetList))

	cellOpts := parser.CellOptions{
		IncludeLinks:    opts.ShouldIncludeLinks(),
		IncludeFormulas: opts.ShouldIncludeFormulas(),
	}
	if opts.ShouldIncludeStyles() {
		cellOpts.Styles = wb.Styles()
	}

	warn := func(err *ExtractionError) {
		log.Warn().Err(err.Err).
			Str("sheet", err.Sheet).
			Str("component", err.Component).
			Msg("extraction failed, continuing")
	}

	for _, sheetName := range sheetList {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheet := models.SheetData{Name: sheetName}
		sheet.Dimension, _ = f.GetSheetDimension(sheetName)

		rows, err := parser.ExtractCells(f, sheetName, cellOpts)
		if err != nil {
			warn(NewExtractionError(sheetName, "cells", err))
		}
		sheet.Rows = rows

		tables, err := parser.DetectTables(f, sheetName, parser.DefaultTableParams())
		if err != nil {
			warn(NewExtractionError(sheetName, "tables", err))
		}
		sheet.TableCandidates = tables

		if opts.ShouldIncludeFormulas() {
			merges, err := parser.ExtractMerges(f, sheetName)
			if err != nil {
				warn(NewExtractionError(sheetName, "merges", err))
			}
			sheet.Merges = merges
		}

		if opts.Mode == ModeVerbose {
			widths, err := columnWidths(wb, sheetName)
			if err != nil {
				warn(NewExtractionError(sheetName, "widths", err))
			}
			sheet.ColWidths = widths
		}

		sheets[sheetName] = sheet
	}

	if opts.ShouldIncludeDrawings() {
		extractDrawings(wb, sheets, opts.Mode == ModeVerbose, warn)
	}

	// Print areas are workbook-level defined names.
	if opts.ShouldIncludePrintAreas() {
		printAreas, err := parser.ExtractPrintAreas(f)
		if err != nil {
			warn(NewExtractionError("", "print_areas", err))
		}
		for sheetName, areas := range printAreas {
			if sheet, ok := sheets[sheetName]; ok {
				sheet.PrintAreas = areas
				sheets[sheetName] = sheet
			}
		}
	}

	return &models.WorkbookData{
		BookName:   wb.Name,
		SheetOrder: sheetList,
		Sheets:     sheets,
		Date1904:   wb.Date1904(),
	}, nil
}

// extractDrawings fills the shapes and charts of every sheet that has a
// drawing part.
func extractDrawings(wb *Workbook, sheets map[string]models.SheetData, verbose bool, warn func(*ExtractionError)) {
	if !hasDrawings(wb.File) {
		return
	}
	data, err := wb.Bytes()
	if err != nil {
		warn(NewExtractionError("", "drawings", err))
		return
	}
	pkg, err := parser.OpenPackage(data)
	if err != nil {
		warn(NewExtractionError("", "drawings", err))
		return
	}
	parts, err := pkg.SheetDrawings()
	if err != nil {
		warn(NewExtractionError("", "drawings", err))
	}
	for sheetName, part := range parts {
		sheet, ok := sheets[sheetName]
		if !ok {
			continue
		}
		shapes, charts, err := parser.ExtractSheetDrawings(wb.File, pkg, sheetName, part, verbose)
		if err != nil {
			warn(NewExtractionError(sheetName, "drawings", err))
		}
		sheet.Shapes, sheet.Charts = shapes, charts
		sheets[sheetName] = sheet
	}
}

// hasDrawings reports whether the package holds a drawing part, loaded or
// added since opening.
func hasDrawings(f *excelize.File) bool {
	found := false
	check := func(k, _ interface{}) bool {
		if name, ok := k.(string); ok && strings.HasPrefix(name, "xl/drawings/drawing") {
			found = true
		}
		return !found
	}
	f.Pkg.Range(check)
	if !found {
		f.Drawings.Range(check)
	}
	return found
}

// columnWidths returns pixel widths for the used columns of a sheet.
func columnWidths(wb *Workbook, sheetName string) (map[string]int, error) {
	used, ok, err := wb.UsedRange(sheetName)
	if err != nil || !ok {
		return nil, err
	}
	widths := make(map[string]int, used.C2)
	for col := 1; col <= used.C2; col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return widths, err
		}
		w, err := wb.File.GetColWidth(sheetName, name)
		if err != nil {
			return widths, err
		}
		widths[name] = parser.ColWidthToPixels(w)
	}
	return widths, nil
}
