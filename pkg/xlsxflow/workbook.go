package xlsxflow

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/parser"
	"github.com/xuri/excelize/v2"
)

// Workbook is an open spreadsheet document.
type Workbook struct {
	// Name is the file name shown to users and used for downloads.
	Name string
	// File is the underlying excelize document.
	File *excelize.File

	styles *parser.StyleCache
}

// New creates an empty workbook with a single sheet.
func New(name string) *Workbook {
	return wrap(name, excelize.NewFile())
}

func wrap(name string, f *excelize.File) *Workbook {
	return &Workbook{Name: name, File: f, styles: parser.NewStyleCache(f)}
}

// Open reads a workbook from r.
func Open(r io.Reader, name string, opts Options) (*Workbook, error) {
	f, err := excelize.OpenReader(r, excelize.Options{Password: opts.Password})
	if err != nil {
		return nil, classifyOpenError(err)
	}
	return wrap(name, f), nil
}

// OpenBytes reads a workbook from an in-memory xlsx document.
func OpenBytes(name string, data []byte, opts Options) (*Workbook, error) {
	return Open(bytes.NewReader(data), name, opts)
}

// OpenFile reads a workbook from disk.
func OpenFile(path string, opts Options) (*Workbook, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	f, err := excelize.OpenFile(path, excelize.Options{Password: opts.Password})
	if err != nil {
		return nil, classifyOpenError(err)
	}
	return wrap(filepath.Base(path), f), nil
}

func classifyOpenError(err error) error {
	if errors.Is(err, zip.ErrFormat) || errors.Is(err, excelize.ErrWorkbookFileFormat) {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return err
}

// Close releases temporary files held by the document.
func (w *Workbook) Close() error {
	return w.File.Close()
}

// Sheets returns sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.File.GetSheetList()
}

// HasSheet reports whether the workbook contains a sheet named name.
func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.File.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// RequireSheet returns ErrSheetNotExist when the sheet is missing.
func (w *Workbook) RequireSheet(name string) error {
	if !w.HasSheet(name) {
		return ErrSheetNotExist{SheetName: name}
	}
	return nil
}

// Styles returns the style cache bound to this workbook.
func (w *Workbook) Styles() *parser.StyleCache {
	return w.styles
}

// Cell reads one cell including its resolved style.
func (w *Workbook) Cell(sheet string, col, row int) (models.Cell, error) {
	return parser.ReadCell(w.File, sheet, col, row, w.styles)
}

// Merges returns an index of the merged regions of a sheet.
func (w *Workbook) Merges(sheet string) (*parser.MergeIndex, error) {
	regions, err := parser.ExtractMerges(w.File, sheet)
	if err != nil {
		return nil, err
	}
	return parser.NewMergeIndex(regions), nil
}

// Date1904 reports whether the workbook uses the 1904 date system.
func (w *Workbook) Date1904() bool {
	props, err := w.File.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

// UsedRange returns the bounds of all non-empty cells of a sheet, including
// formula cells without a cached value. ok is false for an empty sheet.
func (w *Workbook) UsedRange(sheet string) (r models.Range, ok bool, err error) {
	rows, err := w.File.GetRows(sheet)
	if err != nil {
		return models.Range{}, false, err
	}
	r = models.Range{R1: -1}
	mark := func(i, j int) {
		if r.R1 < 0 {
			r = models.Range{R1: i + 1, C1: j + 1, R2: i + 1, C2: j + 1}
			return
		}
		r.R1, r.R2 = min(r.R1, i+1), max(r.R2, i+1)
		r.C1, r.C2 = min(r.C1, j+1), max(r.C2, j+1)
	}
	for i, row := range rows {
		for j, v := range row {
			if v != "" {
				mark(i, j)
			}
		}
		// GetRows keeps a trailing cell only when it holds a value or a formula.
		if len(row) > 0 {
			mark(i, len(row)-1)
		}
	}
	if r.R1 < 0 {
		return models.Range{}, false, nil
	}
	return r, true, nil
}

// WriteTo serializes the workbook as xlsx.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	return w.File.WriteTo(out)
}

// Bytes serializes the workbook as xlsx.
func (w *Workbook) Bytes() ([]byte, error) {
	buf, err := w.File.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Clone returns an independent copy of the workbook.
func (w *Workbook) Clone() (*Workbook, error) {
	data, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	return OpenBytes(w.Name, data, Options{})
}
