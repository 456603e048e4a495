package xlsxflow

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrFileNotFound indicates the input file does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidFormat indicates the input is not a readable xlsx workbook.
	ErrInvalidFormat = errors.New("invalid xlsx format")
)

// ErrSheetNotExist is excelize's unknown-sheet error, for errors.As.
type ErrSheetNotExist = excelize.ErrSheetNotExist

// ExtractionError records a sheet component that could not be read. A
// workbook-level component has an empty Sheet.
type ExtractionError struct {
	Sheet     string
	Component string // cells, tables, merges, widths, drawings, print_areas
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("extract %s: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("extract %s of sheet %q: %v", e.Component, e.Sheet, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError wraps err for a sheet component.
func NewExtractionError(sheet, component string, err error) *ExtractionError {
	return &ExtractionError{Sheet: sheet, Component: component, Err: err}
}
