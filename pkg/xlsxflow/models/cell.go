// Package models defines data structures for workbook inspection and transformation.
package models

// CellRow represents a single row of cells with optional hyperlinks and styles.
type CellRow struct {
	// R is the row index (1-based).
	R int `json:"r"`
	// C maps column index (string) to cell value.
	C map[string]interface{} `json:"c"`
	// F maps column index to formula text (optional).
	F map[string]string `json:"f,omitempty"`
	// Links maps column index to hyperlink URL (optional).
	Links map[string]string `json:"links,omitempty"`
	// Styles maps column index to the resolved cell style (verbose mode only).
	Styles map[string]*CellStyle `json:"styles,omitempty"`
}

// CellType classifies the stored value of a cell.
type CellType string

const (
	CellTypeEmpty   CellType = "empty"
	CellTypeString  CellType = "string"
	CellTypeNumber  CellType = "number"
	CellTypeBool    CellType = "bool"
	CellTypeDate    CellType = "date"
	CellTypeError   CellType = "error"
	CellTypeFormula CellType = "formula"
)

// MergeRole marks a cell's membership in a merged region.
type MergeRole int

const (
	// MergeNone is a cell outside any merged region.
	MergeNone MergeRole = iota
	// MergeAnchor is the top-left cell of a merged region; it holds the value.
	MergeAnchor
	// MergePlaceholder is any other member of a merged region.
	MergePlaceholder
)

func (m MergeRole) String() string {
	switch m {
	case MergeAnchor:
		return "anchor"
	case MergePlaceholder:
		return "placeholder"
	default:
		return "none"
	}
}

// Cell is a single worksheet cell with value, formula, style and merge membership.
type Cell struct {
	// Ref is the A1 coordinate.
	Ref string `json:"ref"`
	// Col is the column index (1-based).
	Col int `json:"col"`
	// Row is the row index (1-based).
	Row int `json:"row"`
	// Value is the raw stored value as text.
	Value string `json:"value,omitempty"`
	// Type is the stored value type.
	Type CellType `json:"type"`
	// Formula is the formula without the leading "=".
	Formula string `json:"formula,omitempty"`
	// StyleID is the workbook style index.
	StyleID int `json:"style_id,omitempty"`
	// Style is the resolved style (nil if default or not requested).
	Style *CellStyle `json:"style,omitempty"`
	// Merge is the cell's role in a merged region.
	Merge MergeRole `json:"-"`
	// Link is the hyperlink target, if any.
	Link string `json:"link,omitempty"`
}

// IsEmpty reports whether the cell holds neither a value nor a formula.
func (c Cell) IsEmpty() bool {
	return c.Value == "" && c.Formula == ""
}
