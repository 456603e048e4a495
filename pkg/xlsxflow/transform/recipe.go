// Package transform applies recipes, ordered lists of workbook edits, to a
// workbook. Every step keeps cell styles, merged regions and formulas
// consistent with the cells it moves.
package transform

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Ops understood by Apply.
const (
	OpCopyRange      = "copy_range"
	OpMoveRange      = "move_range"
	OpFillFormula    = "fill_formula"
	OpInsertRows     = "insert_rows"
	OpDeleteRows     = "delete_rows"
	OpInsertCols     = "insert_cols"
	OpDeleteCols     = "delete_cols"
	OpUnmerge        = "unmerge"
	OpMerge          = "merge"
	OpReplace        = "replace"
	OpShiftDates     = "shift_dates"
	OpStampDate      = "stamp_date"
	OpSetValue       = "set_value"
	OpFreezeFormulas = "freeze_formulas"
	OpRenameSheet    = "rename_sheet"
	OpDuplicateSheet = "duplicate_sheet"
	OpDeleteSheet    = "delete_sheet"
	OpImportURL      = "import_url"
	OpImportFrame    = "import_frame"
)

// ErrInvalidRecipe is returned by ParseRecipe for malformed recipes.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Recipe is a named list of steps.
type Recipe struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op" json:"op"`

	Sheet     string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Range     string `yaml:"range,omitempty" json:"range,omitempty"`
	Cell      string `yaml:"cell,omitempty" json:"cell,omitempty"`
	From      string `yaml:"from,omitempty" json:"from,omitempty"`
	FromSheet string `yaml:"from_sheet,omitempty" json:"from_sheet,omitempty"`
	To        string `yaml:"to,omitempty" json:"to,omitempty"`
	ToSheet   string `yaml:"to_sheet,omitempty" json:"to_sheet,omitempty"`

	// At is a row number for row ops and a column letter for column ops.
	At    Position `yaml:"at,omitempty" json:"at,omitempty"`
	Count int      `yaml:"count,omitempty" json:"count,omitempty"`

	Fill        bool   `yaml:"fill,omitempty" json:"fill,omitempty"`
	Pattern     string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Replacement string `yaml:"replacement,omitempty" json:"replacement,omitempty"`
	Formulas    bool   `yaml:"formulas,omitempty" json:"formulas,omitempty"`

	Years      int    `yaml:"years,omitempty" json:"years,omitempty"`
	Months     int    `yaml:"months,omitempty" json:"months,omitempty"`
	Days       int    `yaml:"days,omitempty" json:"days,omitempty"`
	Format     string `yaml:"format,omitempty" json:"format,omitempty"`
	OffsetDays int    `yaml:"offset_days,omitempty" json:"offset_days,omitempty"`

	Value  interface{} `yaml:"value,omitempty" json:"value,omitempty"`
	URL    string      `yaml:"url,omitempty" json:"url,omitempty"`
	Header *bool       `yaml:"header,omitempty" json:"header,omitempty"`

	re *regexp.Regexp
}

// Position accepts both numbers and strings, so `at: 3` and `at: C` decode
// into the same field.
type Position string

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Position) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: at must be a row number or column letter", n.Line)
	}
	*p = Position(strings.TrimSpace(n.Value))
	return nil
}

// Row returns the position as a 1-based row number.
func (p Position) Row() (int, error) {
	n, err := strconv.Atoi(string(p))
	if err != nil || n < 1 || n > models.MaxRows {
		return 0, fmt.Errorf("invalid row %q", string(p))
	}
	return n, nil
}

// Col returns the position as a column name. Numbers are accepted too.
func (p Position) Col() (string, error) {
	s := strings.ToUpper(string(p))
	if n, err := strconv.Atoi(s); err == nil {
		return excelize.ColumnNumberToName(n)
	}
	if _, err := excelize.ColumnNameToNumber(s); err != nil {
		return "", fmt.Errorf("invalid column %q", string(p))
	}
	return s, nil
}

// String returns a short description of the step for logs and reports.
func (s Step) String() string {
	var b strings.Builder
	b.WriteString(s.Op)
	for _, kv := range [][2]string{
		{"sheet", s.Sheet}, {"range", s.Range}, {"cell", s.Cell}, {"from", s.From},
		{"to_sheet", s.ToSheet}, {"to", s.To}, {"at", string(s.At)}, {"url", s.URL},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&b, " %s=%s", kv[0], kv[1])
		}
	}
	return b.String()
}

// ParseRecipe decodes a YAML or JSON recipe and validates every step.
func ParseRecipe(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipe, err)
	}
	if len(r.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidRecipe)
	}
	for i := range r.Steps {
		if err := r.Steps[i].validate(); err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %v", ErrInvalidRecipe, i+1, r.Steps[i].Op, err)
		}
	}
	return &r, nil
}

// required lists the fields each op cannot do without.
var required = map[string][]string{
	OpCopyRange:      {"sheet", "range", "to"},
	OpMoveRange:      {"sheet", "range", "to"},
	OpFillFormula:    {"sheet", "from", "range"},
	OpInsertRows:     {"sheet", "at"},
	OpDeleteRows:     {"sheet", "at"},
	OpInsertCols:     {"sheet", "at"},
	OpDeleteCols:     {"sheet", "at"},
	OpUnmerge:        {"sheet"},
	OpMerge:          {"sheet", "range"},
	OpReplace:        {"pattern"},
	OpShiftDates:     {},
	OpStampDate:      {"sheet", "cell"},
	OpSetValue:       {"sheet", "cell"},
	OpFreezeFormulas: {},
	OpRenameSheet:    {"sheet", "to"},
	OpDuplicateSheet: {"sheet", "to"},
	OpDeleteSheet:    {"sheet"},
	OpImportURL:      {"url", "sheet"},
	OpImportFrame:    {"sheet", "from_sheet"},
}

func (s *Step) field(name string) string {
	switch name {
	case "sheet":
		return s.Sheet
	case "range":
		return s.Range
	case "cell":
		return s.Cell
	case "from":
		return s.From
	case "from_sheet":
		return s.FromSheet
	case "to":
		return s.To
	case "at":
		return string(s.At)
	case "pattern":
		return s.Pattern
	case "url":
		return s.URL
	}
	return ""
}

// normalizeRef upper-cases a cell name and drops absolute markers.
func normalizeRef(ref string) string {
	cand := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ref), "$", ""))
	if _, _, err := excelize.CellNameToCoordinates(cand); err != nil {
		return ref
	}
	return cand
}

func (s *Step) validate() error {
	s.Op = strings.ToLower(strings.TrimSpace(s.Op))
	s.Cell, s.From = normalizeRef(s.Cell), normalizeRef(s.From)
	if s.Op != OpRenameSheet && s.Op != OpDuplicateSheet {
		s.To = normalizeRef(s.To)
	}
	fields, ok := required[s.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", s.Op)
	}
	for _, name := range fields {
		if s.field(name) == "" {
			return fmt.Errorf("missing %s", name)
		}
	}
	if s.Count < 0 {
		return fmt.Errorf("negative count %d", s.Count)
	}

	switch s.Op {
	case OpCopyRange, OpMoveRange, OpFillFormula, OpMerge:
		if _, err := models.ParseRange(s.Range); err != nil {
			return fmt.Errorf("range: %w", err)
		}
	case OpUnmerge, OpReplace, OpShiftDates, OpFreezeFormulas, OpImportFrame:
		if s.Range != "" {
			if _, err := models.ParseRange(s.Range); err != nil {
				return fmt.Errorf("range: %w", err)
			}
		}
	case OpInsertRows, OpDeleteRows:
		if _, err := s.At.Row(); err != nil {
			return err
		}
	case OpInsertCols, OpDeleteCols:
		if _, err := s.At.Col(); err != nil {
			return err
		}
	}

	switch s.Op {
	case OpCopyRange, OpMoveRange, OpImportFrame:
		if err := s.checkTo(); err != nil {
			return err
		}
	case OpFillFormula:
		if _, _, err := excelize.CellNameToCoordinates(s.From); err != nil {
			return fmt.Errorf("from: %w", err)
		}
	case OpStampDate, OpSetValue:
		if _, _, err := excelize.CellNameToCoordinates(s.Cell); err != nil {
			return fmt.Errorf("cell: %w", err)
		}
	case OpReplace:
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return fmt.Errorf("pattern: %w", err)
		}
		s.re = re
	case OpImportURL:
		if err := s.checkTo(); err != nil {
			return err
		}
		if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
			return fmt.Errorf("url must be http or https")
		}
	}
	return nil
}

// checkTo validates an optional destination cell.
func (s *Step) checkTo() error {
	if s.To == "" {
		return nil
	}
	if _, _, err := excelize.CellNameToCoordinates(s.To); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	return nil
}
