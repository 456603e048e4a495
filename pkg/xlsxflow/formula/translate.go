// Package formula rewrites cell references inside spreadsheet formulas so a
// formula copied from one cell to another keeps its meaning: relative
// references follow the move, absolute ($) parts stay put.
package formula

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/efp"
	"github.com/xuri/excelize/v2"
)

// ErrInvalidCell is returned when a source or destination coordinate is malformed.
var ErrInvalidCell = errors.New("invalid cell reference")

// RefError is the literal a reference becomes when it is shifted off the grid.
const RefError = "#REF!"

var (
	cellPart = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)$`)
	colPart  = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})$`)
	rowPart  = regexp.MustCompile(`^(\$?)([0-9]+)$`)
)

// Translate rewrites formula as if the cell holding it moved from one
// coordinate to another. The leading "=" is optional and kept as given.
func Translate(formula, from, to string) (string, error) {
	fc, fr, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCell, from)
	}
	tc, tr, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCell, to)
	}
	return Shift(formula, tc-fc, tr-fr), nil
}

// Shift moves every relative reference in formula by dc columns and dr rows.
func Shift(formula string, dc, dr int) string {
	body, prefix := formula, ""
	if strings.HasPrefix(body, "=") {
		body, prefix = body[1:], "="
	}
	if strings.TrimSpace(body) == "" || (dc == 0 && dr == 0) {
		return formula
	}

	ps := efp.ExcelParser()
	tokens := ps.Parse(body)
	for i, tok := range tokens {
		if tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange {
			tokens[i].TValue = shiftReference(tok.TValue, dc, dr)
		}
	}
	return prefix + render(tokens)
}

// shiftReference shifts an operand such as "A1", "$B$2:C3", "Sheet1!A:A" or
// "'My Sheet'!3:5". Operands that are not references (defined names, table
// references) come back unchanged.
func shiftReference(ref string, dc, dr int) string {
	sheet, area := splitSheet(ref)
	parts := strings.Split(area, ":")
	if len(parts) > 2 {
		return ref
	}

	shifted := make([]string, len(parts))
	switch {
	case allMatch(parts, cellPart):
		for i, p := range parts {
			s, ok := shiftCell(p, dc, dr)
			if !ok {
				return sheet + RefError
			}
			shifted[i] = s
		}
	case len(parts) == 2 && allMatch(parts, colPart):
		for i, p := range parts {
			s, ok := shiftCol(p, dc)
			if !ok {
				return sheet + RefError
			}
			shifted[i] = s
		}
	case len(parts) == 2 && allMatch(parts, rowPart):
		for i, p := range parts {
			s, ok := shiftRow(p, dr)
			if !ok {
				return sheet + RefError
			}
			shifted[i] = s
		}
	default:
		return ref
	}
	return sheet + strings.Join(shifted, ":")
}

// splitSheet separates a sheet qualifier (including the "!") from the area.
// The qualifier is quoted when the sheet name needs it.
func splitSheet(ref string) (string, string) {
	idx := strings.LastIndex(ref, "!")
	if idx < 0 {
		return "", ref
	}
	return QuoteSheet(ref[:idx]) + "!", ref[idx+1:]
}

var plainSheet = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// QuoteSheet quotes a sheet name for use in a reference. Names that are
// already quoted, or that need no quoting, are returned unchanged.
func QuoteSheet(name string) string {
	if strings.HasPrefix(name, "'") && strings.HasSuffix(name, "'") && len(name) >= 2 {
		return name
	}
	// Workbook-qualified names such as [1]Sheet1 are left alone.
	if plainSheet.MatchString(name) || strings.HasPrefix(name, "[") {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func allMatch(parts []string, re *regexp.Regexp) bool {
	for _, p := range parts {
		if !re.MatchString(p) {
			return false
		}
	}
	return true
}

func shiftCell(p string, dc, dr int) (string, bool) {
	m := cellPart.FindStringSubmatch(p)
	col, err := excelize.ColumnNameToNumber(m[2])
	if err != nil {
		return "", false
	}
	row, err := strconv.Atoi(m[4])
	if err != nil || row < 1 || row > excelize.TotalRows {
		return "", false
	}
	if m[1] == "" {
		col += dc
	}
	if m[3] == "" {
		row += dr
	}
	if col < 1 || col > excelize.MaxColumns || row < 1 || row > excelize.TotalRows {
		return "", false
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "", false
	}
	return m[1] + name + m[3] + strconv.Itoa(row), true
}

func shiftCol(p string, dc int) (string, bool) {
	m := colPart.FindStringSubmatch(p)
	col, err := excelize.ColumnNameToNumber(m[2])
	if err != nil {
		return "", false
	}
	if m[1] == "" {
		col += dc
	}
	if col < 1 || col > excelize.MaxColumns {
		return "", false
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "", false
	}
	return m[1] + name, true
}

func shiftRow(p string, dr int) (string, bool) {
	m := rowPart.FindStringSubmatch(p)
	row, err := strconv.Atoi(m[2])
	if err != nil {
		return "", false
	}
	if m[1] == "" {
		row += dr
	}
	if row < 1 || row > excelize.TotalRows {
		return "", false
	}
	return m[1] + strconv.Itoa(row), true
}
