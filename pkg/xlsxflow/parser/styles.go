package parser

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

// StyleCache resolves workbook style indexes to models.CellStyle values.
// Each index is looked up once per cache. A cache belongs to one *excelize.File.
type StyleCache struct {
	f       *excelize.File
	byID    map[int]*models.CellStyle
	derived map[string]int
}

// NewStyleCache creates a cache bound to f.
func NewStyleCache(f *excelize.File) *StyleCache {
	return &StyleCache{
		f:       f,
		byID:    make(map[int]*models.CellStyle),
		derived: make(map[string]int),
	}
}

// Resolve returns the style for a workbook style index. Index 0 is the
// workbook default and resolves to nil.
func (c *StyleCache) Resolve(styleID int) (*models.CellStyle, error) {
	if styleID == 0 {
		return nil, nil
	}
	if st, ok := c.byID[styleID]; ok {
		return st, nil
	}
	raw, err := c.f.GetStyle(styleID)
	if err != nil {
		return nil, err
	}
	st := FromExcelize(raw)
	c.byID[styleID] = st
	return st, nil
}

// Derive registers a copy of the base style modified by mutate and returns the
// new style index. The base style is never modified. Identical derivations
// return the same index.
func (c *StyleCache) Derive(baseID int, key string, mutate func(*excelize.Style)) (int, error) {
	memo := fmt.Sprintf("%d/%s", baseID, key)
	if id, ok := c.derived[memo]; ok {
		return id, nil
	}
	base := &excelize.Style{}
	if baseID != 0 {
		raw, err := c.f.GetStyle(baseID)
		if err != nil {
			return 0, err
		}
		if err := deepcopy.Copy(base, raw); err != nil {
			return 0, fmt.Errorf("copy style %d: %w", baseID, err)
		}
	}
	mutate(base)
	id, err := c.f.NewStyle(base)
	if err != nil {
		return 0, err
	}
	c.derived[memo] = id
	return id, nil
}

// FromExcelize converts an excelize style to the model representation.
func FromExcelize(st *excelize.Style) *models.CellStyle {
	if st == nil {
		return nil
	}
	out := &models.CellStyle{NumFmt: st.NumFmt}
	if st.CustomNumFmt != nil {
		out.CustomNumFmt = *st.CustomNumFmt
	}
	if st.Font != nil {
		out.Font = models.Font{
			Name:      st.Font.Family,
			Size:      st.Font.Size,
			Bold:      st.Font.Bold,
			Italic:    st.Font.Italic,
			Underline: st.Font.Underline,
			Strike:    st.Font.Strike,
			Color:     st.Font.Color,
		}
	}
	for _, b := range st.Border {
		side := models.Side{Style: b.Style, Color: b.Color}
		switch b.Type {
		case "left":
			out.Border.Left = side
		case "right":
			out.Border.Right = side
		case "top":
			out.Border.Top = side
		case "bottom":
			out.Border.Bottom = side
		}
	}
	if st.Alignment != nil {
		out.Alignment = models.Alignment{
			Horizontal:   st.Alignment.Horizontal,
			Vertical:     st.Alignment.Vertical,
			WrapText:     st.Alignment.WrapText,
			Indent:       st.Alignment.Indent,
			TextRotation: st.Alignment.TextRotation,
			ShrinkToFit:  st.Alignment.ShrinkToFit,
		}
	}
	if st.Fill.Type == "pattern" && st.Fill.Pattern > 0 {
		out.Fill.Pattern = st.Fill.Pattern
		if len(st.Fill.Color) > 0 {
			out.Fill.Color = st.Fill.Color[0]
		}
	}
	return out
}

// ToExcelize converts a model style into an excelize style definition.
func ToExcelize(st *models.CellStyle) *excelize.Style {
	out := &excelize.Style{}
	if st == nil {
		return out
	}
	out.NumFmt = st.NumFmt
	if st.CustomNumFmt != "" {
		code := st.CustomNumFmt
		out.CustomNumFmt = &code
	}
	if st.Font != (models.Font{}) {
		out.Font = &excelize.Font{
			Family:    st.Font.Name,
			Size:      st.Font.Size,
			Bold:      st.Font.Bold,
			Italic:    st.Font.Italic,
			Underline: st.Font.Underline,
			Strike:    st.Font.Strike,
			Color:     st.Font.Color,
		}
	}
	sides := []struct {
		typ  string
		side models.Side
	}{
		{"left", st.Border.Left},
		{"right", st.Border.Right},
		{"top", st.Border.Top},
		{"bottom", st.Border.Bottom},
	}
	for _, s := range sides {
		if s.side.IsZero() {
			continue
		}
		out.Border = append(out.Border, excelize.Border{Type: s.typ, Color: s.side.Color, Style: s.side.Style})
	}
	if st.Alignment != (models.Alignment{}) {
		out.Alignment = &excelize.Alignment{
			Horizontal:   st.Alignment.Horizontal,
			Vertical:     st.Alignment.Vertical,
			WrapText:     st.Alignment.WrapText,
			Indent:       st.Alignment.Indent,
			TextRotation: st.Alignment.TextRotation,
			ShrinkToFit:  st.Alignment.ShrinkToFit,
		}
	}
	if st.Fill.Pattern > 0 {
		out.Fill = excelize.Fill{Type: "pattern", Pattern: st.Fill.Pattern}
		if st.Fill.Color != "" {
			out.Fill.Color = []string{st.Fill.Color}
		}
	}
	return out
}

// WriteStyle registers a model style in f and returns its index.
func WriteStyle(f *excelize.File, st *models.CellStyle) (int, error) {
	if st == nil {
		return 0, nil
	}
	return f.NewStyle(ToExcelize(st))
}
