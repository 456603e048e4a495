package models

// Side is one edge of a cell border.
type Side struct {
	// Style is the excelize border style index (0 = none, 1 = thin, 2 = medium, ...).
	Style int `json:"style"`
	// Color is an RGB hex color without '#'.
	Color string `json:"color,omitempty"`
}

// IsZero reports whether the side draws nothing.
func (s Side) IsZero() bool { return s.Style == 0 }

// Border holds the four edges of a cell border.
type Border struct {
	Left   Side `json:"left"`
	Right  Side `json:"right"`
	Top    Side `json:"top"`
	Bottom Side `json:"bottom"`
}

// Font describes text appearance.
type Font struct {
	Name      string  `json:"name,omitempty"`
	Size      float64 `json:"size,omitempty"`
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Underline string  `json:"underline,omitempty"`
	Strike    bool    `json:"strike,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// Alignment describes text placement within a cell.
type Alignment struct {
	Horizontal   string `json:"horizontal,omitempty"`
	Vertical     string `json:"vertical,omitempty"`
	WrapText     bool   `json:"wrap_text,omitempty"`
	Indent       int    `json:"indent,omitempty"`
	TextRotation int    `json:"text_rotation,omitempty"`
	ShrinkToFit  bool   `json:"shrink_to_fit,omitempty"`
}

// Fill is a solid or pattern background.
type Fill struct {
	Pattern int    `json:"pattern,omitempty"`
	Color   string `json:"color,omitempty"`
}

// CellStyle is the resolved style of a cell.
type CellStyle struct {
	Font      Font      `json:"font"`
	Border    Border    `json:"border"`
	Alignment Alignment `json:"alignment"`
	Fill      Fill      `json:"fill"`
	// NumFmt is the built-in number format id.
	NumFmt int `json:"num_fmt,omitempty"`
	// CustomNumFmt is the custom number format code, if any.
	CustomNumFmt string `json:"custom_num_fmt,omitempty"`
}

// NumberFormat returns the effective number format: the custom code when set,
// otherwise the empty string and the built-in id.
func (s *CellStyle) NumberFormat() (string, int) {
	if s == nil {
		return "", 0
	}
	return s.CustomNumFmt, s.NumFmt
}
