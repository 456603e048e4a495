package models

// MergedRegion is a rectangle displayed as one cell.
// The anchor (top-left) holds the value; the remaining members are placeholders.
type MergedRegion struct {
	// Range is the region bounds.
	Range Range `json:"range"`
	// Ref is the region in A1 notation, e.g. "B2:D3".
	Ref string `json:"ref"`
	// Anchor is the top-left cell name.
	Anchor string `json:"anchor"`
	// Value is the anchor value.
	Value string `json:"value,omitempty"`
}

// NewMergedRegion builds a region from its bounds.
func NewMergedRegion(r Range, value string) MergedRegion {
	return MergedRegion{Range: r, Ref: r.String(), Anchor: r.TopLeft(), Value: value}
}

// Role returns the merge role of the cell at (col, row) within the region.
func (m MergedRegion) Role(col, row int) MergeRole {
	if !m.Range.Contains(col, row) {
		return MergeNone
	}
	if col == m.Range.C1 && row == m.Range.R1 {
		return MergeAnchor
	}
	return MergePlaceholder
}
