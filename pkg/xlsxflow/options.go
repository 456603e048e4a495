// Package xlsxflow opens, inspects and serializes spreadsheet workbooks while
// keeping cell styles, merged regions and formulas intact.
package xlsxflow

// Mode represents the extraction mode.
type Mode string

const (
	// ModeLight extracts cell values and table candidates only.
	ModeLight Mode = "light"
	// ModeStandard adds formulas, merged regions, print areas, shapes and charts.
	ModeStandard Mode = "standard"
	// ModeVerbose extracts all data including cell hyperlinks, styles and column widths.
	ModeVerbose Mode = "verbose"
)

// ParseMode converts a flag value to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeLight, ModeStandard, ModeVerbose:
		return Mode(s), true
	}
	return "", false
}

// Options configures workbook opening and extraction behavior.
type Options struct {
	// Mode specifies the extraction mode (light, standard, verbose).
	Mode Mode
	// Password opens an encrypted workbook.
	Password string
	// IncludeLinks specifies whether to include cell hyperlinks.
	// If nil, defaults to true for verbose mode, false otherwise.
	IncludeLinks *bool
	// IncludePrintAreas specifies whether to include print areas.
	// If nil, defaults to false for light mode, true otherwise.
	IncludePrintAreas *bool
	// IncludeStyles specifies whether to resolve cell styles.
	// If nil, defaults to true for verbose mode, false otherwise.
	IncludeStyles *bool
	// IncludeDrawings specifies whether to read shapes and charts.
	// If nil, defaults to false for light mode, true otherwise.
	IncludeDrawings *bool
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{
		Mode: ModeStandard,
	}
}

// ShouldIncludeLinks returns whether to include cell hyperlinks.
func (o Options) ShouldIncludeLinks() bool {
	if o.IncludeLinks != nil {
		return *o.IncludeLinks
	}
	return o.Mode == ModeVerbose
}

// ShouldIncludePrintAreas returns whether to include print areas.
func (o Options) ShouldIncludePrintAreas() bool {
	if o.IncludePrintAreas != nil {
		return *o.IncludePrintAreas
	}
	return o.Mode != ModeLight
}

// ShouldIncludeStyles returns whether to resolve cell styles.
func (o Options) ShouldIncludeStyles() bool {
	if o.IncludeStyles != nil {
		return *o.IncludeStyles
	}
	return o.Mode == ModeVerbose
}

// ShouldIncludeFormulas returns whether to include formula text and merges.
func (o Options) ShouldIncludeFormulas() bool {
	return o.Mode != ModeLight
}

// ShouldIncludeDrawings returns whether to read shapes and charts.
func (o Options) ShouldIncludeDrawings() bool {
	if o.IncludeDrawings != nil {
		return *o.IncludeDrawings
	}
	return o.Mode != ModeLight
}
