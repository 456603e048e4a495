package parser

import (
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

// ExtractMerges returns the merged regions of a sheet in declaration order.
// Malformed merge references are skipped.
func ExtractMerges(f *excelize.File, sheetName string) ([]models.MergedRegion, error) {
	merged, err := f.GetMergeCells(sheetName)
	if err != nil {
		return nil, err
	}

	regions := make([]models.MergedRegion, 0, len(merged))
	for _, mc := range merged {
		r, err := models.ParseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			continue
		}
		regions = append(regions, models.NewMergedRegion(r, mc.GetCellValue()))
	}
	return regions, nil
}

// MergeIndex answers merge-membership questions for one sheet.
type MergeIndex struct {
	regions []models.MergedRegion
}

// NewMergeIndex builds an index over regions.
func NewMergeIndex(regions []models.MergedRegion) *MergeIndex {
	return &MergeIndex{regions: regions}
}

// Lookup returns the region containing (col, row) and the cell's role in it.
func (m *MergeIndex) Lookup(col, row int) (models.MergedRegion, models.MergeRole) {
	if m == nil {
		return models.MergedRegion{}, models.MergeNone
	}
	for _, region := range m.regions {
		if role := region.Role(col, row); role != models.MergeNone {
			return region, role
		}
	}
	return models.MergedRegion{}, models.MergeNone
}

// Intersecting returns the regions that share at least one cell with r.
func (m *MergeIndex) Intersecting(r models.Range) []models.MergedRegion {
	if m == nil {
		return nil
	}
	var out []models.MergedRegion
	for _, region := range m.regions {
		if region.Range.Intersects(r) {
			out = append(out, region)
		}
	}
	return out
}

// Regions returns all indexed regions.
func (m *MergeIndex) Regions() []models.MergedRegion {
	if m == nil {
		return nil
	}
	return m.regions
}
