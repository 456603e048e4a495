package parser

import (
	"testing"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

func TestExtractMerges(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellValue("Sheet1", "B2", "title")
	if err := f.MergeCell("Sheet1", "B2", "D3"); err != nil {
		t.Fatal(err)
	}

	regions, err := ExtractMerges(f, "Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 {
		t.Fatalf("got %d regions", len(regions))
	}
	region := regions[0]
	if region.Ref != "B2:D3" || region.Anchor != "B2" || region.Value != "title" {
		t.Errorf("region = %+v", region)
	}

	idx := NewMergeIndex(regions)
	if _, role := idx.Lookup(2, 2); role != models.MergeAnchor {
		t.Errorf("B2 role = %v", role)
	}
	if _, role := idx.Lookup(4, 3); role != models.MergePlaceholder {
		t.Errorf("D3 role = %v", role)
	}
	if _, role := idx.Lookup(5, 3); role != models.MergeNone {
		t.Errorf("E3 role = %v", role)
	}
	if got := idx.Intersecting(models.Range{R1: 3, C1: 1, R2: 10, C2: 2}); len(got) != 1 {
		t.Errorf("Intersecting = %v", got)
	}
}
