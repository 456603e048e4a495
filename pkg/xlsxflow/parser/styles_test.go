package parser

import (
	"testing"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

func TestStyleRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	in := &models.CellStyle{
		Font:      models.Font{Name: "Arial", Size: 12, Bold: true, Color: "1F4E79"},
		Border:    models.Border{Left: models.Side{Style: 1, Color: "000000"}, Bottom: models.Side{Style: 5}},
		Alignment: models.Alignment{Horizontal: "center", WrapText: true},
		Fill:      models.Fill{Pattern: 1, Color: "FFFF00"},
	}
	id, err := WriteStyle(f, in)
	if err != nil {
		t.Fatal(err)
	}

	out, err := NewStyleCache(f).Resolve(id)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Font.Bold || out.Font.Name != "Arial" || out.Font.Size != 12 {
		t.Errorf("font = %+v", out.Font)
	}
	if out.Border.Left.Style != 1 || out.Border.Bottom.Style != 5 || !out.Border.Top.IsZero() {
		t.Errorf("border = %+v", out.Border)
	}
	if out.Alignment.Horizontal != "center" || !out.Alignment.WrapText {
		t.Errorf("alignment = %+v", out.Alignment)
	}
	if out.Fill.Pattern != 1 {
		t.Errorf("fill = %+v", out.Fill)
	}
}

func TestStyleCacheDerive(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	base, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true}})
	if err != nil {
		t.Fatal(err)
	}
	cache := NewStyleCache(f)
	setDate := func(st *excelize.Style) {
		code := "yyyy-mm-dd"
		st.CustomNumFmt = &code
	}

	id1, err := cache.Derive(base, "date", setDate)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := cache.Derive(base, "date", setDate)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("derived ids differ: %d != %d", id1, id2)
	}

	derived, err := cache.Resolve(id1)
	if err != nil {
		t.Fatal(err)
	}
	if !derived.Font.Italic || derived.CustomNumFmt != "yyyy-mm-dd" {
		t.Errorf("derived = %+v", derived)
	}

	orig, err := f.GetStyle(base)
	if err != nil {
		t.Fatal(err)
	}
	if orig.CustomNumFmt != nil {
		t.Errorf("base style was modified: %v", *orig.CustomNumFmt)
	}
}

func TestResolveDefaultStyle(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	st, err := NewStyleCache(f).Resolve(0)
	if err != nil || st != nil {
		t.Errorf("Resolve(0) = %v, %v", st, err)
	}
}
