package frame

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestNewUniqueHeaders(t *testing.T) {
	fr := New([]string{"a", "", "a", "b"}, [][]interface{}{{1, 2, 3, 4, 5}})
	want := []string{"a", "column_B", "a_2", "b", "column_E"}
	if strings.Join(fr.Columns, ",") != strings.Join(want, ",") {
		t.Errorf("columns = %v, want %v", fr.Columns, want)
	}
	if len(fr.Rows[0]) != 5 {
		t.Errorf("row width = %d", len(fr.Rows[0]))
	}
}

func TestUniqueHeadersSuffixCollision(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"a", "a", "a_2"}, []string{"a", "a_2", "a_2_2"}},
		{[]string{"a_2", "a", "a"}, []string{"a_2", "a", "a_3"}},
		{[]string{"x", "x", "x", "x_3"}, []string{"x", "x_2", "x_3", "x_3_2"}},
	}
	for _, tt := range tests {
		got := uniqueHeaders(tt.in, len(tt.in))
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("uniqueHeaders(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	fr := New([]string{"n", "s"}, [][]interface{}{
		{int64(1), "x"},
		{2.0, nil},
		{"3", "y"},
		{"x", ""},
	})
	stats := fr.Describe()
	n := stats[0]
	if n.Count != 4 || n.Numeric != 3 {
		t.Errorf("counts = %d/%d", n.Count, n.Numeric)
	}
	if n.Mean != 2 || n.Std != 1 || n.Min != 1 || n.Max != 3 || n.Sum != 6 {
		t.Errorf("stats = %+v", n)
	}
	s := stats[1]
	if s.Count != 2 || s.Numeric != 0 || s.Mean != 0 || math.IsInf(s.Min, 0) {
		t.Errorf("text stats = %+v", s)
	}

	single := New([]string{"v"}, [][]interface{}{{5.0}}).Describe()[0]
	if single.Std != 0 || math.IsNaN(single.Std) {
		t.Errorf("single value std = %v", single.Std)
	}
}

func TestSelectAndColumn(t *testing.T) {
	fr := New([]string{"a", "b", "c"}, [][]interface{}{{1, 2, 3}, {4, 5, 6}})
	sel, err := fr.Select("c", "a")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Rows[1][0] != 6 || sel.Rows[1][1] != 4 {
		t.Errorf("select rows = %v", sel.Rows)
	}
	if _, err := fr.Select("zzz"); err == nil {
		t.Error("expected unknown column error")
	}
	col, ok := fr.Column("b")
	if !ok || col[0] != 2 || col[1] != 5 {
		t.Errorf("column b = %v", col)
	}
	if fr.Head(1).Len() != 1 || fr.Head(10).Len() != 2 {
		t.Error("Head length wrong")
	}
}

func TestFromCSVEncoding(t *testing.T) {
	enc, err := charmap.Windows1252.NewEncoder().String("name;price\ncafé;3,5\nthé;2\n")
	if err != nil {
		t.Fatal(err)
	}
	fr, err := FromCSV(strings.NewReader(enc), CSVOptions{Comma: ';', Encoding: "windows-1252"})
	if err != nil {
		t.Fatal(err)
	}
	if fr.Columns[0] != "name" || fr.Rows[0][0] != "café" {
		t.Errorf("frame = %+v", fr)
	}
	if fr.Rows[1][1] != int64(2) {
		t.Errorf("numeric conversion: %v (%T)", fr.Rows[1][1], fr.Rows[1][1])
	}
}

func TestFromCSVBOM(t *testing.T) {
	fr, err := FromCSV(strings.NewReader("\ufeffa,b\n1,2\n"), CSVOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if fr.Columns[0] != "a" {
		t.Errorf("BOM not stripped: %q", fr.Columns[0])
	}
	if _, err := FromCSV(strings.NewReader("a"), CSVOptions{Encoding: "klingon"}); err == nil {
		t.Error("expected unknown encoding error")
	}
}

func TestSniffComma(t *testing.T) {
	tests := map[string]rune{
		"a,b,c\n1,2,3": ',',
		"a;b;c":        ';',
		"a\tb\tc":      '\t',
		"single":       ',',
	}
	for in, want := range tests {
		if got := SniffComma([]byte(in)); got != want {
			t.Errorf("SniffComma(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFromHTML(t *testing.T) {
	doc := `<html><body>
<table><tr><th>City</th><th colspan="2">Temp</th></tr>
<tr><td>Oslo</td><td>3</td><td>5.5</td></tr></table>
<p>text</p>
<table><tr><td>x</td></tr><tr><td><b>bold</b> value</td></tr></table>
</body></html>`
	frames, err := FromHTML(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames", len(frames))
	}
	first := frames[0]
	if strings.Join(first.Columns, ",") != "City,Temp,Temp_2" {
		t.Errorf("columns = %v", first.Columns)
	}
	if first.Rows[0][1] != int64(3) || first.Rows[0][2] != 5.5 {
		t.Errorf("row = %v", first.Rows[0])
	}
	if frames[1].Rows[0][0] != "bold value" {
		t.Errorf("text = %q", frames[1].Rows[0][0])
	}
}

func TestSheetRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	fr := New([]string{"id", "name"}, [][]interface{}{{int64(1), "a"}, {int64(2), "b"}})
	written, err := fr.WriteTo(f, "Out", "B2", WriteOptions{Header: true})
	if err != nil {
		t.Fatal(err)
	}
	if written.String() != "B2:C4" {
		t.Errorf("written = %s", written)
	}

	styleID, _ := f.GetCellStyle("Out", "B2")
	st, _ := f.GetStyle(styleID)
	if st == nil || st.Font == nil || !st.Font.Bold {
		t.Errorf("header not bold: %+v", st)
	}

	back, err := FromSheet(f, "Out", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if back.Len() != 2 || back.Columns[1] != "name" || back.Rows[1][0] != int64(2) {
		t.Errorf("read back = %+v", back)
	}

	explicit, err := FromSheet(f, "Out", "C3:C4", false)
	if err != nil {
		t.Fatal(err)
	}
	if explicit.Columns[0] != "column_A" || explicit.Rows[0][0] != "a" {
		t.Errorf("explicit = %+v", explicit)
	}

	if _, err := FromSheet(f, "Sheet1", "", true); !errors.Is(err, ErrNoTable) {
		t.Errorf("expected ErrNoTable, got %v", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
}
