package models

import "testing"

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		str     string
		wantErr bool
	}{
		{"A1:D10", Range{R1: 1, C1: 1, R2: 10, C2: 4}, "A1:D10", false},
		{"$B$2:$C$3", Range{R1: 2, C1: 2, R2: 3, C2: 3}, "B2:C3", false},
		{"D10:A1", Range{R1: 1, C1: 1, R2: 10, C2: 4}, "A1:D10", false},
		{"C7", Range{R1: 7, C1: 3, R2: 7, C2: 3}, "C7", false},
		{"", Range{}, "", true},
		{"A1:B2:C3", Range{}, "", true},
		{"1A", Range{}, "", true},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRange(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRange(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRange(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got.String() != tt.str {
			t.Errorf("String() = %q, want %q", got.String(), tt.str)
		}
	}
}

func TestRangeGeometry(t *testing.T) {
	r := Range{R1: 2, C1: 2, R2: 4, C2: 3}
	if r.Width() != 2 || r.Height() != 3 {
		t.Errorf("size = %dx%d", r.Width(), r.Height())
	}
	if !r.Contains(3, 4) || r.Contains(4, 4) {
		t.Error("Contains wrong")
	}
	if !r.Intersects(Range{R1: 4, C1: 3, R2: 9, C2: 9}) {
		t.Error("expected intersection at corner")
	}
	if r.Intersects(Range{R1: 5, C1: 1, R2: 6, C2: 6}) {
		t.Error("unexpected intersection")
	}
	if got := r.Offset(1, -1).String(); got != "C1:D3" {
		t.Errorf("Offset = %s", got)
	}
	if r.Offset(-2, 0).InGrid() {
		t.Error("expected off-grid range")
	}

	var visited []string
	_ = Range{R1: 1, C1: 1, R2: 2, C2: 2}.Cells(func(col, row int) error {
		visited = append(visited, Range{R1: row, C1: col, R2: row, C2: col}.String())
		return nil
	})
	if len(visited) != 4 || visited[1] != "B1" || visited[2] != "A2" {
		t.Errorf("Cells order = %v", visited)
	}
}

func TestMergedRegionRole(t *testing.T) {
	m := NewMergedRegion(Range{R1: 1, C1: 1, R2: 2, C2: 2}, "x")
	if m.Anchor != "A1" || m.Ref != "A1:B2" {
		t.Errorf("region = %+v", m)
	}
	if m.Role(1, 1) != MergeAnchor || m.Role(2, 2) != MergePlaceholder || m.Role(3, 1) != MergeNone {
		t.Error("unexpected roles")
	}
}
