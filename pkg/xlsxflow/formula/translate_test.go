package formula

import (
	"errors"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		formula  string
		from, to string
		want     string
	}{
		{"mixed absolute", "=A1+$B$2+B$3+$C4", "A1", "C3", "=C3+$B$2+D$3+$C6"},
		{"no equals", "A1*2", "A1", "A2", "A2*2"},
		{"function range", "=SUM(A1:B2)", "C3", "C4", "=SUM(A2:B3)"},
		{"whole column", "=SUM(A:A)", "B1", "D5", "=SUM(C:C)"},
		{"absolute column range", "=SUM($A:B)", "B1", "C1", "=SUM($A:C)"},
		{"whole row", "=SUM(1:1)", "A1", "A3", "=SUM(3:3)"},
		{"off grid", "=A1", "B2", "A1", "=#REF!"},
		{"string literal kept", `="A1"&A1`, "A1", "A2", `="A1"&A2`},
		{"escaped quotes", `="say ""hi"" "&B2`, "A1", "B1", `="say ""hi"" "&C2`},
		{"sheet qualified", "=Sheet2!A1+Data!$A$1", "A1", "B2", "=Sheet2!B2+Data!$A$1"},
		{"quoted sheet", "='My Sheet'!A1", "A1", "A3", "='My Sheet'!A3"},
		{"nested functions", "=IF(A1>0,ROUND(B1/2,0),\"-\")", "A1", "A2", "=IF(A2>0,ROUND(B2/2,0),\"-\")"},
		{"defined name untouched", "=SalesTotal*A1", "A1", "A2", "=SalesTotal*A2"},
		{"numbers untouched", "=A1*100+3", "A1", "B1", "=B1*100+3"},
		{"percent and prefix", "=-A1%", "A1", "A2", "=-A2%"},
		{"array constant", "=SUM(A1*{1,2;3,4})", "A1", "A2", "=SUM(A2*{1,2;3,4})"},
		{"comparison", "=A1<>B1", "A1", "A2", "=A2<>B2"},
		{"identity", "=A1+B1", "C3", "C3", "=A1+B1"},
		{"empty", "", "A1", "B2", ""},
		{"last column", "=XFD1", "A1", "B1", "=#REF!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.formula, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			if got != tt.want {
				t.Errorf("Translate(%q, %s, %s) = %q, want %q", tt.formula, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTranslateInvalidCell(t *testing.T) {
	if _, err := Translate("=A1", "nope", "A1"); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell, got %v", err)
	}
	if _, err := Translate("=A1", "A1", "A0"); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell, got %v", err)
	}
}

func TestShiftReference(t *testing.T) {
	tests := []struct {
		ref    string
		dc, dr int
		want   string
	}{
		{"A1", 1, 1, "B2"},
		{"$A1", 1, 1, "$A2"},
		{"A$1", 1, 1, "B$1"},
		{"Z9:AA10", 1, 0, "AA9:AB10"},
		{"A:A", 0, 5, "A:A"},
		{"5:5", 3, 0, "5:5"},
		{"Table1[Amount]", 1, 1, "Table1[Amount]"},
		{"ABC", 1, 1, "ABC"},
		{"Sheet1!A1", 0, -1, "Sheet1!#REF!"},
	}
	for _, tt := range tests {
		if got := shiftReference(tt.ref, tt.dc, tt.dr); got != tt.want {
			t.Errorf("shiftReference(%q, %d, %d) = %q, want %q", tt.ref, tt.dc, tt.dr, got, tt.want)
		}
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := map[string]string{
		"Sheet1":      "Sheet1",
		"My Sheet":    "'My Sheet'",
		"'My Sheet'":  "'My Sheet'",
		"Bob's":       "'Bob''s'",
		"2024":        "'2024'",
		"[1]Sheet1":   "[1]Sheet1",
	}
	for in, want := range tests {
		if got := QuoteSheet(in); got != want {
			t.Errorf("QuoteSheet(%q) = %q, want %q", in, got, want)
		}
	}
}
