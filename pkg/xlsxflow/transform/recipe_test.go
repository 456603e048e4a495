package transform

import (
	"errors"
	"strings"
	"testing"
)

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe([]byte(`
name: monthly roll-forward
steps:
  - op: copy_range
    sheet: Template
    range: A1:F20
    to_sheet: March
    to: a1
  - op: insert_rows
    sheet: March
    at: 3
    count: 2
  - op: delete_cols
    sheet: March
    at: c
  - op: Replace
    pattern: 'Q(\d)'
    replacement: 'quarter $1'
`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "monthly roll-forward" || len(r.Steps) != 4 {
		t.Fatalf("recipe = %+v", r)
	}
	if r.Steps[0].To != "A1" {
		t.Errorf("to = %q, want normalized A1", r.Steps[0].To)
	}
	if row, err := r.Steps[1].At.Row(); err != nil || row != 3 {
		t.Errorf("at row = %d, %v", row, err)
	}
	if col, err := r.Steps[2].At.Col(); err != nil || col != "C" {
		t.Errorf("at col = %q, %v", col, err)
	}
	if r.Steps[3].Op != OpReplace || r.Steps[3].re == nil {
		t.Errorf("replace step not compiled: %+v", r.Steps[3])
	}
}

func TestParseRecipeJSON(t *testing.T) {
	r, err := ParseRecipe([]byte(`{"steps":[{"op":"set_value","sheet":"S","cell":"B2","value":42},{"op":"insert_cols","sheet":"S","at":2}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := r.Steps[0].Value.(int); !ok || v != 42 {
		t.Errorf("value = %#v", r.Steps[0].Value)
	}
	if col, _ := r.Steps[1].At.Col(); col != "B" {
		t.Errorf("numeric column = %q", col)
	}
}

func TestParseRecipeErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "name: x\n", "no steps"},
		{"unknown op", "steps: [{op: explode}]", "unknown op"},
		{"missing field", "steps: [{op: copy_range, sheet: S, range: A1}]", "missing to"},
		{"bad range", "steps: [{op: merge, sheet: S, range: 'A1:ZZZZ9'}]", "range"},
		{"bad regexp", "steps: [{op: replace, pattern: '(['}]", "pattern"},
		{"bad row", "steps: [{op: insert_rows, sheet: S, at: x}]", "invalid row"},
		{"bad cell", "steps: [{op: set_value, sheet: S, cell: '1A'}]", "cell"},
		{"bad scheme", "steps: [{op: import_url, sheet: S, url: 'ftp://x'}]", "http"},
		{"bad import anchor", "steps: [{op: import_url, sheet: S, url: 'https://x', to: '1A'}]", "to:"},
		{"bad copy anchor", "steps: [{op: copy_range, sheet: S, range: A1, to: 'A0'}]", "to:"},
		{"negative count", "steps: [{op: delete_rows, sheet: S, at: 1, count: -1}]", "negative"},
		{"malformed", "steps: [", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecipe([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidRecipe) {
				t.Fatalf("expected ErrInvalidRecipe, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestStepString(t *testing.T) {
	s := Step{Op: OpCopyRange, Sheet: "Data", Range: "A1:B2", To: "D1"}
	if got := s.String(); got != "copy_range sheet=Data range=A1:B2 to=D1" {
		t.Errorf("String() = %q", got)
	}
}
