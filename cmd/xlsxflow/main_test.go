package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeBook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "name")
	f.SetCellValue("Sheet1", "B1", "qty")
	f.SetCellValue("Sheet1", "A2", "apple")
	f.SetCellValue("Sheet1", "B2", 3)
	if err := f.MergeCell("Sheet1", "D1", "E1"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Area",
		RefersTo: "Sheet1!$A$1:$B$2",
		Scope:    "Sheet1",
	}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeBook(t, dir)
	recipe := filepath.Join(dir, "recipe.yaml")
	if err := os.WriteFile(recipe, []byte(`
name: cli
steps:
  - op: set_value
    sheet: Sheet1
    cell: C2
    value: "=B2*2"
  - op: rename_sheet
    sheet: Sheet1
    to: Fruit
`), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.xlsx")

	stdout, err := run(t, "apply", "--recipe", recipe, "-o", out, in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "rename_sheet") || !strings.Contains(stdout, "wrote "+out) {
		t.Errorf("unexpected output:\n%s", stdout)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	formula, err := f.GetCellFormula("Fruit", "C2")
	if err != nil {
		t.Fatal(err)
	}
	if formula != "B2*2" {
		t.Errorf("expected formula B2*2, got %q", formula)
	}
}

func TestApplyCommandRequiresRecipe(t *testing.T) {
	in := writeBook(t, t.TempDir())
	if _, err := run(t, "apply", "-o", "x.xlsx", in); err == nil {
		t.Fatal("expected an error without --recipe")
	}
}

func TestInspectJSON(t *testing.T) {
	in := writeBook(t, t.TempDir())
	stdout, err := run(t, "inspect", in)
	if err != nil {
		t.Fatal(err)
	}
	var data struct {
		BookName   string   `json:"book_name"`
		SheetOrder []string `json:"sheet_order"`
	}
	if err := json.Unmarshal([]byte(stdout), &data); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if data.BookName != "book.xlsx" || len(data.SheetOrder) != 1 {
		t.Errorf("unexpected data %+v", data)
	}
}

func TestInspectFiles(t *testing.T) {
	dir := t.TempDir()
	in := writeBook(t, dir)
	sheets := filepath.Join(dir, "sheets")
	areas := filepath.Join(dir, "areas")

	stdout, err := run(t, "inspect", "--sheets-dir", sheets, "--print-areas-dir", areas, in)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("expected no stdout with output dirs, got %q", stdout)
	}
	for _, p := range []string{
		filepath.Join(sheets, "Sheet1.json"),
		filepath.Join(areas, "Sheet1_area1.json"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Error(err)
		}
	}
}

func TestInspectSummary(t *testing.T) {
	in := writeBook(t, t.TempDir())
	stdout, err := run(t, "inspect", "--summary", in)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"book.xlsx", "SHEET", "Sheet1", "1 sheet(s)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("summary missing %q:\n%s", want, stdout)
		}
	}
}

func TestInspectErrors(t *testing.T) {
	in := writeBook(t, t.TempDir())
	tests := []struct {
		name string
		args []string
	}{
		{"bad mode", []string{"inspect", "--mode", "loud", in}},
		{"missing file", []string{"inspect", filepath.Join(t.TempDir(), "nope.xlsx")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
