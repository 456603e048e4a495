package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/output"
)

type inspectFlags struct {
	outputPath    string
	pretty        bool
	mode          string
	password      string
	sheetsDir     string
	printAreasDir string
	summary       bool
}

func newInspectCmd(a *app) *cobra.Command {
	var fl inspectFlags
	cmd := &cobra.Command{
		Use:   "inspect [input.xlsx]",
		Short: "Extract structured data from a workbook",
		Long: `inspect extracts cells, merged regions, table candidates and print
areas from a workbook and writes them as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(cmd, args[0], fl)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&fl.outputPath, "output", "o", "", "Output file path (default: stdout)")
	f.BoolVar(&fl.pretty, "pretty", false, "Pretty-print JSON output")
	f.StringVar(&fl.mode, "mode", "standard", "Extraction mode: light, standard, verbose")
	f.StringVar(&fl.password, "password", "", "Password of an encrypted workbook")
	f.StringVar(&fl.sheetsDir, "sheets-dir", "", "Directory for per-sheet output files")
	f.StringVar(&fl.printAreasDir, "print-areas-dir", "", "Directory for per-print-area output files")
	f.BoolVar(&fl.summary, "summary", false, "Print a table summary instead of JSON")
	return cmd
}

func (a *app) inspect(cmd *cobra.Command, inputPath string, fl inspectFlags) error {
	mode, ok := xlsxflow.ParseMode(fl.mode)
	if !ok {
		return fmt.Errorf("invalid mode: %s (must be light, standard, or verbose)", fl.mode)
	}
	opts := xlsxflow.Options{Mode: mode, Password: fl.password}

	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("%w: %s", xlsxflow.ErrFileNotFound, inputPath)
	}
	wb, err := xlsxflow.OpenFile(inputPath, opts)
	if err != nil {
		return err
	}
	defer wb.Close()

	data, err := xlsxflow.ExtractWorkbook(cmd.Context(), wb, opts)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if fl.summary {
		return renderSummary(cmd.OutOrStdout(), data, info.Size())
	}

	jsonData, err := output.ToJSON(data, fl.pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if fl.outputPath != "" {
		if err := os.WriteFile(fl.outputPath, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if fl.sheetsDir == "" && fl.printAreasDir == "" {
		if err := writeLine(cmd.OutOrStdout(), jsonData); err != nil {
			return err
		}
	}

	if fl.sheetsDir != "" {
		if err := writeSheetFiles(data, fl.sheetsDir, fl.pretty); err != nil {
			return fmt.Errorf("failed to write sheet files: %w", err)
		}
	}
	if fl.printAreasDir != "" {
		if err := writePrintAreaFiles(data, fl.printAreasDir, fl.pretty); err != nil {
			return fmt.Errorf("failed to write print area files: %w", err)
		}
	}
	return nil
}

func writeLine(w io.Writer, b []byte) error {
	_, err := w.Write(append(b, '\n'))
	return err
}

func writeSheetFiles(wb *models.WorkbookData, dir string, pretty bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for _, name := range wb.SheetOrder {
		sheet := wb.Sheets[name]
		jsonData, err := output.SheetToJSON(&sheet, pretty)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name+".json"), jsonData, 0644); err != nil {
			return err
		}
	}
	return nil
}

func writePrintAreaFiles(wb *models.WorkbookData, dir string, pretty bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for _, name := range wb.SheetOrder {
		sheet := wb.Sheets[name]
		for i, area := range sheet.PrintAreas {
			view := output.NewPrintAreaView(wb.BookName, sheet, area)
			jsonData, err := output.PrintAreaViewToJSON(&view, pretty)
			if err != nil {
				return err
			}
			filename := filepath.Join(dir, fmt.Sprintf("%s_area%d.json", name, i+1))
			if err := os.WriteFile(filename, jsonData, 0644); err != nil {
				return err
			}
		}
	}
	return nil
}
