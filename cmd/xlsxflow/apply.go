package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/fetch"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/ingest"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/transform"
)

type applyFlags struct {
	recipe   string
	output   string
	password string
}

func newApplyCmd(a *app) *cobra.Command {
	var fl applyFlags
	cmd := &cobra.Command{
		Use:   "apply --recipe recipe.yaml -o out.xlsx input",
		Short: "Run a recipe on a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(cmd, args[0], fl)
		},
	}
	cmd.Flags().StringVarP(&fl.recipe, "recipe", "r", "", "Recipe file (YAML or JSON)")
	cmd.Flags().StringVarP(&fl.output, "output", "o", "", "Output workbook path")
	cmd.Flags().StringVar(&fl.password, "password", "", "Password of an encrypted input")
	_ = cmd.MarkFlagRequired("recipe")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) apply(cmd *cobra.Command, input string, fl applyFlags) error {
	ctx := cmd.Context()

	text, err := os.ReadFile(fl.recipe)
	if err != nil {
		return fmt.Errorf("read recipe: %w", err)
	}
	recipe, err := transform.ParseRecipe(text)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	opts := ingest.Options{
		Password:  fl.password,
		Converter: a.converter(),
		TempDir:   a.cfg.TempDir,
	}
	wb, err := ingest.Ingest(ctx, input, data, opts)
	if err != nil {
		return err
	}
	defer wb.Close()

	fetcher := fetch.New(a.cfg.Fetch.Timeout, a.cfg.Fetch.Retries, a.cfg.Fetch.MaxBytes)
	fetcher.AllowPrivate = a.cfg.Fetch.AllowPrivate
	fetcher.Logger = a.log
	report, err := transform.Apply(ctx, wb, recipe, transform.Env{
		Fetcher: fetcher,
		Clock:   time.Now,
		Ingest:  ingest.Options{Converter: opts.Converter, TempDir: opts.TempDir},
		Logger:  a.log,
	})
	if err != nil {
		return err
	}

	out, err := wb.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(fl.output, out, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	w := cmd.OutOrStdout()
	for _, st := range report.Steps {
		fmt.Fprintf(w, "%2d %-16s %8s  %s\n", st.Index, st.Op, humanize.Comma(int64(st.Cells)), st.Note)
	}
	fmt.Fprintf(w, "wrote %s (%s, %s cell(s) in %s)\n",
		fl.output, humanize.Bytes(uint64(len(out))), humanize.Comma(int64(report.Cells())), report.Duration.Round(time.Millisecond))
	return nil
}
