package transform

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/fetch"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/frame"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/ingest"
)

func anchor(s *Step) string {
	if s.To == "" {
		return "A1"
	}
	return s.To
}

func header(s *Step) bool {
	return s.Header == nil || *s.Header
}

// importURL downloads a CSV, HTML or spreadsheet document and writes its
// first table into the workbook.
func importURL(ctx context.Context, wb *xlsxflow.Workbook, s *Step, env *Env) (StepResult, error) {
	if env.Fetcher == nil {
		return StepResult{}, ErrNoFetcher
	}
	res, err := env.Fetcher.Fetch(ctx, s.URL)
	if err != nil {
		return StepResult{}, err
	}
	fr, err := resourceFrame(ctx, res, header(s), env)
	if err != nil {
		return StepResult{}, err
	}
	written, err := fr.WriteTo(wb.File, s.Sheet, anchor(s), frame.WriteOptions{Header: header(s)})
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{
		Cells: written.Width() * written.Height(),
		Note:  fmt.Sprintf("%d row(s) from %s", fr.Len(), res.Name),
	}, nil
}

func resourceFrame(ctx context.Context, res *fetch.Resource, header bool, env *Env) (*frame.Frame, error) {
	switch ingest.Detect(res.Body, res.Name, res.ContentType) {
	case ingest.FormatCSV:
		opts := env.Ingest.CSV
		opts.NoHeader = !header
		if opts.Comma == 0 {
			opts.Comma = frame.SniffComma(res.Body)
		}
		return frame.FromCSV(bytes.NewReader(res.Body), opts)
	case ingest.FormatHTML:
		frames, err := frame.FromHTML(bytes.NewReader(res.Body))
		if err != nil {
			return nil, err
		}
		if len(frames) == 0 {
			return nil, fmt.Errorf("%w at %s", frame.ErrNoTable, res.URL)
		}
		return frames[0], nil
	}

	opts := env.Ingest
	opts.ContentType = res.ContentType
	src, err := ingest.Ingest(ctx, res.Name, res.Body, opts)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return frame.FromSheet(src.File, src.Sheets()[0], "", header)
}

// importFrame summarizes a table of another sheet and writes one row of
// column statistics per source column.
func importFrame(_ context.Context, wb *xlsxflow.Workbook, s *Step, _ *Env) (StepResult, error) {
	if err := wb.RequireSheet(s.FromSheet); err != nil {
		return StepResult{}, err
	}
	fr, err := frame.FromSheet(wb.File, s.FromSheet, s.Range, true)
	if err != nil {
		return StepResult{}, err
	}
	stats := frame.StatsFrame(fr.Describe())
	written, err := stats.WriteTo(wb.File, s.Sheet, anchor(s), frame.WriteOptions{Header: true})
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{
		Cells: written.Width() * written.Height(),
		Note:  fmt.Sprintf("%d column(s) described", len(fr.Columns)),
	}, nil
}
