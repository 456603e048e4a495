package transform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/fetch"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/ingest"
)

var (
	// ErrLastSheet is returned when a step would leave the workbook without sheets.
	ErrLastSheet = errors.New("cannot delete the last sheet")
	// ErrSheetExists is returned when a step would create a sheet whose name is taken.
	ErrSheetExists = errors.New("sheet already exists")
	// ErrNoFetcher is returned by import_url when Env carries no fetcher.
	ErrNoFetcher = errors.New("remote fetching is disabled")
)

// Fetcher downloads remote documents for import_url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Resource, error)
}

// Env carries the collaborators of a recipe run.
type Env struct {
	Fetcher Fetcher
	// Clock returns the current time; nil means time.Now.
	Clock func() time.Time
	// Ingest configures how fetched workbooks are opened.
	Ingest ingest.Options
	Logger zerolog.Logger
}

// StepError reports the step that aborted a recipe.
type StepError struct {
	// Index is the 1-based step number.
	Index int
	Op    string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepResult summarizes one applied step.
type StepResult struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	// Cells is the number of cells the step wrote or cleared.
	Cells int    `json:"cells"`
	Note  string `json:"note,omitempty"`
}

// Report summarizes a recipe run.
type Report struct {
	Recipe   string        `json:"recipe,omitempty"`
	Steps    []StepResult  `json:"steps"`
	Duration time.Duration `json:"duration"`
}

// Cells returns the total number of cells touched.
func (r *Report) Cells() int {
	n := 0
	for _, s := range r.Steps {
		n += s.Cells
	}
	return n
}

type stepFunc func(ctx context.Context, wb *xlsxflow.Workbook, s *Step, env *Env) (StepResult, error)

var ops map[string]stepFunc

func init() {
	ops = map[string]stepFunc{
		OpCopyRange:      copyRange,
		OpMoveRange:      moveRange,
		OpFillFormula:    fillFormula,
		OpInsertRows:     insertRows,
		OpDeleteRows:     deleteRows,
		OpInsertCols:     insertCols,
		OpDeleteCols:     deleteCols,
		OpUnmerge:        unmerge,
		OpMerge:          merge,
		OpReplace:        replace,
		OpShiftDates:     shiftDates,
		OpStampDate:      stampDate,
		OpSetValue:       setValue,
		OpFreezeFormulas: freezeFormulas,
		OpRenameSheet:    renameSheet,
		OpDuplicateSheet: duplicateSheet,
		OpDeleteSheet:    deleteSheet,
		OpImportURL:      importURL,
		OpImportFrame:    importFrame,
	}
}

// Apply runs the recipe's steps in order against wb. The first failing step
// aborts the run with a *StepError; steps before it stay applied, so callers
// that need atomicity apply to a clone.
func Apply(ctx context.Context, wb *xlsxflow.Workbook, r *Recipe, env Env) (*Report, error) {
	start := time.Now()
	report := &Report{Recipe: r.Name}
	log := env.Logger.With().Str("recipe", r.Name).Logger()

	for i := range r.Steps {
		step := r.Steps[i]
		if err := ctx.Err(); err != nil {
			return report, &StepError{Index: i + 1, Op: step.Op, Err: err}
		}
		if err := step.validate(); err != nil {
			return report, &StepError{Index: i + 1, Op: step.Op, Err: err}
		}

		stepStart := time.Now()
		res, err := ops[step.Op](ctx, wb, &step, &env)
		if err != nil {
			log.Warn().Err(err).Int("step", i+1).Str("op", step.Op).Msg("step failed")
			return report, &StepError{Index: i + 1, Op: step.Op, Err: err}
		}
		res.Index, res.Op = i+1, step.Op
		report.Steps = append(report.Steps, res)
		log.Debug().
			Int("step", i+1).
			Str("desc", step.String()).
			Int("cells", res.Cells).
			Dur("took", time.Since(stepStart)).
			Msg("step applied")
	}

	report.Duration = time.Since(start)
	log.Info().Int("steps", len(report.Steps)).Int("cells", report.Cells()).Dur("took", report.Duration).Msg("recipe applied")
	return report, nil
}
