package autoprice

import (
	"fmt"
	"time"
)

// ItemError is a failure confined to one row, document or file.
type ItemError struct {
	Stage Stage
	Index int // 1-based document number; 0 when not tied to a document
	Path  string
	Err   error
}

func (e *ItemError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s document %d (%s): %v", e.Stage, e.Index, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// RunState is the mutable bookkeeping of one run.
type RunState struct {
	Tracker       *ProgressTracker
	Intermediates []string // every file the run created besides the output
	Errors        []*ItemError
}

func (s *RunState) track(path string) {
	s.Intermediates = append(s.Intermediates, path)
}

func (s *RunState) record(stage Stage, index int, path string, err error) {
	s.Errors = append(s.Errors, &ItemError{Stage: stage, Index: index, Path: path, Err: err})
}

// RunReport summarizes a run. Run returns one even when it fails.
type RunReport struct {
	RunID         string
	Format        FormatMode
	Tool          ToolID // active tool at the start of conversion
	Stage         Stage  // StageDone or StageFailed
	FailedStage   Stage  // meaningful when Stage is StageFailed
	OutputPath    string
	Rows          int
	Documents     int // planned
	Rendered      int
	Converted     int
	Pages         int
	Intermediates []string
	Errors        []*ItemError
	Progress      float64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Succeeded reports whether the run produced its output.
func (r *RunReport) Succeeded() bool {
	return r.Stage == StageDone
}

// Complete reports whether the run produced its output without item errors.
func (r *RunReport) Complete() bool {
	return r.Succeeded() && len(r.Errors) == 0
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
