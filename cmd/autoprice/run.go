package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alnah/go-autoprice"
	"github.com/alnah/go-autoprice/internal/history"
	"github.com/alnah/go-autoprice/internal/sheet"
)

func newRunCommand(env *Environment, common *commonFlags) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render, convert and merge one price list",
		Long: `Fill the template once per product (a4) or per pair of products (a5),
convert every filled document to PDF and merge them into one file.

Rows and documents that fail are reported without stopping the run; the
exit code is 5 when the merged file was written but some items failed.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(*common, env.Stderr)
			if err != nil {
				return err
			}
			applyRunFlags(cmd.Flags(), &f, s)
			if err := s.cfg.Validate(); err != nil {
				return err
			}
			tool, err := autoprice.ParseToolID(f.tools.tool)
			if err != nil {
				return fmt.Errorf("%w: --tool: %v", ErrUsage, err)
			}
			return runBatch(cmd.Context(), s, tool, env)
		},
	}
	addRunFlags(cmd.Flags(), &f)
	return cmd
}

// runBatch executes one pipeline run and reports it.
func runBatch(ctx context.Context, s *settings, tool autoprice.ToolID, env *Environment) error {
	cfg := s.cfg
	mode, err := autoprice.ParseFormatMode(cfg.Format)
	if err != nil {
		return err
	}

	showBar := !s.common.quiet && env.IsTerminal(env.Stderr)
	if showBar && !s.common.verbose && (cfg.Log.Level == "" || cfg.Log.Level == "info") {
		// Info lines would tear the bar apart.
		cfg.Log.Level = "warn"
	}

	logger, err := s.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := s.service(logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	display := newProgressDisplay(env.Stderr, showBar)
	pipeline := autoprice.NewPipeline(svc,
		autoprice.WithRowLoader(sheet.Loader),
		autoprice.WithPipelineLogger(logger),
		autoprice.WithBatchSize(cfg.BatchSize),
		autoprice.WithFormatter(mode, autoprice.Formatter{
			Currency:    cfg.Render.Currency,
			MaxCategory: cfg.MaxCategoryFor(cfg.Format),
		}),
		autoprice.WithProgress(display.update),
		autoprice.WithClock(env.Now),
	)

	job := autoprice.BatchJob{
		Format:       mode,
		SourcePath:   cfg.SourceFor(cfg.Format),
		TemplatePath: cfg.TemplateFor(cfg.Format),
		OutputDir:    cfg.Output.Dir,
		OutputName:   cfg.OutputNameFor(cfg.Format),
		Tool:         tool,
	}

	report, runErr := pipeline.Run(ctx, job)
	display.finish()

	recordHistory(ctx, s, report, runErr, env.Stderr)
	if !s.common.quiet {
		printSummary(env.Stdout, report)
	}
	printItemErrors(env.Stderr, report)

	if runErr != nil {
		return runErr
	}
	if !report.Complete() {
		return fmt.Errorf("%w: %d item errors", ErrPartialRun, len(report.Errors))
	}
	return nil
}

// printSummary writes a short account of the run.
func printSummary(w io.Writer, r *autoprice.RunReport) {
	took := r.Duration().Round(time.Millisecond)
	if !r.Succeeded() {
		fmt.Fprintf(w, "Run failed while %s after %s\n", r.FailedStage, took)
		if r.Documents > 0 {
			fmt.Fprintf(w, "Rows: %d  Documents: %d  Rendered: %d  Converted: %d\n",
				r.Rows, r.Documents, r.Rendered, r.Converted)
		}
		return
	}

	size := ""
	if info, err := os.Stat(r.OutputPath); err == nil {
		size = ", " + humanize.Bytes(uint64(info.Size())) // #nosec G115 -- file sizes are non-negative
	}
	fmt.Fprintf(w, "Wrote %s (%d pages%s) in %s with %s\n", r.OutputPath, r.Pages, size, took, r.Tool)
	fmt.Fprintf(w, "Rows: %d  Documents: %d  Converted: %d\n", r.Rows, r.Documents, r.Converted)
}

// printItemErrors lists every failed row, document or file.
func printItemErrors(w io.Writer, r *autoprice.RunReport) {
	for _, e := range r.Errors {
		fmt.Fprintf(w, "warning: %v%s\n", e, hintFor(e))
	}
}

// recordHistory stores the run in the history database. Failures only warn:
// the run itself already happened.
func recordHistory(ctx context.Context, s *settings, r *autoprice.RunReport, runErr error, stderr io.Writer) {
	if !s.cfg.History.Enabled || r == nil {
		return
	}
	path, err := s.cfg.HistoryPath()
	if err != nil {
		fmt.Fprintf(stderr, "warning: recording history: %v\n", err)
		return
	}
	// A canceled run is still worth recording.
	ctx = context.WithoutCancel(ctx)
	store, err := history.Open(ctx, path)
	if err != nil {
		fmt.Fprintf(stderr, "warning: recording history: %v\n", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Record(ctx, historyEntry(r, runErr)); err != nil {
		fmt.Fprintf(stderr, "warning: recording history: %v\n", err)
	}
}

func historyEntry(r *autoprice.RunReport, runErr error) history.Entry {
	e := history.Entry{
		ID:         r.RunID,
		Format:     string(r.Format),
		Tool:       string(r.Tool),
		Status:     history.StatusComplete,
		OutputPath: r.OutputPath,
		Rows:       r.Rows,
		Documents:  r.Documents,
		Converted:  r.Converted,
		Pages:      r.Pages,
		ItemErrors: len(r.Errors),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	switch {
	case runErr != nil:
		e.Status = history.StatusFailed
		e.FailedStage = r.FailedStage.String()
		e.Error = runErr.Error()
	case !r.Complete():
		e.Status = history.StatusPartial
	}
	return e
}
