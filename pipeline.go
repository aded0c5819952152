package autoprice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/go-autoprice/internal/docx"
	"github.com/alnah/go-autoprice/internal/fileutil"
	"github.com/alnah/go-autoprice/internal/logging"
)

// lockFileName guards an output directory against concurrent runs.
const lockFileName = ".autoprice.lock"

// DocumentConverter converts one rendered document. ConversionService
// implements it.
type DocumentConverter interface {
	Convert(ctx context.Context, document string) ConversionResult
}

// toolSelector is implemented by converters that honor BatchJob.Tool.
type toolSelector interface {
	SetActiveTool(id ToolID) error
	ResetSelection() error
	ActiveTool() ToolDescriptor
}

// TemplateRenderer fills a template with a context and writes the result.
type TemplateRenderer interface {
	Render(templatePath, outPath string, data map[string]string) error
}

// RenderFunc adapts a function to TemplateRenderer.
type RenderFunc func(templatePath, outPath string, data map[string]string) error

func (f RenderFunc) Render(templatePath, outPath string, data map[string]string) error {
	return f(templatePath, outPath, data)
}

// RowLoader reads product rows from a data file.
type RowLoader interface {
	Load(path string) ([]Row, error)
}

// RowLoaderFunc adapts a function to RowLoader.
type RowLoaderFunc func(path string) ([]Row, error)

func (f RowLoaderFunc) Load(path string) ([]Row, error) { return f(path) }

// Progress is reported after every stage change and completed step.
type Progress struct {
	RunID     string
	Stage     Stage
	Completed int
	Total     int
	Percent   float64
	Message   string
}

// ProgressFunc receives progress events on the run's goroutine.
type ProgressFunc func(Progress)

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRenderer replaces the DOCX template renderer.
func WithRenderer(r TemplateRenderer) PipelineOption {
	return func(p *Pipeline) { p.renderer = r }
}

// WithMerger replaces the pdfcpu merger.
func WithMerger(m Merger) PipelineOption {
	return func(p *Pipeline) { p.merger = m }
}

// WithRowLoader sets the loader used when a job carries no rows.
func WithRowLoader(l RowLoader) PipelineOption {
	return func(p *Pipeline) { p.loader = l }
}

// WithPipelineLogger sets the logger. Nil means no logging.
func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logging.OrNop(l) }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) PipelineOption {
	return func(p *Pipeline) { p.onProgress = fn }
}

// WithFormatter overrides field formatting for one mode.
func WithFormatter(mode FormatMode, f Formatter) PipelineOption {
	return func(p *Pipeline) { p.formatters[mode] = f }
}

// WithBatchSize sets how many documents pass between progress log lines.
// Panics if n < 1.
func WithBatchSize(n int) PipelineOption {
	if n < 1 {
		panic("autoprice: batch size must be positive")
	}
	return func(p *Pipeline) { p.batchSize = n }
}

// WithClock sets the time source for report timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithRemover replaces os.Remove during cleanup.
func WithRemover(remove func(string) error) PipelineOption {
	return func(p *Pipeline) { p.remove = remove }
}

// Pipeline runs batch jobs: validate, render, convert, merge, clean up.
// Runs are sequential; a Pipeline must not run two jobs at once.
type Pipeline struct {
	converter  DocumentConverter
	renderer   TemplateRenderer
	merger     Merger
	loader     RowLoader
	logger     *zap.Logger
	onProgress ProgressFunc
	formatters map[FormatMode]Formatter
	batchSize  int
	now        func() time.Time
	remove     func(string) error
}

// NewPipeline returns a pipeline converting through converter.
func NewPipeline(converter DocumentConverter, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		converter: converter,
		renderer:  RenderFunc(docx.Render),
		merger:    PDFMerger{},
		logger:    zap.NewNop(),
		formatters: map[FormatMode]Formatter{
			FormatSingle: NewFormatter(FormatSingle),
			FormatPaired: NewFormatter(FormatPaired),
		},
		batchSize: 10,
		now:       time.Now,
		remove:    os.Remove,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// renderedDoc is a document that reached the converting stage.
type renderedDoc struct {
	index int
	path  string
}

// run carries the state of one Run call.
type run struct {
	p        *Pipeline
	job      BatchJob
	report   *RunReport
	state    *RunState
	log      *zap.Logger
	stage    Stage
	rows     []Row
	rendered []renderedDoc
	pdfs     []string
}

// Run executes job. The report is always returned; err is non-nil only for
// fatal failures. Item failures are listed in report.Errors.
func (p *Pipeline) Run(ctx context.Context, job BatchJob) (*RunReport, error) {
	r := &run{
		p:   p,
		job: job,
		report: &RunReport{
			RunID:     uuid.NewString(),
			Format:    job.Format,
			StartedAt: p.now(),
		},
		state: &RunState{Tracker: NewProgressTracker(0)},
	}
	r.log = p.logger.With(
		zap.String(logging.FieldRunID, r.report.RunID),
		zap.String("format", string(job.Format)),
	)
	r.log.Info("run started", zap.String("source", job.SourcePath), zap.String("template", job.TemplatePath))

	unlock, err := r.validate(ctx)
	if unlock != nil {
		defer unlock()
	}
	if err != nil {
		return r.fail(err)
	}
	for _, step := range []func(context.Context) error{r.render, r.convert, r.merge} {
		if err := step(ctx); err != nil {
			return r.fail(err)
		}
	}
	r.cleanup()

	r.enter(StageDone)
	r.finish()
	r.log.Info("run finished",
		zap.String(logging.FieldFile, r.report.OutputPath),
		zap.Int(logging.FieldPages, r.report.Pages),
		zap.Int("errors", len(r.report.Errors)),
		zap.Duration("duration", r.report.Duration()))
	return r.report, nil
}

func (r *run) enter(s Stage) {
	r.stage = s
	r.emit(s.String())
}

func (r *run) emit(msg string) {
	if r.p.onProgress == nil {
		return
	}
	t := r.state.Tracker
	r.p.onProgress(Progress{
		RunID:     r.report.RunID,
		Stage:     r.stage,
		Completed: t.Completed(),
		Total:     t.Total(),
		Percent:   t.Progress(),
		Message:   msg,
	})
}

func (r *run) step(n int, msg string) {
	r.state.Tracker.Update(n)
	r.emit(msg)
}

// logBatch writes a progress line every batchSize documents.
func (r *run) logBatch(done, total int) {
	if done%r.p.batchSize == 0 || done == total {
		r.log.Info("progress",
			zap.String(logging.FieldStage, r.stage.String()),
			zap.Int("done", done),
			zap.Int("total", total),
			zap.Float64(logging.FieldProgress, r.state.Tracker.Progress()))
	}
}

func (r *run) fail(err error) (*RunReport, error) {
	r.report.FailedStage = r.stage
	r.stage = StageFailed
	r.finish()
	r.emit(err.Error())
	r.log.Error("run failed", zap.String(logging.FieldStage, r.report.FailedStage.String()), zap.Error(err))
	return r.report, err
}

func (r *run) finish() {
	r.report.Stage = r.stage
	r.report.Progress = r.state.Tracker.Progress()
	r.report.Intermediates = append([]string(nil), r.state.Intermediates...)
	r.report.Errors = append([]*ItemError(nil), r.state.Errors...)
	r.report.FinishedAt = r.p.now()
}

// validate checks inputs, prepares the output directory, locks it, and
// loads rows. The returned unlock func is non-nil once the lock is held.
func (r *run) validate(ctx context.Context) (func(), error) {
	r.enter(StageValidating)
	job := r.job

	if job.Format != FormatSingle && job.Format != FormatPaired {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidJob, job.Format)
	}
	if job.OutputDir == "" {
		return nil, fmt.Errorf("%w: output directory not set", ErrInvalidJob)
	}
	for _, path := range []string{job.SourcePath, job.TemplatePath} {
		if !fileutil.FileExists(path) {
			return nil, fmt.Errorf("%w: %q", ErrMissingInput, path)
		}
	}
	if err := fileutil.EnsureDir(job.OutputDir); err != nil {
		return nil, err
	}

	lockPath := filepath.Join(job.OutputDir, lockFileName)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", job.OutputDir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, job.OutputDir)
	}
	// The lock file stays: removing it would let a later run lock a
	// different inode than one still waiting on the old file.
	unlock := func() { _ = lock.Unlock() }

	if err := ctx.Err(); err != nil {
		return unlock, err
	}

	if sel, ok := r.p.converter.(toolSelector); ok {
		if job.Tool != "" {
			err = sel.SetActiveTool(job.Tool)
		} else {
			err = sel.ResetSelection()
		}
		if err != nil {
			return unlock, err
		}
		r.report.Tool = sel.ActiveTool().ID
	}

	rows := job.Rows
	if rows == nil {
		if r.p.loader == nil {
			return unlock, fmt.Errorf("%w: no rows given and no row loader configured", ErrInvalidJob)
		}
		rows, err = r.p.loader.Load(job.SourcePath)
		if err != nil {
			return unlock, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, job.SourcePath, err)
		}
	}
	r.rows = rows

	docs := job.Documents(len(rows))
	r.report.Rows = len(rows)
	r.report.Documents = docs
	r.state.Tracker = NewProgressTracker(2*docs + 2)
	r.log.Info("input validated", zap.Int("rows", len(rows)), zap.Int("documents", docs))
	return unlock, nil
}

// render fills one template per document. A failed render also consumes
// the document's conversion step, so a finished run reaches 100%.
func (r *run) render(ctx context.Context) error {
	r.enter(StageRendering)
	f := r.p.formatters[r.job.Format]
	docs := r.report.Documents

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		index := i + 1
		path := filepath.Join(r.job.OutputDir, fmt.Sprintf("temp_output_%d.docx", index))

		var data map[string]string
		if r.job.Format == FormatSingle {
			data = f.SingleContext(r.rows[i])
		} else {
			var second *Row
			if 2*i+1 < len(r.rows) {
				second = &r.rows[2*i+1]
			}
			data = f.PairedContext(r.rows[2*i], second)
		}

		if err := r.p.renderer.Render(r.job.TemplatePath, path, data); err != nil {
			r.state.record(StageRendering, index, path, fmt.Errorf("%w: %v", ErrRenderFailed, err))
			if fileutil.FileExists(path) {
				r.state.track(path)
			}
			r.log.Warn("render failed", zap.Int(logging.FieldIndex, index), zap.Error(err))
			r.step(2, fmt.Sprintf("render failed for document %d", index))
			continue
		}
		r.state.track(path)
		r.rendered = append(r.rendered, renderedDoc{index: index, path: path})
		r.step(1, fmt.Sprintf("rendered document %d/%d", index, docs))
		r.logBatch(index, docs)
	}

	r.report.Rendered = len(r.rendered)
	if len(r.rendered) == 0 {
		return fmt.Errorf("%w: none of %d documents rendered", ErrNoDocumentsProduced, docs)
	}
	return nil
}

// convert turns each rendered document into a PDF, in render order.
func (r *run) convert(ctx context.Context) error {
	r.enter(StageConverting)
	total := len(r.rendered)

	for n, doc := range r.rendered {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := r.p.converter.Convert(ctx, doc.path)
		if res.OK() {
			r.state.track(res.Output)
			r.pdfs = append(r.pdfs, res.Output)
		} else {
			for _, partial := range leftoverPDFs(doc.path) {
				r.state.track(partial)
			}
			r.state.record(StageConverting, doc.index, doc.path, res.Err)
			r.log.Warn("conversion failed",
				zap.Int(logging.FieldIndex, doc.index),
				zap.String(logging.FieldTool, string(res.FailedTool)),
				zap.Error(res.Err))
		}
		r.step(1, fmt.Sprintf("converted document %d/%d", n+1, total))
		r.logBatch(n+1, total)
	}

	r.report.Converted = len(r.pdfs)
	if len(r.pdfs) == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w: none of %d documents converted", ErrNoDocumentsProduced, total)
	}
	return nil
}

// merge concatenates the PDFs. On failure the intermediates are kept.
func (r *run) merge(ctx context.Context) error {
	r.enter(StageMerging)
	if err := ctx.Err(); err != nil {
		return err
	}
	out := filepath.Join(r.job.OutputDir, r.job.outputName())
	pages, err := r.p.merger.Merge(r.pdfs, out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMergeFailed, err)
	}
	r.report.OutputPath = out
	r.report.Pages = pages
	r.step(1, "merged "+filepath.Base(out))
	return nil
}

// cleanup removes every tracked intermediate. Failures are recorded only.
// leftoverPDFs lists the PDFs a failed conversion of doc may have written
// before giving up.
func leftoverPDFs(doc string) []string {
	name := filepath.Base(fileutil.ReplaceExt(doc, ".pdf"))
	dir := filepath.Dir(doc)
	var found []string
	for _, path := range []string{filepath.Join(dir, name), filepath.Join(dir, alternateOutputSubdir, name)} {
		if fileutil.FileExists(path) {
			found = append(found, path)
		}
	}
	return found
}

func (r *run) cleanup() {
	r.enter(StageCleaningUp)
	dirs := map[string]bool{}
	for _, path := range r.state.Intermediates {
		if err := r.p.remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.state.record(StageCleaningUp, 0, path, fmt.Errorf("%w: %v", ErrCleanupFailed, err))
			r.log.Warn("cleanup failed", zap.String(logging.FieldFile, path), zap.Error(err))
			continue
		}
		if dir := filepath.Dir(path); filepath.Clean(dir) != filepath.Clean(r.job.OutputDir) {
			dirs[dir] = true
		}
	}
	// Alternate output subdirectories go too, if nothing else lives there.
	for dir := range dirs {
		_ = os.Remove(dir)
	}
	r.step(1, "removed intermediate files")
}
