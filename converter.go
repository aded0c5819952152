package autoprice

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-autoprice/internal/fileutil"
	"github.com/alnah/go-autoprice/internal/logging"
)

// ConverterFactory builds the converter for a detected tool.
type ConverterFactory func(ToolDescriptor) ConverterPort

// ToolSettings configures the default converters.
type ToolSettings struct {
	Timeout  time.Duration // per external conversion; 0 = DefaultToolTimeout
	FontPath string        // TTF for the native converter; empty = core font
	Runner   CommandRunner // soffice runner; nil = ExecRunner
}

// DefaultConverterFactory returns the production converters.
func DefaultConverterFactory(s ToolSettings) ConverterFactory {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return func(d ToolDescriptor) ConverterPort {
		switch d.ID {
		case ToolNative:
			return newNativeConverter(s.FontPath)
		case ToolChrome:
			return newChromeConverter(d.Path, timeout)
		case ToolLibreOffice:
			return newLibreOfficeConverter(d.Path, timeout, s.Runner)
		}
		return nil
	}
}

// ServiceOption configures a ConversionService.
type ServiceOption func(*ConversionService)

// WithLogger sets the logger. Nil means no logging.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *ConversionService) { s.logger = logging.OrNop(l) }
}

// WithPreferredTool selects id when it is available. Empty means auto.
func WithPreferredTool(id ToolID) ServiceOption {
	return func(s *ConversionService) { s.preferred = id }
}

// WithConverterFactory replaces the converter constructors.
func WithConverterFactory(f ConverterFactory) ServiceOption {
	return func(s *ConversionService) {
		if f != nil {
			s.factory = f
		}
	}
}

// WithToolSettings configures the default converters.
func WithToolSettings(ts ToolSettings) ServiceOption {
	return func(s *ConversionService) { s.factory = DefaultConverterFactory(ts) }
}

// ConversionService converts documents with the active tool and falls back
// to the other available tools, by priority, when it fails.
// It is not safe for concurrent use.
type ConversionService struct {
	registry   *Registry
	logger     *zap.Logger
	factory    ConverterFactory
	preferred  ToolID
	tools      map[ToolID]ToolDescriptor
	converters map[ToolID]ConverterPort
	active     ToolID
}

// NewConversionService detects tools and selects the active one: the
// preferred tool when available, otherwise the best available tool.
func NewConversionService(registry *Registry, opts ...ServiceOption) (*ConversionService, error) {
	s := &ConversionService{
		registry:   registry,
		logger:     zap.NewNop(),
		factory:    DefaultConverterFactory(ToolSettings{}),
		converters: map[ToolID]ConverterPort{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Tools returns the detected tools in priority order.
func (s *ConversionService) Tools() []ToolDescriptor {
	return sortedTools(s.tools)
}

// ActiveTool returns the descriptor of the tool tried first.
func (s *ConversionService) ActiveTool() ToolDescriptor {
	return s.tools[s.active]
}

// SetActiveTool makes id the tool tried first.
func (s *ConversionService) SetActiveTool(id ToolID) error {
	d, ok := s.tools[id]
	if !ok {
		return fmt.Errorf("%w: unknown tool %q", ErrToolUnavailable, id)
	}
	if !d.Available {
		return fmt.Errorf("%w: %s: %s", ErrToolUnavailable, id, d.Detail)
	}
	if s.active != id {
		s.logger.Info("active tool changed", zap.String(logging.FieldTool, string(id)))
	}
	s.active = id
	return nil
}

// Refresh re-detects tools. The active tool is kept while it stays
// available; otherwise the preferred tool, then the best tool, is selected.
// Converters of tools whose state changed are closed.
func (s *ConversionService) Refresh() error {
	tools := s.registry.Detect()

	for id, conv := range s.converters {
		if old, now := s.tools[id], tools[id]; old != now {
			_ = conv.Close()
			delete(s.converters, id)
		}
	}
	s.tools = tools

	if d, ok := tools[s.active]; ok && d.Available {
		return nil
	}
	return s.ResetSelection()
}

// ResetSelection drops any explicit choice and selects the preferred tool
// when available, otherwise the best available tool. Detection is not rerun.
func (s *ConversionService) ResetSelection() error {
	if s.preferred != "" {
		if d, ok := s.tools[s.preferred]; ok && d.Available {
			s.active = s.preferred
			s.logger.Info("tool selected", zap.String(logging.FieldTool, string(s.active)), zap.String("reason", "preferred"))
			return nil
		}
		s.logger.Warn("preferred tool unavailable, selecting automatically",
			zap.String(logging.FieldTool, string(s.preferred)))
	}
	best, err := SelectBest(s.tools)
	if err != nil {
		s.active = ""
		return err
	}
	s.active = best
	s.logger.Info("tool selected", zap.String(logging.FieldTool, string(best)), zap.String("reason", "priority"))
	return nil
}

// Convert converts document with the active tool, falling back on failure.
// The result always names the document; on failure it carries every attempt.
func (s *ConversionService) Convert(ctx context.Context, document string) ConversionResult {
	res := ConversionResult{Source: document}
	if s.active == "" {
		res.Err = ErrNoToolAvailable
		return res
	}

	out, err := s.try(ctx, s.active, document)
	res.Attempts = append(res.Attempts, Attempt{Tool: s.active, Err: err})
	if err == nil {
		return s.succeed(res, s.active, out)
	}
	s.logger.Warn("conversion failed",
		zap.String(logging.FieldTool, string(s.active)),
		zap.String(logging.FieldFile, filepath.Base(document)),
		zap.Error(err))
	return s.fallback(ctx, res, s.active)
}

// fallback tries every other available tool once, by priority.
func (s *ConversionService) fallback(ctx context.Context, res ConversionResult, failed ToolID) ConversionResult {
	last := failed
	for _, d := range sortedTools(s.tools) {
		if d.ID == failed || !d.Available {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}
		out, err := s.try(ctx, d.ID, res.Source)
		res.Attempts = append(res.Attempts, Attempt{Tool: d.ID, Err: err})
		last = d.ID
		if err == nil {
			s.logger.Info("fallback succeeded",
				zap.String(logging.FieldTool, string(d.ID)),
				zap.String(logging.FieldFile, filepath.Base(res.Source)))
			return s.succeed(res, d.ID, out)
		}
		s.logger.Warn("fallback failed",
			zap.String(logging.FieldTool, string(d.ID)),
			zap.String(logging.FieldFile, filepath.Base(res.Source)),
			zap.Error(err))
	}

	res.FailedTool = last
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	parts := make([]string, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Tool, a.Err))
	}
	res.Err = fmt.Errorf("%w: %s (%s)", ErrConversionFailed, filepath.Base(res.Source), strings.Join(parts, "; "))
	return res
}

func (s *ConversionService) try(ctx context.Context, id ToolID, document string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	conv, err := s.converter(id)
	if err != nil {
		return "", err
	}
	if !conv.Available() {
		return "", fmt.Errorf("%w: %s", ErrToolUnavailable, id)
	}
	out, err := conv.ToPDF(ctx, document)
	if err != nil {
		return "", err
	}
	if !fileutil.FileExists(out) {
		return "", fmt.Errorf("%w: %s", ErrOutputMissing, out)
	}
	return out, nil
}

func (s *ConversionService) succeed(res ConversionResult, id ToolID, out string) ConversionResult {
	res.Output, res.Tool = out, id
	fields := []zap.Field{
		zap.String(logging.FieldTool, string(id)),
		zap.String(logging.FieldFile, filepath.Base(out)),
	}
	if pages, err := countPages(out); err == nil {
		fields = append(fields, zap.Int(logging.FieldPages, pages))
	} else {
		s.logger.Debug("page count unavailable", zap.String(logging.FieldFile, out), zap.Error(err))
	}
	s.logger.Debug("converted", fields...)
	return res
}

func (s *ConversionService) converter(id ToolID) (ConverterPort, error) {
	if conv, ok := s.converters[id]; ok {
		return conv, nil
	}
	d, ok := s.tools[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tool %q", ErrToolUnavailable, id)
	}
	conv := s.factory(d)
	if conv == nil {
		return nil, fmt.Errorf("%w: no converter for %q", ErrToolUnavailable, id)
	}
	s.converters[id] = conv
	return conv, nil
}

// Close releases every converter created so far.
func (s *ConversionService) Close() error {
	var errs []error
	for id, conv := range s.converters {
		if err := conv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", id, err))
		}
		delete(s.converters, id)
	}
	return errors.Join(errs...)
}
