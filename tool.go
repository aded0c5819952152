package autoprice

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// ToolID names a conversion tool.
type ToolID string

// Known tools, in priority order.
const (
	ToolNative      ToolID = "native"
	ToolChrome      ToolID = "chrome"
	ToolLibreOffice ToolID = "libreoffice"
)

// KnownTools lists every tool the registry detects.
var KnownTools = []ToolID{ToolNative, ToolChrome, ToolLibreOffice}

// ParseToolID accepts a known tool name in any case. Empty and "auto" return "".
func ParseToolID(s string) (ToolID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "auto" {
		return "", nil
	}
	id := ToolID(s)
	if !slices.Contains(KnownTools, id) {
		return "", fmt.Errorf("%w: unknown tool %q", ErrToolUnavailable, s)
	}
	return id, nil
}

// ToolDescriptor is the detected state of one tool.
type ToolDescriptor struct {
	ID          ToolID `json:"id"`
	Name        string `json:"name"`
	Priority    int    `json:"priority"` // lower is preferred
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description"`
	Detail      string `json:"detail,omitempty"` // why the tool is unavailable
}

// ConverterPort converts one document to PDF.
type ConverterPort interface {
	// Available reports whether the tool can run right now.
	Available() bool
	// ToPDF converts sourcePath and returns the path of the produced PDF.
	ToPDF(ctx context.Context, sourcePath string) (string, error)
	// Close releases resources held between conversions.
	Close() error
}

// SelectBest returns the available tool with the smallest priority.
func SelectBest(tools map[ToolID]ToolDescriptor) (ToolID, error) {
	var best *ToolDescriptor
	for _, d := range sortedTools(tools) {
		if d.Available {
			best = &d
			break
		}
	}
	if best == nil {
		return "", ErrNoToolAvailable
	}
	return best.ID, nil
}

// sortedTools returns the descriptors ordered by priority, then ID.
func sortedTools(tools map[ToolID]ToolDescriptor) []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(tools))
	for _, d := range tools {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b ToolDescriptor) int {
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

// Attempt records one tool's try at a document.
type Attempt struct {
	Tool ToolID
	Err  error // nil on success
}

// ConversionResult is the outcome of converting one document.
type ConversionResult struct {
	Source     string
	Output     string // set on success
	Tool       ToolID // tool that produced Output
	FailedTool ToolID // last tool tried, on failure
	Attempts   []Attempt
	Err        error
}

// OK reports whether the conversion produced a file.
func (r ConversionResult) OK() bool {
	return r.Err == nil && r.Output != ""
}
