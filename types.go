package autoprice

import (
	"fmt"
	"strings"
)

// FormatMode selects how many rows share one rendered page.
type FormatMode string

const (
	// FormatSingle renders one row per document (A4 price tags).
	FormatSingle FormatMode = "a4"
	// FormatPaired renders two rows per document (A5 price tags).
	FormatPaired FormatMode = "a5"
)

// ParseFormatMode accepts "a4"/"a5" in any case, plus "single"/"paired".
func ParseFormatMode(s string) (FormatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a4", "single":
		return FormatSingle, nil
	case "a5", "paired":
		return FormatPaired, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (must be a4 or a5)", ErrInvalidJob, s)
}

// RowsPerDocument returns 1 for single mode and 2 for paired mode.
func (m FormatMode) RowsPerDocument() int {
	if m == FormatPaired {
		return 2
	}
	return 1
}

// DefaultOutputName returns the merged file name used when the job sets none.
func (m FormatMode) DefaultOutputName() string {
	if m == FormatPaired {
		return "A5-Auto-Tong.pdf"
	}
	return "A4-Auto-Tong.pdf"
}

// DefaultMaxCategory returns the category truncation limit for the mode.
func (m FormatMode) DefaultMaxCategory() int {
	if m == FormatPaired {
		return 31
	}
	return 29
}

// Cell is an optional spreadsheet value. The zero Cell is missing.
type Cell struct {
	Value string
	Valid bool
}

// Text returns a present cell holding s.
func Text(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// Missing is the absent cell.
var Missing = Cell{}

// String returns the value, or "" when missing.
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return c.Value
}

// Row is one product line of the price list.
type Row struct {
	Category   Cell // NganhHang
	Brand      Cell // Hang
	Code       Cell // SAP
	Model      Cell // Model
	ListPrice  Cell // GiaNiemYet
	PromoPrice Cell // GiaKM
	Discount   Cell // G
	Gift       Cell // Qua
	Validity   Cell // ThoiGian
}

// BatchJob describes one run. It is read, never modified, by the pipeline.
type BatchJob struct {
	Format       FormatMode
	SourcePath   string // data file; must exist even when Rows is set
	Rows         []Row  // nil = load SourcePath with the pipeline's row loader
	TemplatePath string
	OutputDir    string
	OutputName   string // empty = Format.DefaultOutputName()
	Tool         ToolID // empty = auto: preferred tool, else best available
}

// Documents returns how many documents the job plans to render.
func (j BatchJob) Documents(rows int) int {
	per := j.Format.RowsPerDocument()
	return (rows + per - 1) / per
}

func (j BatchJob) outputName() string {
	if j.OutputName != "" {
		return j.OutputName
	}
	return j.Format.DefaultOutputName()
}
