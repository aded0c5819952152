package autoprice

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Merger concatenates PDFs.
type Merger interface {
	// Merge writes inputs, in order, to out and returns the page count of out.
	Merge(inputs []string, out string) (int, error)
}

// PDFMerger merges with pdfcpu.
type PDFMerger struct{}

var _ Merger = PDFMerger{}

var disableConfigDir sync.Once

// Merge concatenates inputs into out. A failed merge leaves no output file.
func (PDFMerger) Merge(inputs []string, out string) (int, error) {
	if len(inputs) == 0 {
		return 0, errors.New("nothing to merge")
	}
	// pdfcpu otherwise writes a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	if err := api.MergeCreateFile(inputs, out, false, nil); err != nil {
		_ = os.Remove(out)
		return 0, fmt.Errorf("merging into %s: %w", out, err)
	}
	pages, err := api.PageCountFile(out)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", out, err)
	}
	return pages, nil
}
