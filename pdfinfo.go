package autoprice

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// countPages returns the page count of a PDF file.
func countPages(path string) (n int, err error) {
	defer func() {
		// The reader panics on some malformed files.
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("reading %s: %v", path, r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return r.NumPage(), nil
}
