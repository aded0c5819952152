package autoprice

import "errors"

// Sentinel errors for library operations.
var (
	// Tool selection errors.
	ErrNoToolAvailable = errors.New("no conversion tool available")
	ErrToolUnavailable = errors.New("conversion tool unavailable")

	// Per-tool conversion errors. Any of these triggers fallback.
	ErrToolFailed        = errors.New("conversion tool failed")
	ErrConversionTimeout = errors.New("conversion timed out")
	ErrOutputMissing     = errors.New("conversion produced no output file")
	ErrBrowserConnect    = errors.New("failed to connect to browser")
	ErrPDFGeneration     = errors.New("PDF generation failed")

	// Run errors that stop the pipeline.
	ErrMissingInput        = errors.New("input file not found")
	ErrSourceUnreadable    = errors.New("source data unreadable")
	ErrNoDocumentsProduced = errors.New("no documents produced")
	ErrMergeFailed         = errors.New("merging PDFs failed")
	ErrRunInProgress       = errors.New("another run holds the output directory")
	ErrInvalidJob          = errors.New("invalid batch job")

	// Per-item errors collected in the run report.
	ErrRenderFailed     = errors.New("template rendering failed")
	ErrConversionFailed = errors.New("conversion failed with every available tool")
	ErrCleanupFailed    = errors.New("removing intermediate file failed")
)
