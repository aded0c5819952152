package main

import (
	"errors"
	"os"

	"github.com/alnah/go-autoprice"
	"github.com/alnah/go-autoprice/internal/config"
	"github.com/alnah/go-autoprice/internal/fileutil"
	"github.com/alnah/go-autoprice/internal/sheet"
)

// Exit codes for the autoprice CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Merged PDF written, no item errors
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or job
	ExitIO      = 3 // Missing input, unreadable source, merge write
	ExitTool    = 4 // No conversion tool, or the requested one is unavailable
	ExitPartial = 5 // Merged PDF written, some rows or documents failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrPartialRun) {
		return ExitPartial
	}

	// Tool errors (exit 4)
	if errors.Is(err, autoprice.ErrNoToolAvailable) ||
		errors.Is(err, autoprice.ErrToolUnavailable) ||
		errors.Is(err, autoprice.ErrBrowserConnect) {
		return ExitTool
	}

	// I/O errors (exit 3)
	if errors.Is(err, autoprice.ErrMissingInput) ||
		errors.Is(err, autoprice.ErrSourceUnreadable) ||
		errors.Is(err, autoprice.ErrMergeFailed) ||
		errors.Is(err, autoprice.ErrRunInProgress) ||
		errors.Is(err, sheet.ErrUnsupportedFormat) ||
		errors.Is(err, fileutil.ErrEmptyPath) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, os.ErrExist) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, autoprice.ErrInvalidJob) {
		return ExitUsage
	}

	return ExitGeneral
}
