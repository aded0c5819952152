package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alnah/go-autoprice"
	"github.com/alnah/go-autoprice/internal/config"
	"github.com/alnah/go-autoprice/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage      = errors.New("invalid usage")
	ErrPartialRun = errors.New("run finished with errors")
)

// printError writes err to w with a hint for the failures users can fix.
// Cancellation is silent: the user asked for it.
func printError(w io.Writer, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintf(w, "error: %v%s\n", err, hintFor(err))
}

func hintFor(err error) string {
	var notFound *configNotFoundError
	switch {
	case errors.As(err, &notFound):
		return hints.ForConfigNotFound(notFound.searched)
	case errors.Is(err, autoprice.ErrNoToolAvailable):
		return hints.ForNoTool()
	case errors.Is(err, autoprice.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, autoprice.ErrConversionTimeout):
		return hints.ForTimeout()
	case errors.Is(err, autoprice.ErrMissingInput):
		return hints.ForMissingInput()
	case errors.Is(err, autoprice.ErrRunInProgress):
		return hints.ForRunInProgress()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, os.ErrPermission):
		return hints.ForOutputDirectory()
	}
	return ""
}

// configNotFoundError carries the paths tried for a config name.
type configNotFoundError struct {
	name     string
	searched []string
	err      error
}

func (e *configNotFoundError) Error() string {
	return fmt.Sprintf("loading config %q: %v", e.name, e.err)
}

func (e *configNotFoundError) Unwrap() error { return e.err }
