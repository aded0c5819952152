// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-autoprice/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForNoTool returns hints when no conversion tool can run.
func ForNoTool() string {
	var hints []string
	if os.Getenv("LIBREOFFICE_PATH") == "" {
		hints = append(hints, "install LibreOffice or set LIBREOFFICE_PATH")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "install Chrome or set ROD_BROWSER_BIN")
	}
	hints = append(hints, "check tools.disabled in the config; run 'autoprice tools' to see detection")
	return formatHints(hints)
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the per-document timeout.
func ForTimeout() string {
	return format("a cold LibreOffice start can be slow; raise --timeout or tools.timeout")
}

// ForMissingInput returns hints when the data file or template is absent.
func ForMissingInput() string {
	return format("pass --source/--template, or set source.a4/a5 and template.a4/a5 in the config")
}

// ForRunInProgress returns hints when the output directory is locked.
func ForRunInProgress() string {
	return format("wait for the other run to finish, or use a different --output directory")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml or run 'autoprice config init'"

	for _, p := range searchedPaths {
		if strings.Contains(p, "autoprice") {
			hint += " (searched " + p + ")"
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
