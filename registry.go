package autoprice

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-autoprice/internal/fileutil"
)

// Environment variables read during detection.
const (
	EnvLibreOfficePath = "LIBREOFFICE_PATH"
	EnvBrowserBin      = "ROD_BROWSER_BIN"
)

// Fixed tool priorities. In-process work beats driving a browser, which
// beats launching an office suite.
const (
	priorityNative      = 1
	priorityChrome      = 2
	priorityLibreOffice = 3
)

// DetectOptions configures tool probing.
type DetectOptions struct {
	WorkDir         string // base for relative install locations; empty = cwd
	LibreOfficePath string // explicit soffice path, tried first
	BrowserPath     string // explicit Chrome/Chromium path, tried first
	Disabled        []ToolID

	// Test seams. Nil means the real implementation.
	Getenv      func(string) string
	LookPath    func(string) (string, error)
	LookBrowser func() (string, bool)
	GOOS        string
}

// Registry detects which conversion tools can run on this machine.
type Registry struct {
	opts DetectOptions
}

// NewRegistry returns a registry probing with opts.
func NewRegistry(opts DetectOptions) *Registry {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.LookBrowser == nil {
		opts.LookBrowser = launcher.LookPath
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.WorkDir = wd
		}
	}
	return &Registry{opts: opts}
}

// Detect checks every known tool and returns a fresh descriptor map.
// A missing tool is reported as unavailable, never as an error.
func (r *Registry) Detect() map[ToolID]ToolDescriptor {
	tools := map[ToolID]ToolDescriptor{
		ToolNative:      r.detectNative(),
		ToolChrome:      r.detectChrome(),
		ToolLibreOffice: r.detectLibreOffice(),
	}
	for _, id := range r.opts.Disabled {
		if d, ok := tools[id]; ok {
			d.Available = false
			d.Detail = "disabled by configuration"
			tools[id] = d
		}
	}
	return tools
}

// SelectBest detects tools and returns the preferred available one.
func (r *Registry) SelectBest() (ToolID, error) {
	return SelectBest(r.Detect())
}

func (r *Registry) detectNative() ToolDescriptor {
	return ToolDescriptor{
		ID:          ToolNative,
		Name:        "Native PDF writer",
		Priority:    priorityNative,
		Available:   true,
		Description: "in-process text layout with gofpdf",
	}
}

func (r *Registry) detectChrome() ToolDescriptor {
	d := ToolDescriptor{
		ID:          ToolChrome,
		Name:        "Headless Chrome",
		Priority:    priorityChrome,
		Description: "HTML rendering printed to PDF through go-rod",
	}
	for _, p := range []string{r.opts.BrowserPath, r.opts.Getenv(EnvBrowserBin)} {
		if fileutil.FileExists(p) {
			d.Available, d.Path = true, p
			return d
		}
	}
	if p, ok := r.opts.LookBrowser(); ok && fileutil.FileExists(p) {
		d.Available, d.Path = true, p
		return d
	}
	d.Detail = "Chrome/Chromium not found; install it or set " + EnvBrowserBin
	return d
}

func (r *Registry) detectLibreOffice() ToolDescriptor {
	d := ToolDescriptor{
		ID:          ToolLibreOffice,
		Name:        "LibreOffice",
		Priority:    priorityLibreOffice,
		Description: "soffice headless conversion in a subprocess",
	}
	if p, ok := r.findLibreOffice(); ok {
		d.Available, d.Path = true, p
		return d
	}
	d.Detail = "soffice not found; install LibreOffice or set " + EnvLibreOfficePath
	return d
}

// findLibreOffice returns the first soffice found, in this order: the
// configured path, LIBREOFFICE_PATH, portable installs under the working
// directory, PATH, then the platform's default install location.
func (r *Registry) findLibreOffice() (string, bool) {
	for _, p := range []string{r.opts.LibreOfficePath, r.opts.Getenv(EnvLibreOfficePath)} {
		if fileutil.FileExists(p) {
			return p, true
		}
	}
	if p, ok := fileutil.FirstExisting(r.opts.WorkDir, relativeSofficeCandidates(r.opts.GOOS)...); ok {
		return p, true
	}
	for _, name := range []string{"soffice", "libreoffice"} {
		if p, err := r.opts.LookPath(name); err == nil {
			return p, true
		}
	}
	return fileutil.FirstExisting("", systemSofficeCandidates(r.opts.GOOS)...)
}

var sofficeDirs = []string{
	"LibreOfficePortable/App/libreoffice/program",
	"libreoffice/program",
	"bin/LibreOffice/program",
}

func relativeSofficeCandidates(goos string) []string {
	names := []string{"soffice.exe", "soffice.com"}
	if goos != "windows" {
		names = append(names, "soffice")
	}
	out := make([]string, 0, len(sofficeDirs)*len(names))
	for _, dir := range sofficeDirs {
		for _, name := range names {
			out = append(out, filepath.Join(filepath.FromSlash(dir), name))
		}
	}
	return out
}

func systemSofficeCandidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\LibreOffice\program\soffice.exe`,
			`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
		}
	case "darwin":
		return []string{"/Applications/LibreOffice.app/Contents/MacOS/soffice"}
	default:
		return []string{"/usr/bin/soffice", "/usr/lib/libreoffice/program/soffice", "/opt/libreoffice/program/soffice"}
	}
}
