package autoprice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-autoprice/internal/fileutil"
	"github.com/alnah/go-autoprice/internal/process"
)

// alternateOutputSubdir is where some soffice builds place converted files
// relative to --outdir.
const alternateOutputSubdir = "In_PDF"

// DefaultToolTimeout bounds one external conversion.
const DefaultToolTimeout = 60 * time.Second

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec. The command runs in its
// own process group, which is killed as a whole when ctx ends.
type ExecRunner struct{}

var _ CommandRunner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- tool path comes from detection
	process.Isolate(cmd)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// libreOfficeConverter converts through `soffice --headless --convert-to pdf`.
type libreOfficeConverter struct {
	path       string
	timeout    time.Duration
	runner     CommandRunner
	profileDir string // parent of the per-call user profiles; empty = os.TempDir()
}

var _ ConverterPort = (*libreOfficeConverter)(nil)

func newLibreOfficeConverter(path string, timeout time.Duration, runner CommandRunner) *libreOfficeConverter {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &libreOfficeConverter{path: path, timeout: timeout, runner: runner}
}

func (c *libreOfficeConverter) Available() bool {
	return fileutil.FileExists(c.path)
}

func (c *libreOfficeConverter) Close() error { return nil }

// ToPDF converts sourcePath into its own directory. Each call gets a fresh
// user profile so a running LibreOffice instance cannot swallow the request.
func (c *libreOfficeConverter) ToPDF(ctx context.Context, sourcePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	outDir := filepath.Dir(sourcePath)
	parent := c.profileDir
	if parent == "" {
		parent = os.TempDir()
	}
	profile := filepath.Join(parent, "lo-"+uuid.NewString())
	defer func() { _ = os.RemoveAll(profile) }()

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"-env:UserInstallation=" + fileURL(profile),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		sourcePath,
	}
	_, stderr, err := c.runner.Run(runCtx, c.path, args...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: libreoffice after %v", ErrConversionTimeout, c.timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr); msg != "" {
			return "", fmt.Errorf("%w: libreoffice: %v: %s", ErrToolFailed, err, msg)
		}
		return "", fmt.Errorf("%w: libreoffice: %v", ErrToolFailed, err)
	}

	name := filepath.Base(fileutil.ReplaceExt(sourcePath, ".pdf"))
	if out, ok := fileutil.FirstExisting(outDir, name, filepath.Join(alternateOutputSubdir, name)); ok {
		return out, nil
	}
	return "", fmt.Errorf("%w: %s", ErrOutputMissing, filepath.Join(outDir, name))
}

// fileURL turns a local path into the file:/// form soffice expects.
func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
