package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-autoprice"
	"github.com/alnah/go-autoprice/internal/docx"
	"github.com/alnah/go-autoprice/internal/fileutil"
	"github.com/alnah/go-autoprice/internal/history"
)

// ---------------------------------------------------------------------------
// TestRunCommand - Full batch through the CLI
// ---------------------------------------------------------------------------

func TestRunCommand_Success(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, 3)
	env := newTestEnv()
	code := env.execute(t, "run", "-c", w.config, "--tool", "native")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}

	out := filepath.Join(w.output, "A5-Auto-Tong.pdf")
	if !fileutil.FileExists(out) {
		t.Fatalf("merged PDF %s not written", out)
	}
	entries, err := os.ReadDir(w.output)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") { // the run lock file stays
			names = append(names, e.Name())
		}
	}
	if len(names) != 1 {
		t.Errorf("output dir holds %v, want only the merged PDF", names)
	}

	summary := env.stdout.String()
	for _, want := range []string{"Wrote " + out, "(2 pages", "Rows: 3  Documents: 2  Converted: 2", "native"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary %q missing %q", summary, want)
		}
	}
}

func TestRunCommand_FlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, 1)
	outDir := filepath.Join(w.dir, "elsewhere")
	env := newTestEnv()
	code := env.execute(t, "run", "-c", w.config, "--tool", "native",
		"-o", outDir, "--name", "today.pdf", "--no-history", "-q")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if !fileutil.FileExists(filepath.Join(outDir, "today.pdf")) {
		t.Error("--output/--name not applied")
	}
	if env.stdout.Len() != 0 {
		t.Errorf("--quiet should suppress the summary, got %q", env.stdout)
	}
	if fileutil.FileExists(w.history) {
		t.Error("--no-history should not create the history database")
	}
}

func TestRunCommand_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     func(w *workspace) []string
		wantCode int
		wantErr  string
	}{
		{
			name: "missing data file",
			args: func(w *workspace) []string {
				return []string{"-s", filepath.Join(w.dir, "nope.csv")}
			},
			wantCode: ExitIO,
			wantErr:  "input file not found",
		},
		{
			name: "missing template",
			args: func(w *workspace) []string {
				return []string{"-t", filepath.Join(w.dir, "nope.docx")}
			},
			wantCode: ExitIO,
			wantErr:  "hint:",
		},
		{
			name:     "unknown tool",
			args:     func(*workspace) []string { return []string{"--tool", "word"} },
			wantCode: ExitUsage,
			wantErr:  "--tool",
		},
		{
			name:     "disabled tool requested",
			args:     func(*workspace) []string { return []string{"--tool", "libreoffice"} },
			wantCode: ExitTool,
			wantErr:  "unavailable",
		},
		{
			name:     "invalid format",
			args:     func(*workspace) []string { return []string{"-f", "a3"} },
			wantCode: ExitUsage,
			wantErr:  "format",
		},
		{
			name:     "invalid timeout",
			args:     func(*workspace) []string { return []string{"--timeout", "later"} },
			wantCode: ExitUsage,
			wantErr:  "tools.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := newWorkspace(t, 2)
			env := newTestEnv()
			args := append([]string{"run", "-c", w.config, "--no-history"}, tt.args(w)...)
			if code := env.execute(t, args...); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, env.stderr)
			}
			if !strings.Contains(env.stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", env.stderr, tt.wantErr)
			}
		})
	}
}

func TestRunCommand_ConfigNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	code := env.execute(t, "run", "-c", "no-such-config-name")
	if code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(env.stderr.String(), "autoprice config init") {
		t.Errorf("stderr = %q, want the config init hint", env.stderr)
	}
}

// ---------------------------------------------------------------------------
// TestHistoryCommand - Runs recorded by run
// ---------------------------------------------------------------------------

func TestHistoryCommand(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, 2)

	env := newTestEnv()
	if code := env.execute(t, "history", "-c", w.config); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "No runs recorded yet.") {
		t.Errorf("empty history output = %q", env.stdout)
	}
	if fileutil.FileExists(w.history) {
		t.Error("listing an empty history should not create the database")
	}

	if code := newTestEnv().execute(t, "run", "-c", w.config, "--tool", "native"); code != ExitSuccess {
		t.Fatalf("run exit code = %d", code)
	}
	// A failed run is recorded too.
	if code := newTestEnv().execute(t, "run", "-c", w.config, "-s", filepath.Join(w.dir, "gone.csv")); code != ExitIO {
		t.Fatalf("failing run exit code = %d, want %d", code, ExitIO)
	}

	env = newTestEnv()
	if code := env.execute(t, "history", "-c", w.config, "--json"); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	var entries []history.Entry
	if err := json.Unmarshal(env.stdout.Bytes(), &entries); err != nil {
		t.Fatalf("history --json is not JSON: %v\n%s", err, env.stdout)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	var complete, failed int
	for _, e := range entries {
		switch e.Status {
		case history.StatusComplete:
			complete++
			if e.Documents != 1 || e.Pages != 1 || e.Tool != string(autoprice.ToolNative) {
				t.Errorf("complete entry = %+v", e)
			}
		case history.StatusFailed:
			failed++
			if e.FailedStage != autoprice.StageValidating.String() || e.Error == "" {
				t.Errorf("failed entry = %+v", e)
			}
		}
	}
	if complete != 1 || failed != 1 {
		t.Errorf("statuses: %d complete, %d failed, want 1 and 1", complete, failed)
	}

	env = newTestEnv()
	if code := env.execute(t, "history", "-c", w.config, "-n", "1"); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	table := env.stdout.String()
	if !strings.Contains(table, "STATUS") {
		t.Errorf("table output = %q, want a STATUS header", table)
	}
	if !strings.Contains(table, history.StatusComplete) && !strings.Contains(table, history.StatusFailed) {
		t.Errorf("table output = %q, want a status cell", table)
	}
}

func TestHistoryCommand_InvalidLimit(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	if code := env.execute(t, "history", "-n", "0"); code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
}

// ---------------------------------------------------------------------------
// TestToolsCommand - Tool listing
// ---------------------------------------------------------------------------

func TestToolsCommand_JSON(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, 0)
	env := newTestEnv()
	if code := env.execute(t, "tools", "-c", w.config, "--json"); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}

	var report toolsReport
	if err := json.Unmarshal(env.stdout.Bytes(), &report); err != nil {
		t.Fatalf("tools --json is not JSON: %v", err)
	}
	if report.Selected != autoprice.ToolNative {
		t.Errorf("Selected = %q, want native", report.Selected)
	}
	if len(report.Tools) != 3 {
		t.Fatalf("len(Tools) = %d, want 3", len(report.Tools))
	}
	for i, want := range []autoprice.ToolID{autoprice.ToolNative, autoprice.ToolChrome, autoprice.ToolLibreOffice} {
		if report.Tools[i].ID != want {
			t.Errorf("Tools[%d] = %q, want %q (priority order)", i, report.Tools[i].ID, want)
		}
	}
	if report.Tools[2].Available {
		t.Error("disabled libreoffice reported as available")
	}
}

func TestToolsCommand_NoneAvailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "cfg.yaml")
	writeFile(t, cfg, "tools:\n  disabled: [native, chrome, libreoffice]\n")

	env := newTestEnv()
	if code := env.execute(t, "tools", "-c", cfg); code != ExitTool {
		t.Errorf("exit code = %d, want %d", code, ExitTool)
	}
	if !strings.Contains(env.stdout.String(), "disabled by configuration") {
		t.Errorf("table should still be printed, got %q", env.stdout)
	}
	if !strings.Contains(env.stderr.String(), "hint:") {
		t.Errorf("stderr = %q, want a hint", env.stderr)
	}
}

// ---------------------------------------------------------------------------
// TestCheckCommand - Template and data validation
// ---------------------------------------------------------------------------

func TestCheckCommand(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, 3)
	env := newTestEnv()
	if code := env.execute(t, "check", "-c", w.config, "--json"); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	var res checkResult
	if err := json.Unmarshal(env.stdout.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Rows != 3 || res.Documents != 2 {
		t.Errorf("rows/documents = %d/%d, want 3/2", res.Rows, res.Documents)
	}
	if len(res.Unknown) != 0 {
		t.Errorf("Unknown = %v, want none", res.Unknown)
	}
	if !strings.Contains(strings.Join(res.Unused, ","), "Qua1") {
		t.Errorf("Unused = %v, want it to list Qua1", res.Unused)
	}
}

func TestCheckCommand_UnknownPlaceholder(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, 1)
	tmpl := filepath.Join(w.dir, "typo.docx")
	if err := docx.Create(tmpl, &docx.Document{Paragraphs: []string{"{{ Model }} {{ GiaKhuyenMai }}"}}); err != nil {
		t.Fatal(err)
	}

	env := newTestEnv()
	code := env.execute(t, "check", "-c", w.config, "-f", "a4", "-s", w.source, "-t", tmpl)
	if code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(env.stderr.String(), "{{ GiaKhuyenMai }}") {
		t.Errorf("stderr = %q, want a warning naming the placeholder", env.stderr)
	}
}

// ---------------------------------------------------------------------------
// TestConfigCommand - init and show
// ---------------------------------------------------------------------------

func TestConfigInit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "autoprice.yaml")
	templates := filepath.Join(dir, "templates")

	env := newTestEnv()
	if code := env.execute(t, "config", "init", path, "--templates", templates); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	for _, p := range []string{path, filepath.Join(templates, "A4-Auto.docx"), filepath.Join(templates, "A5-AUTO.docx")} {
		if !fileutil.FileExists(p) {
			t.Errorf("%s not written", p)
		}
	}

	names, err := docx.Placeholders(filepath.Join(templates, "A5-AUTO.docx"))
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 18 {
		t.Errorf("A5 sample has %d placeholders, want 18: %v", len(names), names)
	}

	env = newTestEnv()
	if code := env.execute(t, "config", "show", "-c", path); code != ExitSuccess {
		t.Fatalf("show exit code = %d, stderr: %s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), filepath.Join(templates, "A5-AUTO.docx")) {
		t.Errorf("config should point at the sample templates:\n%s", env.stdout)
	}

	env = newTestEnv()
	if code := env.execute(t, "config", "init", path); code != ExitIO {
		t.Errorf("second init exit code = %d, want %d", code, ExitIO)
	}
	if code := newTestEnv().execute(t, "config", "init", path, "--overwrite"); code != ExitSuccess {
		t.Errorf("--overwrite exit code = %d, want %d", code, ExitSuccess)
	}
}

func TestConfigInit_TOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "autoprice.toml")
	if code := newTestEnv().execute(t, "config", "init", path); code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("format = 'a5'")) && !bytes.Contains(data, []byte(`format = "a5"`)) {
		t.Errorf("expected TOML output, got:\n%s", data)
	}
}

func TestConfigShow_Defaults(t *testing.T) {
	t.Parallel()

	cfg := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, cfg, "{}\n")

	env := newTestEnv()
	if code := env.execute(t, "config", "show", "-c", cfg); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "a5Name: A5-Auto-Tong.pdf") {
		t.Errorf("defaults missing from output:\n%s", env.stdout)
	}
}
