// Package config loads, validates and writes the autoprice configuration.
//
// A configuration is decoded on top of DefaultConfig, so a file only needs
// the keys it changes. YAML is the primary format; files ending in .toml are
// decoded as TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-autoprice/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppDir is the directory name used under the user config and cache dirs.
const AppDir = "autoprice"

// Format modes accepted by Config.Format.
const (
	FormatA4 = "a4"
	FormatA5 = "a5"
)

// Tool identifiers accepted by tools.preferred and tools.disabled.
var KnownTools = []string{"native", "chrome", "libreoffice"}

// Config holds all configuration for a batch run.
type Config struct {
	Format    string        `yaml:"format" toml:"format"`       // "a4" or "a5"
	BatchSize int           `yaml:"batchSize" toml:"batchSize"` // progress log cadence, in documents
	Source    PairConfig    `yaml:"source" toml:"source"`
	Template  PairConfig    `yaml:"template" toml:"template"`
	Output    OutputConfig  `yaml:"output" toml:"output"`
	Tools     ToolsConfig   `yaml:"tools" toml:"tools"`
	Render    RenderConfig  `yaml:"render" toml:"render"`
	Log       LogConfig     `yaml:"log" toml:"log"`
	History   HistoryConfig `yaml:"history" toml:"history"`
}

// PairConfig holds one path per format mode.
type PairConfig struct {
	A4 string `yaml:"a4" toml:"a4"`
	A5 string `yaml:"a5" toml:"a5"`
}

// OutputConfig defines where merged PDFs are written.
type OutputConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	A4Name string `yaml:"a4Name" toml:"a4Name"`
	A5Name string `yaml:"a5Name" toml:"a5Name"`
}

// ToolsConfig defines conversion tool selection.
type ToolsConfig struct {
	Preferred       string   `yaml:"preferred" toml:"preferred"` // empty = auto
	LibreOfficePath string   `yaml:"libreofficePath" toml:"libreofficePath"`
	BrowserPath     string   `yaml:"browserPath" toml:"browserPath"`
	Timeout         string   `yaml:"timeout" toml:"timeout"` // Go duration, e.g. "60s"
	Disabled        []string `yaml:"disabled" toml:"disabled"`
	FontPath        string   `yaml:"fontPath" toml:"fontPath"` // TTF for the native converter
}

// RenderConfig defines field formatting.
type RenderConfig struct {
	Currency      string `yaml:"currency" toml:"currency"`
	MaxCategoryA4 int    `yaml:"maxCategoryA4" toml:"maxCategoryA4"`
	MaxCategoryA5 int    `yaml:"maxCategoryA5" toml:"maxCategoryA5"`
}

// LogConfig defines logger construction.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "console" or "json"
}

// HistoryConfig defines the run history ledger.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"` // empty = <UserCacheDir>/autoprice/history.db
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Format:    FormatA5,
		BatchSize: 10,
		Source:    PairConfig{A4: "A4-Auto.xlsx", A5: "A5-AUTO.xlsx"},
		Template:  PairConfig{A4: "A4-Auto.docx", A5: "A5-AUTO.docx"},
		Output:    OutputConfig{Dir: "In_PDF", A4Name: "A4-Auto-Tong.pdf", A5Name: "A5-Auto-Tong.pdf"},
		Tools:     ToolsConfig{Timeout: "60s"},
		Render:    RenderConfig{Currency: "đ", MaxCategoryA4: 29, MaxCategoryA5: 31},
		Log:       LogConfig{Level: "info", Format: "console"},
		History:   HistoryConfig{Enabled: true},
	}
}

// Validate checks values that would otherwise fail deep inside a run.
// Called automatically by LoadConfig, but available for callers that build
// a Config by hand or apply overrides after loading.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatA4, FormatA5:
	default:
		return fmt.Errorf("%w: format: %q (must be a4 or a5)", ErrInvalidValue, c.Format)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batchSize: must be positive, got %d", ErrInvalidValue, c.BatchSize)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("%w: output.dir: required", ErrInvalidValue)
	}
	if c.Tools.Preferred != "" && !slices.Contains(KnownTools, c.Tools.Preferred) {
		return fmt.Errorf("%w: tools.preferred: unknown tool %q (known: %s)",
			ErrInvalidValue, c.Tools.Preferred, strings.Join(KnownTools, ", "))
	}
	for _, d := range c.Tools.Disabled {
		if !slices.Contains(KnownTools, d) {
			return fmt.Errorf("%w: tools.disabled: unknown tool %q", ErrInvalidValue, d)
		}
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.Render.MaxCategoryA4 < 4 || c.Render.MaxCategoryA5 < 4 {
		return fmt.Errorf("%w: render.maxCategoryA4/A5: must be at least 4", ErrInvalidValue)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log.format: %q (must be console or json)", ErrInvalidValue, c.Log.Format)
	}
	return nil
}

// Timeout parses tools.timeout. An empty value means the 60s default.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Tools.Timeout == "" {
		return 60 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Tools.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: tools.timeout: %q (must be a positive duration like 60s)", ErrInvalidValue, c.Tools.Timeout)
	}
	return d, nil
}

// SourceFor returns the data file configured for a format mode.
func (c *Config) SourceFor(format string) string {
	if format == FormatA4 {
		return c.Source.A4
	}
	return c.Source.A5
}

// TemplateFor returns the template configured for a format mode.
func (c *Config) TemplateFor(format string) string {
	if format == FormatA4 {
		return c.Template.A4
	}
	return c.Template.A5
}

// OutputNameFor returns the merged file name for a format mode.
func (c *Config) OutputNameFor(format string) string {
	if format == FormatA4 {
		return c.Output.A4Name
	}
	return c.Output.A5Name
}

// MaxCategoryFor returns the category truncation limit for a format mode.
func (c *Config) MaxCategoryFor(format string) int {
	if format == FormatA4 {
		return c.Render.MaxCategoryA4
	}
	return c.Render.MaxCategoryA5
}

// HistoryPath returns the history database path, defaulting under the user cache dir.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating cache dir: %w", err)
	}
	return filepath.Join(dir, AppDir, "history.db"), nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator or a config extension, it's treated
// as a file path.
// Otherwise, it searches for <name>.yaml, <name>.yml and <name>.toml in the
// current directory, then in the user config directory.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) || slices.Contains(extensions, strings.ToLower(filepath.Ext(nameOrPath))) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(configPath, data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension.
// Existing files are left alone unless overwrite is set.
func Save(cfg *Config, path string, overwrite bool) error {
	if !overwrite && fileutil.FileExists(path) {
		return fmt.Errorf("%w: %s", os.ErrExist, path)
	}
	data, err := encode(path, cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fileutil.EnsureDir(dir); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil { // #nosec G306 -- user config
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// SearchPaths lists the files LoadConfig tries for a config name, in order.
func SearchPaths(name string) []string {
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDir, name+ext))
		}
	}
	return paths
}

var extensions = []string{".yaml", ".yml", ".toml"}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
